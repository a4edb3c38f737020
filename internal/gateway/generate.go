package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-resty/resty/v2"

	"github.com/procheck/sessiond/internal/infrastructure/resilience"
	"github.com/procheck/sessiond/internal/shared/types"
)

// Sender is the send/generate service: it takes a user query and
// resolves with an assistant reply or rejects with an error whose
// message is surfaced inline to the user.
type Sender interface {
	Send(ctx context.Context, content string, skipDialogCheck bool) (*types.Reply, error)
}

// HTTPSender talks to the generate backend over HTTP, guarded by a
// circuit breaker.
type HTTPSender struct {
	client  *resty.Client
	breaker *resilience.Breaker
}

// NewHTTPSender creates a sender client for the given base URL.
func NewHTTPSender(baseURL string) *HTTPSender {
	return &HTTPSender{
		client:  newRestyClient(baseURL),
		breaker: newBreaker("generate"),
	}
}

type generateRequest struct {
	Content         string `json:"content"`
	SkipDialogCheck bool   `json:"skip_dialog_check"`
}

type generateResponse struct {
	Success bool         `json:"success"`
	Reply   *types.Reply `json:"reply,omitempty"`
	Error   string       `json:"error,omitempty"`
}

// Send submits a query and waits for the assistant reply. The error
// message of a rejection is what ends up on the failed message.
func (g *HTTPSender) Send(ctx context.Context, content string, skipDialogCheck bool) (*types.Reply, error) {
	result, err := g.breaker.Execute(func() (interface{}, error) {
		var out generateResponse
		resp, err := g.client.R().
			SetContext(ctx).
			SetBody(generateRequest{Content: content, SkipDialogCheck: skipDialogCheck}).
			SetResult(&out).
			Post("/generate")
		if err != nil {
			return nil, err
		}
		if resp.IsError() || !out.Success || out.Reply == nil {
			if out.Error != "" {
				return nil, errors.New(out.Error)
			}
			return nil, fmt.Errorf("generate service: %s", resp.Status())
		}
		return out.Reply, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*types.Reply), nil
}
