package gateway

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"

	"github.com/procheck/sessiond/internal/shared/types"
)

// Store is the persistence gateway for conversation transcripts.
// Saves are idempotent upserts keyed by conversation id.
type Store interface {
	SaveConversation(ctx context.Context, userID string, record *types.ConversationRecord) error
	LoadConversation(ctx context.Context, userID, conversationID string) ([]types.Message, error)
	DeleteConversation(ctx context.Context, userID, conversationID string) error
	ListConversations(ctx context.Context, userID string, limit int) ([]types.ConversationSummary, error)
	UpdateTitle(ctx context.Context, userID, conversationID, title string) error
}

// HTTPStore talks to the conversation storage backend over HTTP.
type HTTPStore struct {
	client *resty.Client
}

// NewHTTPStore creates a store client for the given base URL.
func NewHTTPStore(baseURL string) *HTTPStore {
	return &HTTPStore{
		client: newRestyClient(baseURL),
	}
}

type saveResponse struct {
	Success        bool   `json:"success"`
	ConversationID string `json:"conversation_id,omitempty"`
	Error          string `json:"error,omitempty"`
	Details        string `json:"details,omitempty"`
}

type detailResponse struct {
	Success      bool   `json:"success"`
	Conversation *struct {
		Title    string          `json:"title"`
		Messages []types.Message `json:"messages"`
	} `json:"conversation,omitempty"`
	Error   string `json:"error,omitempty"`
	Details string `json:"details,omitempty"`
}

type listResponse struct {
	Success       bool                        `json:"success"`
	Conversations []types.ConversationSummary `json:"conversations"`
	Total         int                         `json:"total"`
	Error         string                      `json:"error,omitempty"`
}

// SaveConversation upserts a conversation record.
func (s *HTTPStore) SaveConversation(ctx context.Context, userID string, record *types.ConversationRecord) error {
	var result saveResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("user_id", userID).
		SetBody(record).
		SetResult(&result).
		Post("/conversations/save")
	if err != nil {
		return fmt.Errorf("save conversation %s: %w", record.ID, err)
	}
	if resp.IsError() || !result.Success {
		return fmt.Errorf("save conversation %s: %s", record.ID, remoteError(resp.Status(), result.Error, result.Details))
	}
	return nil
}

// LoadConversation fetches a conversation's transcript.
func (s *HTTPStore) LoadConversation(ctx context.Context, userID, conversationID string) ([]types.Message, error) {
	var result detailResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("user_id", userID).
		SetResult(&result).
		Get("/conversations/" + conversationID)
	if err != nil {
		return nil, fmt.Errorf("load conversation %s: %w", conversationID, err)
	}
	if resp.IsError() || !result.Success || result.Conversation == nil {
		return nil, fmt.Errorf("load conversation %s: %s", conversationID, remoteError(resp.Status(), result.Error, result.Details))
	}
	return result.Conversation.Messages, nil
}

// DeleteConversation removes a conversation from durable storage.
func (s *HTTPStore) DeleteConversation(ctx context.Context, userID, conversationID string) error {
	var result saveResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("user_id", userID).
		SetResult(&result).
		Delete("/conversations/" + conversationID)
	if err != nil {
		return fmt.Errorf("delete conversation %s: %w", conversationID, err)
	}
	if resp.IsError() || !result.Success {
		return fmt.Errorf("delete conversation %s: %s", conversationID, remoteError(resp.Status(), result.Error, result.Details))
	}
	return nil
}

// ListConversations returns the user's saved history, newest first.
func (s *HTTPStore) ListConversations(ctx context.Context, userID string, limit int) ([]types.ConversationSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	var result listResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("user_id", userID).
		SetQueryParam("limit", fmt.Sprintf("%d", limit)).
		SetResult(&result).
		Get("/conversations")
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	if resp.IsError() || !result.Success {
		return nil, fmt.Errorf("list conversations: %s", remoteError(resp.Status(), result.Error, ""))
	}
	return result.Conversations, nil
}

// UpdateTitle renames a saved conversation.
func (s *HTTPStore) UpdateTitle(ctx context.Context, userID, conversationID, title string) error {
	if title == "" || len(title) > 200 {
		return fmt.Errorf("update title %s: title must be 1-200 characters", conversationID)
	}
	var result saveResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("user_id", userID).
		SetBody(map[string]string{"title": title}).
		SetResult(&result).
		Put("/conversations/" + conversationID + "/title")
	if err != nil {
		return fmt.Errorf("update title %s: %w", conversationID, err)
	}
	if resp.IsError() || !result.Success {
		return fmt.Errorf("update title %s: %s", conversationID, remoteError(resp.Status(), result.Error, result.Details))
	}
	return nil
}

func remoteError(status, errCode, details string) string {
	switch {
	case errCode != "" && details != "":
		return fmt.Sprintf("%s (%s)", errCode, details)
	case errCode != "":
		return errCode
	default:
		return status
	}
}
