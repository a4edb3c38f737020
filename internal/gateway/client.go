package gateway

import (
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/procheck/sessiond/internal/infrastructure/resilience"
)

// newRestyClient builds the shared HTTP client: retryable transport
// underneath, resty on top, sonic for JSON.
//
// No request timeout is set deliberately: cancellation is context
// driven (user action or tab switch), never wall clock.
func newRestyClient(baseURL string) *resty.Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 2
	retryClient.RetryWaitMin = 250 * time.Millisecond
	retryClient.RetryWaitMax = 2 * time.Second
	retryClient.Logger = nil

	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "ProCheck-Sessiond/1.0")

	client.JSONMarshal = sonic.Marshal
	client.JSONUnmarshal = sonic.Unmarshal
	client.SetTransport(&retryablehttp.RoundTripper{Client: retryClient})

	return client
}

// newBreaker builds the circuit breaker guarding an external service.
func newBreaker(name string) *resilience.Breaker {
	return resilience.New(name, resilience.Settings{
		MaxRequests: 5,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 10 ||
				(counts.Requests >= 20 && float64(counts.TotalFailures)/float64(counts.Requests) > 0.7)
		},
	})
}
