// Package gateway holds the HTTP clients for external collaborators:
// the conversation persistence backend and the send/generate service.
//
// Both clients share the same construction: a retryable transport, a
// resty client on top with sonic JSON, and no request timeout — all
// cancellation is context driven. The generate client additionally
// runs behind a circuit breaker.
package gateway
