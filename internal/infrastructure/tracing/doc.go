// Package tracing provides lightweight request tracing.
//
// Trace context propagates through the X-Trace-ID and X-Span-ID
// headers; completed spans are emitted as structured logs through a
// buffered async collector, so tracing never blocks the request path.
package tracing
