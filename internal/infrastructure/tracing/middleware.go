package tracing

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	headerTraceID = "X-Trace-ID"
	headerSpanID  = "X-Span-ID"
)

// HTTPMiddleware opens a span per request, honoring inbound trace
// headers and echoing the assigned ids back to the caller.
func HTTPMiddleware(tracer *Tracer) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if traceID := c.GetHeader(headerTraceID); traceID != "" {
			ctx = context.WithValue(ctx, traceIDKey, TraceID(traceID))
		}
		if spanID := c.GetHeader(headerSpanID); spanID != "" {
			ctx = context.WithValue(ctx, spanIDKey, SpanID(spanID))
		}

		span, ctx := tracer.StartSpan(ctx, c.FullPath())
		span.SetTag("http.method", c.Request.Method)
		span.SetTag("http.url", c.Request.URL.String())

		c.Request = c.Request.WithContext(ctx)
		c.Header(headerTraceID, string(span.TraceID))
		c.Header(headerSpanID, string(span.SpanID))

		c.Next()

		span.SetStatus(c.Writer.Status())
		span.SetTag("http.status", strconv.Itoa(c.Writer.Status()))
		if len(c.Errors) > 0 {
			span.SetError(c.Errors.Last())
		}
		span.Finish()
		tracer.Submit(span)
	}
}
