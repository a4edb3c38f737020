package tracing

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/procheck/sessiond/internal/infrastructure/logging"
	"github.com/procheck/sessiond/internal/shared/id"
)

// TraceID identifies one request flow end to end.
type TraceID string

// SpanID identifies one operation within a trace.
type SpanID string

// Span is a single timed operation.
type Span struct {
	TraceID    TraceID
	SpanID     SpanID
	ParentID   SpanID
	Name       string
	StartTime  time.Time
	Duration   time.Duration
	Tags       map[string]string
	Error      error
	StatusCode int
}

// Tracer collects completed spans and emits them as structured logs.
type Tracer struct {
	service string
	logger  *logging.Logger
	spans   chan *Span
}

// New creates a tracer and starts its collector.
func New(service string, logger *logging.Logger) *Tracer {
	t := &Tracer{
		service: service,
		logger:  logger,
		spans:   make(chan *Span, 1000),
	}
	go t.collect()
	return t
}

// StartSpan opens a span, inheriting the trace id from ctx or minting
// a fresh one. The returned context carries the new span as parent.
func (t *Tracer) StartSpan(ctx context.Context, name string) (*Span, context.Context) {
	traceID, _ := ctx.Value(traceIDKey).(TraceID)
	if traceID == "" {
		traceID = TraceID(id.NewRequestID())
	}
	parentID, _ := ctx.Value(spanIDKey).(SpanID)

	span := &Span{
		TraceID:   traceID,
		SpanID:    SpanID(id.NewRequestID()),
		ParentID:  parentID,
		Name:      name,
		StartTime: time.Now(),
		Tags:      make(map[string]string),
	}

	ctx = context.WithValue(ctx, traceIDKey, traceID)
	ctx = context.WithValue(ctx, spanIDKey, span.SpanID)
	return span, ctx
}

// Finish stamps the duration.
func (s *Span) Finish() {
	s.Duration = time.Since(s.StartTime)
}

// SetTag adds a tag.
func (s *Span) SetTag(key, value string) {
	s.Tags[key] = value
}

// SetError records a failure.
func (s *Span) SetError(err error) {
	s.Error = err
}

// SetStatus records the HTTP status.
func (s *Span) SetStatus(code int) {
	s.StatusCode = code
}

// Submit queues a finished span; a full buffer drops rather than
// blocking the request path.
func (t *Tracer) Submit(span *Span) {
	select {
	case t.spans <- span:
	default:
		t.logger.Warn("span buffer full, dropping span",
			zap.String("trace_id", string(span.TraceID)))
	}
}

func (t *Tracer) collect() {
	for span := range t.spans {
		fields := []zap.Field{
			zap.String("trace_id", string(span.TraceID)),
			zap.String("span_id", string(span.SpanID)),
			zap.String("operation", span.Name),
			zap.Duration("duration", span.Duration),
			zap.String("service", t.service),
			zap.Int("status", span.StatusCode),
		}
		if span.ParentID != "" {
			fields = append(fields, zap.String("parent_id", string(span.ParentID)))
		}
		if span.Error != nil {
			fields = append(fields, zap.Error(span.Error))
			t.logger.Error("span completed with error", fields...)
			continue
		}
		t.logger.Debug("span completed", fields...)
	}
}

type contextKey string

const (
	traceIDKey contextKey = "trace_id"
	spanIDKey  contextKey = "span_id"
)

// GetTraceID retrieves the trace id from context.
func GetTraceID(ctx context.Context) TraceID {
	traceID, _ := ctx.Value(traceIDKey).(TraceID)
	return traceID
}
