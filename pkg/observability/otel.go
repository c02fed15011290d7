package observability

import (
	"context"
	"sync"

	"github.com/aretw0/relay/pkg/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// SpanTracer turns each invocation into an OpenTelemetry span. The span
// starts on the start event and ends on the success or error event.
type SpanTracer struct {
	tracer trace.Tracer
	spans  sync.Map // event ID -> trace.Span
}

// NewSpanTracer creates a tracer backed by tp.
func NewSpanTracer(tp trace.TracerProvider) *SpanTracer {
	return &SpanTracer{tracer: tp.Tracer("github.com/aretw0/relay")}
}

func spanName(e *domain.Event) string {
	if e.Container == "" {
		return e.Operation
	}
	return e.Container + "/" + e.Operation
}

func (t *SpanTracer) Trace(ctx context.Context, e *domain.Event) {
	switch e.Type {
	case domain.EventStart:
		_, span := t.tracer.Start(ctx, spanName(e),
			trace.WithTimestamp(e.Timestamp),
			trace.WithAttributes(
				attribute.String("relay.event_id", e.ID),
				attribute.String("relay.container", e.Container),
				attribute.String("relay.operation", e.Operation),
				attribute.String("relay.source", e.Source),
			),
		)
		t.spans.Store(e.ID, span)
	case domain.EventFormat:
		if v, ok := t.spans.Load(e.ID); ok {
			v.(trace.Span).AddEvent("format", trace.WithTimestamp(e.Timestamp))
		}
	case domain.EventSuccess, domain.EventError:
		v, ok := t.spans.LoadAndDelete(e.ID)
		if !ok {
			return
		}
		span := v.(trace.Span)
		if e.Type == domain.EventError && e.Error != nil {
			span.RecordError(e.Error)
			span.SetStatus(codes.Error, e.Error.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End(trace.WithTimestamp(e.Timestamp))
	}
}
