package dsl

import (
	"context"
	"time"

	"github.com/aretw0/relay/pkg/domain"
	"github.com/aretw0/relay/pkg/observability"
	"github.com/google/uuid"
)

// trace groups the events of one invocation under a single ID.
// A nil *trace is valid and emits nothing.
type trace struct {
	tracer    domain.Tracer
	id        string
	container string
	operation string
	source    string
	started   time.Time
}

func newTrace(tracer domain.Tracer, container, operation, source string) *trace {
	if tracer == nil {
		return nil
	}
	return &trace{
		tracer:    tracer,
		id:        uuid.NewString(),
		container: container,
		operation: operation,
		source:    source,
		started:   time.Now(),
	}
}

func (t *trace) emit(ctx context.Context, typ domain.EventType, input, output any, err error, c domain.Context) {
	if t == nil {
		return
	}
	e := &domain.Event{
		ID:        t.id,
		Type:      typ,
		Timestamp: time.Now(),
		Container: t.container,
		Operation: t.operation,
		Source:    t.source,
		Input:     input,
		Output:    output,
		Error:     err,
		Context:   c.Clone(),
	}
	if typ == domain.EventSuccess || typ == domain.EventError {
		e.Duration = time.Since(t.started)
	}
	t.tracer.Trace(ctx, e)
}

// defaultTracer resolves slog.Default at each event.
var defaultTracer domain.Tracer = observability.NewLogTracer(nil)
