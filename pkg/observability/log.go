package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/relay/pkg/domain"
)

// LogTracer writes every event to a structured logger.
type LogTracer struct {
	logger *slog.Logger
}

// NewLogTracer creates a tracer logging to logger, or to slog.Default when nil.
func NewLogTracer(logger *slog.Logger) *LogTracer {
	return &LogTracer{logger: logger}
}

func (t *LogTracer) Trace(ctx context.Context, e *domain.Event) {
	logger := t.logger
	if logger == nil {
		logger = slog.Default()
	}

	attrs := []any{
		"id", e.ID,
		"container", e.Container,
		"operation", e.Operation,
		"source", e.Source,
	}

	switch e.Type {
	case domain.EventStart:
		logger.DebugContext(ctx, "operation started", append(attrs, "input", e.Input)...)
	case domain.EventSuccess:
		logger.DebugContext(ctx, "operation succeeded", append(attrs, "output", e.Output, "duration", e.Duration)...)
	case domain.EventError:
		logger.WarnContext(ctx, "operation failed", append(attrs, "error", e.Error, "duration", e.Duration)...)
	case domain.EventFormat:
		logger.DebugContext(ctx, "result formatted", append(attrs, "output", e.Output)...)
	}
}
