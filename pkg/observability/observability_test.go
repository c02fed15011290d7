package observability_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/aretw0/relay/pkg/domain"
	"github.com/aretw0/relay/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func event(id string, typ domain.EventType) *domain.Event {
	return &domain.Event{
		ID:        id,
		Type:      typ,
		Timestamp: time.Now(),
		Container: "Users",
		Operation: "Create User",
		Source:    domain.SourceDirect,
		Duration:  10 * time.Millisecond,
	}
}

func TestLogTracer(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	tracer := observability.NewLogTracer(logger)

	tracer.Trace(context.Background(), event("1", domain.EventStart))
	e := event("1", domain.EventError)
	e.Error = errors.New("boom")
	tracer.Trace(context.Background(), e)

	out := buf.String()
	assert.Contains(t, out, "operation started")
	assert.Contains(t, out, "operation failed")
	assert.Contains(t, out, "boom")
	assert.Contains(t, out, `operation="Create User"`)
}

func TestRecorderAndMulti(t *testing.T) {
	a := observability.NewRecorder()
	b := observability.NewRecorder()
	tracer := observability.Multi(a, nil, b)

	tracer.Trace(context.Background(), event("1", domain.EventStart))
	tracer.Trace(context.Background(), event("1", domain.EventSuccess))

	assert.Equal(t, []domain.EventType{domain.EventStart, domain.EventSuccess}, a.Types())
	assert.Equal(t, a.Events(), b.Events())

	a.Reset()
	assert.Empty(t, a.Events())
}

func TestRedact(t *testing.T) {
	rec := observability.NewRecorder()
	tracer := observability.Redact(rec)

	e := event("1", domain.EventStart)
	e.Input = map[string]any{
		"name":     "ada",
		"password": "hunter2",
		"nested":   map[string]any{"api_key": "k", "ok": 1},
		"list":     []any{map[string]any{"token": "t"}},
	}
	e.Context = domain.Context{"user_id": "u1", "Authorization": "Bearer x"}
	tracer.Trace(context.Background(), e)

	got := rec.Events()[0]
	in := got.Input.(map[string]any)
	assert.Equal(t, "ada", in["name"])
	assert.Equal(t, observability.Mask, in["password"])
	assert.Equal(t, map[string]any{"api_key": observability.Mask, "ok": 1}, in["nested"])
	assert.Equal(t, []any{map[string]any{"token": observability.Mask}}, in["list"])
	assert.Equal(t, observability.Mask, got.Context["Authorization"])
	assert.Equal(t, "u1", got.Context["user_id"])

	// The original event is untouched.
	assert.Equal(t, "hunter2", e.Input.(map[string]any)["password"])
}

func TestRedact_CustomPatterns(t *testing.T) {
	rec := observability.NewRecorder()
	tracer := observability.Redact(rec, `^ssn$`)

	e := event("1", domain.EventSuccess)
	e.Output = map[string]any{"ssn": "123", "password": "p"}
	tracer.Trace(context.Background(), e)

	out := rec.Events()[0].Output.(map[string]any)
	assert.Equal(t, observability.Mask, out["ssn"])
	assert.Equal(t, "p", out["password"])
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := observability.NewMetrics(reg)
	require.NoError(t, err)

	ctx := context.Background()
	m.Trace(ctx, event("1", domain.EventStart))
	m.Trace(ctx, event("2", domain.EventStart))
	m.Trace(ctx, event("1", domain.EventSuccess))

	count, err := testutil.GatherAndCount(reg, "relay_operation_calls_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 3)

	m.Trace(ctx, event("2", domain.EventError))
	count, err = testutil.GatherAndCount(reg, "relay_operation_calls_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	_, err = observability.NewMetrics(reg)
	assert.Error(t, err, "registering twice must fail")
}

func TestSpanTracer(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	tracer := observability.NewSpanTracer(tp)
	ctx := context.Background()

	tracer.Trace(ctx, event("ok", domain.EventStart))
	tracer.Trace(ctx, event("ok", domain.EventFormat))
	tracer.Trace(ctx, event("ok", domain.EventSuccess))

	tracer.Trace(ctx, event("bad", domain.EventStart))
	failed := event("bad", domain.EventError)
	failed.Error = errors.New("boom")
	tracer.Trace(ctx, failed)

	// An end event without a start is ignored.
	tracer.Trace(ctx, event("orphan", domain.EventSuccess))

	spans := sr.Ended()
	require.Len(t, spans, 2)

	assert.Equal(t, "Users/Create User", spans[0].Name())
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
	require.Len(t, spans[0].Events(), 1)
	assert.Equal(t, "format", spans[0].Events()[0].Name)

	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Equal(t, "boom", spans[1].Status().Description)
}
