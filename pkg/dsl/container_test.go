package dsl_test

import (
	"context"
	"testing"

	"github.com/aretw0/relay/pkg/domain"
	"github.com/aretw0/relay/pkg/dsl"
	"github.com/aretw0/relay/pkg/observability"
	"github.com/aretw0/relay/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEcho() *dsl.Container {
	c := dsl.NewTool("Echo", "Echoes things back")
	c.Capability(dsl.RouteOptions{Name: "Message", Description: "Echo a message"}).
		Input(schema.Object(schema.Field("message", schema.String()))).
		Handler(echo)
	return c
}

func TestContainer_Kinds(t *testing.T) {
	assert.Equal(t, dsl.KindApp, dsl.NewApp("A", "").Kind())
	assert.Equal(t, dsl.KindTool, dsl.NewTool("T", "").Kind())
}

func TestContainer_RunResolvesNames(t *testing.T) {
	c := dsl.NewApp("Routes", "")
	c.Route(dsl.RouteOptions{Name: "First Route"}).Handler(func(context.Context, any, domain.Context) (any, error) {
		return "first", nil
	})
	c.Route(dsl.RouteOptions{Name: "Second", Path: "/second"}).Handler(func(context.Context, any, domain.Context) (any, error) {
		return "second", nil
	})

	for _, name := range []string{"First Route", "first route", "first_route", "FIRST ROUTE"} {
		inv, err := c.Run(name)
		require.NoError(t, err, name)
		res, err := inv.Handle(context.Background(), dsl.Invocation{})
		require.NoError(t, err)
		assert.Equal(t, "first", res, name)
	}

	inv, err := c.Run("/second")
	require.NoError(t, err)
	assert.Equal(t, "Second", inv.Operation().Name())

	_, err = c.Run("unrelated")
	require.Error(t, err)
	assert.ErrorIs(t, err, dsl.ErrOperationNotFound)
	var nf *dsl.OperationNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "Routes", nf.Container)
}

func TestContainer_LookupPrefersNameOverPath(t *testing.T) {
	c := dsl.NewApp("Routes", "")
	c.Route(dsl.RouteOptions{Name: "Archive", Path: "status"}).Handler(echo)
	c.Route(dsl.RouteOptions{Name: "Status"}).Handler(echo)

	op, ok := c.Lookup("status")
	require.True(t, ok)
	assert.Equal(t, "Status", op.Name())

	op, ok = c.Lookup("Archive")
	require.True(t, ok)
	assert.Equal(t, "status", op.Path())
}

func TestContainer_RootContext(t *testing.T) {
	var seen domain.Context
	c := dsl.NewApp("Ctx", "").
		Context(domain.Context{"tenant": "a", "region": "eu"}).
		Context(domain.Context{"tenant": "b"})
	c.Route(dsl.RouteOptions{Name: "Read"}).Handler(func(_ context.Context, _ any, ctx domain.Context) (any, error) {
		seen = ctx
		return nil, nil
	})

	inv, err := c.Run("read")
	require.NoError(t, err)
	_, err = inv.Handle(context.Background(), dsl.Invocation{Context: domain.Context{"user": "u1"}})
	require.NoError(t, err)

	assert.Equal(t, domain.Context{"tenant": "b", "region": "eu", "user": "u1"}, seen)
	assert.Equal(t, domain.Context{"tenant": "b", "region": "eu"}, c.RootContext())
}

func TestContainer_Functions(t *testing.T) {
	c := newEcho()
	c.Capability(dsl.RouteOptions{Name: "Ping Pong"}).Handler(echo)

	defs := c.Functions()
	require.Len(t, defs, 2)

	assert.Equal(t, domain.FunctionType, defs[0].Type)
	assert.Equal(t, "echo-message", defs[0].Function.Name)
	assert.Equal(t, "Echo a message", defs[0].Function.Description)
	assert.Equal(t, map[string]any{
		"type":       "object",
		"properties": map[string]any{"message": map[string]any{"type": "string"}},
		"required":   []string{"message"},
	}, defs[0].Function.Parameters)

	assert.Equal(t, "echo-ping_pong", defs[1].Function.Name)
	assert.Equal(t, schema.EmptyObject(), defs[1].Function.Parameters)
}

func TestContainer_HandleToolCall(t *testing.T) {
	c := newEcho()

	res, ok, err := c.HandleToolCall(context.Background(), "echo-message", map[string]any{"message": "hi"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"message": "hi"}, res)

	res, ok, err = c.HandleToolCall(context.Background(), "nonexistent-x", map[string]any{})
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, res)

	_, ok, _ = c.HandleToolCall(context.Background(), "echo-unknown", nil)
	assert.False(t, ok)
}

func TestContainer_HandleToolCallFlagsContext(t *testing.T) {
	var seen domain.Context
	c := dsl.NewTool("Flags", "").Context(domain.Context{"env": "test"})
	c.Capability(dsl.RouteOptions{Name: "Check"}).Handler(func(_ context.Context, _ any, ctx domain.Context) (any, error) {
		seen = ctx
		return nil, nil
	})

	_, ok, err := c.HandleToolCall(context.Background(), "flags-check", nil)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, seen.FromToolCall())
	assert.Equal(t, "test", seen["env"])
}

func TestContainer_DebugCascades(t *testing.T) {
	c := dsl.NewApp("Dbg", "")
	before := c.Route(dsl.RouteOptions{Name: "Before"})
	c.Debug()
	after := c.Route(dsl.RouteOptions{Name: "After"})

	assert.True(t, before.Debugging())
	assert.True(t, after.Debugging())
}

func TestContainer_ToolCallTracing(t *testing.T) {
	rec := observability.NewRecorder()
	c := newEcho().WithTracer(rec).Debug()

	_, ok, err := c.HandleToolCall(context.Background(), "echo-message", map[string]any{"message": "hi"})
	require.NoError(t, err)
	require.True(t, ok)

	events := rec.Events()
	assert.Equal(t, []domain.EventType{domain.EventStart, domain.EventFormat, domain.EventSuccess}, rec.Types())
	for _, e := range events {
		assert.Equal(t, events[0].ID, e.ID)
		assert.Equal(t, domain.SourceToolCall, e.Source)
		assert.Equal(t, "Echo", e.Container)
	}
}

func TestContainer_ToolCallTracingReportsErrors(t *testing.T) {
	rec := observability.NewRecorder()
	c := newEcho().WithTracer(rec).Debug()

	res, ok, err := c.HandleToolCall(context.Background(), "echo-message", map[string]any{"message": 7})
	require.True(t, ok)
	require.Error(t, err, "invalid input propagates through the default formatter")
	assert.Nil(t, res)
	assert.Equal(t, []domain.EventType{domain.EventStart, domain.EventError}, rec.Types())
}
