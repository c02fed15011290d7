package registry_test

import (
	"context"
	"testing"

	"github.com/aretw0/relay/pkg/domain"
	"github.com/aretw0/relay/pkg/dsl"
	"github.com/aretw0/relay/pkg/registry"
	"github.com/aretw0/relay/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constant(v any) dsl.Handler {
	return func(context.Context, any, domain.Context) (any, error) { return v, nil }
}

func echoContainer() *dsl.Container {
	c := dsl.NewTool("Echo", "")
	c.Capability(dsl.RouteOptions{Name: "Message"}).
		Input(schema.Object(schema.Field("message", schema.String()))).
		Handler(func(_ context.Context, in any, _ domain.Context) (any, error) {
			return in.(map[string]any)["message"], nil
		})
	return c
}

func TestRegistry_RegisterAndList(t *testing.T) {
	r := registry.NewRegistry()
	ping := dsl.NewOperation("Ping").Describe("Health check").Handler(constant("pong"))

	require.NoError(t, r.Register(registry.ContainerUnit(echoContainer()), registry.OperationUnit(ping)))

	units := r.Units()
	require.Len(t, units, 2)
	assert.Equal(t, registry.KindContainer, units[0].Kind)
	assert.Equal(t, "container", units[0].Kind.String())
	assert.Equal(t, registry.KindOperation, units[1].Kind)
	assert.Equal(t, "Ping", units[1].Name())

	assert.Len(t, r.Containers(), 1)

	fns := r.Functions()
	require.Len(t, fns, 2)
	assert.Equal(t, "echo-message", fns[0].Function.Name)
	assert.Equal(t, "ping", fns[1].Function.Name)
	assert.Equal(t, "Health check", fns[1].Function.Description)

	u, ok := r.Lookup("ECHO")
	require.True(t, ok)
	assert.Equal(t, "Echo", u.Container.Name())
	_, ok = r.Lookup("missing")
	assert.False(t, ok)
}

func TestRegistry_Collisions(t *testing.T) {
	r := registry.NewRegistry()
	require.NoError(t, r.Register(registry.ContainerUnit(echoContainer())))

	err := r.Register(registry.ContainerUnit(dsl.NewApp("echo", "")))
	assert.ErrorIs(t, err, registry.ErrDuplicate)

	clash := dsl.NewOperation("echo-message").Handler(constant(nil))
	err = r.Register(registry.OperationUnit(clash))
	assert.ErrorIs(t, err, registry.ErrDuplicate)
	assert.Len(t, r.Units(), 1)

	err = r.Register(registry.Unit{})
	assert.Error(t, err)

	assert.Panics(t, func() { r.MustRegister(registry.ContainerUnit(echoContainer())) })
}

func TestRegistry_Invoke(t *testing.T) {
	r := registry.NewRegistry().MustRegister(
		registry.ContainerUnit(echoContainer()),
		registry.OperationUnit(dsl.NewOperation("Ping").Handler(constant("pong"))),
	)
	ctx := context.Background()

	res, err := r.Invoke(ctx, "echo-message", map[string]any{"message": "hi"})
	require.NoError(t, err)
	assert.Equal(t, "hi", res)

	res, err = r.Invoke(ctx, "Echo/Message", map[string]any{"message": "yo"})
	require.NoError(t, err)
	assert.Equal(t, "yo", res)

	res, err = r.Invoke(ctx, "ping", nil)
	require.NoError(t, err)
	assert.Equal(t, "pong", res)

	_, err = r.Invoke(ctx, "nonexistent-x", nil)
	assert.ErrorIs(t, err, registry.ErrNotFound)

	_, err = r.Invoke(ctx, "Echo/Unknown", nil)
	assert.ErrorIs(t, err, dsl.ErrOperationNotFound)
}

func TestRegistry_InvokeLateOperation(t *testing.T) {
	c := echoContainer()
	r := registry.NewRegistry().MustRegister(registry.ContainerUnit(c))
	c.Capability(dsl.RouteOptions{Name: "Late"}).Handler(constant("late"))

	res, err := r.Invoke(context.Background(), "echo-late", nil)
	require.NoError(t, err)
	assert.Equal(t, "late", res)
}
