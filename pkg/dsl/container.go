package dsl

import (
	"context"
	"strings"

	"github.com/aretw0/relay/pkg/domain"
	"github.com/aretw0/relay/pkg/schema"
)

// ContainerKind distinguishes user-facing apps from agent-facing tools.
// Both behave identically.
type ContainerKind string

const (
	KindApp  ContainerKind = "app"
	KindTool ContainerKind = "tool"
)

// RouteOptions declares an operation inside a container.
type RouteOptions struct {
	Name        string
	Path        string
	Description string
}

// Container groups operations under a shared root context and exposes them
// as protocol functions named "<container>-<operation>".
type Container struct {
	kind        ContainerKind
	name        string
	description string
	root        domain.Context
	ops         []*Operation
	debug       bool
	tracer      domain.Tracer
}

// NewContainer creates an empty container of the given kind.
func NewContainer(kind ContainerKind, name, description string) *Container {
	return &Container{
		kind:        kind,
		name:        name,
		description: description,
		root:        domain.Context{},
	}
}

// NewApp creates a user-facing container.
func NewApp(name, description string) *Container {
	return NewContainer(KindApp, name, description)
}

// NewTool creates an agent-facing container.
func NewTool(name, description string) *Container {
	return NewContainer(KindTool, name, description)
}

// Context merges values into the root context shared by every operation.
func (c *Container) Context(values domain.Context) *Container {
	c.root = c.root.Merge(values)
	return c
}

// WithTracer sets the tracer inherited by operations that have none.
func (c *Container) WithTracer(t domain.Tracer) *Container {
	c.tracer = t
	return c
}

// Debug enables tracing on every current and future operation.
func (c *Container) Debug() *Container {
	c.debug = true
	for _, op := range c.ops {
		op.Debug()
	}
	return c
}

// Route registers a new operation and returns it for configuration.
func (c *Container) Route(opts RouteOptions) *Operation {
	op := NewOperation(opts.Name)
	op.path = opts.Path
	op.description = opts.Description
	op.container = c
	if c.debug {
		op.Debug()
	}
	c.ops = append(c.ops, op)
	return op
}

// Capability is Route under the name tools use.
func (c *Container) Capability(opts RouteOptions) *Operation {
	return c.Route(opts)
}

// Name returns the container name.
func (c *Container) Name() string { return c.name }

// Description returns the container description.
func (c *Container) Description() string { return c.description }

// Kind returns whether the container is an app or a tool.
func (c *Container) Kind() ContainerKind { return c.kind }

// Slug returns the function-name prefix of the container.
func (c *Container) Slug() string { return domain.Slug(c.name) }

// RootContext returns a copy of the root context.
func (c *Container) RootContext() domain.Context { return c.root.Clone() }

// Operations returns the operations in registration order.
func (c *Container) Operations() []*Operation {
	out := make([]*Operation, len(c.ops))
	copy(out, c.ops)
	return out
}

// Lookup finds an operation by case-insensitive name, then by slug, then by
// exact path. Within each pass the first registered match wins.
func (c *Container) Lookup(nameOrPath string) (*Operation, bool) {
	slug := domain.Slug(nameOrPath)
	matchers := []func(*Operation) bool{
		func(op *Operation) bool { return strings.EqualFold(op.name, nameOrPath) },
		func(op *Operation) bool { return op.Slug() == slug },
		func(op *Operation) bool { return op.Path() == nameOrPath },
	}
	for _, match := range matchers {
		for _, op := range c.ops {
			if match(op) {
				return op, true
			}
		}
	}
	return nil, false
}

// Run returns an invoker for the named operation with the root context bound.
func (c *Container) Run(nameOrPath string) (*Invoker, error) {
	op, ok := c.Lookup(nameOrPath)
	if !ok {
		return nil, &OperationNotFoundError{Container: c.name, Name: nameOrPath}
	}
	return op.Run(c.root), nil
}

// FunctionName returns the protocol function name of op.
func (c *Container) FunctionName(op *Operation) string {
	return domain.FunctionName(c.name, op.name)
}

// Functions lists one function definition per operation, in registration order.
func (c *Container) Functions() []domain.FunctionDefinition {
	defs := make([]domain.FunctionDefinition, 0, len(c.ops))
	for _, op := range c.ops {
		defs = append(defs, domain.FunctionDefinition{
			Type: domain.FunctionType,
			Function: domain.Function{
				Name:        c.FunctionName(op),
				Description: op.description,
				Parameters:  schema.ParameterSchema(op.input),
			},
		})
	}
	return defs
}

// Resolve maps a protocol function name back to an operation.
func (c *Container) Resolve(function string) (*Operation, bool) {
	prefix := c.Slug() + "-"
	if !strings.HasPrefix(function, prefix) {
		return nil, false
	}
	rest := strings.TrimPrefix(function, prefix)
	for _, op := range c.ops {
		if op.Slug() == rest {
			return op, true
		}
	}
	return nil, false
}

// HandleToolCall dispatches a protocol function call. The boolean is false
// when the function does not belong to this container; the error is then nil.
// The call context carries KeyFromToolCall. Start and end events are
// emitted here under the tool-call trace.
func (c *Container) HandleToolCall(ctx context.Context, function string, args any) (any, bool, error) {
	op, ok := c.Resolve(function)
	if !ok {
		return nil, false, nil
	}

	t := newTrace(op.activeTracer(), c.name, op.name, domain.SourceToolCall)
	callCtx := domain.Context{domain.KeyFromToolCall: true}
	traceCtx := c.root.Merge(callCtx)

	t.emit(ctx, domain.EventStart, args, nil, nil, traceCtx)
	res := op.invoke(ctx, c.root, Invocation{Input: args, Context: callCtx}, t, false)
	if res.cause != nil {
		t.emit(ctx, domain.EventError, args, nil, res.cause, traceCtx)
	} else {
		t.emit(ctx, domain.EventSuccess, args, res.value, nil, traceCtx)
	}
	return res.value, true, res.err
}
