package relay

import (
	"context"
	"log/slog"

	"github.com/aretw0/relay/pkg/adapters/openai"
	"github.com/aretw0/relay/pkg/domain"
	"github.com/aretw0/relay/pkg/dsl"
	"github.com/aretw0/relay/pkg/registry"
)

// Relay is the composition root of an application: it creates operations and
// containers with shared settings and hands them to the protocol adapters.
// Build one per process and pass it where it is needed.
type Relay struct {
	units  []registry.Unit
	tracer domain.Tracer
	debug  bool
	batch  openai.BatchMode
	logger *slog.Logger
}

// Option configures a Relay.
type Option func(*Relay)

// WithTracer sets the tracer given to every container and operation created.
func WithTracer(t domain.Tracer) Option {
	return func(r *Relay) { r.tracer = t }
}

// WithDebug enables tracing on everything created.
func WithDebug(enabled bool) Option {
	return func(r *Relay) { r.debug = enabled }
}

// WithBatchMode selects how the adapter executes a batch of tool calls.
func WithBatchMode(m openai.BatchMode) Option {
	return func(r *Relay) { r.batch = m }
}

// WithLogger sets the logger handed to adapters.
func WithLogger(l *slog.Logger) Option {
	return func(r *Relay) { r.logger = l }
}

// New creates a factory.
func New(opts ...Option) *Relay {
	r := &Relay{logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Logger returns the configured logger.
func (r *Relay) Logger() *slog.Logger {
	return r.logger
}

func (r *Relay) container(c *dsl.Container) *dsl.Container {
	if r.tracer != nil {
		c.WithTracer(r.tracer)
	}
	if r.debug {
		c.Debug()
	}
	r.units = append(r.units, registry.ContainerUnit(c))
	return c
}

// App creates a user-facing container.
func (r *Relay) App(name, description string) *dsl.Container {
	return r.container(dsl.NewApp(name, description))
}

// Tool creates an agent-facing container.
func (r *Relay) Tool(name, description string) *dsl.Container {
	return r.container(dsl.NewTool(name, description))
}

// Operation creates a standalone operation.
func (r *Relay) Operation(name string) *dsl.Operation {
	op := dsl.NewOperation(name)
	if r.tracer != nil {
		op.WithTracer(r.tracer)
	}
	if r.debug {
		op.Debug()
	}
	r.units = append(r.units, registry.OperationUnit(op))
	return op
}

// Add registers containers or operations built elsewhere, applying the
// factory's tracer and debug settings to them.
func (r *Relay) Add(units ...registry.Unit) *Relay {
	for _, u := range units {
		switch u.Kind {
		case registry.KindContainer:
			r.container(u.Container)
		case registry.KindOperation:
			if r.tracer != nil {
				u.Operation.WithTracer(r.tracer)
			}
			if r.debug {
				u.Operation.Debug()
			}
			r.units = append(r.units, u)
		}
	}
	return r
}

// Registry indexes everything created so far. It fails on name collisions.
func (r *Relay) Registry() (*registry.Registry, error) {
	reg := registry.NewRegistry()
	if err := reg.Register(r.units...); err != nil {
		return nil, err
	}
	return reg, nil
}

// Containers returns the containers created so far, in creation order.
func (r *Relay) Containers() []*dsl.Container {
	var out []*dsl.Container
	for _, u := range r.units {
		if u.Kind == registry.KindContainer {
			out = append(out, u.Container)
		}
	}
	return out
}

// Adapter returns an OpenAI function-calling adapter over the containers.
func (r *Relay) Adapter(opts ...openai.Option) *openai.Adapter {
	base := []openai.Option{openai.WithBatchMode(r.batch), openai.WithLogger(r.logger)}
	return openai.New(r.Containers(), append(base, opts...)...)
}

// Tools lists the function definitions of every container.
func (r *Relay) Tools() []domain.FunctionDefinition {
	return r.Adapter().Tools()
}

// Handle dispatches the tool calls of an assistant message.
func (r *Relay) Handle(ctx context.Context, msg domain.Message) []domain.ToolMessage {
	return r.Adapter().Handle(ctx, openai.Request{Message: &msg})
}
