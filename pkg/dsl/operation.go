package dsl

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync/atomic"

	"github.com/aretw0/relay/pkg/chain"
	"github.com/aretw0/relay/pkg/domain"
	"github.com/aretw0/relay/pkg/schema"
)

// Handler is the business logic of an operation. It receives the validated
// input and the merged execution context.
type Handler func(ctx context.Context, input any, c domain.Context) (any, error)

// Invocation is a single call to an operation.
type Invocation struct {
	Input   any
	Context domain.Context
}

// Operation is a named, schema-validated unit of work.
// Configure it with the fluent methods, then call Run to obtain an Invoker.
// Configuration methods panic once the operation has been run.
type Operation struct {
	name        string
	path        string
	description string

	input  schema.Validator
	output schema.Validator

	middleware []chain.Middleware
	handler    Handler
	formatter  *Formatter

	tracer    domain.Tracer
	container *Container

	debug  atomic.Bool
	frozen atomic.Bool
}

// NewOperation creates a standalone operation.
func NewOperation(name string) *Operation {
	return &Operation{name: name}
}

func (o *Operation) mutate() {
	if o.frozen.Load() {
		panic(fmt.Sprintf("dsl: operation %q modified after Run", o.name))
	}
}

// Describe sets the description exposed to protocol consumers.
func (o *Operation) Describe(description string) *Operation {
	o.mutate()
	o.description = description
	return o
}

// At sets an explicit routing path. It defaults to the operation slug.
func (o *Operation) At(path string) *Operation {
	o.mutate()
	o.path = path
	return o
}

// Input attaches the input validator.
func (o *Operation) Input(v schema.Validator) *Operation {
	o.mutate()
	o.input = v
	return o
}

// Output attaches the output validator.
func (o *Operation) Output(v schema.Validator) *Operation {
	o.mutate()
	o.output = v
	return o
}

// Use appends middleware. The first registered middleware is the outermost.
func (o *Operation) Use(mw ...chain.Middleware) *Operation {
	o.mutate()
	o.middleware = append(o.middleware, mw...)
	return o
}

// Handler sets the business logic. Calling it again replaces the handler.
// If no formatter was installed yet, DefaultFormatter is installed.
func (o *Operation) Handler(h Handler) *Operation {
	o.mutate()
	o.handler = h
	if o.formatter == nil {
		def := DefaultFormatter()
		o.formatter = &def
	}
	return o
}

// LLM installs a result formatter. A nil argument installs DefaultFormatter.
func (o *Operation) LLM(f *Formatter) *Operation {
	o.mutate()
	if f == nil {
		def := DefaultFormatter()
		f = &def
	}
	o.formatter = f
	return o
}

// Raw removes the formatter: outputs pass through and errors propagate
// unchanged to the caller.
func (o *Operation) Raw() *Operation {
	o.mutate()
	o.formatter = &Formatter{}
	return o
}

// Debug enables tracing. It may be toggled at any time.
func (o *Operation) Debug() *Operation {
	o.debug.Store(true)
	return o
}

// WithTracer sets the tracer used when debugging is enabled.
func (o *Operation) WithTracer(t domain.Tracer) *Operation {
	o.mutate()
	o.tracer = t
	return o
}

// Name returns the operation name as declared.
func (o *Operation) Name() string { return o.name }

// Description returns the operation description.
func (o *Operation) Description() string { return o.description }

// Slug returns the lowercased, underscore-joined form of the name.
func (o *Operation) Slug() string { return domain.Slug(o.name) }

// Path returns the routing path, falling back to the slug.
func (o *Operation) Path() string {
	if o.path != "" {
		return o.path
	}
	return o.Slug()
}

// InputSchema returns the input validator, which may be nil.
func (o *Operation) InputSchema() schema.Validator { return o.input }

// MiddlewareCount returns the number of registered middleware.
func (o *Operation) MiddlewareCount() int { return len(o.middleware) }

// Debugging reports whether tracing is enabled.
func (o *Operation) Debugging() bool { return o.debug.Load() }

// Run freezes the operation and returns an Invoker whose calls start from root.
func (o *Operation) Run(root domain.Context) *Invoker {
	o.frozen.Store(true)
	return &Invoker{op: o, root: root.Clone()}
}

// Invoker executes a frozen operation.
type Invoker struct {
	op   *Operation
	root domain.Context
}

// Operation returns the underlying operation.
func (i *Invoker) Operation() *Operation { return i.op }

// Handle invokes the operation. The call context is merged over the root
// context, with the call's keys winning.
func (i *Invoker) Handle(ctx context.Context, inv Invocation) (any, error) {
	t := newTrace(i.op.activeTracer(), i.op.containerName(), i.op.name, domain.SourceDirect)
	res := i.op.invoke(ctx, i.root, inv, t, true)
	return res.value, res.err
}

// outcome carries both the returned value and the failure that produced it,
// so callers that trace can report an error even when a formatter absorbed it.
type outcome struct {
	value any
	err   error
	cause error
}

func (o *Operation) activeTracer() domain.Tracer {
	if !o.debug.Load() {
		return nil
	}
	if o.tracer != nil {
		return o.tracer
	}
	if o.container != nil && o.container.tracer != nil {
		return o.container.tracer
	}
	return defaultTracer
}

func (o *Operation) containerName() string {
	if o.container == nil {
		return ""
	}
	return o.container.name
}

// invoke runs the operation under t. When boundary is false the caller owns
// t and emits its start and end events; invoke only adds format events.
func (o *Operation) invoke(ctx context.Context, root domain.Context, inv Invocation, t *trace, boundary bool) outcome {
	o.frozen.Store(true)
	if o.handler == nil {
		err := &HandlerNotDefinedError{Operation: o.name}
		return outcome{err: err, cause: err}
	}

	req := &chain.Request{
		Operation: o.name,
		Input:     inv.Input,
		Context:   domain.Merge(root, inv.Context),
	}

	if boundary {
		t.emit(ctx, domain.EventStart, req.Input, nil, nil, req.Context)
	}

	out, err := o.execute(ctx, t, req)
	if err == nil {
		if boundary {
			t.emit(ctx, domain.EventSuccess, req.Input, out, nil, req.Context)
		}
		return outcome{value: out}
	}

	if boundary {
		t.emit(ctx, domain.EventError, req.Input, nil, err, req.Context)
	}
	if o.formatter == nil || o.formatter.Error == nil {
		return outcome{err: err, cause: err}
	}
	formatted, ferr := o.formatError(err, req)
	if ferr != nil {
		return outcome{err: ferr, cause: err}
	}
	t.emit(ctx, domain.EventFormat, req.Input, formatted, err, req.Context)
	return outcome{value: formatted, cause: err}
}

func (o *Operation) formatError(err error, req *chain.Request) (res any, ferr error) {
	defer func() {
		if r := recover(); r != nil {
			ferr = &PanicError{Operation: o.name, Value: r, Stack: string(debug.Stack())}
		}
	}()
	return o.formatter.Error(err, req.Input, req.Context)
}

func (o *Operation) execute(ctx context.Context, t *trace, req *chain.Request) (res any, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, &PanicError{Operation: o.name, Value: r, Stack: string(debug.Stack())}
		}
	}()
	return chain.Execute(ctx, o.middleware, o.terminal(t), req)
}

// terminal validates the input, runs the handler, validates the output and
// applies the success formatter. A middleware that short-circuits skips all of it.
func (o *Operation) terminal(t *trace) chain.Terminal {
	return func(ctx context.Context, req *chain.Request) (any, error) {
		in, err := schema.Validate(o.input, req.Input)
		if err != nil {
			return nil, &ValidationError{Operation: o.name, Stage: StageInput, Err: err}
		}
		req.Input = in

		out, err := o.handler(ctx, in, req.Context)
		if err != nil {
			return nil, err
		}

		out, err = schema.Validate(o.output, out)
		if err != nil {
			return nil, &ValidationError{Operation: o.name, Stage: StageOutput, Err: err}
		}

		if o.formatter == nil || o.formatter.Success == nil {
			return out, nil
		}
		formatted, err := o.formatter.Success(out, in, req.Context)
		if err != nil {
			return nil, err
		}
		t.emit(ctx, domain.EventFormat, in, formatted, nil, req.Context)
		return formatted, nil
	}
}
