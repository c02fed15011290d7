// Package openai exposes containers through the OpenAI function-calling
// protocol: it lists their operations as tools and dispatches the tool calls
// found in an assistant message.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/aretw0/relay/pkg/domain"
	"github.com/aretw0/relay/pkg/dsl"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// BatchMode controls how the tool calls of one message are executed.
type BatchMode int

const (
	// Sequential runs calls one after another in message order.
	Sequential BatchMode = iota
	// Concurrent runs calls in parallel. Responses keep message order.
	Concurrent
)

func (m BatchMode) String() string {
	if m == Concurrent {
		return "concurrent"
	}
	return "sequential"
}

// ParseBatchMode accepts "sequential" or "concurrent".
func ParseBatchMode(s string) (BatchMode, error) {
	switch s {
	case "", "sequential":
		return Sequential, nil
	case "concurrent":
		return Concurrent, nil
	}
	return Sequential, fmt.Errorf("unknown batch mode %q", s)
}

// Adapter dispatches protocol tool calls to a fixed list of containers.
type Adapter struct {
	containers []*dsl.Container
	mode       BatchMode
	limit      int
	logger     *slog.Logger
	invoke     InvokeFunc
}

// InvokeFunc resolves a function name and runs it. It must wrap
// domain.ErrFunctionNotFound when nothing answers to name.
type InvokeFunc func(ctx context.Context, name string, args any) (any, error)

// Option configures an Adapter.
type Option func(*Adapter)

// WithBatchMode selects sequential (default) or concurrent batches.
func WithBatchMode(m BatchMode) Option {
	return func(a *Adapter) { a.mode = m }
}

// WithConcurrencyLimit bounds the number of calls running at once in
// concurrent mode. Zero or less means unbounded.
func WithConcurrencyLimit(n int) Option {
	return func(a *Adapter) { a.limit = n }
}

// WithInvoker dispatches every call through fn instead of the containers.
// Use it when the advertised functions include more than the containers,
// such as standalone operations held by a registry.
func WithInvoker(fn InvokeFunc) Option {
	return func(a *Adapter) { a.invoke = fn }
}

// WithLogger sets the logger used to report dispatch failures.
func WithLogger(l *slog.Logger) Option {
	return func(a *Adapter) { a.logger = l }
}

// New creates an adapter. Containers are consulted in the given order.
func New(containers []*dsl.Container, opts ...Option) *Adapter {
	a := &Adapter{
		containers: containers,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Tools lists the function definitions of every container, in container
// order then operation order.
func (a *Adapter) Tools() []domain.FunctionDefinition {
	var tools []domain.FunctionDefinition
	for _, c := range a.containers {
		tools = append(tools, c.Functions()...)
	}
	return tools
}

// Request carries either a message or a chat completion whose first choice
// holds the message.
type Request struct {
	Message        *domain.Message
	ChatCompletion *domain.ChatCompletion
}

func (r Request) message() *domain.Message {
	if r.Message != nil {
		return r.Message
	}
	if r.ChatCompletion != nil && len(r.ChatCompletion.Choices) > 0 {
		return &r.ChatCompletion.Choices[0].Message
	}
	return nil
}

// Handle executes every tool call of the request and returns one tool
// message per call, in call order. A message without tool calls yields an
// empty list. Failures are reported in the content of the affected call.
func (a *Adapter) Handle(ctx context.Context, req Request) []domain.ToolMessage {
	msg := req.message()
	if msg == nil || len(msg.ToolCalls) == 0 {
		return []domain.ToolMessage{}
	}

	out := make([]domain.ToolMessage, len(msg.ToolCalls))
	if a.mode == Sequential || len(msg.ToolCalls) == 1 {
		for i, call := range msg.ToolCalls {
			out[i] = a.Call(ctx, call)
		}
		return out
	}

	var g errgroup.Group
	if a.limit > 0 {
		g.SetLimit(a.limit)
	}
	for i, call := range msg.ToolCalls {
		g.Go(func() error {
			out[i] = a.Call(ctx, call)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// Call executes a single tool call.
func (a *Adapter) Call(ctx context.Context, call domain.ToolCall) domain.ToolMessage {
	id := call.ID
	if id == "" {
		id = uuid.NewString()
	}
	res := domain.ToolMessage{Role: domain.RoleTool, ToolCallID: id}

	value, err := a.dispatch(ctx, call.Function)
	if err != nil {
		a.logger.WarnContext(ctx, "tool call failed", "function", call.Function.Name, "id", id, "error", err)
		res.Content = ErrorContent(err)
		return res
	}
	res.Content = Content(value)
	return res
}

func (a *Adapter) dispatch(ctx context.Context, fn domain.FunctionCall) (any, error) {
	args, err := fn.DecodeArguments()
	if err != nil {
		return nil, fmt.Errorf("%w for %q: %v", domain.ErrInvalidArguments, fn.Name, err)
	}
	if a.invoke != nil {
		return a.invoke(ctx, fn.Name, args)
	}
	for _, c := range a.containers {
		value, ok, err := c.HandleToolCall(ctx, fn.Name, args)
		if !ok {
			continue
		}
		return value, err
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrFunctionNotFound, fn.Name)
}

// Content encodes a result for a tool message. Strings are used verbatim,
// anything else is JSON-encoded.
func Content(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ErrorContent(fmt.Errorf("encode result: %w", err))
	}
	return string(b)
}

// ErrorContent formats err as tool message content.
func ErrorContent(err error) string {
	return "Error: " + err.Error()
}
