package domain

import (
	"context"
	"time"
)

// EventType defines the phase of an invocation an event describes.
type EventType string

const (
	EventStart   EventType = "start"
	EventSuccess EventType = "success"
	EventError   EventType = "error"
	EventFormat  EventType = "format"
)

// Event is one structured trace record around an invocation.
type Event struct {
	// ID correlates the events of a single invocation.
	ID        string        `json:"id"`
	Type      EventType     `json:"type"`
	Timestamp time.Time     `json:"timestamp"`
	Container string        `json:"container,omitempty"`
	Operation string        `json:"operation"`
	Source    string        `json:"source,omitempty"` // "direct" or "tool_call"
	Input     any           `json:"input,omitempty"`
	Output    any           `json:"output,omitempty"`
	Error     error         `json:"-"`
	Context   Context       `json:"context,omitempty"`
	Duration  time.Duration `json:"duration,omitempty"`
}

// Invocation sources.
const (
	SourceDirect   = "direct"
	SourceToolCall = "tool_call"
)

// Tracer receives debug events. Implementations must not modify the event.
type Tracer interface {
	Trace(ctx context.Context, e *Event)
}

// TracerFunc adapts a function to the Tracer interface.
type TracerFunc func(ctx context.Context, e *Event)

// Trace calls f(ctx, e).
func (f TracerFunc) Trace(ctx context.Context, e *Event) { f(ctx, e) }
