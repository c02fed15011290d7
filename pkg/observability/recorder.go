package observability

import (
	"context"
	"sync"

	"github.com/aretw0/relay/pkg/domain"
)

// Recorder keeps every event in memory. It is safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []domain.Event
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Trace(_ context.Context, e *domain.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *e)
}

// Events returns a copy of the recorded events in arrival order.
func (r *Recorder) Events() []domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Event, len(r.events))
	copy(out, r.events)
	return out
}

// Types returns the recorded event types in arrival order.
func (r *Recorder) Types() []domain.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

// Reset drops all recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// Multi fans every event out to each tracer in order.
func Multi(tracers ...domain.Tracer) domain.Tracer {
	return domain.TracerFunc(func(ctx context.Context, e *domain.Event) {
		for _, t := range tracers {
			if t != nil {
				t.Trace(ctx, e)
			}
		}
	})
}
