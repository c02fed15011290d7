// Package redis persists debug traces and coordinates exclusive operations
// through Redis.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/relay/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

const (
	defaultPrefix    = "relay:"
	defaultMaxEvents = 1000
)

// Record is the stored form of a trace event.
type Record struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	Container  string         `json:"container,omitempty"`
	Operation  string         `json:"operation"`
	Source     string         `json:"source,omitempty"`
	Input      any            `json:"input,omitempty"`
	Output     any            `json:"output,omitempty"`
	Error      string         `json:"error,omitempty"`
	Context    map[string]any `json:"context,omitempty"`
	DurationMS int64          `json:"duration_ms,omitempty"`
}

func newRecord(e *domain.Event) Record {
	r := Record{
		ID:         e.ID,
		Type:       string(e.Type),
		Timestamp:  e.Timestamp,
		Container:  e.Container,
		Operation:  e.Operation,
		Source:     e.Source,
		Input:      e.Input,
		Output:     e.Output,
		Context:    e.Context,
		DurationMS: e.Duration.Milliseconds(),
	}
	if e.Error != nil {
		r.Error = e.Error.Error()
	}
	return r
}

// Sink is a tracer that appends events to one capped Redis list per container.
type Sink struct {
	client    *backend.Client
	prefix    string
	maxEvents int64
	ttl       time.Duration
	logger    *slog.Logger
}

// Option configures a Sink.
type Option func(*Sink)

// WithPrefix sets the key prefix (default "relay:").
func WithPrefix(prefix string) Option {
	return func(s *Sink) { s.prefix = prefix }
}

// WithMaxEvents caps each list (default 1000).
func WithMaxEvents(n int) Option {
	return func(s *Sink) { s.maxEvents = int64(n) }
}

// WithTTL expires a list when no event was written to it for ttl.
func WithTTL(ttl time.Duration) Option {
	return func(s *Sink) { s.ttl = ttl }
}

// WithLogger sets the logger used to report write failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Sink) { s.logger = l }
}

// NewSink creates a sink using an existing client.
func NewSink(client *backend.Client, opts ...Option) *Sink {
	s := &Sink{
		client:    client,
		prefix:    defaultPrefix,
		maxEvents: defaultMaxEvents,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// New connects to the Redis server at url ("redis://host:port/db").
func New(url string, opts ...Option) (*Sink, error) {
	o, err := backend.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis url: %w", err)
	}
	return NewSink(backend.NewClient(o), opts...), nil
}

// Client returns the underlying client.
func (s *Sink) Client() *backend.Client {
	return s.client
}

func (s *Sink) key(container string) string {
	if container == "" {
		container = "_"
	}
	return s.prefix + "trace:" + domain.Slug(container)
}

// Trace stores e. Write failures are logged, never returned to the caller.
func (s *Sink) Trace(ctx context.Context, e *domain.Event) {
	if err := s.Append(ctx, e); err != nil {
		s.logger.WarnContext(ctx, "trace sink write failed", "id", e.ID, "error", err)
	}
}

// Append stores e and trims the list to its cap.
func (s *Sink) Append(ctx context.Context, e *domain.Event) error {
	payload, err := json.Marshal(newRecord(e))
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	key := s.key(e.Container)
	_, err = s.client.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
		pipe.LPush(ctx, key, payload)
		pipe.LTrim(ctx, key, 0, s.maxEvents-1)
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
		return nil
	})
	return err
}

// Recent returns up to n events of container, newest first.
func (s *Sink) Recent(ctx context.Context, container string, n int) ([]Record, error) {
	if n <= 0 {
		return nil, nil
	}
	raw, err := s.client.LRange(ctx, s.key(container), 0, int64(n-1)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(raw))
	for _, item := range raw {
		var r Record
		if err := json.Unmarshal([]byte(item), &r); err != nil {
			return nil, fmt.Errorf("decode event: %w", err)
		}
		out = append(out, r)
	}
	return out, nil
}

// Close closes the client.
func (s *Sink) Close() error {
	return s.client.Close()
}
