package observability

import (
	"context"

	"github.com/aretw0/relay/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts invocations and measures their duration.
type Metrics struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inflight *prometheus.GaugeVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		calls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relay_operation_calls_total",
				Help: "Total number of completed operation invocations",
			},
			[]string{"container", "operation", "source", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "relay_operation_duration_seconds",
				Help:    "Duration of operation invocations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"container", "operation"},
		),
		inflight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "relay_operation_inflight",
				Help: "Number of operation invocations currently running",
			},
			[]string{"container", "operation"},
		),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.calls, m.duration, m.inflight} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) Trace(_ context.Context, e *domain.Event) {
	switch e.Type {
	case domain.EventStart:
		m.inflight.WithLabelValues(e.Container, e.Operation).Inc()
	case domain.EventSuccess, domain.EventError:
		m.inflight.WithLabelValues(e.Container, e.Operation).Dec()
		m.calls.WithLabelValues(e.Container, e.Operation, e.Source, string(e.Type)).Inc()
		m.duration.WithLabelValues(e.Container, e.Operation).Observe(e.Duration.Seconds())
	}
}
