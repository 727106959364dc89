package ai

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts generation calls by operation and outcome and records
// their latency.
type Metrics struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ai_generation_requests_total",
			Help: "Total number of generation calls",
		}, []string{"operation", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ai_generation_duration_seconds",
			Help:    "Latency of generation calls",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
		}, []string{"operation"}),
	}
	if reg != nil {
		reg.MustRegister(m.calls, m.duration)
	}
	return m
}

func (m *Metrics) observe(op string, start time.Time, err error) {
	outcome := "success"
	switch {
	case errors.Is(err, ErrCircuitOpen):
		outcome = "circuit_open"
	case errors.Is(err, context.DeadlineExceeded):
		outcome = "timeout"
	case err != nil:
		outcome = "error"
	}
	m.calls.WithLabelValues(op, outcome).Inc()
	m.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

type instrumented struct {
	next    Client
	metrics *Metrics
}

// WithMetrics records every call made through next.
func WithMetrics(next Client, m *Metrics) Client {
	return &instrumented{next: next, metrics: m}
}

func (i *instrumented) Generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	out, err := i.next.Generate(ctx, prompt)
	i.metrics.observe("generate", start, err)
	return out, err
}

func (i *instrumented) Chat(ctx context.Context, history []Turn, prompt string) (string, error) {
	start := time.Now()
	out, err := i.next.Chat(ctx, history, prompt)
	i.metrics.observe("chat", start, err)
	return out, err
}
