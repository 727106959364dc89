package ai

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker/v2"
)

// ErrCircuitOpen is returned while the breaker rejects calls.
var ErrCircuitOpen = gobreaker.ErrOpenState

// BreakerConfig holds configuration for the generation circuit breaker.
type BreakerConfig struct {
	Name string

	// MaxRequests is the number of trial calls allowed while half-open.
	MaxRequests uint32

	// Interval clears the closed-state counts periodically. Zero never clears.
	Interval time.Duration

	// Timeout is how long the breaker stays open before going half-open.
	Timeout time.Duration

	// FailureRatio trips the breaker once reached over at least MinRequests.
	FailureRatio float64
	MinRequests  uint32
}

func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:         name,
		MaxRequests:  1,
		Interval:     60 * time.Second,
		Timeout:      30 * time.Second,
		FailureRatio: 0.5,
		MinRequests:  5,
	}
}

// Breaker fails fast while the backend is unhealthy, so a dead model costs
// callers nothing but the fallback text.
type Breaker struct {
	next   Client
	cb     *gobreaker.CircuitBreaker[string]
	state  *prometheus.GaugeVec
	name   string
	logger *slog.Logger
}

// stateValue maps gobreaker states onto the gauge (0=closed, 1=half-open, 2=open).
func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// WithBreaker wraps next in a circuit breaker. Calls abandoned by their
// caller (context.Canceled) are not counted as failures. The state gauge is
// registered on reg when reg is non-nil.
func WithBreaker(next Client, cfg BreakerConfig, reg prometheus.Registerer, logger *slog.Logger) *Breaker {
	b := &Breaker{
		next:   next,
		name:   cfg.Name,
		logger: logger,
		state: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ai_circuit_breaker_state",
			Help: "Current state of the generation circuit breaker (0=closed, 1=half-open, 2=open)",
		}, []string{"name"}),
	}
	if reg != nil {
		reg.MustRegister(b.state)
	}

	b.cb = gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
			b.state.WithLabelValues(name).Set(stateValue(to))
		},
	})
	b.state.WithLabelValues(cfg.Name).Set(0)

	return b
}

func (b *Breaker) Generate(ctx context.Context, prompt string) (string, error) {
	return b.cb.Execute(func() (string, error) {
		return b.next.Generate(ctx, prompt)
	})
}

func (b *Breaker) Chat(ctx context.Context, history []Turn, prompt string) (string, error) {
	return b.cb.Execute(func() (string, error) {
		return b.next.Chat(ctx, history, prompt)
	})
}

func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}
