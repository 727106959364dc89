package ai

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func echo() *FakeGenerator {
	return NewFakeGenerator(func(p string) (string, error) { return "re: " + p, nil })
}

// ---------------------------------------------------------------------------
// FakeGenerator
// ---------------------------------------------------------------------------

func TestFakeGenerator_RecordsPrompts(t *testing.T) {
	f := echo()
	ctx := context.Background()

	out, err := f.Generate(ctx, "one")
	require.NoError(t, err)
	assert.Equal(t, "re: one", out)

	out, err = f.Chat(ctx, []Turn{{Role: RoleUser, Text: "earlier"}}, "two")
	require.NoError(t, err)
	assert.Equal(t, "re: two", out)

	assert.Equal(t, []string{"one", "two"}, f.Prompts())
	assert.Equal(t, 2, f.Calls())
}

func TestFailingGenerator(t *testing.T) {
	_, err := FailingGenerator().Generate(context.Background(), "x")
	assert.ErrorIs(t, err, ErrFakeUnavailable)
}

// ---------------------------------------------------------------------------
// Rate limit
// ---------------------------------------------------------------------------

func TestWithRateLimit_DisabledPassesThrough(t *testing.T) {
	f := echo()
	assert.Same(t, f, WithRateLimit(f, 0, 0))
}

func TestWithRateLimit_HonoursContext(t *testing.T) {
	f := echo()
	c := WithRateLimit(f, 0.001, 1)

	_, err := c.Generate(context.Background(), "first")
	require.NoError(t, err)

	// The bucket is empty and refills far slower than the deadline.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.Generate(ctx, "second")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ai rate limit")
	assert.Equal(t, 1, f.Calls())
}

// ---------------------------------------------------------------------------
// Breaker
// ---------------------------------------------------------------------------

func TestBreaker_OpensAfterFailures(t *testing.T) {
	reg := prometheus.NewRegistry()
	cfg := DefaultBreakerConfig("gemini")
	cfg.MinRequests = 3
	cfg.Timeout = time.Minute

	f := FailingGenerator()
	b := WithBreaker(f, cfg, reg, testLogger())
	ctx := context.Background()

	for range 3 {
		_, err := b.Generate(ctx, "p")
		assert.ErrorIs(t, err, ErrFakeUnavailable)
	}
	assert.Equal(t, gobreaker.StateOpen, b.State())

	_, err := b.Chat(ctx, nil, "p")
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 3, f.Calls())
	assert.Equal(t, 2.0, testutil.ToFloat64(b.state.WithLabelValues("gemini")))
}

func TestBreaker_StaysClosedOnSuccess(t *testing.T) {
	b := WithBreaker(echo(), DefaultBreakerConfig("gemini"), nil, testLogger())

	for range 10 {
		_, err := b.Generate(context.Background(), "p")
		require.NoError(t, err)
	}
	assert.Equal(t, gobreaker.StateClosed, b.State())
}

func TestBreaker_IgnoresCancelledCalls(t *testing.T) {
	cfg := DefaultBreakerConfig("gemini")
	cfg.MinRequests = 3
	cfg.Timeout = time.Minute

	f := NewFakeGenerator(func(string) (string, error) { return "", context.Canceled })
	b := WithBreaker(f, cfg, nil, testLogger())

	for range 6 {
		_, err := b.Generate(context.Background(), "p")
		assert.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, gobreaker.StateClosed, b.State())
	assert.Equal(t, 6, f.Calls())
}

// ---------------------------------------------------------------------------
// Metrics
// ---------------------------------------------------------------------------

func TestWithMetrics_CountsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	ctx := context.Background()

	ok := WithMetrics(echo(), m)
	_, _ = ok.Generate(ctx, "a")
	_, _ = ok.Chat(ctx, nil, "b")

	failing := WithMetrics(NewFakeGenerator(func(string) (string, error) {
		return "", errors.New("boom")
	}), m)
	_, _ = failing.Generate(ctx, "c")

	open := WithMetrics(NewFakeGenerator(func(string) (string, error) {
		return "", ErrCircuitOpen
	}), m)
	_, _ = open.Generate(ctx, "d")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.calls.WithLabelValues("generate", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.calls.WithLabelValues("chat", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.calls.WithLabelValues("generate", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.calls.WithLabelValues("generate", "circuit_open")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.duration))
}

func TestNewGeminiClient_RequiresKey(t *testing.T) {
	_, err := NewGeminiClient(context.Background(), GeminiConfig{Model: "gemini-2.0-flash"})
	require.Error(t, err)
}

func TestDisabled(t *testing.T) {
	var c Client = Disabled{}
	_, err := c.Generate(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrDisabled)
	_, err = c.Chat(context.Background(), nil, "hi")
	assert.ErrorIs(t, err, ErrDisabled)
}
