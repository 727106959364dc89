package ai

import (
	"context"
	"errors"
	"sync"
)

// ErrFakeUnavailable is what FailingGenerator returns.
var ErrFakeUnavailable = errors.New("ai: backend unavailable")

// FakeGenerator is a scripted in-memory Client for tests. Respond sees
// every prompt; chat calls receive the final prompt only.
type FakeGenerator struct {
	Respond func(prompt string) (string, error)

	mu      sync.Mutex
	prompts []string
}

// NewFakeGenerator returns a fake answering every prompt with respond.
func NewFakeGenerator(respond func(prompt string) (string, error)) *FakeGenerator {
	return &FakeGenerator{Respond: respond}
}

// FailingGenerator returns a fake whose every call fails.
func FailingGenerator() *FakeGenerator {
	return NewFakeGenerator(func(string) (string, error) { return "", ErrFakeUnavailable })
}

func (f *FakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	return f.Respond(prompt)
}

func (f *FakeGenerator) Chat(ctx context.Context, _ []Turn, prompt string) (string, error) {
	return f.Generate(ctx, prompt)
}

// Prompts returns a copy of every prompt received so far.
func (f *FakeGenerator) Prompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}

func (f *FakeGenerator) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}
