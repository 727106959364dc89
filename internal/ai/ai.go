// Package ai is the boundary to the hosted text-generation model. Callers
// depend on the Client interface; the Gemini implementation and the
// rate-limit, breaker and metrics decorators are composed at startup.
package ai

import (
	"context"
	"errors"
)

// ErrEmptyResponse is returned when the model answers with no text.
var ErrEmptyResponse = errors.New("ai: empty response")

// Conversation roles understood by the backend.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Generator issues a single prompt and returns the model's text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Turn is one prior message in a conversation.
type Turn struct {
	Role string
	Text string
}

// ChatGenerator continues a conversation with a new user prompt.
type ChatGenerator interface {
	Chat(ctx context.Context, history []Turn, prompt string) (string, error)
}

// Client is the full generation surface. Every implementation in this
// package, decorators included, satisfies it.
type Client interface {
	Generator
	ChatGenerator
}

// ErrDisabled is returned by Disabled.
var ErrDisabled = errors.New("ai: generation disabled")

// Disabled is used when no backend is configured. Every call fails, so
// callers fall back to their fixed texts.
type Disabled struct{}

func (Disabled) Generate(context.Context, string) (string, error) { return "", ErrDisabled }

func (Disabled) Chat(context.Context, []Turn, string) (string, error) { return "", ErrDisabled }
