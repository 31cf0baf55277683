// Package provider abstracts the language model behind a minimal text
// interface. The agent speaks a JSON wire protocol in the message text
// itself, so a provider only needs to turn a conversation into the model's
// next raw utterance.
package provider

import (
	"context"
	"errors"
	"fmt"
)

// Role identifies the author of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	// RoleTool carries tool results and protocol corrections back to the
	// model. Providers without a native tool role fold it into user turns.
	RoleTool Role = "tool"
)

// Message is one turn of conversation history.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Provider generates the model's next utterance for a conversation.
type Provider interface {
	// Generate returns the raw model output for the given history. The
	// returned text is wire-protocol JSON that the caller parses.
	Generate(ctx context.Context, history []Message) (string, error)
	// Name identifies the provider for logs.
	Name() string
}

// Sentinel errors for common provider failures.
var (
	ErrRateLimit      = errors.New("rate limit exceeded")
	ErrContentBlocked = errors.New("content blocked by safety filters")
	ErrAuthentication = errors.New("authentication failed")
	ErrUnavailable    = errors.New("service unavailable")
)

// Error wraps a provider failure with the provider's name and whether a
// retry could plausibly succeed.
type Error struct {
	Provider   string
	Retryable  bool
	Underlying error
}

func (e *Error) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Provider, e.Underlying)
}

func (e *Error) Unwrap() error { return e.Underlying }
