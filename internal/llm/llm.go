package llm

import (
	"context"
	"errors"
	"fmt"
)

// Client is a plain text completion capability: prompt in, text out.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Func adapts a function to Client.
type Func func(ctx context.Context, prompt string) (string, error)

// Complete calls f.
func (f Func) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

var (
	// ErrNotConfigured is returned when no provider is set up.
	ErrNotConfigured = errors.New("llm provider not configured")
	// ErrEmptyResponse is returned when a provider answers with no text.
	ErrEmptyResponse = errors.New("llm returned empty response")
)

// UpstreamError wraps a failed provider call.
type UpstreamError struct {
	Provider string
	Err      error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s completion failed: %v", e.Provider, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Disabled answers every prompt with ErrNotConfigured.
type Disabled struct{}

// Complete returns ErrNotConfigured.
func (Disabled) Complete(ctx context.Context, prompt string) (string, error) {
	_ = ctx
	_ = prompt
	return "", ErrNotConfigured
}
