package llm

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"teamsync-backend/internal/shared/metrics"
	"teamsync-backend/internal/shared/telemetry"
)

// DefaultRetryDelay is the pause before the single retry of a transient failure.
const DefaultRetryDelay = 300 * time.Millisecond

// WithTimeout bounds every call by d. A non-positive d returns next unchanged.
func WithTimeout(next Client, d time.Duration) Client {
	if d <= 0 {
		return next
	}
	return Func(func(ctx context.Context, prompt string) (string, error) {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		return next.Complete(ctx, prompt)
	})
}

// RateLimited waits on limiter before each call. A nil limiter disables limiting.
func RateLimited(next Client, limiter *rate.Limiter) Client {
	if limiter == nil {
		return next
	}
	return Func(func(ctx context.Context, prompt string) (string, error) {
		if err := limiter.Wait(ctx); err != nil {
			return "", err
		}
		return next.Complete(ctx, prompt)
	})
}

// WithRetry retries transient failures up to retries times, pausing delay between attempts.
func WithRetry(next Client, retries int, delay time.Duration) Client {
	if retries <= 0 {
		return next
	}
	return Func(func(ctx context.Context, prompt string) (string, error) {
		out, err := next.Complete(ctx, prompt)
		for attempt := 1; attempt <= retries && err != nil && ShouldRetry(ctx, err); attempt++ {
			telemetry.Warn("llm.retry", map[string]any{
				"attempt": attempt,
				"error":   err,
			})
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
			out, err = next.Complete(ctx, prompt)
		}
		return out, err
	})
}

// Instrumented records latency and failures for provider and wraps errors in UpstreamError.
func Instrumented(next Client, provider string) Client {
	return Func(func(ctx context.Context, prompt string) (string, error) {
		start := time.Now()
		out, err := next.Complete(ctx, prompt)
		metrics.ObserveLLM(provider, time.Since(start), err)
		if err != nil {
			var upstream *UpstreamError
			if errors.As(err, &upstream) || errors.Is(err, ErrNotConfigured) {
				return "", err
			}
			return "", &UpstreamError{Provider: provider, Err: err}
		}
		if strings.TrimSpace(out) == "" {
			return "", &UpstreamError{Provider: provider, Err: ErrEmptyResponse}
		}
		return out, nil
	})
}

// ShouldRetry reports whether err looks transient. Cancellation of the
// caller's own context is never retried.
func ShouldRetry(ctx context.Context, err error) bool {
	if err == nil || ctx.Err() != nil {
		return false
	}
	if errors.Is(err, ErrNotConfigured) || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrEmptyResponse) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"429", "500", "502", "503", "504",
		"server_error", "overloaded", "rate limit",
		"connection reset", "connection refused", "broken pipe",
		"tls handshake timeout", "eof",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
