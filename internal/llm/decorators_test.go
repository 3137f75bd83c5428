package llm

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestWithRetryRetriesTransientOnce(t *testing.T) {
	var calls int32
	base := Func(func(ctx context.Context, prompt string) (string, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return "", errors.New("status 503 overloaded")
		}
		return "ok", nil
	})

	out, err := WithRetry(base, 1, time.Millisecond).Complete(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestWithRetrySkipsPermanentErrors(t *testing.T) {
	var calls int32
	base := Func(func(ctx context.Context, prompt string) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "", errors.New("invalid api key")
	})

	_, err := WithRetry(base, 3, time.Millisecond).Complete(context.Background(), "p")
	require.Error(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestWithRetryStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls int32
	base := Func(func(ctx context.Context, prompt string) (string, error) {
		atomic.AddInt32(&calls, 1)
		cancel()
		return "", context.Canceled
	})

	_, err := WithRetry(base, 2, time.Millisecond).Complete(ctx, "p")
	require.ErrorIs(t, err, context.Canceled)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestWithTimeoutCancelsSlowCalls(t *testing.T) {
	base := Func(func(ctx context.Context, prompt string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})

	_, err := WithTimeout(base, 10*time.Millisecond).Complete(context.Background(), "p")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRateLimitedHonoursContext(t *testing.T) {
	limiter := rate.NewLimiter(rate.Every(time.Hour), 1)
	base := Func(func(ctx context.Context, prompt string) (string, error) { return "ok", nil })
	client := RateLimited(base, limiter)

	out, err := client.Complete(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = client.Complete(ctx, "p")
	require.Error(t, err)
}

func TestInstrumentedWrapsErrors(t *testing.T) {
	failing := Func(func(ctx context.Context, prompt string) (string, error) { return "", errors.New("boom") })
	_, err := Instrumented(failing, "stub").Complete(context.Background(), "p")

	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, "stub", upstream.Provider)

	blank := Func(func(ctx context.Context, prompt string) (string, error) { return "  ", nil })
	_, err = Instrumented(blank, "stub").Complete(context.Background(), "p")
	require.ErrorIs(t, err, ErrEmptyResponse)

	_, err = Instrumented(Disabled{}, "none").Complete(context.Background(), "p")
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestShouldRetry(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "deadline", err: context.DeadlineExceeded, want: true},
		{name: "canceled", err: context.Canceled, want: false},
		{name: "server error", err: errors.New("POST /v1/chat: 502 Bad Gateway"), want: true},
		{name: "reset", err: errors.New("read: connection reset by peer"), want: true},
		{name: "not configured", err: ErrNotConfigured, want: false},
		{name: "bad request", err: errors.New("400 invalid model"), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldRetry(ctx, tt.err))
		})
	}
}
