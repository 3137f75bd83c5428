package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReadyAggregatesChecks(t *testing.T) {
	svc := NewService()
	assert.True(t, svc.Ready(context.Background()).Ready)

	svc.Register("db", func(context.Context) error { return nil })
	svc.Register("redis", func(context.Context) error { return errors.New("connection refused") })

	report := svc.Ready(context.Background())
	assert.False(t, report.Ready)
	assert.Equal(t, "ok", report.Checks["db"])
	assert.Equal(t, "connection refused", report.Checks["redis"])
}

func TestReadyAppliesTimeout(t *testing.T) {
	svc := NewService()
	svc.Timeout = 10 * time.Millisecond
	svc.Register("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	report := svc.Ready(context.Background())
	assert.False(t, report.Ready)
	assert.Contains(t, report.Checks["slow"], "deadline exceeded")
}
