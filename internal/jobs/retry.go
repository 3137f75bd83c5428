package jobs

import (
	"time"

	"github.com/hibiken/asynq"
)

const (
	baseRetryDelay = 60 * time.Second
	maxRetryShift  = 10
)

// RetryDelay backs off exponentially: 60s, 120s, 240s, ...
func RetryDelay(n int, _ error, _ *asynq.Task) time.Duration {
	if n < 0 {
		n = 0
	}
	if n > maxRetryShift {
		n = maxRetryShift
	}
	return baseRetryDelay << n
}
