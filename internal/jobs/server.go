package jobs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hibiken/asynq"

	"teamsync-backend/internal/shared/telemetry"
)

// RedisOpt parses a redis:// URL into asynq connection options.
func RedisOpt(redisURL string) (asynq.RedisConnOpt, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("redis url is required")
	}
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return opt, nil
}

// NewServer builds the asynq worker server.
func NewServer(opt asynq.RedisConnOpt, concurrency int) *asynq.Server {
	if concurrency <= 0 {
		concurrency = 4
	}
	return asynq.NewServer(opt, asynq.Config{
		Concurrency:    concurrency,
		Queues:         map[string]int{DefaultQueue: 1},
		RetryDelayFunc: RetryDelay,
		Logger:         telemetry.L().Sugar(),
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			retried, _ := asynq.GetRetryCount(ctx)
			telemetry.Warn("job.error", map[string]any{
				"task":    task.Type(),
				"retried": retried,
				"error":   err,
			})
		}),
	})
}

// NewScheduler registers the periodic cleanup task on cronSpec (UTC).
func NewScheduler(opt asynq.RedisConnOpt, cronSpec string, retentionDays int) (*asynq.Scheduler, error) {
	task, err := NewCleanupTask(retentionDays)
	if err != nil {
		return nil, err
	}
	scheduler := asynq.NewScheduler(opt, &asynq.SchedulerOpts{
		Location: time.UTC,
		Logger:   telemetry.L().Sugar(),
	})
	entryID, err := scheduler.Register(cronSpec, task, asynq.MaxRetry(1), asynq.Queue(DefaultQueue))
	if err != nil {
		return nil, fmt.Errorf("register cleanup %q: %w", cronSpec, err)
	}
	telemetry.Info("scheduler.registered", map[string]any{
		"task":     TypeCleanup,
		"cron":     cronSpec,
		"entry_id": entryID,
	})
	return scheduler, nil
}
