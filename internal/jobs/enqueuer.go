package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hibiken/asynq"

	"teamsync-backend/internal/shared/telemetry"
	"teamsync-backend/internal/transcripts"
)

// AsynqEnqueuer schedules tasks on Redis through asynq.
type AsynqEnqueuer struct {
	Client   *asynq.Client
	Queue    string
	MaxRetry int
	Now      func() time.Time
}

// NewAsynqEnqueuer constructs an AsynqEnqueuer with the default queue and retry budget.
func NewAsynqEnqueuer(client *asynq.Client) *AsynqEnqueuer {
	return &AsynqEnqueuer{Client: client, Queue: DefaultQueue, MaxRetry: DefaultMaxRetry}
}

// EnqueueProcess schedules extraction of a transcript.
func (e *AsynqEnqueuer) EnqueueProcess(ctx context.Context, transcriptID, userID string) error {
	task, err := NewProcessTask(newProcessPayload(ctx, transcriptID, userID, e.Now))
	if err != nil {
		return err
	}
	info, err := e.Client.EnqueueContext(ctx, task,
		asynq.MaxRetry(e.MaxRetry),
		asynq.Queue(e.Queue),
	)
	if err != nil {
		return fmt.Errorf("enqueue process task: %w", err)
	}
	telemetry.Info("job.enqueued", map[string]any{
		"task":          TypeProcessTranscript,
		"task_id":       info.ID,
		"queue":         info.Queue,
		"transcript_id": transcriptID,
		"request_id":    telemetry.RequestID(ctx),
	})
	return nil
}

// EnqueueCleanup schedules a one-off retention sweep.
func (e *AsynqEnqueuer) EnqueueCleanup(ctx context.Context, olderThanDays int) error {
	task, err := NewCleanupTask(olderThanDays)
	if err != nil {
		return err
	}
	if _, err := e.Client.EnqueueContext(ctx, task, asynq.MaxRetry(1), asynq.Queue(e.Queue)); err != nil {
		return fmt.Errorf("enqueue cleanup task: %w", err)
	}
	return nil
}

// Close releases the Redis connection.
func (e *AsynqEnqueuer) Close() error {
	return e.Client.Close()
}

// InlineEnqueuer runs tasks in-process on a goroutine with the same retry
// policy as the worker. Used when no Redis is configured.
type InlineEnqueuer struct {
	Handler  *Handler
	MaxRetry int
	Delay    func(n int) time.Duration
	Now      func() time.Time

	mu     sync.Mutex
	wg     sync.WaitGroup
	once   sync.Once
	stop   context.Context
	cancel context.CancelFunc
}

// NewInlineEnqueuer constructs an InlineEnqueuer around h.
func NewInlineEnqueuer(h *Handler) *InlineEnqueuer {
	return &InlineEnqueuer{Handler: h, MaxRetry: DefaultMaxRetry}
}

// EnqueueProcess starts extraction in the background and returns immediately.
// The run is cancelled, including any pending retry wait, by Close.
func (e *InlineEnqueuer) EnqueueProcess(ctx context.Context, transcriptID, userID string) error {
	if e.Handler == nil || e.Handler.Processor == nil {
		return errors.New("inline worker not configured")
	}
	stop := e.stopCtx()
	e.mu.Lock()
	if stop.Err() != nil {
		e.mu.Unlock()
		return errors.New("inline worker stopped")
	}
	e.wg.Add(1)
	e.mu.Unlock()

	p := newProcessPayload(ctx, transcriptID, userID, e.Now)
	run, cancel := context.WithCancel(telemetry.Detach(ctx))
	unlink := context.AfterFunc(stop, cancel)
	go func() {
		defer e.wg.Done()
		defer cancel()
		defer unlink()
		for attempt := 0; ; attempt++ {
			final := attempt >= e.MaxRetry
			err := e.Handler.process(run, p, final)
			if err == nil || final || errors.Is(err, asynq.SkipRetry) {
				return
			}
			timer := time.NewTimer(e.delay(attempt))
			select {
			case <-run.Done():
				timer.Stop()
				telemetry.Warn("job.inline_stopped", map[string]any{
					"transcript_id": p.TranscriptID,
					"attempt":       attempt + 1,
				})
				return
			case <-timer.C:
			}
		}
	}()
	return nil
}

// Wait blocks until every started task has finished.
func (e *InlineEnqueuer) Wait() {
	e.wg.Wait()
}

// Close cancels running tasks and pending retries, then waits for them to exit.
func (e *InlineEnqueuer) Close() error {
	e.stopCtx()
	e.mu.Lock()
	e.cancel()
	e.mu.Unlock()
	e.wg.Wait()
	return nil
}

func (e *InlineEnqueuer) stopCtx() context.Context {
	e.once.Do(func() {
		e.stop, e.cancel = context.WithCancel(context.Background())
	})
	return e.stop
}

func (e *InlineEnqueuer) delay(n int) time.Duration {
	if e.Delay != nil {
		return e.Delay(n)
	}
	return RetryDelay(n, nil, nil)
}

func newProcessPayload(ctx context.Context, transcriptID, userID string, now func() time.Time) ProcessPayload {
	at := time.Now().UTC()
	if now != nil {
		at = now().UTC()
	}
	return ProcessPayload{
		TranscriptID: transcriptID,
		UserID:       userID,
		RequestID:    telemetry.RequestID(ctx),
		EnqueuedAt:   at.Format(time.RFC3339),
	}
}

var (
	_ transcripts.Enqueuer = (*AsynqEnqueuer)(nil)
	_ transcripts.Enqueuer = (*InlineEnqueuer)(nil)
)
