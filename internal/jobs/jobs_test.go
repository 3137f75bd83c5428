package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teamsync-backend/internal/llm"
	"teamsync-backend/internal/processing"
	"teamsync-backend/internal/shared/telemetry"
	"teamsync-backend/internal/transcripts"
)

type fakeProcessor struct {
	mu       sync.Mutex
	errs     []error
	calls    int
	failed   []string
	lastUser string
	lastReq  string
}

func (f *fakeProcessor) Process(ctx context.Context, transcriptID, userID string) (processing.Outcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastUser = userID
	f.lastReq = telemetry.RequestID(ctx)
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return processing.Outcome{}, err
		}
	}
	return processing.Outcome{Status: transcripts.StatusCompleted}, nil
}

func (f *fakeProcessor) MarkFailed(ctx context.Context, transcriptID string, cause error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed = append(f.failed, transcriptID)
	return nil
}

type fakeCleaner struct {
	olderThan time.Duration
}

func (f *fakeCleaner) Cleanup(ctx context.Context, olderThan time.Duration) (int, error) {
	f.olderThan = olderThan
	return 2, nil
}

func processTask(t *testing.T, p ProcessPayload) *asynq.Task {
	t.Helper()
	task, err := NewProcessTask(p)
	require.NoError(t, err)
	return task
}

func TestProcessTaskPayloadShape(t *testing.T) {
	task := processTask(t, ProcessPayload{TranscriptID: "tr-1", UserID: "user-1", RequestID: "req-1", EnqueuedAt: "2025-11-15T10:00:00Z"})
	assert.Equal(t, TypeProcessTranscript, task.Type())

	var raw map[string]any
	require.NoError(t, json.Unmarshal(task.Payload(), &raw))
	assert.Equal(t, "tr-1", raw["transcriptId"])
	assert.Equal(t, "user-1", raw["userId"])
	assert.Equal(t, "req-1", raw["requestId"])
	assert.Equal(t, "2025-11-15T10:00:00Z", raw["enqueuedAt"])
}

func TestParseProcessPayloadRejects(t *testing.T) {
	_, _, err := ParseProcessPayload(nil)
	var decodeErr ErrDecode
	assert.ErrorAs(t, err, &decodeErr)

	_, meta, err := ParseProcessPayload([]byte("{not json"))
	assert.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, 9, meta.Len)
	assert.Len(t, meta.SHA, 64)

	_, _, err = ParseProcessPayload([]byte(`{"userId":"u","requestId":"r"}`))
	var missing ErrMissingTranscriptID
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "r", missing.RequestID)
}

func TestRetryDelayDoubles(t *testing.T) {
	assert.Equal(t, 60*time.Second, RetryDelay(0, nil, nil))
	assert.Equal(t, 120*time.Second, RetryDelay(1, nil, nil))
	assert.Equal(t, 240*time.Second, RetryDelay(2, nil, nil))
	assert.Equal(t, RetryDelay(10, nil, nil), RetryDelay(50, nil, nil))
}

func TestProcessTaskSuccessCarriesRequestID(t *testing.T) {
	proc := &fakeProcessor{}
	h := &Handler{Processor: proc}

	err := h.ProcessTask(context.Background(), processTask(t, ProcessPayload{TranscriptID: "tr-1", UserID: "user-1", RequestID: "req-9"}))
	require.NoError(t, err)
	assert.Equal(t, "user-1", proc.lastUser)
	assert.Equal(t, "req-9", proc.lastReq)
}

func TestProcessTaskSkipsRetryForBadPayloadAndMissingTranscript(t *testing.T) {
	proc := &fakeProcessor{errs: []error{processing.ErrTranscriptMissing}}
	h := &Handler{Processor: proc}

	err := h.ProcessTask(context.Background(), asynq.NewTask(TypeProcessTranscript, []byte("garbage")))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	err = h.process(context.Background(), ProcessPayload{TranscriptID: "tr-1"}, false)
	assert.ErrorIs(t, err, asynq.SkipRetry)
	assert.ErrorIs(t, err, processing.ErrTranscriptMissing)
	assert.Empty(t, proc.failed)
}

func TestProcessSkipsRetryForSupersededRun(t *testing.T) {
	proc := &fakeProcessor{errs: []error{fmt.Errorf("%w: tr-1", processing.ErrSuperseded)}}
	h := &Handler{Processor: proc}

	err := h.process(context.Background(), ProcessPayload{TranscriptID: "tr-1"}, false)
	assert.ErrorIs(t, err, asynq.SkipRetry)
	assert.Empty(t, proc.failed)
}

func TestProcessFailsFastWhenLLMNotConfigured(t *testing.T) {
	cause := fmt.Errorf("%w: %w", processing.ErrUpstream, llm.ErrNotConfigured)
	proc := &fakeProcessor{errs: []error{cause}}
	h := &Handler{Processor: proc}

	err := h.process(context.Background(), ProcessPayload{TranscriptID: "tr-1"}, false)
	assert.ErrorIs(t, err, asynq.SkipRetry)
	assert.Equal(t, []string{"tr-1"}, proc.failed)
}

func TestProcessMarksFailedOnlyOnFinalAttempt(t *testing.T) {
	upstream := errors.New("upstream down")
	proc := &fakeProcessor{errs: []error{upstream, upstream}}
	h := &Handler{Processor: proc}

	err := h.process(context.Background(), ProcessPayload{TranscriptID: "tr-1"}, false)
	var procErr ErrProcess
	require.ErrorAs(t, err, &procErr)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
	assert.Empty(t, proc.failed)

	err = h.process(context.Background(), ProcessPayload{TranscriptID: "tr-1"}, true)
	require.Error(t, err)
	assert.Equal(t, []string{"tr-1"}, proc.failed)
}

func TestCleanupTaskUsesPayloadOrDefault(t *testing.T) {
	cleaner := &fakeCleaner{}
	h := &Handler{Cleaner: cleaner, RetentionDays: 30}

	task, err := NewCleanupTask(7)
	require.NoError(t, err)
	require.NoError(t, h.CleanupTask(context.Background(), task))
	assert.Equal(t, 7*24*time.Hour, cleaner.olderThan)

	require.NoError(t, h.CleanupTask(context.Background(), asynq.NewTask(TypeCleanup, nil)))
	assert.Equal(t, 30*24*time.Hour, cleaner.olderThan)

	err = h.CleanupTask(context.Background(), asynq.NewTask(TypeCleanup, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestInlineEnqueuerRetriesUntilSuccess(t *testing.T) {
	upstream := errors.New("upstream down")
	proc := &fakeProcessor{errs: []error{upstream, upstream}}
	enq := NewInlineEnqueuer(&Handler{Processor: proc})
	enq.Delay = func(int) time.Duration { return 0 }

	ctx, cancel := context.WithCancel(telemetry.WithRequestID(context.Background(), "req-1"))
	require.NoError(t, enq.EnqueueProcess(ctx, "tr-1", "user-1"))
	cancel()
	enq.Wait()

	assert.Equal(t, 3, proc.calls)
	assert.Empty(t, proc.failed)
	assert.Equal(t, "req-1", proc.lastReq)
}

func TestInlineEnqueuerMarksFailedAfterBudget(t *testing.T) {
	upstream := errors.New("upstream down")
	proc := &fakeProcessor{errs: []error{upstream, upstream, upstream, upstream}}
	enq := NewInlineEnqueuer(&Handler{Processor: proc})
	enq.Delay = func(int) time.Duration { return 0 }

	require.NoError(t, enq.EnqueueProcess(context.Background(), "tr-1", "user-1"))
	enq.Wait()

	assert.Equal(t, DefaultMaxRetry+1, proc.calls)
	assert.Equal(t, []string{"tr-1"}, proc.failed)
}

func TestInlineEnqueuerDoesNotRetryUnconfiguredLLM(t *testing.T) {
	cause := fmt.Errorf("%w: %w", processing.ErrUpstream, llm.ErrNotConfigured)
	proc := &fakeProcessor{errs: []error{cause, cause}}
	enq := NewInlineEnqueuer(&Handler{Processor: proc})
	enq.Delay = func(int) time.Duration { return 0 }

	require.NoError(t, enq.EnqueueProcess(context.Background(), "tr-1", "user-1"))
	enq.Wait()

	assert.Equal(t, 1, proc.calls)
	assert.Equal(t, []string{"tr-1"}, proc.failed)
}

func TestInlineEnqueuerCloseInterruptsRetryWait(t *testing.T) {
	upstream := errors.New("upstream down")
	proc := &fakeProcessor{errs: []error{upstream, upstream}}
	enq := NewInlineEnqueuer(&Handler{Processor: proc})
	enq.Delay = func(int) time.Duration { return time.Hour }

	require.NoError(t, enq.EnqueueProcess(context.Background(), "tr-1", "user-1"))
	require.Eventually(t, func() bool {
		proc.mu.Lock()
		defer proc.mu.Unlock()
		return proc.calls == 1
	}, time.Second, 5*time.Millisecond)

	closed := make(chan struct{})
	go func() {
		_ = enq.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not stop the pending retry")
	}

	assert.Equal(t, 1, proc.calls)
	assert.Empty(t, proc.failed)
	assert.Error(t, enq.EnqueueProcess(context.Background(), "tr-2", "user-1"))
}

func TestRedisOptRequiresURL(t *testing.T) {
	_, err := RedisOpt("")
	assert.Error(t, err)

	opt, err := RedisOpt("redis://localhost:6379/2")
	require.NoError(t, err)
	client, ok := opt.(asynq.RedisClientOpt)
	require.True(t, ok)
	assert.Equal(t, "localhost:6379", client.Addr)
	assert.Equal(t, 2, client.DB)
}
