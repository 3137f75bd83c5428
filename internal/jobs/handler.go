package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"teamsync-backend/internal/llm"
	"teamsync-backend/internal/processing"
	"teamsync-backend/internal/shared/metrics"
	"teamsync-backend/internal/shared/telemetry"
)

const markFailedTimeout = 10 * time.Second

// Processor runs extraction for a transcript.
type Processor interface {
	Process(ctx context.Context, transcriptID, userID string) (processing.Outcome, error)
	MarkFailed(ctx context.Context, transcriptID string, cause error) error
}

// Cleaner deletes transcripts older than the given age.
type Cleaner interface {
	Cleanup(ctx context.Context, olderThan time.Duration) (int, error)
}

// Handler executes background tasks.
type Handler struct {
	Processor     Processor
	Cleaner       Cleaner
	RetentionDays int
}

// Register attaches task handlers to mux.
func (h *Handler) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeProcessTranscript, h.ProcessTask)
	mux.HandleFunc(TypeCleanup, h.CleanupTask)
}

// ProcessTask handles transcript:process. Malformed payloads, missing or
// re-uploaded transcripts and an unconfigured LLM are not retried; the last
// failed attempt marks the transcript failed.
func (h *Handler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	p, meta, err := ParseProcessPayload(task.Payload())
	if err != nil {
		metrics.IncJob(TypeProcessTranscript, "failed")
		telemetry.Error("job.payload_invalid", map[string]any{
			"task":        TypeProcessTranscript,
			"payload_len": meta.Len,
			"payload_sha": meta.SHA,
			"error":       err,
		})
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}
	return h.process(ctx, p, isFinalAttempt(ctx))
}

func (h *Handler) process(ctx context.Context, p ProcessPayload, final bool) error {
	ctx = telemetry.WithRequestID(ctx, p.RequestID)
	fields := map[string]any{
		"task":          TypeProcessTranscript,
		"transcript_id": p.TranscriptID,
		"user_id":       p.UserID,
		"request_id":    p.RequestID,
	}

	out, err := h.Processor.Process(ctx, p.TranscriptID, p.UserID)
	if err == nil {
		metrics.IncJob(TypeProcessTranscript, "ok")
		fields["status"] = string(out.Status)
		telemetry.Info("job.done", fields)
		return nil
	}

	fields["error"] = err
	wrapped := ErrProcess{TranscriptID: p.TranscriptID, RequestID: p.RequestID, Err: err}
	switch {
	case errors.Is(err, processing.ErrTranscriptMissing), errors.Is(err, processing.ErrSuperseded):
		metrics.IncJob(TypeProcessTranscript, "skipped")
		telemetry.Warn("job.skipped", fields)
		return fmt.Errorf("%w: %w", wrapped, asynq.SkipRetry)
	case errors.Is(err, llm.ErrNotConfigured):
		metrics.IncJob(TypeProcessTranscript, "failed")
		telemetry.Error("job.failed", fields)
		h.markFailed(ctx, p.TranscriptID, err)
		return fmt.Errorf("%w: %w", wrapped, asynq.SkipRetry)
	case final:
		metrics.IncJob(TypeProcessTranscript, "failed")
		telemetry.Error("job.failed", fields)
		h.markFailed(ctx, p.TranscriptID, err)
		return wrapped
	default:
		metrics.IncJob(TypeProcessTranscript, "retry")
		telemetry.Warn("job.retry", fields)
		return wrapped
	}
}

func (h *Handler) markFailed(ctx context.Context, transcriptID string, cause error) {
	markCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), markFailedTimeout)
	defer cancel()
	if err := h.Processor.MarkFailed(markCtx, transcriptID, cause); err != nil {
		telemetry.Error("job.mark_failed_error", map[string]any{
			"transcript_id": transcriptID,
			"error":         err,
		})
	}
}

// CleanupTask handles transcripts:cleanup.
func (h *Handler) CleanupTask(ctx context.Context, task *asynq.Task) error {
	p, err := ParseCleanupPayload(task.Payload())
	if err != nil {
		metrics.IncJob(TypeCleanup, "failed")
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}
	days := p.OlderThanDays
	if days <= 0 {
		days = h.RetentionDays
	}
	if days <= 0 {
		telemetry.Warn("job.cleanup_disabled", nil)
		return nil
	}

	deleted, err := h.Cleaner.Cleanup(ctx, time.Duration(days)*24*time.Hour)
	if err != nil {
		metrics.IncJob(TypeCleanup, "retry")
		telemetry.Error("job.cleanup_failed", map[string]any{"error": err, "deleted": deleted})
		return err
	}
	metrics.IncJob(TypeCleanup, "ok")
	telemetry.Info("job.cleanup_done", map[string]any{"deleted": deleted, "older_than_days": days})
	return nil
}

func isFinalAttempt(ctx context.Context) bool {
	retried, ok := asynq.GetRetryCount(ctx)
	if !ok {
		return true
	}
	maxRetry, ok := asynq.GetMaxRetry(ctx)
	if !ok {
		return true
	}
	return retried >= maxRetry
}
