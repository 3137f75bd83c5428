package transcripts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"teamsync-backend/internal/chatparse"
	"teamsync-backend/internal/shared/metrics"
	"teamsync-backend/internal/shared/storage/object"
	"teamsync-backend/internal/shared/telemetry"
	"teamsync-backend/internal/shared/util"
)

const (
	defaultMaxBytes = 10 << 20
	cleanupBatch    = 500
	contentType     = "text/plain; charset=utf-8"
)

// Enqueuer schedules background extraction of a transcript.
type Enqueuer interface {
	EnqueueProcess(ctx context.Context, transcriptID, userID string) error
}

// ResultsClearer removes the todos and events derived from a transcript.
type ResultsClearer interface {
	Clear(ctx context.Context, transcriptID string) error
}

// Service contains business logic for transcripts.
type Service struct {
	Repo     Repo
	Store    object.ObjectStore
	Results  ResultsClearer
	Enqueuer Enqueuer
	MaxBytes int64
	Now      func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// UploadResult reports the stored transcript and whether it replaced one.
type UploadResult struct {
	Transcript Transcript
	Replaced   bool
}

// Upload decodes and stores a chat export, replaces any transcript with the
// same name, and schedules extraction.
func (s *Service) Upload(ctx context.Context, userID, fileName string, r io.Reader) (UploadResult, error) {
	if userID == "" {
		return UploadResult{}, fmt.Errorf("%w: user id required", ErrInvalidInput)
	}
	name, err := util.SanitizeFileName(fileName)
	if err != nil {
		return UploadResult{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	maxBytes := s.MaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}
	raw, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return UploadResult{}, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(raw)) > maxBytes {
		return UploadResult{}, ErrTooLarge
	}

	text, err := chatparse.Decode(raw)
	if err != nil {
		return UploadResult{}, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}

	id := uuid.NewString()
	existing, err := s.Repo.GetByName(ctx, userID, name)
	isNew := errors.Is(err, ErrNotFound)
	switch {
	case err == nil:
		id = existing.ID
	case !isNew:
		return UploadResult{}, err
	}

	key, err := object.TranscriptKey(userID, id, name)
	if err != nil {
		return UploadResult{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	size, err := s.Store.Put(ctx, key, contentType, bytes.NewReader(raw))
	if err != nil {
		return UploadResult{}, fmt.Errorf("store transcript: %w", err)
	}

	t := Transcript{
		ID:           id,
		UserID:       userID,
		FileName:     name,
		StorageKey:   key,
		SizeBytes:    size,
		Content:      text,
		MessageCount: chatparse.CountMessages(text),
		Status:       StatusPending,
		UploadedAt:   s.now(),
	}
	storedID, replaced, err := s.Repo.Upsert(ctx, t)
	if err != nil {
		if isNew {
			s.discardObject(ctx, key)
		}
		return UploadResult{}, fmt.Errorf("save transcript: %w", err)
	}
	t.ID = storedID

	if replaced && s.Results != nil {
		if err := s.Results.Clear(ctx, t.ID); err != nil {
			return UploadResult{}, fmt.Errorf("clear derived records: %w", err)
		}
	}

	metrics.IncUpload(replaced)
	telemetry.Info("transcript.uploaded", map[string]any{
		"transcript_id": t.ID,
		"user_id":       userID,
		"file_name":     name,
		"size_bytes":    size,
		"messages":      t.MessageCount,
		"replaced":      replaced,
	})

	if err := s.enqueue(ctx, t); err != nil {
		return UploadResult{Transcript: t, Replaced: replaced}, err
	}
	return UploadResult{Transcript: t, Replaced: replaced}, nil
}

// discardObject removes an object written for a row that was never saved.
func (s *Service) discardObject(ctx context.Context, key string) {
	if err := s.Store.Delete(context.WithoutCancel(ctx), key); err != nil {
		telemetry.Warn("transcript.object_delete_failed", map[string]any{
			"storage_key": key,
			"error":       err,
		})
	}
}

// Reprocess resets a transcript to pending and schedules extraction again.
func (s *Service) Reprocess(ctx context.Context, userID, fileName string) (Transcript, error) {
	t, err := s.Get(ctx, userID, fileName)
	if err != nil {
		return Transcript{}, err
	}
	if err := s.Repo.UpdateStatus(ctx, t.ID, StatusUpdate{Status: StatusPending}); err != nil {
		return Transcript{}, err
	}
	t.Status = StatusPending
	t.StatusError = ""
	if err := s.enqueue(ctx, t); err != nil {
		return t, err
	}
	return t, nil
}

func (s *Service) enqueue(ctx context.Context, t Transcript) error {
	if s.Enqueuer == nil {
		return nil
	}
	if err := s.Enqueuer.EnqueueProcess(ctx, t.ID, t.UserID); err != nil {
		telemetry.Error("jobs.enqueue_failed", map[string]any{
			"transcript_id": t.ID,
			"error":         err,
		})
		_ = s.Repo.UpdateStatus(ctx, t.ID, StatusUpdate{Status: StatusFailed, Error: "could not schedule processing"})
		return fmt.Errorf("%w: %v", ErrEnqueue, err)
	}
	return nil
}

// List returns a user's transcripts, most recent first.
func (s *Service) List(ctx context.Context, userID string) ([]Transcript, error) {
	if userID == "" {
		return nil, ErrInvalidInput
	}
	return s.Repo.List(ctx, userID)
}

// Get returns one transcript by file name.
func (s *Service) Get(ctx context.Context, userID, fileName string) (Transcript, error) {
	if userID == "" || fileName == "" {
		return Transcript{}, ErrInvalidInput
	}
	name, err := util.SanitizeFileName(fileName)
	if err != nil {
		return Transcript{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return s.Repo.GetByName(ctx, userID, name)
}

// TranscriptID resolves a file name to its transcript ID.
func (s *Service) TranscriptID(ctx context.Context, userID, fileName string) (string, error) {
	t, err := s.Get(ctx, userID, fileName)
	if err != nil {
		return "", err
	}
	return t.ID, nil
}

// Stats summarizes a user's uploads.
func (s *Service) Stats(ctx context.Context, userID string) (Stats, error) {
	return s.Repo.Stats(ctx, userID)
}

// Delete removes a transcript, its derived records and the stored upload.
func (s *Service) Delete(ctx context.Context, userID, fileName string) error {
	t, err := s.Get(ctx, userID, fileName)
	if err != nil {
		return err
	}
	return s.remove(ctx, t)
}

func (s *Service) remove(ctx context.Context, t Transcript) error {
	if s.Results != nil {
		if err := s.Results.Clear(ctx, t.ID); err != nil {
			return fmt.Errorf("clear derived records: %w", err)
		}
	}
	if err := s.Repo.Delete(ctx, t.UserID, t.ID); err != nil {
		return err
	}
	if t.StorageKey != "" {
		if err := s.Store.Delete(ctx, t.StorageKey); err != nil {
			telemetry.Warn("transcript.object_delete_failed", map[string]any{
				"transcript_id": t.ID,
				"storage_key":   t.StorageKey,
				"error":         err,
			})
		}
	}
	telemetry.Info("transcript.deleted", map[string]any{
		"transcript_id": t.ID,
		"user_id":       t.UserID,
	})
	return nil
}

// Cleanup deletes transcripts uploaded more than olderThan ago.
func (s *Service) Cleanup(ctx context.Context, olderThan time.Duration) (int, error) {
	if olderThan <= 0 {
		return 0, fmt.Errorf("%w: retention must be positive", ErrInvalidInput)
	}
	cutoff := s.now().Add(-olderThan)
	deleted := 0
	for {
		batch, err := s.Repo.ListOlderThan(ctx, cutoff, cleanupBatch)
		if err != nil {
			return deleted, err
		}
		if len(batch) == 0 {
			break
		}
		for _, t := range batch {
			if err := s.remove(ctx, t); err != nil && !errors.Is(err, ErrNotFound) {
				return deleted, err
			}
			deleted++
		}
		if len(batch) < cleanupBatch {
			break
		}
	}
	metrics.AddCleanupDeleted(deleted)
	telemetry.Info("transcripts.cleanup", map[string]any{
		"deleted": deleted,
		"cutoff":  cutoff.Format(time.RFC3339),
	})
	return deleted, nil
}
