package transcripts

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Transcript // id -> transcript
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]Transcript)}
}

func (r *MemoryRepo) Upsert(ctx context.Context, t Transcript) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	replaced := false
	for id, existing := range r.data {
		if existing.UserID == t.UserID && existing.FileName == t.FileName {
			t.ID = id
			replaced = true
			break
		}
	}
	t.Status = StatusPending
	t.StatusError = ""
	t.Attempts = 0
	t.ProcessedAt = nil
	r.data[t.ID] = t
	return t.ID, replaced, nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Transcript, error) {
	if err := ctx.Err(); err != nil {
		return Transcript{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.data[id]
	if !ok {
		return Transcript{}, ErrNotFound
	}
	return t, nil
}

func (r *MemoryRepo) GetByName(ctx context.Context, userID, fileName string) (Transcript, error) {
	if err := ctx.Err(); err != nil {
		return Transcript{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.data {
		if t.UserID == userID && t.FileName == fileName {
			return t, nil
		}
	}
	return Transcript{}, ErrNotFound
}

// List returns a user's transcripts, most recent upload first.
func (r *MemoryRepo) List(ctx context.Context, userID string) ([]Transcript, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Transcript
	for _, t := range r.data {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UploadedAt.Equal(out[j].UploadedAt) {
			return out[i].FileName < out[j].FileName
		}
		return out[i].UploadedAt.After(out[j].UploadedAt)
	})
	return out, nil
}

func (r *MemoryRepo) Delete(ctx context.Context, userID, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.data[id]
	if !ok || t.UserID != userID {
		return ErrNotFound
	}
	delete(r.data, id)
	return nil
}

func (r *MemoryRepo) UpdateStatus(ctx context.Context, id string, update StatusUpdate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.data[id]
	if !ok {
		return ErrNotFound
	}
	t.Status = update.Status
	t.StatusError = update.Error
	if update.IncrementAttempt {
		t.Attempts++
	}
	if update.ProcessedAt != nil {
		at := *update.ProcessedAt
		t.ProcessedAt = &at
	}
	r.data[id] = t
	return nil
}

func (r *MemoryRepo) ListOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]Transcript, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Transcript
	for _, t := range r.data {
		if t.UploadedAt.Before(cutoff) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UploadedAt.Before(out[j].UploadedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryRepo) Stats(ctx context.Context, userID string) (Stats, error) {
	if err := ctx.Err(); err != nil {
		return Stats{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var s Stats
	for _, t := range r.data {
		if t.UserID != userID {
			continue
		}
		s.Files++
		s.Messages += t.MessageCount
		if t.Status == StatusPending || t.Status == StatusProcessing {
			s.Pending++
		}
	}
	return s, nil
}

var _ Repo = (*MemoryRepo)(nil)
