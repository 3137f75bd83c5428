package todos

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Todo // id -> todo
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]Todo)}
}

// ListByUser returns todos newest transcript batch first, in extraction order.
func (r *MemoryRepo) ListByUser(ctx context.Context, userID string, filter Filter) ([]Todo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Todo
	for _, t := range r.data {
		if t.UserID == userID && filter.matches(t) {
			out = append(out, t)
		}
	}
	sortTodos(out)
	return out, nil
}

func (r *MemoryRepo) Get(ctx context.Context, userID, id string) (Todo, error) {
	if err := ctx.Err(); err != nil {
		return Todo{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.data[id]
	if !ok || t.UserID != userID {
		return Todo{}, ErrNotFound
	}
	return t, nil
}

func (r *MemoryRepo) SetCompleted(ctx context.Context, userID, id string, completed bool, at time.Time) (Todo, error) {
	if err := ctx.Err(); err != nil {
		return Todo{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.data[id]
	if !ok || t.UserID != userID {
		return Todo{}, ErrNotFound
	}
	t.Completed = completed
	t.UpdatedAt = at
	r.data[id] = t
	return t, nil
}

func (r *MemoryRepo) DeleteByTranscript(ctx context.Context, transcriptID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleteByTranscriptLocked(transcriptID)
	return nil
}

// ReplaceForTranscript swaps every todo of transcriptID for items in one step.
func (r *MemoryRepo) ReplaceForTranscript(ctx context.Context, transcriptID string, items []Todo) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleteByTranscriptLocked(transcriptID)
	for _, t := range items {
		r.data[t.ID] = t
	}
	return nil
}

func (r *MemoryRepo) deleteByTranscriptLocked(transcriptID string) {
	for id, t := range r.data {
		if t.TranscriptID == transcriptID {
			delete(r.data, id)
		}
	}
}

func (r *MemoryRepo) CountByUser(ctx context.Context, userID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, t := range r.data {
		if t.UserID == userID {
			n++
		}
	}
	return n, nil
}

func sortTodos(items []Todo) {
	sort.Slice(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		if a.TranscriptID != b.TranscriptID {
			return a.TranscriptID < b.TranscriptID
		}
		return a.Position < b.Position
	})
}

var _ Repo = (*MemoryRepo)(nil)
