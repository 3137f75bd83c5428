package calendar

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Event // id -> event
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]Event)}
}

// ListByUser returns dated events ascending, then unscheduled ones.
func (r *MemoryRepo) ListByUser(ctx context.Context, userID string, filter Filter) ([]Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Event
	for _, e := range r.data {
		if e.UserID == userID && filter.matches(e) {
			out = append(out, e)
		}
	}
	sortEvents(out)
	return out, nil
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

// ReplaceForTranscript swaps every event of transcriptID for events in one step.
func (r *MemoryRepo) ReplaceForTranscript(ctx context.Context, transcriptID string, events []Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleteByTranscriptLocked(transcriptID)
	for _, e := range events {
		r.data[e.ID] = e
	}
	return nil
}

func (r *MemoryRepo) deleteByTranscriptLocked(transcriptID string) {
	for id, e := range r.data {
		if e.TranscriptID == transcriptID {
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
	for _, e := range r.data {
		if e.UserID == userID {
			n++
		}
	}
	return n, nil
}

func sortEvents(events []Event) {
	sort.Slice(events, func(i, j int) bool {
		a, b := events[i], events[j]
		switch {
		case a.EventDate != nil && b.EventDate == nil:
			return true
		case a.EventDate == nil && b.EventDate != nil:
			return false
		case a.EventDate != nil && !a.EventDate.Equal(*b.EventDate):
			return a.EventDate.Before(*b.EventDate)
		}
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
