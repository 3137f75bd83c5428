package todos

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"teamsync-backend/internal/transcripts"
)

// TranscriptResolver maps a user's file name to its transcript ID.
type TranscriptResolver interface {
	TranscriptID(ctx context.Context, userID, fileName string) (string, error)
}

// Service contains business logic for todos.
type Service struct {
	Repo        Repo
	Transcripts TranscriptResolver
	Now         func() time.Time
}

// ListQuery is the caller-facing filter; File is a transcript file name.
type ListQuery struct {
	Completed *bool
	File      string
}

// List returns a user's todos plus the most recent update time among them.
func (s *Service) List(ctx context.Context, userID string, q ListQuery) ([]Todo, *time.Time, error) {
	filter := Filter{Completed: q.Completed}
	if file := strings.TrimSpace(q.File); file != "" {
		if s.Transcripts == nil {
			return nil, nil, fmt.Errorf("%w: file filter unavailable", ErrInvalidInput)
		}
		id, err := s.Transcripts.TranscriptID(ctx, userID, file)
		switch {
		case errors.Is(err, transcripts.ErrNotFound):
			return nil, nil, ErrNotFound
		case errors.Is(err, transcripts.ErrInvalidInput):
			return nil, nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		case err != nil:
			return nil, nil, err
		}
		filter.TranscriptID = id
	}

	items, err := s.Repo.ListByUser(ctx, userID, filter)
	if err != nil {
		return nil, nil, err
	}
	return items, lastUpdated(items), nil
}

// SetCompleted toggles the completion flag of one todo.
func (s *Service) SetCompleted(ctx context.Context, userID, id string, completed bool) (Todo, error) {
	if strings.TrimSpace(id) == "" {
		return Todo{}, fmt.Errorf("%w: id required", ErrInvalidInput)
	}
	return s.Repo.SetCompleted(ctx, userID, id, completed, s.now())
}

// Count returns how many todos a user has.
func (s *Service) Count(ctx context.Context, userID string) (int, error) {
	return s.Repo.CountByUser(ctx, userID)
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func lastUpdated(items []Todo) *time.Time {
	var latest *time.Time
	for i := range items {
		ts := items[i].UpdatedAt
		if latest == nil || ts.After(*latest) {
			latest = &ts
		}
	}
	return latest
}
