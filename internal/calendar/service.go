package calendar

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"teamsync-backend/internal/transcripts"
)

const dateLayout = "2006-01-02"

// TranscriptResolver maps a user's file name to its transcript ID.
type TranscriptResolver interface {
	TranscriptID(ctx context.Context, userID, fileName string) (string, error)
}

// Service contains business logic for calendar events.
type Service struct {
	Repo        Repo
	Transcripts TranscriptResolver
}

// ListQuery carries raw query values; dates use YYYY-MM-DD.
type ListQuery struct {
	From      string
	To        string
	Scheduled *bool
	File      string
}

// List returns a user's events, dated first.
func (s *Service) List(ctx context.Context, userID string, q ListQuery) ([]Event, error) {
	filter := Filter{Scheduled: q.Scheduled}

	from, err := parseDay(q.From)
	if err != nil {
		return nil, fmt.Errorf("%w: from: %v", ErrInvalidInput, err)
	}
	to, err := parseDay(q.To)
	if err != nil {
		return nil, fmt.Errorf("%w: to: %v", ErrInvalidInput, err)
	}
	if from != nil && to != nil && to.Before(*from) {
		return nil, fmt.Errorf("%w: to is before from", ErrInvalidInput)
	}
	filter.From, filter.To = from, to

	if file := strings.TrimSpace(q.File); file != "" {
		if s.Transcripts == nil {
			return nil, fmt.Errorf("%w: file filter unavailable", ErrInvalidInput)
		}
		id, err := s.Transcripts.TranscriptID(ctx, userID, file)
		switch {
		case errors.Is(err, transcripts.ErrNotFound):
			return nil, ErrNotFound
		case errors.Is(err, transcripts.ErrInvalidInput):
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		case err != nil:
			return nil, err
		}
		filter.TranscriptID = id
	}

	return s.Repo.ListByUser(ctx, userID, filter)
}

// Count returns how many events a user has.
func (s *Service) Count(ctx context.Context, userID string) (int, error) {
	return s.Repo.CountByUser(ctx, userID)
}

func parseDay(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dateLayout, raw, time.UTC)
	if err != nil {
		return nil, errors.New("expected YYYY-MM-DD")
	}
	return &t, nil
}
