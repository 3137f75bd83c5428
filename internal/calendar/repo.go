package calendar

import "context"

// Repo defines persistence operations for calendar events.
type Repo interface {
	ListByUser(ctx context.Context, userID string, filter Filter) ([]Event, error)
	DeleteByTranscript(ctx context.Context, transcriptID string) error
	CountByUser(ctx context.Context, userID string) (int, error)
}
