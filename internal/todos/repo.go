package todos

import (
	"context"
	"time"
)

// Repo defines persistence operations for todos.
type Repo interface {
	ListByUser(ctx context.Context, userID string, filter Filter) ([]Todo, error)
	Get(ctx context.Context, userID, id string) (Todo, error)
	SetCompleted(ctx context.Context, userID, id string, completed bool, at time.Time) (Todo, error)
	DeleteByTranscript(ctx context.Context, transcriptID string) error
	CountByUser(ctx context.Context, userID string) (int, error)
}
