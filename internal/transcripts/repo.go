package transcripts

import (
	"context"
	"time"
)

// Repo defines persistence operations for transcripts.
type Repo interface {
	// Upsert inserts t or replaces the row with the same (UserID, FileName),
	// keeping its ID and resetting status to pending.
	Upsert(ctx context.Context, t Transcript) (id string, replaced bool, err error)
	GetByID(ctx context.Context, id string) (Transcript, error)
	GetByName(ctx context.Context, userID, fileName string) (Transcript, error)
	List(ctx context.Context, userID string) ([]Transcript, error)
	Delete(ctx context.Context, userID, id string) error
	UpdateStatus(ctx context.Context, id string, update StatusUpdate) error
	ListOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]Transcript, error)
	Stats(ctx context.Context, userID string) (Stats, error)
}
