package processing

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"teamsync-backend/internal/calendar"
	"teamsync-backend/internal/shared/storage/db"
	"teamsync-backend/internal/todos"
	"teamsync-backend/internal/transcripts"
)

// ResultsStore persists the records derived from one transcript.
type ResultsStore interface {
	// Replace swaps the transcript's todos and events for the given set. It
	// fails with ErrSuperseded unless the transcript is still at version, the
	// UploadedAt the run extracted from.
	Replace(ctx context.Context, transcriptID string, version time.Time, items []todos.Todo, events []calendar.Event) error
	Clear(ctx context.Context, transcriptID string) error
}

// MemoryResultsStore writes to the in-memory todo and event repos.
type MemoryResultsStore struct {
	mu          sync.Mutex
	Transcripts transcripts.Repo
	Todos       *todos.MemoryRepo
	Events      *calendar.MemoryRepo
}

// NewMemoryResultsStore constructs a MemoryResultsStore.
func NewMemoryResultsStore(tr transcripts.Repo, t *todos.MemoryRepo, e *calendar.MemoryRepo) *MemoryResultsStore {
	return &MemoryResultsStore{Transcripts: tr, Todos: t, Events: e}
}

func (s *MemoryResultsStore) Replace(ctx context.Context, transcriptID string, version time.Time, items []todos.Todo, events []calendar.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, err := s.Transcripts.GetByID(ctx, transcriptID)
	if errors.Is(err, transcripts.ErrNotFound) {
		return ErrSuperseded
	}
	if err != nil {
		return err
	}
	if !current.UploadedAt.Equal(version) {
		return ErrSuperseded
	}
	return s.write(ctx, transcriptID, items, events)
}

func (s *MemoryResultsStore) Clear(ctx context.Context, transcriptID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(ctx, transcriptID, nil, nil)
}

func (s *MemoryResultsStore) write(ctx context.Context, transcriptID string, items []todos.Todo, events []calendar.Event) error {
	if err := s.Todos.ReplaceForTranscript(ctx, transcriptID, items); err != nil {
		return err
	}
	return s.Events.ReplaceForTranscript(ctx, transcriptID, events)
}

// PGResultsStore writes todos and events in a single transaction.
type PGResultsStore struct {
	DB     *sql.DB
	Todos  *todos.PGRepo
	Events *calendar.PGRepo
}

// NewPGResultsStore constructs a PGResultsStore over database.
func NewPGResultsStore(database *sql.DB) *PGResultsStore {
	return &PGResultsStore{
		DB:     database,
		Todos:  &todos.PGRepo{DB: database},
		Events: &calendar.PGRepo{DB: database},
	}
}

// Replace locks the transcript row before writing, so a concurrent re-upload
// either waits for this commit or is seen as a version change.
func (s *PGResultsStore) Replace(ctx context.Context, transcriptID string, version time.Time, items []todos.Todo, events []calendar.Event) error {
	const query = `SELECT uploaded_at FROM transcripts WHERE id = $1 FOR UPDATE`
	return db.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		var current time.Time
		err := tx.QueryRowContext(ctx, query, transcriptID).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrSuperseded
		}
		if err != nil {
			return err
		}
		if !current.Equal(version) {
			return ErrSuperseded
		}
		return s.write(ctx, tx, transcriptID, items, events)
	})
}

func (s *PGResultsStore) Clear(ctx context.Context, transcriptID string) error {
	return db.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		return s.write(ctx, tx, transcriptID, nil, nil)
	})
}

func (s *PGResultsStore) write(ctx context.Context, tx *sql.Tx, transcriptID string, items []todos.Todo, events []calendar.Event) error {
	if err := s.Todos.DeleteByTranscriptTx(ctx, tx, transcriptID); err != nil {
		return err
	}
	if err := s.Events.DeleteByTranscriptTx(ctx, tx, transcriptID); err != nil {
		return err
	}
	if err := s.Todos.InsertTx(ctx, tx, items); err != nil {
		return err
	}
	return s.Events.InsertTx(ctx, tx, events)
}

var (
	_ ResultsStore = (*MemoryResultsStore)(nil)
	_ ResultsStore = (*PGResultsStore)(nil)
)
