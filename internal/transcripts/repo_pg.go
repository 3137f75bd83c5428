package transcripts

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const transcriptColumns = `id, user_id, file_name, storage_key, size_bytes, content, message_count, status, status_error, attempts, uploaded_at, processed_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTranscript(row rowScanner) (Transcript, error) {
	var t Transcript
	var status string
	var statusError sql.NullString
	var processedAt sql.NullTime
	if err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.FileName,
		&t.StorageKey,
		&t.SizeBytes,
		&t.Content,
		&t.MessageCount,
		&status,
		&statusError,
		&t.Attempts,
		&t.UploadedAt,
		&processedAt,
	); err != nil {
		return Transcript{}, err
	}
	t.Status = Status(status)
	if statusError.Valid {
		t.StatusError = statusError.String
	}
	if processedAt.Valid {
		at := processedAt.Time
		t.ProcessedAt = &at
	}
	return t, nil
}

// Upsert inserts or replaces by (user_id, file_name). xmax is non-zero when
// the conflicting row was updated.
func (r *PGRepo) Upsert(ctx context.Context, t Transcript) (string, bool, error) {
	const query = `
INSERT INTO transcripts (
    id,
    user_id,
    file_name,
    storage_key,
    size_bytes,
    content,
    message_count,
    status,
    status_error,
    attempts,
    uploaded_at,
    processed_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, 'pending', NULL, 0, $8, NULL)
ON CONFLICT (user_id, file_name) DO UPDATE SET
    storage_key = EXCLUDED.storage_key,
    size_bytes = EXCLUDED.size_bytes,
    content = EXCLUDED.content,
    message_count = EXCLUDED.message_count,
    status = 'pending',
    status_error = NULL,
    attempts = 0,
    uploaded_at = EXCLUDED.uploaded_at,
    processed_at = NULL
RETURNING id, (xmax <> 0) AS replaced`

	var id string
	var replaced bool
	err := r.DB.QueryRowContext(
		ctx,
		query,
		t.ID,
		t.UserID,
		t.FileName,
		t.StorageKey,
		t.SizeBytes,
		t.Content,
		t.MessageCount,
		t.UploadedAt,
	).Scan(&id, &replaced)
	if err != nil {
		return "", false, err
	}
	return id, replaced, nil
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (Transcript, error) {
	query := `SELECT ` + transcriptColumns + ` FROM transcripts WHERE id = $1`
	t, err := scanTranscript(r.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Transcript{}, ErrNotFound
	}
	return t, err
}

func (r *PGRepo) GetByName(ctx context.Context, userID, fileName string) (Transcript, error) {
	query := `SELECT ` + transcriptColumns + ` FROM transcripts WHERE user_id = $1 AND file_name = $2`
	t, err := scanTranscript(r.DB.QueryRowContext(ctx, query, userID, fileName))
	if errors.Is(err, sql.ErrNoRows) {
		return Transcript{}, ErrNotFound
	}
	return t, err
}

func (r *PGRepo) List(ctx context.Context, userID string) ([]Transcript, error) {
	query := `SELECT ` + transcriptColumns + ` FROM transcripts WHERE user_id = $1 ORDER BY uploaded_at DESC, file_name ASC`
	return r.query(ctx, query, userID)
}

// Delete removes the row; todos and calendar events cascade.
func (r *PGRepo) Delete(ctx context.Context, userID, id string) error {
	const query = `DELETE FROM transcripts WHERE user_id = $1 AND id = $2`
	res, err := r.DB.ExecContext(ctx, query, userID, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) UpdateStatus(ctx context.Context, id string, update StatusUpdate) error {
	const query = `
UPDATE transcripts
SET status = $1,
    status_error = NULLIF($2, ''),
    attempts = attempts + $3,
    processed_at = COALESCE($4, processed_at)
WHERE id = $5`

	increment := 0
	if update.IncrementAttempt {
		increment = 1
	}
	var processedAt sql.NullTime
	if update.ProcessedAt != nil {
		processedAt = sql.NullTime{Time: *update.ProcessedAt, Valid: true}
	}
	res, err := r.DB.ExecContext(ctx, query, string(update.Status), update.Error, increment, processedAt, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) ListOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]Transcript, error) {
	if limit <= 0 {
		limit = 500
	}
	query := `SELECT ` + transcriptColumns + ` FROM transcripts WHERE uploaded_at < $1 ORDER BY uploaded_at ASC LIMIT $2`
	return r.query(ctx, query, cutoff, limit)
}

func (r *PGRepo) Stats(ctx context.Context, userID string) (Stats, error) {
	const query = `
SELECT COUNT(*),
       COALESCE(SUM(message_count), 0),
       COUNT(*) FILTER (WHERE status IN ('pending', 'processing'))
FROM transcripts
WHERE user_id = $1`
	var s Stats
	if err := r.DB.QueryRowContext(ctx, query, userID).Scan(&s.Files, &s.Messages, &s.Pending); err != nil {
		return Stats{}, err
	}
	return s, nil
}

func (r *PGRepo) query(ctx context.Context, query string, args ...any) ([]Transcript, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transcript
	for rows.Next() {
		t, err := scanTranscript(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

var _ Repo = (*PGRepo)(nil)
