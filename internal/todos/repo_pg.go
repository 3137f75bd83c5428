package todos

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const todoColumns = `id, user_id, transcript_id, task, priority, completed, due_date, position, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTodo(row rowScanner) (Todo, error) {
	var t Todo
	var due sql.NullTime
	if err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.TranscriptID,
		&t.Task,
		&t.Priority,
		&t.Completed,
		&due,
		&t.Position,
		&t.CreatedAt,
		&t.UpdatedAt,
	); err != nil {
		return Todo{}, err
	}
	if due.Valid {
		d := due.Time
		t.DueDate = &d
	}
	return t, nil
}

func (r *PGRepo) ListByUser(ctx context.Context, userID string, filter Filter) ([]Todo, error) {
	var b strings.Builder
	b.WriteString(`SELECT ` + todoColumns + ` FROM todos WHERE user_id = $1`)
	args := []any{userID}
	if filter.Completed != nil {
		args = append(args, *filter.Completed)
		b.WriteString(` AND completed = $` + strconv.Itoa(len(args)))
	}
	if filter.TranscriptID != "" {
		args = append(args, filter.TranscriptID)
		b.WriteString(` AND transcript_id = $` + strconv.Itoa(len(args)))
	}
	b.WriteString(` ORDER BY created_at DESC, transcript_id ASC, position ASC`)

	rows, err := r.DB.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Todo
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *PGRepo) Get(ctx context.Context, userID, id string) (Todo, error) {
	query := `SELECT ` + todoColumns + ` FROM todos WHERE user_id = $1 AND id = $2`
	t, err := scanTodo(r.DB.QueryRowContext(ctx, query, userID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Todo{}, ErrNotFound
	}
	return t, err
}

func (r *PGRepo) SetCompleted(ctx context.Context, userID, id string, completed bool, at time.Time) (Todo, error) {
	query := `
UPDATE todos SET completed = $1, updated_at = $2
WHERE user_id = $3 AND id = $4
RETURNING ` + todoColumns
	t, err := scanTodo(r.DB.QueryRowContext(ctx, query, completed, at, userID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Todo{}, ErrNotFound
	}
	return t, err
}

func (r *PGRepo) DeleteByTranscript(ctx context.Context, transcriptID string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM todos WHERE transcript_id = $1`, transcriptID)
	return err
}

// DeleteByTranscriptTx is DeleteByTranscript inside tx.
func (r *PGRepo) DeleteByTranscriptTx(ctx context.Context, tx *sql.Tx, transcriptID string) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM todos WHERE transcript_id = $1`, transcriptID)
	return err
}

// InsertTx writes items inside tx.
func (r *PGRepo) InsertTx(ctx context.Context, tx *sql.Tx, items []Todo) error {
	const query = `
INSERT INTO todos (
    id,
    user_id,
    transcript_id,
    task,
    priority,
    completed,
    due_date,
    position,
    created_at,
    updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	for _, t := range items {
		var due sql.NullTime
		if t.DueDate != nil {
			due = sql.NullTime{Time: *t.DueDate, Valid: true}
		}
		if _, err := tx.ExecContext(ctx, query,
			t.ID,
			t.UserID,
			t.TranscriptID,
			t.Task,
			t.Priority,
			t.Completed,
			due,
			t.Position,
			t.CreatedAt,
			t.UpdatedAt,
		); err != nil {
			return err
		}
	}
	return nil
}

func (r *PGRepo) CountByUser(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM todos WHERE user_id = $1`, userID).Scan(&n)
	return n, err
}

var _ Repo = (*PGRepo)(nil)
