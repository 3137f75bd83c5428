package calendar

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const eventColumns = `id, user_id, transcript_id, title, event_date, description, is_scheduled, position, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (Event, error) {
	var e Event
	var date sql.NullTime
	if err := row.Scan(
		&e.ID,
		&e.UserID,
		&e.TranscriptID,
		&e.Title,
		&date,
		&e.Description,
		&e.IsScheduled,
		&e.Position,
		&e.CreatedAt,
	); err != nil {
		return Event{}, err
	}
	if date.Valid {
		d := date.Time
		e.EventDate = &d
	}
	return e, nil
}

func (r *PGRepo) ListByUser(ctx context.Context, userID string, filter Filter) ([]Event, error) {
	var b strings.Builder
	b.WriteString(`SELECT ` + eventColumns + ` FROM calendar_events WHERE user_id = $1`)
	args := []any{userID}
	next := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	if filter.Scheduled != nil {
		b.WriteString(` AND is_scheduled = ` + next(*filter.Scheduled))
	}
	if filter.TranscriptID != "" {
		b.WriteString(` AND transcript_id = ` + next(filter.TranscriptID))
	}
	if filter.From != nil {
		b.WriteString(` AND (event_date IS NULL OR event_date >= ` + next(*filter.From) + `)`)
	}
	if filter.To != nil {
		b.WriteString(` AND (event_date IS NULL OR event_date <= ` + next(*filter.To) + `)`)
	}
	b.WriteString(` ORDER BY event_date ASC NULLS LAST, created_at DESC, transcript_id ASC, position ASC`)

	rows, err := r.DB.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *PGRepo) DeleteByTranscript(ctx context.Context, transcriptID string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM calendar_events WHERE transcript_id = $1`, transcriptID)
	return err
}

// DeleteByTranscriptTx is DeleteByTranscript inside tx.
func (r *PGRepo) DeleteByTranscriptTx(ctx context.Context, tx *sql.Tx, transcriptID string) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM calendar_events WHERE transcript_id = $1`, transcriptID)
	return err
}

// InsertTx writes events inside tx.
func (r *PGRepo) InsertTx(ctx context.Context, tx *sql.Tx, events []Event) error {
	const query = `
INSERT INTO calendar_events (
    id,
    user_id,
    transcript_id,
    title,
    event_date,
    description,
    is_scheduled,
    position,
    created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	for _, e := range events {
		var date sql.NullTime
		if e.EventDate != nil {
			date = sql.NullTime{Time: *e.EventDate, Valid: true}
		}
		if _, err := tx.ExecContext(ctx, query,
			e.ID,
			e.UserID,
			e.TranscriptID,
			e.Title,
			date,
			e.Description,
			e.IsScheduled,
			e.Position,
			e.CreatedAt,
		); err != nil {
			return err
		}
	}
	return nil
}

func (r *PGRepo) CountByUser(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM calendar_events WHERE user_id = $1`, userID).Scan(&n)
	return n, err
}

var _ Repo = (*PGRepo)(nil)
