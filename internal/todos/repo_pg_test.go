package todos

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var todoRowColumns = []string{"id", "user_id", "transcript_id", "task", "priority", "completed", "due_date", "position", "created_at", "updated_at"}

func newMock(t *testing.T) (*PGRepo, *sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return &PGRepo{DB: db}, db, mock
}

func TestPGListByUserBuildsFilters(t *testing.T) {
	repo, _, mock := newMock(t)
	now := time.Date(2025, 11, 15, 9, 0, 0, 0, time.UTC)
	due := time.Date(2025, 11, 20, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT (.+) FROM todos WHERE user_id = \$1 AND completed = \$2 AND transcript_id = \$3 ORDER BY`).
		WithArgs("user-1", false, "tr-1").
		WillReturnRows(sqlmock.NewRows(todoRowColumns).
			AddRow("a", "user-1", "tr-1", "Book venue", "medium", false, nil, 0, now, now).
			AddRow("b", "user-1", "tr-1", "Send invites", "medium", false, due, 1, now, now))

	open := false
	items, err := repo.ListByUser(context.Background(), "user-1", Filter{Completed: &open, TranscriptID: "tr-1"})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Nil(t, items[0].DueDate)
	require.NotNil(t, items[1].DueDate)
	assert.Equal(t, due, *items[1].DueDate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPGSetCompletedMapsNoRows(t *testing.T) {
	repo, _, mock := newMock(t)
	at := time.Date(2025, 11, 15, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery("UPDATE todos SET completed").
		WithArgs(true, at, "user-1", "missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.SetCompleted(context.Background(), "user-1", "missing", true, at)
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPGInsertTxWritesEveryRow(t *testing.T) {
	repo, db, mock := newMock(t)
	now := time.Date(2025, 11, 15, 9, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM todos WHERE transcript_id").
		WithArgs("tr-1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("INSERT INTO todos").
		WithArgs("a", "user-1", "tr-1", "Book venue", "medium", false, sqlmock.AnyArg(), 0, now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO todos").
		WithArgs("b", "user-1", "tr-1", "Send invites", "medium", false, sqlmock.AnyArg(), 1, now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ctx := context.Background()
	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, repo.DeleteByTranscriptTx(ctx, tx, "tr-1"))
	require.NoError(t, repo.InsertTx(ctx, tx, []Todo{
		{ID: "a", UserID: "user-1", TranscriptID: "tr-1", Task: "Book venue", Priority: "medium", Position: 0, CreatedAt: now, UpdatedAt: now},
		{ID: "b", UserID: "user-1", TranscriptID: "tr-1", Task: "Send invites", Priority: "medium", Position: 1, CreatedAt: now, UpdatedAt: now},
	}))
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPGCountByUser(t *testing.T) {
	repo, _, mock := newMock(t)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM todos`).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))

	n, err := repo.CountByUser(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}
