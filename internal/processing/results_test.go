package processing

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"teamsync-backend/internal/calendar"
	"teamsync-backend/internal/todos"
)

func TestPGReplaceRunsInOneTransaction(t *testing.T) {
	database, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer database.Close()
	now := time.Date(2025, 11, 15, 9, 0, 0, 0, time.UTC)
	version := now.Add(-time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT uploaded_at FROM transcripts WHERE id = \\$1 FOR UPDATE").
		WithArgs("tr-1").
		WillReturnRows(sqlmock.NewRows([]string{"uploaded_at"}).AddRow(version))
	mock.ExpectExec("DELETE FROM todos").WithArgs("tr-1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM calendar_events").WithArgs("tr-1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO todos").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO calendar_events").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	store := NewPGResultsStore(database)
	err = store.Replace(context.Background(), "tr-1", version,
		[]todos.Todo{{ID: "a", UserID: "user-1", TranscriptID: "tr-1", Task: "Book venue", Priority: "medium", CreatedAt: now, UpdatedAt: now}},
		[]calendar.Event{{ID: "e", UserID: "user-1", TranscriptID: "tr-1", Title: "Offsite", CreatedAt: now}},
	)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPGReplaceRollsBackOnInsertFailure(t *testing.T) {
	database, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer database.Close()

	version := time.Date(2025, 11, 15, 8, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT uploaded_at FROM transcripts").
		WillReturnRows(sqlmock.NewRows([]string{"uploaded_at"}).AddRow(version))
	mock.ExpectExec("DELETE FROM todos").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("DELETE FROM calendar_events").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO todos").WillReturnError(errors.New("constraint"))
	mock.ExpectRollback()

	err = NewPGResultsStore(database).Replace(context.Background(), "tr-1", version,
		[]todos.Todo{{ID: "a", TranscriptID: "tr-1"}}, nil)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPGClearDeletesBoth(t *testing.T) {
	database, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer database.Close()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM todos").WithArgs("tr-1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM calendar_events").WithArgs("tr-1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	require.NoError(t, NewPGResultsStore(database).Clear(context.Background(), "tr-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPGReplaceRejectsNewerUpload(t *testing.T) {
	database, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer database.Close()
	loaded := time.Date(2025, 11, 15, 8, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT uploaded_at FROM transcripts").
		WithArgs("tr-1").
		WillReturnRows(sqlmock.NewRows([]string{"uploaded_at"}).AddRow(loaded.Add(time.Hour)))
	mock.ExpectRollback()

	err = NewPGResultsStore(database).Replace(context.Background(), "tr-1", loaded,
		[]todos.Todo{{ID: "a", TranscriptID: "tr-1"}}, nil)
	require.ErrorIs(t, err, ErrSuperseded)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPGReplaceRejectsDeletedTranscript(t *testing.T) {
	database, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer database.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT uploaded_at FROM transcripts").
		WithArgs("tr-1").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	err = NewPGResultsStore(database).Replace(context.Background(), "tr-1", time.Now(), nil, nil)
	require.ErrorIs(t, err, ErrSuperseded)
	require.NoError(t, mock.ExpectationsWereMet())
}
