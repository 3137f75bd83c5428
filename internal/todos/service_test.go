package todos

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teamsync-backend/internal/transcripts"
)

type fakeResolver map[string]string

func (f fakeResolver) TranscriptID(ctx context.Context, userID, fileName string) (string, error) {
	id, ok := f[userID+"/"+fileName]
	if !ok {
		return "", transcripts.ErrNotFound
	}
	return id, nil
}

var base = time.Date(2025, 11, 15, 9, 0, 0, 0, time.UTC)

func seed(t *testing.T, repo *MemoryRepo) {
	t.Helper()
	due := time.Date(2025, 11, 20, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.ReplaceForTranscript(context.Background(), "tr-1", []Todo{
		{ID: "a", UserID: "user-1", TranscriptID: "tr-1", Task: "Book venue", Priority: "medium", Position: 0, CreatedAt: base, UpdatedAt: base},
		{ID: "b", UserID: "user-1", TranscriptID: "tr-1", Task: "Send invites", Priority: "medium", Position: 1, DueDate: &due, CreatedAt: base, UpdatedAt: base},
	}))
	require.NoError(t, repo.ReplaceForTranscript(context.Background(), "tr-2", []Todo{
		{ID: "c", UserID: "user-1", TranscriptID: "tr-2", Task: "Order food", Priority: "medium", CreatedAt: base.Add(time.Hour), UpdatedAt: base.Add(time.Hour)},
	}))
	require.NoError(t, repo.ReplaceForTranscript(context.Background(), "tr-9", []Todo{
		{ID: "z", UserID: "user-2", TranscriptID: "tr-9", Task: "Not yours", Priority: "medium", CreatedAt: base, UpdatedAt: base},
	}))
}

func newService(t *testing.T) (*Service, *MemoryRepo) {
	t.Helper()
	repo := NewMemoryRepo()
	seed(t, repo)
	svc := &Service{
		Repo:        repo,
		Transcripts: fakeResolver{"user-1/chat.txt": "tr-1"},
		Now:         func() time.Time { return base.Add(2 * time.Hour) },
	}
	return svc, repo
}

func TestListOrdersNewestBatchFirst(t *testing.T) {
	svc, _ := newService(t)

	items, last, err := svc.List(context.Background(), "user-1", ListQuery{})
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, []string{"c", "a", "b"}, []string{items[0].ID, items[1].ID, items[2].ID})
	require.NotNil(t, last)
	assert.Equal(t, base.Add(time.Hour), *last)
}

func TestListFiltersByFileAndCompletion(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	items, _, err := svc.List(ctx, "user-1", ListQuery{File: "chat.txt"})
	require.NoError(t, err)
	assert.Len(t, items, 2)

	_, err = svc.SetCompleted(ctx, "user-1", "a", true)
	require.NoError(t, err)

	done := true
	items, last, err := svc.List(ctx, "user-1", ListQuery{Completed: &done})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "a", items[0].ID)
	assert.Equal(t, base.Add(2*time.Hour), *last)

	_, _, err = svc.List(ctx, "user-1", ListQuery{File: "missing.txt"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListEmptyHasNoLastUpdated(t *testing.T) {
	svc, _ := newService(t)

	items, last, err := svc.List(context.Background(), "user-3", ListQuery{})
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Nil(t, last)
}

func TestSetCompletedIsScopedToOwner(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.SetCompleted(context.Background(), "user-1", "z", true)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.SetCompleted(context.Background(), "user-1", " ", true)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestReplaceForTranscriptDropsPreviousBatch(t *testing.T) {
	svc, repo := newService(t)
	ctx := context.Background()

	require.NoError(t, repo.ReplaceForTranscript(ctx, "tr-1", []Todo{
		{ID: "d", UserID: "user-1", TranscriptID: "tr-1", Task: "Only one now", Priority: "medium", CreatedAt: base, UpdatedAt: base},
	}))
	n, err := svc.Count(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, repo.DeleteByTranscript(ctx, "tr-2"))
	n, err = svc.Count(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
