package status

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teamsync-backend/internal/transcripts"
)

type countFunc func(ctx context.Context, userID string) (int, error)

func (f countFunc) Count(ctx context.Context, userID string) (int, error) { return f(ctx, userID) }

type statsFunc func(ctx context.Context, userID string) (transcripts.Stats, error)

func (f statsFunc) Stats(ctx context.Context, userID string) (transcripts.Stats, error) {
	return f(ctx, userID)
}

func fixed(n int) countFunc {
	return func(context.Context, string) (int, error) { return n, nil }
}

func TestSummary(t *testing.T) {
	svc := &Service{
		Transcripts: statsFunc(func(context.Context, string) (transcripts.Stats, error) {
			return transcripts.Stats{Files: 2, Messages: 40, Pending: 1}, nil
		}),
		Todos:  fixed(5),
		Events: fixed(3),
	}

	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewHandler(svc).RegisterRoutes(router.Group("/api/v1"))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))
	require.Equal(t, http.StatusOK, resp.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.EqualValues(t, 2, body["filesUploaded"])
	assert.EqualValues(t, 40, body["totalMessages"])
	assert.EqualValues(t, 5, body["totalTodos"])
	assert.EqualValues(t, 3, body["totalCalendarEvents"])
	assert.EqualValues(t, 1, body["pending"])
	assert.Equal(t, true, body["isReady"])
}

func TestSummaryNotReadyAndErrors(t *testing.T) {
	svc := &Service{
		Transcripts: statsFunc(func(context.Context, string) (transcripts.Stats, error) { return transcripts.Stats{}, nil }),
		Todos:       fixed(0),
		Events:      fixed(0),
	}
	summary, err := svc.Get(context.Background(), "user-1")
	require.NoError(t, err)
	assert.False(t, summary.IsReady)

	svc.Events = countFunc(func(context.Context, string) (int, error) { return 0, errors.New("db down") })
	_, err = svc.Get(context.Background(), "user-1")
	assert.Error(t, err)
}
