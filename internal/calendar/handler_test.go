package calendar

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("userId", "user-1")
		c.Next()
	})
	NewHandler(newService(t)).RegisterRoutes(router.Group("/api/v1"))
	return router
}

func TestHandlerRendersUnscheduledAsTBD(t *testing.T) {
	router := newRouter(t)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/calendar?file=chat.txt", nil))
	require.Equal(t, http.StatusOK, resp.Code)

	var body ListResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Equal(t, 3, body.Count)
	assert.Equal(t, "2025-11-18", body.Events[0].Date)
	assert.Equal(t, "TBD", body.Events[2].Date)
	assert.False(t, body.Events[2].IsScheduled)
	assert.Equal(t, "somewhere warm", body.Events[2].Description)
}

func TestHandlerBadQuery(t *testing.T) {
	router := newRouter(t)

	for _, target := range []string{
		"/api/v1/calendar?scheduled=sometimes",
		"/api/v1/calendar?from=tomorrow",
	} {
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusBadRequest, resp.Code, target)
	}
}
