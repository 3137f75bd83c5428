package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"teamsync-backend/internal/services/health"
	"teamsync-backend/internal/shared/config"
)

func TestAddr(t *testing.T) {
	assert.Equal(t, ":8080", Addr(""))
	assert.Equal(t, ":9000", Addr("9000"))
	assert.Equal(t, ":9000", Addr(":9000"))
}

func TestReadyReflectsChecks(t *testing.T) {
	h := health.NewService()
	h.Register("redis", func(context.Context) error { return errors.New("down") })
	r := NewRouter(RouterDeps{Config: config.Config{Env: config.EnvDev}, Health: h})

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
	assert.Contains(t, resp.Body.String(), `"redis":"down"`)

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestRateLimitGroup(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := map[string]string{
		"/api/v1/auth/login":            groupAuth,
		"/api/v1/upload":                groupUpload,
		"/api/v1/files/:name/reprocess": groupUpload,
		"/api/v1/chat":                  groupChat,
		"/api/v1/todos":                 groupDefault,
	}
	for path, want := range cases {
		var got string
		r := gin.New()
		r.Any(path, func(c *gin.Context) { got = rateLimitGroup(c) })
		req := httptest.NewRequest(http.MethodGet, concrete(path), nil)
		r.ServeHTTP(httptest.NewRecorder(), req)
		assert.Equal(t, want, got, path)
	}
}

func concrete(path string) string {
	if path == "/api/v1/files/:name/reprocess" {
		return "/api/v1/files/chat.txt/reprocess"
	}
	return path
}
