package transcripts

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teamsync-backend/internal/shared/server/middleware"
)

func newTestRouter(f *fixture) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api/v1")
	api.Use(middleware.Auth(middleware.AuthConfig{AllowGuests: true}))
	NewHandler(f.svc).RegisterRoutes(api)
	return r
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	req.Header.Set("X-Guest-Id", "guest-1")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func multipartUpload(t *testing.T, field, name, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile(field, name)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestHandlerUploadListGetDelete(t *testing.T) {
	f := newFixture(t)
	r := newTestRouter(f)

	resp := serve(r, multipartUpload(t, "file", "chat.txt", sampleChat))
	require.Equal(t, http.StatusAccepted, resp.Code, resp.Body.String())
	assert.Contains(t, resp.Body.String(), `"fileName":"chat.txt"`)
	assert.Contains(t, resp.Body.String(), `"status":"pending"`)
	assert.Contains(t, resp.Body.String(), `"replaced":false`)
	require.Len(t, f.enqueuer.calls, 1)

	resp = serve(r, httptest.NewRequest(http.MethodGet, "/api/v1/files", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"count":1`)
	assert.NotContains(t, resp.Body.String(), "book the venue")

	resp = serve(r, httptest.NewRequest(http.MethodGet, "/api/v1/files/chat.txt", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "book the venue")

	resp = serve(r, httptest.NewRequest(http.MethodPost, "/api/v1/files/chat.txt/reprocess", nil))
	assert.Equal(t, http.StatusAccepted, resp.Code)
	assert.Len(t, f.enqueuer.calls, 2)

	resp = serve(r, httptest.NewRequest(http.MethodDelete, "/api/v1/files/chat.txt", nil))
	require.Equal(t, http.StatusOK, resp.Code)

	resp = serve(r, httptest.NewRequest(http.MethodGet, "/api/v1/files/chat.txt", nil))
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestHandlerUploadRequiresFile(t *testing.T) {
	f := newFixture(t)
	r := newTestRouter(f)

	resp := serve(r, multipartUpload(t, "attachment", "chat.txt", sampleChat))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Empty(t, f.enqueuer.calls)
}

func TestHandlerUploadTooLarge(t *testing.T) {
	f := newFixture(t)
	r := newTestRouter(f)

	resp := serve(r, multipartUpload(t, "file", "big.txt", strings.Repeat("a", 2<<10)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.Code)
}

func TestHandlerUploadEmptyIsUnsupported(t *testing.T) {
	f := newFixture(t)
	r := newTestRouter(f)

	resp := serve(r, multipartUpload(t, "file", "empty.txt", "   "))
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.Code)
}

func TestHandlerUploadEnqueueFailure(t *testing.T) {
	f := newFixture(t)
	f.enqueuer.err = errors.New("redis down")
	r := newTestRouter(f)

	resp := serve(r, multipartUpload(t, "file", "chat.txt", sampleChat))
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
}

func TestHandlerRequiresIdentity(t *testing.T) {
	f := newFixture(t)
	r := newTestRouter(f)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/files", nil))
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}
