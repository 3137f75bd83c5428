package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"teamsync-backend/internal/shared/auth"
)

func newAuthRouter(cfg AuthConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Auth(cfg))
	router.GET("/api/v1/todos", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"userId": UserIDFromContext(c), "guest": IsGuest(c)})
	})
	router.POST("/api/v1/auth/login", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func TestAuthAllowsOptionsWithoutIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Auth(AuthConfig{}))
	router.OPTIONS("/api/v1/files", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/files", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
}

func TestAuthAcceptsBearerToken(t *testing.T) {
	signer := auth.NewSigner("secret", time.Hour)
	token, _, err := signer.Sign("user-42", "ada", "")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	router := newAuthRouter(AuthConfig{Signer: signer})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/todos", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"userId":"user-42","guest":false}`, resp.Body.String())
}

func TestAuthRejectsBadToken(t *testing.T) {
	router := newAuthRouter(AuthConfig{Signer: auth.NewSigner("secret", time.Hour)})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/todos", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestAuthGuestOnlyWhenAllowed(t *testing.T) {
	for _, tc := range []struct {
		name   string
		allow  bool
		status int
	}{
		{name: "allowed", allow: true, status: http.StatusOK},
		{name: "disabled", allow: false, status: http.StatusUnauthorized},
	} {
		t.Run(tc.name, func(t *testing.T) {
			router := newAuthRouter(AuthConfig{AllowGuests: tc.allow})
			req := httptest.NewRequest(http.MethodGet, "/api/v1/todos", nil)
			req.Header.Set("X-Guest-Id", "g1")
			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, req)
			assert.Equal(t, tc.status, resp.Code)
		})
	}
}

func TestAuthPublicPrefixBypasses(t *testing.T) {
	router := newAuthRouter(AuthConfig{PublicPrefixes: []string{"/api/v1/auth/"}})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)
}
