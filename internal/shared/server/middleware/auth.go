package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"teamsync-backend/internal/shared/auth"
	"teamsync-backend/internal/shared/server/respond"
)

const (
	userIDKey    = "userId"
	usernameKey  = "username"
	userEmailKey = "userEmail"
	isGuestKey   = "isGuest"

	GuestPrefix = "guest:"
)

// AuthConfig controls which identities the Auth middleware accepts.
type AuthConfig struct {
	Signer *auth.Signer
	// AllowGuests maps an X-Guest-Id header to a guest identity (dev only).
	AllowGuests bool
	// PublicPrefixes bypass authentication entirely.
	PublicPrefixes []string
}

// Auth validates bearer JWTs or guest headers and stores identity in context.
func Auth(cfg AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		path := c.Request.URL.Path
		for _, prefix := range cfg.PublicPrefixes {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}

		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader != "" {
			if !strings.HasPrefix(authHeader, "Bearer ") || cfg.Signer == nil {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
				return
			}
			token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
			claims, err := cfg.Signer.Parse(token)
			if err != nil {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
				return
			}
			c.Set(userIDKey, claims.Subject)
			if claims.Username != "" {
				c.Set(usernameKey, claims.Username)
			}
			if claims.Email != "" {
				c.Set(userEmailKey, claims.Email)
			}
			c.Set(isGuestKey, false)
			c.Next()
			return
		}

		guestID := strings.TrimSpace(c.GetHeader("X-Guest-Id"))
		if guestID == "" || !cfg.AllowGuests {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "Missing identity", nil)
			return
		}

		c.Set(userIDKey, GuestPrefix+guestID)
		c.Set(isGuestKey, true)
		c.Next()
	}
}

// UserIDFromContext fetches the user ID set by the auth middleware.
func UserIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(userIDKey)
	if id, ok := val.(string); ok {
		return id
	}
	return ""
}

// UsernameFromContext fetches the username carried by the token, if any.
func UsernameFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	return c.GetString(usernameKey)
}

// IsGuest reports whether the request was authenticated through X-Guest-Id.
func IsGuest(c *gin.Context) bool {
	if c == nil {
		return false
	}
	return c.GetBool(isGuestKey)
}
