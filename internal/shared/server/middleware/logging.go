package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"teamsync-backend/internal/shared/metrics"
	"teamsync-backend/internal/shared/telemetry"
)

// Context keys handlers may set to enrich the request log line.
const (
	TranscriptIDKey = "transcriptId"
	FileNameKey     = "fileName"
)

// Logging emits one structured log line per request.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		fields := map[string]any{
			"request_id":  RequestIDFromContext(c),
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"route":       c.FullPath(),
			"status":      c.Writer.Status(),
			"duration_ms": float64(latency.Microseconds()) / 1000.0,
			"user_id":     UserIDFromContext(c),
			"is_guest":    IsGuest(c),
			"client_ip":   c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
		}
		if name := UsernameFromContext(c); name != "" {
			fields["username"] = name
		}
		if id := c.GetString(TranscriptIDKey); id != "" {
			fields["transcript_id"] = id
		}
		if name := c.GetString(FileNameKey); name != "" {
			fields["file_name"] = name
		}
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
		}
		telemetry.Info("request.complete", fields)
	}
}

// Metrics records request counts and latency per matched route.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		metrics.ObserveHTTP(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}
