package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"teamsync-backend/internal/assistant"
	"teamsync-backend/internal/calendar"
	"teamsync-backend/internal/services/health"
	"teamsync-backend/internal/shared/auth"
	"teamsync-backend/internal/shared/config"
	"teamsync-backend/internal/shared/metrics"
	"teamsync-backend/internal/shared/server/middleware"
	"teamsync-backend/internal/shared/server/respond"
	"teamsync-backend/internal/status"
	"teamsync-backend/internal/todos"
	"teamsync-backend/internal/transcripts"
	"teamsync-backend/internal/users"
)

// RouterDeps carries the handlers and shared services the router mounts.
type RouterDeps struct {
	Config      config.Config
	Signer      *auth.Signer
	Health      *health.Service
	Limiter     middleware.Limiter
	Users       *users.Handler
	Transcripts *transcripts.Handler
	Todos       *todos.Handler
	Calendar    *calendar.Handler
	Assistant   *assistant.Handler
	Status      *status.Handler
}

// Rate limit groups.
const (
	groupDefault = "DEFAULT"
	groupUpload  = "UPLOAD"
	groupChat    = "CHAT"
	groupAuth    = "AUTH"
)

var defaultRateLimits = map[string]middleware.RateLimitRule{
	groupDefault: {Rate: 10, Burst: 40},
	groupUpload:  {Rate: 0.2, Burst: 5},
	groupChat:    {Rate: 0.5, Burst: 5},
	groupAuth:    {Rate: 0.5, Burst: 10},
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Metrics(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigins),
	)

	healthSvc := deps.Health
	if healthSvc == nil {
		healthSvc = health.NewService()
	}
	live := func(c *gin.Context) {
		respond.OK(c, healthSvc.Status())
	}
	r.GET("/health", live)
	r.GET("/ready", func(c *gin.Context) {
		report := healthSvc.Ready(c.Request.Context())
		code := http.StatusOK
		if !report.Ready {
			code = http.StatusServiceUnavailable
		}
		respond.JSON(c, code, report)
	})
	r.GET("/metrics", metrics.Handler())

	limit := middleware.RateLimit(middleware.RateLimitConfig{
		Rules:        defaultRateLimits,
		DefaultGroup: groupDefault,
		GroupFor:     rateLimitGroup,
		Limiter:      deps.Limiter,
	})

	api := r.Group("/api/v1")
	api.GET("/health", live)

	public := api.Group("")
	public.Use(limit)
	if deps.Users != nil {
		deps.Users.RegisterPublicRoutes(public)
	}

	protected := api.Group("")
	protected.Use(
		middleware.Auth(middleware.AuthConfig{
			Signer:      deps.Signer,
			AllowGuests: !deps.Config.IsProduction(),
		}),
		limit,
	)
	if deps.Users != nil {
		deps.Users.RegisterRoutes(protected)
	}
	if deps.Transcripts != nil {
		deps.Transcripts.RegisterRoutes(protected)
	}
	if deps.Todos != nil {
		deps.Todos.RegisterRoutes(protected)
	}
	if deps.Calendar != nil {
		deps.Calendar.RegisterRoutes(protected)
	}
	if deps.Assistant != nil {
		deps.Assistant.RegisterRoutes(protected)
	}
	if deps.Status != nil {
		deps.Status.RegisterRoutes(protected)
	}

	return r
}

func rateLimitGroup(c *gin.Context) string {
	path := c.FullPath()
	switch {
	case strings.HasPrefix(path, "/api/v1/auth/"):
		return groupAuth
	case path == "/api/v1/upload", strings.HasSuffix(path, "/reprocess"):
		return groupUpload
	case path == "/api/v1/chat":
		return groupChat
	default:
		return groupDefault
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
