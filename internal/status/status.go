package status

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"teamsync-backend/internal/shared/server/middleware"
	"teamsync-backend/internal/shared/server/respond"
	"teamsync-backend/internal/transcripts"
)

// Counter counts a user's records.
type Counter interface {
	Count(ctx context.Context, userID string) (int, error)
}

// TranscriptStats summarizes a user's uploads.
type TranscriptStats interface {
	Stats(ctx context.Context, userID string) (transcripts.Stats, error)
}

// Summary is the per-user overview served by GET /status.
type Summary struct {
	FilesUploaded       int  `json:"filesUploaded"`
	TotalMessages       int  `json:"totalMessages"`
	TotalTodos          int  `json:"totalTodos"`
	TotalCalendarEvents int  `json:"totalCalendarEvents"`
	Pending             int  `json:"pending"`
	IsReady             bool `json:"isReady"`
}

// Service aggregates counts across transcripts, todos and events.
type Service struct {
	Transcripts TranscriptStats
	Todos       Counter
	Events      Counter
}

// Get loads the user's summary. IsReady reports whether any chat was uploaded.
func (s *Service) Get(ctx context.Context, userID string) (Summary, error) {
	var (
		stats  transcripts.Stats
		todos  int
		events int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats, err = s.Transcripts.Stats(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		todos, err = s.Todos.Count(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		events, err = s.Events.Count(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}
	return Summary{
		FilesUploaded:       stats.Files,
		TotalMessages:       stats.Messages,
		TotalTodos:          todos,
		TotalCalendarEvents: events,
		Pending:             stats.Pending,
		IsReady:             stats.Files > 0,
	}, nil
}

// Handler serves GET /status.
type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/status", h.get)
}

func (h *Handler) get(c *gin.Context) {
	summary, err := h.Svc.Get(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load status", nil)
		return
	}
	respond.OK(c, summary)
}
