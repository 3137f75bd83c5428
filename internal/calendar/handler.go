package calendar

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"teamsync-backend/internal/shared/server/middleware"
	"teamsync-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches calendar routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/calendar", h.list)
}

func (h *Handler) list(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	q := ListQuery{
		From: c.Query("from"),
		To:   c.Query("to"),
		File: c.Query("file"),
	}
	if raw := c.Query("scheduled"); raw != "" {
		scheduled, err := strconv.ParseBool(raw)
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "invalid_request", "scheduled must be true or false", nil)
			return
		}
		q.Scheduled = &scheduled
	}

	events, err := h.Svc.List(c.Request.Context(), userID, q)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "file not found", nil)
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "invalid_request", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "request failed", nil)
		}
		return
	}

	resp := ListResponse{Events: make([]EventResponse, 0, len(events)), Count: len(events)}
	for _, e := range events {
		resp.Events = append(resp.Events, toResponse(e))
	}
	respond.OK(c, resp)
}
