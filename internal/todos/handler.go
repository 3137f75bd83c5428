package todos

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

// RegisterRoutes attaches todo routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/todos", h.list)
	rg.PATCH("/todos/:id", h.update)
}

func (h *Handler) list(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	q := ListQuery{File: c.Query("file")}
	if raw := c.Query("completed"); raw != "" {
		completed, err := strconv.ParseBool(raw)
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "invalid_request", "completed must be true or false", nil)
			return
		}
		q.Completed = &completed
	}

	items, lastUpdated, err := h.Svc.List(c.Request.Context(), userID, q)
	if err != nil {
		writeError(c, err)
		return
	}

	resp := ListResponse{
		Todos:       make([]TodoResponse, 0, len(items)),
		Count:       len(items),
		LastUpdated: lastUpdated,
	}
	for _, t := range items {
		resp.Todos = append(resp.Todos, toResponse(t))
	}
	respond.OK(c, resp)
}

func (h *Handler) update(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Completed == nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "completed is required", nil)
		return
	}

	t, err := h.Svc.SetCompleted(c.Request.Context(), userID, c.Param("id"), *req.Completed)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, toResponse(t))
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "not found", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "invalid_request", err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "request failed", nil)
	}
}
