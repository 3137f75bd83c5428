package assistant

import (
	"errors"
	"net/http"

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

// RegisterRoutes attaches chat routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/chat", h.ask)
	rg.DELETE("/chat/history", h.clear)
}

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	Answer string `json:"answer"`
}

func (h *Handler) ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid JSON body", nil)
		return
	}

	answer, err := h.Svc.Ask(c.Request.Context(), middleware.UserIDFromContext(c), req.Question)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmptyQuestion):
			respond.Error(c, http.StatusBadRequest, "invalid_request", err.Error(), nil)
		case errors.Is(err, ErrUpstream):
			respond.Error(c, http.StatusBadGateway, "upstream_error", "assistant is unavailable, try again later", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "request failed", nil)
		}
		return
	}
	respond.OK(c, askResponse{Answer: answer})
}

func (h *Handler) clear(c *gin.Context) {
	if err := h.Svc.ClearHistory(c.Request.Context(), middleware.UserIDFromContext(c)); err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to clear history", nil)
		return
	}
	respond.OK(c, gin.H{"cleared": true})
}
