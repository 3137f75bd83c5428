package users

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"teamsync-backend/internal/shared/auth"
	"teamsync-backend/internal/shared/server/middleware"
	"teamsync-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc    *Service
	Signer *auth.Signer
}

func NewHandler(svc *Service, signer *auth.Signer) *Handler {
	return &Handler{Svc: svc, Signer: signer}
}

// RegisterPublicRoutes attaches routes reachable without a token.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.POST("/auth/register", h.register)
	rg.POST("/auth/login", h.login)
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", h.me)
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Login    string `json:"login"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

type tokenResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      userResponse `json:"user"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid JSON body", nil)
		return
	}
	user, err := h.Svc.Register(c.Request.Context(), RegisterInput(req))
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "invalid_request", err.Error(), nil)
		case errors.Is(err, ErrTaken):
			respond.Error(c, http.StatusConflict, "conflict", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "registration failed", nil)
		}
		return
	}
	h.issue(c, http.StatusCreated, user)
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid JSON body", nil)
		return
	}
	login := req.Login
	if login == "" {
		login = req.Username
	}
	if login == "" {
		login = req.Email
	}
	user, err := h.Svc.Authenticate(c.Request.Context(), login, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "invalid username or password", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "login failed", nil)
		return
	}
	h.issue(c, http.StatusOK, user)
}

func (h *Handler) issue(c *gin.Context, status int, user User) {
	token, exp, err := h.Signer.Sign(user.ID, user.Username, user.Email)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to issue token", nil)
		return
	}
	respond.JSON(c, status, tokenResponse{Token: token, ExpiresAt: exp, User: toResponse(user)})
}

func (h *Handler) me(c *gin.Context) {
	if middleware.IsGuest(c) {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "login required", nil)
		return
	}
	user, err := h.Svc.GetByID(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "user not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load user", nil)
		return
	}
	respond.OK(c, toResponse(user))
}

func toResponse(u User) userResponse {
	return userResponse{ID: u.ID, Username: u.Username, Email: u.Email, CreatedAt: u.CreatedAt}
}
