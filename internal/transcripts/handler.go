package transcripts

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"teamsync-backend/internal/shared/server/middleware"
	"teamsync-backend/internal/shared/server/respond"
)

// multipart framing on top of the file itself
const multipartOverhead = 1 << 20

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches transcript routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/upload", h.upload)
	rg.GET("/files", h.list)
	rg.GET("/files/:name", h.get)
	rg.DELETE("/files/:name", h.delete)
	rg.POST("/files/:name/reprocess", h.reprocess)
}

func (h *Handler) upload(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	maxBytes := h.Svc.MaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+multipartOverhead)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Error(c, http.StatusRequestEntityTooLarge, "payload_too_large", "file exceeds upload limit", nil)
			return
		}
		respond.Error(c, http.StatusBadRequest, "invalid_request", "file is required", nil)
		return
	}
	if fileHeader.Size > maxBytes {
		respond.Error(c, http.StatusRequestEntityTooLarge, "payload_too_large", "file exceeds upload limit", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "unable to read file", nil)
		return
	}
	defer file.Close()

	c.Set(middleware.FileNameKey, fileHeader.Filename)
	res, err := h.Svc.Upload(c.Request.Context(), userID, fileHeader.Filename, file)
	if err != nil && !errors.Is(err, ErrEnqueue) {
		writeError(c, err)
		return
	}
	c.Set(middleware.TranscriptIDKey, res.Transcript.ID)
	if err != nil {
		writeError(c, err)
		return
	}

	respond.Accepted(c, UploadResponse{
		TranscriptResponse: toResponse(res.Transcript),
		Replaced:           res.Replaced,
	})
}

func (h *Handler) list(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	items, err := h.Svc.List(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	resp := make([]TranscriptResponse, 0, len(items))
	for _, t := range items {
		resp = append(resp, toResponse(t))
	}
	respond.OK(c, gin.H{"files": resp, "count": len(resp)})
}

func (h *Handler) get(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	t, err := h.Svc.Get(c.Request.Context(), userID, c.Param("name"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.Set(middleware.TranscriptIDKey, t.ID)

	resp := toResponse(t)
	resp.Content = t.Content
	respond.OK(c, resp)
}

func (h *Handler) delete(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	name := c.Param("name")

	if err := h.Svc.Delete(c.Request.Context(), userID, name); err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, gin.H{"deleted": true, "fileName": name})
}

func (h *Handler) reprocess(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	t, err := h.Svc.Reprocess(c.Request.Context(), userID, c.Param("name"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.Set(middleware.TranscriptIDKey, t.ID)
	respond.Accepted(c, toResponse(t))
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "file not found", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "invalid_request", err.Error(), nil)
	case errors.Is(err, ErrTooLarge):
		respond.Error(c, http.StatusRequestEntityTooLarge, "payload_too_large", "file exceeds upload limit", nil)
	case errors.Is(err, ErrUnsupported):
		respond.Error(c, http.StatusUnsupportedMediaType, "unsupported_media", err.Error(), nil)
	case errors.Is(err, ErrEnqueue):
		respond.Error(c, http.StatusServiceUnavailable, "internal_error", "file stored but processing could not be scheduled", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "request failed", nil)
	}
}
