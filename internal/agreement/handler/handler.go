package handler

import (
	"github.com/gin-gonic/gin"

	"rentops_backend/internal/agreement/service"
	"rentops_backend/platform/httpkit"
)

// Handler handles HTTP requests for rental agreements.
type Handler struct {
	svc *service.Service
}

// New creates a new agreement handler.
func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// GetDownloadURL returns a presigned URL for a booking's agreement PDF.
// GET /api/v1/bookings/:id/agreement
func (h *Handler) GetDownloadURL(c *gin.Context) {
	url, err := h.svc.DownloadURL(c.Request.Context(), c.Param("id"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, url)
}
