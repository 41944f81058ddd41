package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rentops_backend/internal/properties/service"
	"rentops_backend/internal/properties/transport"
	"rentops_backend/platform/httpkit"
	"rentops_backend/platform/validator"
)

// Handler handles HTTP requests for properties.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// New creates a new properties handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// ListProperties returns all properties.
// GET /api/v1/properties
func (h *Handler) ListProperties(c *gin.Context) {
	properties, err := h.svc.ListProperties(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, properties)
}

// GetProperty returns one property with its swept inventory.
// GET /api/v1/properties/:id
func (h *Handler) GetProperty(c *gin.Context) {
	view, err := h.svc.GetProperty(c.Request.Context(), c.Param("id"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, view)
}

// CreateProperty adds a new property.
// POST /api/v1/properties
func (h *Handler) CreateProperty(c *gin.Context) {
	var req transport.CreatePropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	property, err := h.svc.CreateProperty(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, property)
}

// UpdateProperty applies a partial update.
// PATCH /api/v1/properties/:id
func (h *Handler) UpdateProperty(c *gin.Context) {
	var req transport.UpdatePropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	property, err := h.svc.UpdateProperty(c.Request.Context(), c.Param("id"), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, property)
}

// AddInventoryItem adds a manual inventory line.
// POST /api/v1/properties/:id/inventory
func (h *Handler) AddInventoryItem(c *gin.Context) {
	var req transport.AddInventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	item, err := h.svc.AddInventoryItem(c.Request.Context(), c.Param("id"), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, item)
}
