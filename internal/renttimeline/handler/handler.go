package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rentops_backend/internal/renttimeline/service"
	"rentops_backend/internal/renttimeline/transport"
	"rentops_backend/platform/httpkit"
	"rentops_backend/platform/validator"
)

// Handler handles HTTP requests for the rent timeline.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// New creates a new rent timeline handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// ListRows retrieves all timeline rows for a property, newest first.
// GET /api/v1/properties/:id/rent-timeline
func (h *Handler) ListRows(c *gin.Context) {
	rows, err := h.svc.ListRows(c.Request.Context(), c.Param("id"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToRowResponses(rows))
}

// GetActiveRow resolves the row active for a given date.
// GET /api/v1/properties/:id/rent-timeline/active?asOf=2024-06-01
func (h *Handler) GetActiveRow(c *gin.Context) {
	row, err := h.svc.ActiveRow(c.Request.Context(), c.Param("id"), c.Query("asOf"))
	if httpkit.HandleError(c, err) {
		return
	}
	if row == nil {
		httpkit.Error(c, http.StatusNotFound, "no timeline row covers this date", nil)
		return
	}
	httpkit.OK(c, transport.ToRowResponse(*row))
}

// CreateRow inserts a new timeline row for a property.
// POST /api/v1/properties/:id/rent-timeline
func (h *Handler) CreateRow(c *gin.Context) {
	var req transport.RowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	row, err := h.svc.InsertRow(c.Request.Context(), c.Param("id"), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, transport.ToRowResponse(row))
}

// UpdateRow applies a partial update to an existing row.
// PATCH /api/v1/rent-timeline/:rowId
func (h *Handler) UpdateRow(c *gin.Context) {
	var req transport.RowUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	row, err := h.svc.UpdateRow(c.Request.Context(), c.Param("rowId"), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToRowResponse(row))
}
