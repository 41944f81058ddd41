package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rentops_backend/internal/warehouse/service"
	"rentops_backend/internal/warehouse/transport"
	"rentops_backend/platform/httpkit"
	"rentops_backend/platform/validator"
)

// Handler handles HTTP requests for warehouse stock.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// New creates a new warehouse handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// ListStock returns stock rows.
// GET /api/v1/warehouse/stock?warehouseId=
func (h *Handler) ListStock(c *gin.Context) {
	items, err := h.svc.ListStock(c.Request.Context(), c.Query("warehouseId"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, items)
}

// GetStock returns a single stock row.
// GET /api/v1/warehouse/stock/:id
func (h *Handler) GetStock(c *gin.Context) {
	item, err := h.svc.GetStock(c.Request.Context(), c.Param("id"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, item)
}

// CreateStock adds a stock row.
// POST /api/v1/warehouse/stock
func (h *Handler) CreateStock(c *gin.Context) {
	var req transport.CreateStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	item, err := h.svc.CreateStock(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, item)
}

// AdjustStock applies a manual quantity correction.
// POST /api/v1/warehouse/stock/:id/adjust
func (h *Handler) AdjustStock(c *gin.Context) {
	var req transport.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	item, err := h.svc.AdjustQuantity(c.Request.Context(), c.Param("id"), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, item)
}

// ListMovements returns a stock row's movement history.
// GET /api/v1/warehouse/stock/:id/movements
func (h *Handler) ListMovements(c *gin.Context) {
	movements, err := h.svc.ListMovements(c.Request.Context(), c.Param("id"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, movements)
}
