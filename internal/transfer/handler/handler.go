package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rentops_backend/internal/transfer/service"
	"rentops_backend/internal/transfer/transport"
	"rentops_backend/platform/httpkit"
	"rentops_backend/platform/validator"
)

// Handler handles HTTP requests for inventory transfers.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new transfer handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// StageTransfer stages a warehouse-to-property move as a facility task.
// POST /api/v1/transfers
func (h *Handler) StageTransfer(c *gin.Context) {
	var req transport.StageTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	task, err := h.svc.StageTransfer(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, gin.H{"taskId": task.ID})
}

// ExecuteTransfer manually re-runs the execution check for a task.
// POST /api/v1/transfers/:taskId/execute
func (h *Handler) ExecuteTransfer(c *gin.Context) {
	if err := h.svc.ExecuteIfVerified(c.Request.Context(), c.Param("taskId")); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"status": "ok"})
}
