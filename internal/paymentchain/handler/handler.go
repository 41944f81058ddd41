package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rentops_backend/internal/paymentchain/service"
	"rentops_backend/internal/paymentchain/transport"
	"rentops_backend/platform/httpkit"
	"rentops_backend/platform/validator"
)

// Handler handles HTTP requests for the payment chain.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// New creates a new payment chain handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// GetChain returns the derived owner receipt, stored edges and evidence files.
// GET /api/v1/properties/:id/payment-chain
func (h *Handler) GetChain(c *gin.Context) {
	chain, err := h.svc.GetChain(c.Request.Context(), c.Param("id"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, chain)
}

// UpsertEdge configures one of the two stored edges.
// PUT /api/v1/properties/:id/payment-chain/edges/:kind
func (h *Handler) UpsertEdge(c *gin.Context) {
	var req transport.EdgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	edge, err := h.svc.UpsertEdge(c.Request.Context(), c.Param("id"), c.Param("kind"), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, edge)
}

// UploadFile attaches an evidence file to a tile.
// POST /api/v1/properties/:id/payment-chain/files/:tile
func (h *Handler) UploadFile(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "file is required", nil)
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "failed to read uploaded file", nil)
		return
	}
	defer src.Close()

	file, err := h.svc.UploadFile(
		c.Request.Context(),
		c.Param("id"), c.Param("tile"),
		fileHeader.Filename, fileHeader.Header.Get("Content-Type"),
		src, fileHeader.Size,
	)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, file)
}

// GetFileDownloadURL returns a presigned URL for an evidence file.
// GET /api/v1/payment-chain/files/:fileId/download
func (h *Handler) GetFileDownloadURL(c *gin.Context) {
	url, err := h.svc.FileDownloadURL(c.Request.Context(), c.Param("fileId"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, url)
}

// DeleteFile removes an evidence file.
// DELETE /api/v1/payment-chain/files/:fileId
func (h *Handler) DeleteFile(c *gin.Context) {
	if err := h.svc.DeleteFile(c.Request.Context(), c.Param("fileId")); httpkit.HandleError(c, err) {
		return
	}
	c.Status(http.StatusNoContent)
}
