package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rentops_backend/internal/facility/repository"
	"rentops_backend/internal/facility/service"
	"rentops_backend/internal/facility/transport"
	"rentops_backend/platform/httpkit"
	"rentops_backend/platform/validator"
)

// Handler handles HTTP requests for facility tasks and meter logs.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// New creates a new facility handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// ListTasks returns tasks, optionally filtered.
// GET /api/v1/tasks?taskType=&status=&propertyId=
func (h *Handler) ListTasks(c *gin.Context) {
	var query transport.TaskListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(query); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	tasks, err := h.svc.ListTasks(c.Request.Context(), repository.TaskFilter{
		TaskType:   query.TaskType,
		Status:     query.Status,
		PropertyID: query.PropertyID,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, tasks)
}

// GetTask returns a single task.
// GET /api/v1/tasks/:id
func (h *Handler) GetTask(c *gin.Context) {
	task, err := h.svc.GetTask(c.Request.Context(), c.Param("id"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, task)
}

// CreateTask creates a facility task.
// POST /api/v1/tasks
func (h *Handler) CreateTask(c *gin.Context) {
	var req transport.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	task, err := h.svc.CreateTask(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, task)
}

// UpdateTask applies a partial update, including status transitions.
// PATCH /api/v1/tasks/:id
func (h *Handler) UpdateTask(c *gin.Context) {
	var req transport.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	task, err := h.svc.UpdateTask(c.Request.Context(), c.Param("id"), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, task)
}

// ListMeterLogs returns a property's meter log.
// GET /api/v1/properties/:id/meter-logs
func (h *Handler) ListMeterLogs(c *gin.Context) {
	entries, err := h.svc.ListMeterLogs(c.Request.Context(), c.Param("id"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, entries)
}

// CreateMeterLog records a meter reading.
// POST /api/v1/meter-logs
func (h *Handler) CreateMeterLog(c *gin.Context) {
	var req transport.CreateMeterLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	entry, err := h.svc.CreateMeterLog(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, entry)
}
