// Package facility provides the facility bounded context module: work
// tasks (move-in, move-out, transfers, maintenance) and meter logs.
package facility

import (
	"rentops_backend/internal/events"
	"rentops_backend/internal/facility/handler"
	"rentops_backend/internal/facility/repository"
	"rentops_backend/internal/facility/service"
	apphttp "rentops_backend/internal/http"
	"rentops_backend/platform/logger"
	"rentops_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the facility bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the facility module.
func NewModule(pool *pgxpool.Pool, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, bus, log)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc, repo: repo}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "facility"
}

// Service returns the service layer for cross-module use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts facility routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/tasks", m.handler.ListTasks)
	ctx.Protected.GET("/tasks/:id", m.handler.GetTask)
	ctx.Protected.POST("/tasks", m.handler.CreateTask)
	ctx.Protected.PATCH("/tasks/:id", m.handler.UpdateTask)

	ctx.Protected.GET("/properties/:id/meter-logs", m.handler.ListMeterLogs)
	ctx.Protected.POST("/meter-logs", m.handler.CreateMeterLog)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
