// Package warehouse provides the warehouse bounded context module.
package warehouse

import (
	apphttp "rentops_backend/internal/http"
	"rentops_backend/internal/warehouse/handler"
	"rentops_backend/internal/warehouse/repository"
	"rentops_backend/internal/warehouse/service"
	"rentops_backend/platform/logger"
	"rentops_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the warehouse bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the warehouse module.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, log)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "warehouse"
}

// Service returns the service layer for cross-module use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts warehouse routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/warehouse/stock", m.handler.ListStock)
	ctx.Protected.GET("/warehouse/stock/:id", m.handler.GetStock)
	ctx.Protected.POST("/warehouse/stock", m.handler.CreateStock)
	ctx.Protected.POST("/warehouse/stock/:id/adjust", m.handler.AdjustStock)
	ctx.Protected.GET("/warehouse/stock/:id/movements", m.handler.ListMovements)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
