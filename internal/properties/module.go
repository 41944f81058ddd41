// Package properties provides the properties bounded context module.
package properties

import (
	"rentops_backend/internal/events"
	apphttp "rentops_backend/internal/http"
	"rentops_backend/internal/properties/handler"
	"rentops_backend/internal/properties/repository"
	"rentops_backend/internal/properties/service"
	"rentops_backend/platform/logger"
	"rentops_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the properties bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the properties module. The stock reader
// is supplied by the composition root to avoid a direct dependency on the
// warehouse module.
func NewModule(pool *pgxpool.Pool, stock service.StockReader, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, stock, bus, log)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "properties"
}

// Service returns the service layer for cross-module use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts properties routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/properties", m.handler.ListProperties)
	ctx.Protected.GET("/properties/:id", m.handler.GetProperty)
	ctx.Protected.POST("/properties", m.handler.CreateProperty)
	ctx.Protected.PATCH("/properties/:id", m.handler.UpdateProperty)
	ctx.Protected.POST("/properties/:id/inventory", m.handler.AddInventoryItem)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
