// Package renttimeline provides the rent timeline bounded context module.
// It tracks date-ranged rent compositions per property so any historical
// date can be priced.
package renttimeline

import (
	"rentops_backend/internal/renttimeline/handler"
	"rentops_backend/internal/renttimeline/repository"
	"rentops_backend/internal/renttimeline/service"
	apphttp "rentops_backend/internal/http"
	"rentops_backend/platform/logger"
	"rentops_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the rent timeline bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the rent timeline module.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "renttimeline"
}

// Service returns the service layer for cross-module use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts rent timeline routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/properties/:id/rent-timeline", m.handler.ListRows)
	ctx.Protected.GET("/properties/:id/rent-timeline/active", m.handler.GetActiveRow)
	ctx.Protected.POST("/properties/:id/rent-timeline", m.handler.CreateRow)
	ctx.Protected.PATCH("/rent-timeline/:rowId", m.handler.UpdateRow)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
