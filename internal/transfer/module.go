// Package transfer provides the inventory transfer bounded context module.
package transfer

import (
	"context"

	"rentops_backend/internal/events"
	apphttp "rentops_backend/internal/http"
	"rentops_backend/internal/transfer/handler"
	"rentops_backend/internal/transfer/service"
	"rentops_backend/platform/logger"
	"rentops_backend/platform/validator"
)

// Module is the transfer bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	log     *logger.Logger
}

// NewModule creates and initializes the transfer module. Task, stock and
// inventory access come in as ports implemented by adapters over the
// facility, warehouse and properties modules.
func NewModule(tasks service.TaskStore, stock service.StockStore, inventory service.InventoryMerger, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(tasks, stock, inventory, bus, log)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc, log: log}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "transfer"
}

// Service returns the service layer for cross-module use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts transfer routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.POST("/transfers", m.handler.StageTransfer)
	ctx.Protected.POST("/transfers/:taskId/execute", m.handler.ExecuteTransfer)
}

// RegisterHandlers subscribes the execution check to task mutations and to
// scheduler-driven retries.
func (m *Module) RegisterHandlers(bus *events.InMemoryBus) {
	bus.Subscribe(events.TaskUpdated{}.EventName(), m)
	bus.Subscribe(events.TransferExecutionRequested{}.EventName(), m)
}

// Handle routes events to the execution check. ExecuteIfVerified is
// idempotent, so duplicate or stale deliveries are harmless.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.TaskUpdated:
		return m.service.ExecuteIfVerified(ctx, e.TaskID)
	case events.TransferExecutionRequested:
		return m.service.ExecuteIfVerified(ctx, e.TaskID)
	default:
		return nil
	}
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
