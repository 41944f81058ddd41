// Package booking provides the booking workflow bounded context module.
package booking

import (
	"context"
	"time"

	"rentops_backend/internal/booking/handler"
	"rentops_backend/internal/booking/repository"
	"rentops_backend/internal/booking/service"
	"rentops_backend/internal/events"
	apphttp "rentops_backend/internal/http"
	"rentops_backend/platform/logger"
	"rentops_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the booking bounded context module implementing http.Module.
type Module struct {
	handler      *handler.Handler
	service      *service.Service
	orchestrator *service.Orchestrator
}

// NewModule creates and initializes the booking module. Task and meter
// access come in as ports implemented by adapters over the facility module;
// scheduler may be nil when no retry queue is configured.
func NewModule(
	pool *pgxpool.Pool,
	tasks service.TaskPort,
	meters service.MeterPort,
	scheduler service.RetryScheduler,
	retryDelay time.Duration,
	debounceWindow time.Duration,
	bus events.Bus,
	val *validator.Validator,
	log *logger.Logger,
) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, bus, scheduler, retryDelay, log)
	orch := service.NewOrchestrator(repo, tasks, meters, debounceWindow, log)
	h := handler.New(svc, orch, val)

	return &Module{handler: h, service: svc, orchestrator: orch}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "booking"
}

// Service returns the service layer for cross-module use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Orchestrator returns the side-effect orchestrator.
func (m *Module) Orchestrator() *service.Orchestrator {
	return m.orchestrator
}

// RegisterRoutes mounts booking routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/reservations", m.handler.ListReservations)
	ctx.Protected.POST("/reservations", m.handler.CreateReservation)
	ctx.Protected.POST("/reservations/:id/cancel", m.handler.CancelReservation)
	ctx.Protected.DELETE("/reservations/:id", m.handler.DeleteReservation)

	ctx.Protected.GET("/offers", m.handler.ListOffers)
	ctx.Protected.POST("/offers", m.handler.CreateOffer)
	ctx.Protected.POST("/offers/:id/send", m.handler.SendOffer)

	ctx.Protected.GET("/proformas", m.handler.ListProformas)
	ctx.Protected.POST("/proformas", m.handler.CreateProforma)
	ctx.Protected.POST("/proformas/:id/invoices", m.handler.CreateChildInvoice)
	ctx.Protected.POST("/proformas/:id/confirm-payment", m.handler.ConfirmPayment)
	ctx.Protected.POST("/proformas/:id/revert-paid", m.handler.RevertPaid)

	ctx.Protected.GET("/bookings", m.handler.ListBookings)
	ctx.Protected.POST("/bookings/:id/ensure-tasks", m.handler.EnsureBookingTasks)
}

// RegisterHandlers subscribes the orchestrator to its trigger events.
func (m *Module) RegisterHandlers(bus *events.InMemoryBus) {
	bus.Subscribe(events.BookingConfirmed{}.EventName(), m)
	bus.Subscribe(events.EnsureTasksRequested{}.EventName(), m)
	bus.Subscribe(events.TaskUpdated{}.EventName(), m)
}

// Handle routes events into the orchestrator.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	return m.orchestrator.HandleEvent(ctx, event)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
