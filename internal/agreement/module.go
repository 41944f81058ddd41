// Package agreement provides rental agreement generation for confirmed
// bookings.
package agreement

import (
	"context"

	"rentops_backend/internal/adapters/storage"
	"rentops_backend/internal/agreement/handler"
	"rentops_backend/internal/agreement/repository"
	"rentops_backend/internal/agreement/service"
	"rentops_backend/internal/events"
	apphttp "rentops_backend/internal/http"
	"rentops_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the agreement bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	log     *logger.Logger
}

// NewModule creates and initializes the agreement module.
func NewModule(pool *pgxpool.Pool, properties service.PropertyReader, rents service.RentResolver, storageSvc storage.StorageService, bucket string, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, properties, rents, storageSvc, bucket, log)
	h := handler.New(svc)

	return &Module{handler: h, service: svc, log: log}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "agreement"
}

// Service returns the service layer for cross-module use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts agreement routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/bookings/:id/agreement", m.handler.GetDownloadURL)
}

// RegisterHandlers subscribes agreement generation to booking confirmations.
func (m *Module) RegisterHandlers(bus *events.InMemoryBus) {
	bus.Subscribe(events.BookingConfirmed{}.EventName(), m)
}

// Handle generates the agreement for a freshly confirmed booking. A failure
// is logged and surfaced to the bus; the booking itself is unaffected and
// the document can be regenerated by republishing the event.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	confirmed, ok := event.(events.BookingConfirmed)
	if !ok {
		return nil
	}
	_, err := m.service.Generate(ctx, service.Input{
		BookingID:  confirmed.BookingID,
		ProformaID: confirmed.ProformaID,
		PropertyID: confirmed.PropertyID,
		StartDate:  confirmed.StartDate,
		EndDate:    confirmed.EndDate,
		GuestName:  confirmed.GuestName,
		GuestEmail: confirmed.GuestEmail,
	})
	return err
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
