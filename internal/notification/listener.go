package notification

import (
	"context"

	"rentops_backend/internal/events"
	"rentops_backend/platform/logger"
)

// Listener forwards booking confirmations to the mail sender.
type Listener struct {
	sender Sender
	log    *logger.Logger
}

// NewListener creates the booking confirmation mail listener. sender may be
// nil when mail is disabled; events are then dropped silently.
func NewListener(sender Sender, log *logger.Logger) *Listener {
	return &Listener{sender: sender, log: log}
}

// RegisterHandlers subscribes to booking confirmations.
func (l *Listener) RegisterHandlers(bus *events.InMemoryBus) {
	bus.Subscribe(events.BookingConfirmed{}.EventName(), l)
}

// Handle sends the confirmation mail. Failures are logged only; the booking
// is already confirmed and mail is not retried.
func (l *Listener) Handle(ctx context.Context, event events.Event) error {
	confirmed, ok := event.(events.BookingConfirmed)
	if !ok || l.sender == nil {
		return nil
	}
	if confirmed.GuestEmail == "" {
		l.log.Warn("booking confirmed without guest email, skipping mail", "bookingId", confirmed.BookingID)
		return nil
	}

	err := l.sender.SendBookingConfirmed(ctx, confirmed.GuestEmail, BookingConfirmedData{
		GuestName:  confirmed.GuestName,
		PropertyID: confirmed.PropertyID,
		StartDate:  confirmed.StartDate,
		EndDate:    confirmed.EndDate,
	})
	if err != nil {
		l.log.Error("failed to send booking confirmation mail",
			"bookingId", confirmed.BookingID, "error", err)
	}
	return nil
}
