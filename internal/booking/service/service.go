// Package service implements the booking workflow state machine. The only
// atomic operation is payment confirmation; everything downstream (facility
// tasks, meter stubs, notifications) is reconciled afterwards by the
// idempotent orchestrator and may be retried any number of times.
package service

import (
	"context"
	"time"

	"rentops_backend/internal/booking/domain"
	"rentops_backend/internal/booking/repository"
	"rentops_backend/internal/booking/transport"
	"rentops_backend/internal/events"
	"rentops_backend/platform/apperr"
	"rentops_backend/platform/logger"
	"rentops_backend/platform/phone"
)

// RetryScheduler enqueues a delayed re-run of the facility-task
// reconciliation, covering a crash between booking confirmation and task
// creation. Implemented by the asynq scheduler client.
type RetryScheduler interface {
	ScheduleEnsureTasks(ctx context.Context, bookingID string, delay time.Duration) error
}

// Service provides booking workflow operations.
type Service struct {
	repo       repository.Repository
	bus        events.Bus
	scheduler  RetryScheduler
	retryDelay time.Duration
	log        *logger.Logger
}

// New creates a new booking service. scheduler may be nil when no retry
// queue is configured.
func New(repo repository.Repository, bus events.Bus, scheduler RetryScheduler, retryDelay time.Duration, log *logger.Logger) *Service {
	return &Service{repo: repo, bus: bus, scheduler: scheduler, retryDelay: retryDelay, log: log}
}

// =============================================================================
// Reservations
// =============================================================================

// ListReservations returns reservations, optionally scoped to a property.
func (s *Service) ListReservations(ctx context.Context, propertyID string) ([]repository.Reservation, error) {
	reservations, err := s.repo.ListReservations(ctx, propertyID)
	if err != nil {
		return nil, apperr.Unavailable("failed to load reservations", err)
	}
	return reservations, nil
}

// CreateReservation records a guest inquiry. The phone number is normalized
// to E.164 where possible.
func (s *Service) CreateReservation(ctx context.Context, req transport.CreateReservationRequest) (repository.Reservation, error) {
	if err := validateDateRange(req.StartDate, req.EndDate); err != nil {
		return repository.Reservation{}, err
	}

	reservation, err := s.repo.CreateReservation(ctx, repository.CreateReservationParams{
		PropertyID: req.PropertyID,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
		GuestName:  req.GuestName,
		GuestEmail: req.GuestEmail,
		GuestPhone: phone.NormalizeE164(req.GuestPhone),
	})
	if err != nil {
		return repository.Reservation{}, apperr.Unavailable("failed to create reservation", err)
	}

	s.log.Info("reservation created", "reservationId", reservation.ID, "propertyId", reservation.PropertyID)
	return reservation, nil
}

// CancelReservation marks a reservation cancelled.
func (s *Service) CancelReservation(ctx context.Context, id string) (repository.Reservation, error) {
	current, err := s.repo.GetReservation(ctx, id)
	if err != nil {
		return repository.Reservation{}, err
	}
	if !domain.ReservationActive(current.Status) {
		return repository.Reservation{}, apperr.Validation("reservation is already settled")
	}
	return s.repo.UpdateReservationStatus(ctx, id, domain.ReservationCancelled)
}

// DeleteReservation is an explicit user delete.
func (s *Service) DeleteReservation(ctx context.Context, id string) error {
	return s.repo.DeleteReservation(ctx, id)
}

// =============================================================================
// Offers
// =============================================================================

// ListOffers returns offers, optionally scoped to a property.
func (s *Service) ListOffers(ctx context.Context, propertyID string) ([]repository.Offer, error) {
	offers, err := s.repo.ListOffers(ctx, propertyID)
	if err != nil {
		return nil, apperr.Unavailable("failed to load offers", err)
	}
	return offers, nil
}

// CreateOffer drafts an offer from a reservation and moves the reservation
// to offered.
func (s *Service) CreateOffer(ctx context.Context, req transport.CreateOfferRequest) (repository.Offer, error) {
	if req.PriceCents < 0 {
		return repository.Offer{}, apperr.Validation("price must not be negative")
	}

	reservation, err := s.repo.GetReservation(ctx, req.ReservationID)
	if err != nil {
		return repository.Offer{}, err
	}
	if !domain.ReservationActive(reservation.Status) {
		return repository.Offer{}, apperr.Validation("reservation is already settled")
	}

	startDate := reservation.StartDate
	endDate := reservation.EndDate
	if req.StartDate != nil && req.EndDate != nil {
		if err := validateDateRange(*req.StartDate, *req.EndDate); err != nil {
			return repository.Offer{}, err
		}
		startDate, endDate = *req.StartDate, *req.EndDate
	}

	offer, err := s.repo.CreateOffer(ctx, repository.CreateOfferParams{
		ReservationID: &reservation.ID,
		PropertyID:    reservation.PropertyID,
		PriceCents:    req.PriceCents,
		StartDate:     startDate,
		EndDate:       endDate,
	})
	if err != nil {
		return repository.Offer{}, apperr.Unavailable("failed to create offer", err)
	}

	if _, err := s.repo.UpdateReservationStatus(ctx, reservation.ID, domain.ReservationOffered); err != nil {
		s.log.Error("failed to move reservation to offered", "reservationId", reservation.ID, "error", err)
	}

	s.log.Info("offer created", "offerId", offer.ID, "reservationId", reservation.ID)
	return offer, nil
}

// SendOffer moves a draft offer to Sent.
func (s *Service) SendOffer(ctx context.Context, id string) (repository.Offer, error) {
	offer, err := s.repo.GetOffer(ctx, id)
	if err != nil {
		return repository.Offer{}, err
	}
	if offer.Status != domain.OfferDraft {
		return repository.Offer{}, apperr.Validation("only draft offers can be sent")
	}
	return s.repo.UpdateOfferStatus(ctx, id, domain.OfferSent)
}

// =============================================================================
// Proformas
// =============================================================================

// ListProformas returns all billing documents.
func (s *Service) ListProformas(ctx context.Context) ([]repository.Proforma, error) {
	proformas, err := s.repo.ListProformas(ctx)
	if err != nil {
		return nil, apperr.Unavailable("failed to load proformas", err)
	}
	return proformas, nil
}

// CreateProforma invoices an offer: the offer moves to Invoiced (superseded,
// not deleted), the reservation to invoiced, and an unpaid proforma is
// created carrying both linkages.
func (s *Service) CreateProforma(ctx context.Context, req transport.CreateProformaRequest) (repository.Proforma, error) {
	offer, err := s.repo.GetOffer(ctx, req.OfferID)
	if err != nil {
		return repository.Proforma{}, err
	}
	if offer.Status == domain.OfferLost {
		return repository.Proforma{}, apperr.Validation("cannot invoice a lost offer")
	}

	amount := offer.PriceCents
	if req.AmountCents != nil {
		if *req.AmountCents < 0 {
			return repository.Proforma{}, apperr.Validation("amount must not be negative")
		}
		amount = *req.AmountCents
	}

	proforma, err := s.repo.CreateProforma(ctx, repository.CreateProformaParams{
		DocumentType:  domain.DocTypeProforma,
		OfferID:       &offer.ID,
		ReservationID: offer.ReservationID,
		AmountCents:   amount,
	})
	if err != nil {
		return repository.Proforma{}, apperr.Unavailable("failed to create proforma", err)
	}

	if _, err := s.repo.UpdateOfferStatus(ctx, offer.ID, domain.OfferInvoiced); err != nil {
		s.log.Error("failed to move offer to invoiced", "offerId", offer.ID, "error", err)
	}
	if offer.ReservationID != nil {
		if _, err := s.repo.UpdateReservationStatus(ctx, *offer.ReservationID, domain.ReservationInvoiced); err != nil {
			s.log.Error("failed to move reservation to invoiced", "reservationId", *offer.ReservationID, "error", err)
		}
	}

	s.log.Info("proforma created", "proformaId", proforma.ID, "offerId", offer.ID)
	return proforma, nil
}

// CreateChildInvoice creates an invoice under an existing proforma. The
// offer linkage is inherited from the parent at confirmation time.
func (s *Service) CreateChildInvoice(ctx context.Context, parentID string, amountCents int64) (repository.Proforma, error) {
	if amountCents < 0 {
		return repository.Proforma{}, apperr.Validation("amount must not be negative")
	}

	parent, err := s.repo.GetProforma(ctx, parentID)
	if err != nil {
		return repository.Proforma{}, err
	}

	invoice, err := s.repo.CreateProforma(ctx, repository.CreateProformaParams{
		DocumentType:     domain.DocTypeInvoice,
		ReservationID:    parent.ReservationID,
		ParentProformaID: &parent.ID,
		AmountCents:      amountCents,
	})
	if err != nil {
		return repository.Proforma{}, apperr.Unavailable("failed to create invoice", err)
	}
	return invoice, nil
}

// =============================================================================
// Payment confirmation
// =============================================================================

// ConfirmPayment runs the atomic confirmation transaction, then publishes
// BookingConfirmed and schedules a delayed reconciliation retry. If the
// transaction fails nothing is mutated; if a downstream step fails the
// booking stays confirmed and a later idempotent run fills the gap.
func (s *Service) ConfirmPayment(ctx context.Context, proformaID string) (repository.ConfirmResult, error) {
	result, err := s.repo.ConfirmPayment(ctx, proformaID)
	if err != nil {
		return repository.ConfirmResult{}, err
	}

	if result.IdentityMismatch {
		s.log.IdentityMismatch("reservation", proformaID, "proforma")
	}

	event := events.BookingConfirmed{
		BaseEvent:  events.NewBaseEvent(),
		BookingID:  result.Booking.ID,
		ProformaID: result.Booking.ProformaID,
		PropertyID: result.Booking.PropertyID,
		StartDate:  result.Booking.StartDate,
		EndDate:    result.Booking.EndDate,
	}
	if result.Reservation != nil {
		event.GuestName = result.Reservation.GuestName
		event.GuestEmail = result.Reservation.GuestEmail
	}
	s.bus.Publish(ctx, event)

	if s.scheduler != nil {
		if err := s.scheduler.ScheduleEnsureTasks(ctx, result.Booking.ID, s.retryDelay); err != nil {
			s.log.Error("failed to schedule task reconciliation retry", "bookingId", result.Booking.ID, "error", err)
		}
	}

	s.log.Info("payment confirmed",
		"proformaId", proformaID,
		"bookingId", result.Booking.ID,
		"lostReservations", len(result.LostReservations))
	return result, nil
}

// RevertPaid moves a paid proforma back to Unpaid. This is an explicit
// manual correction: the confirmed booking and any facility tasks created
// from it are left untouched, and re-confirming later returns a Conflict
// because the booking already exists.
func (s *Service) RevertPaid(ctx context.Context, proformaID string) (repository.Proforma, error) {
	current, err := s.repo.GetProforma(ctx, proformaID)
	if err != nil {
		return repository.Proforma{}, err
	}
	if current.Status != domain.ProformaPaid {
		return repository.Proforma{}, apperr.Validation("proforma is not paid")
	}

	proforma, err := s.repo.SetProformaStatus(ctx, proformaID, domain.ProformaUnpaid)
	if err != nil {
		return repository.Proforma{}, err
	}

	s.log.Warn("paid proforma reverted to unpaid, booking and tasks remain",
		"proformaId", proformaID, "bookingId", proforma.BookingID)
	return proforma, nil
}

// ListBookings returns all confirmed bookings.
func (s *Service) ListBookings(ctx context.Context) ([]repository.ConfirmedBooking, error) {
	bookings, err := s.repo.ListBookings(ctx)
	if err != nil {
		return nil, apperr.Unavailable("failed to load bookings", err)
	}
	return bookings, nil
}

func validateDateRange(startDate, endDate string) error {
	const layout = "2006-01-02"
	if _, err := time.Parse(layout, startDate); err != nil {
		return apperr.Validation("startDate must be YYYY-MM-DD")
	}
	if _, err := time.Parse(layout, endDate); err != nil {
		return apperr.Validation("endDate must be YYYY-MM-DD")
	}
	if endDate < startDate {
		return apperr.Validation("endDate must not precede startDate")
	}
	return nil
}
