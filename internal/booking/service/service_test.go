package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"rentops_backend/internal/booking/domain"
	"rentops_backend/internal/booking/repository"
	"rentops_backend/internal/booking/transport"
	"rentops_backend/internal/events"
	"rentops_backend/platform/apperr"
	"rentops_backend/platform/logger"
)

// fakeWorkflowRepo is an in-memory Repository for the workflow tests.
type fakeWorkflowRepo struct {
	mu           sync.Mutex
	reservations map[string]repository.Reservation
	offers       map[string]repository.Offer
	proformas    map[string]repository.Proforma
	nextID       int

	confirmResult repository.ConfirmResult
	confirmErr    error
	confirmCalls  int
}

func newFakeWorkflowRepo() *fakeWorkflowRepo {
	return &fakeWorkflowRepo{
		reservations: make(map[string]repository.Reservation),
		offers:       make(map[string]repository.Offer),
		proformas:    make(map[string]repository.Proforma),
	}
}

func (f *fakeWorkflowRepo) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

func (f *fakeWorkflowRepo) ListReservations(ctx context.Context, propertyID string) ([]repository.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repository.Reservation
	for _, r := range f.reservations {
		if propertyID == "" || r.PropertyID == propertyID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeWorkflowRepo) GetReservation(ctx context.Context, id string) (repository.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reservations[id]
	if !ok {
		return repository.Reservation{}, apperr.NotFound("reservation not found")
	}
	return r, nil
}

func (f *fakeWorkflowRepo) CreateReservation(ctx context.Context, params repository.CreateReservationParams) (repository.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := repository.Reservation{
		ID:         f.id("res"),
		PropertyID: params.PropertyID,
		StartDate:  params.StartDate,
		EndDate:    params.EndDate,
		GuestName:  params.GuestName,
		GuestEmail: params.GuestEmail,
		GuestPhone: params.GuestPhone,
		Status:     domain.ReservationOpen,
	}
	f.reservations[r.ID] = r
	return r, nil
}

func (f *fakeWorkflowRepo) UpdateReservationStatus(ctx context.Context, id, status string) (repository.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reservations[id]
	if !ok {
		return repository.Reservation{}, apperr.NotFound("reservation not found")
	}
	r.Status = status
	f.reservations[id] = r
	return r, nil
}

func (f *fakeWorkflowRepo) DeleteReservation(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.reservations, id)
	return nil
}

func (f *fakeWorkflowRepo) ListOffers(ctx context.Context, propertyID string) ([]repository.Offer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repository.Offer
	for _, o := range f.offers {
		if propertyID == "" || o.PropertyID == propertyID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeWorkflowRepo) GetOffer(ctx context.Context, id string) (repository.Offer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.offers[id]
	if !ok {
		return repository.Offer{}, apperr.NotFound("offer not found")
	}
	return o, nil
}

func (f *fakeWorkflowRepo) CreateOffer(ctx context.Context, params repository.CreateOfferParams) (repository.Offer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o := repository.Offer{
		ID:            f.id("off"),
		ReservationID: params.ReservationID,
		PropertyID:    params.PropertyID,
		PriceCents:    params.PriceCents,
		StartDate:     params.StartDate,
		EndDate:       params.EndDate,
		Status:        domain.OfferDraft,
	}
	f.offers[o.ID] = o
	return o, nil
}

func (f *fakeWorkflowRepo) UpdateOfferStatus(ctx context.Context, id, status string) (repository.Offer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.offers[id]
	if !ok {
		return repository.Offer{}, apperr.NotFound("offer not found")
	}
	o.Status = status
	f.offers[id] = o
	return o, nil
}

func (f *fakeWorkflowRepo) ListProformas(ctx context.Context) ([]repository.Proforma, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repository.Proforma
	for _, p := range f.proformas {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeWorkflowRepo) GetProforma(ctx context.Context, id string) (repository.Proforma, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.proformas[id]
	if !ok {
		return repository.Proforma{}, apperr.NotFound("proforma not found")
	}
	return p, nil
}

func (f *fakeWorkflowRepo) CreateProforma(ctx context.Context, params repository.CreateProformaParams) (repository.Proforma, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := repository.Proforma{
		ID:               f.id("pf"),
		DocumentType:     params.DocumentType,
		Status:           domain.ProformaUnpaid,
		OfferID:          params.OfferID,
		ReservationID:    params.ReservationID,
		ParentProformaID: params.ParentProformaID,
		AmountCents:      params.AmountCents,
	}
	f.proformas[p.ID] = p
	return p, nil
}

func (f *fakeWorkflowRepo) SetProformaStatus(ctx context.Context, id, status string) (repository.Proforma, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.proformas[id]
	if !ok {
		return repository.Proforma{}, apperr.NotFound("proforma not found")
	}
	p.Status = status
	f.proformas[id] = p
	return p, nil
}

func (f *fakeWorkflowRepo) GetBooking(ctx context.Context, id string) (repository.ConfirmedBooking, error) {
	return repository.ConfirmedBooking{}, apperr.NotFound("booking not found")
}

func (f *fakeWorkflowRepo) ListBookings(ctx context.Context) ([]repository.ConfirmedBooking, error) {
	return nil, nil
}

func (f *fakeWorkflowRepo) ConfirmPayment(ctx context.Context, proformaID string) (repository.ConfirmResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.confirmCalls++
	if f.confirmErr != nil {
		return repository.ConfirmResult{}, f.confirmErr
	}
	return f.confirmResult, nil
}

// Compile-time check against interface drift.
var _ repository.Repository = (*fakeWorkflowRepo)(nil)

type fakeScheduler struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (f *fakeScheduler) ScheduleEnsureTasks(ctx context.Context, bookingID string, delay time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, bookingID)
	return f.err
}

func newTestService(repo repository.Repository, scheduler RetryScheduler) *Service {
	log := logger.New("development")
	return New(repo, events.NewInMemoryBus(log), scheduler, time.Minute, log)
}

func seedReservation(repo *fakeWorkflowRepo) repository.Reservation {
	r, _ := repo.CreateReservation(context.Background(), repository.CreateReservationParams{
		PropertyID: "prop-1",
		StartDate:  "2026-09-01",
		EndDate:    "2027-08-31",
		GuestName:  "Anna Vogel",
		GuestEmail: "anna@example.com",
	})
	return r
}

func TestCreateReservationRejectsInvertedRange(t *testing.T) {
	svc := newTestService(newFakeWorkflowRepo(), nil)

	_, err := svc.CreateReservation(context.Background(), transport.CreateReservationRequest{
		PropertyID: "prop-1",
		StartDate:  "2026-09-01",
		EndDate:    "2026-08-01",
		GuestName:  "Anna Vogel",
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateReservationRejectsMalformedDate(t *testing.T) {
	svc := newTestService(newFakeWorkflowRepo(), nil)

	_, err := svc.CreateReservation(context.Background(), transport.CreateReservationRequest{
		PropertyID: "prop-1",
		StartDate:  "01.09.2026",
		EndDate:    "2027-08-31",
		GuestName:  "Anna Vogel",
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateOfferMovesReservationToOffered(t *testing.T) {
	repo := newFakeWorkflowRepo()
	reservation := seedReservation(repo)
	svc := newTestService(repo, nil)

	offer, err := svc.CreateOffer(context.Background(), transport.CreateOfferRequest{
		ReservationID: reservation.ID,
		PriceCents:    180000,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if offer.Status != domain.OfferDraft {
		t.Fatalf("expected draft offer, got %q", offer.Status)
	}
	if offer.StartDate != reservation.StartDate || offer.EndDate != reservation.EndDate {
		t.Fatalf("offer should inherit reservation dates, got %s..%s", offer.StartDate, offer.EndDate)
	}

	updated, _ := repo.GetReservation(context.Background(), reservation.ID)
	if updated.Status != domain.ReservationOffered {
		t.Fatalf("expected reservation offered, got %q", updated.Status)
	}
}

func TestCreateOfferRejectsSettledReservation(t *testing.T) {
	repo := newFakeWorkflowRepo()
	reservation := seedReservation(repo)
	repo.UpdateReservationStatus(context.Background(), reservation.ID, domain.ReservationLost)
	svc := newTestService(repo, nil)

	_, err := svc.CreateOffer(context.Background(), transport.CreateOfferRequest{
		ReservationID: reservation.ID,
		PriceCents:    180000,
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSendOfferOnlyFromDraft(t *testing.T) {
	repo := newFakeWorkflowRepo()
	reservation := seedReservation(repo)
	svc := newTestService(repo, nil)

	offer, err := svc.CreateOffer(context.Background(), transport.CreateOfferRequest{
		ReservationID: reservation.ID,
		PriceCents:    180000,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sent, err := svc.SendOffer(context.Background(), offer.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sent.Status != domain.OfferSent {
		t.Fatalf("expected sent offer, got %q", sent.Status)
	}

	if _, err := svc.SendOffer(context.Background(), offer.ID); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error on second send, got %v", err)
	}
}

func TestCreateProformaDefaultsToOfferPrice(t *testing.T) {
	repo := newFakeWorkflowRepo()
	reservation := seedReservation(repo)
	svc := newTestService(repo, nil)

	offer, _ := svc.CreateOffer(context.Background(), transport.CreateOfferRequest{
		ReservationID: reservation.ID,
		PriceCents:    180000,
	})

	proforma, err := svc.CreateProforma(context.Background(), transport.CreateProformaRequest{OfferID: offer.ID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if proforma.AmountCents != 180000 {
		t.Fatalf("expected amount 180000, got %d", proforma.AmountCents)
	}
	if proforma.DocumentType != domain.DocTypeProforma {
		t.Fatalf("expected proforma document type, got %q", proforma.DocumentType)
	}

	invoiced, _ := repo.GetOffer(context.Background(), offer.ID)
	if invoiced.Status != domain.OfferInvoiced {
		t.Fatalf("expected invoiced offer, got %q", invoiced.Status)
	}
	res, _ := repo.GetReservation(context.Background(), reservation.ID)
	if res.Status != domain.ReservationInvoiced {
		t.Fatalf("expected invoiced reservation, got %q", res.Status)
	}
}

func TestCreateProformaRejectsLostOffer(t *testing.T) {
	repo := newFakeWorkflowRepo()
	reservation := seedReservation(repo)
	svc := newTestService(repo, nil)

	offer, _ := svc.CreateOffer(context.Background(), transport.CreateOfferRequest{
		ReservationID: reservation.ID,
		PriceCents:    180000,
	})
	repo.UpdateOfferStatus(context.Background(), offer.ID, domain.OfferLost)

	_, err := svc.CreateProforma(context.Background(), transport.CreateProformaRequest{OfferID: offer.ID})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateChildInvoiceLinksParent(t *testing.T) {
	repo := newFakeWorkflowRepo()
	reservation := seedReservation(repo)
	svc := newTestService(repo, nil)

	offer, _ := svc.CreateOffer(context.Background(), transport.CreateOfferRequest{
		ReservationID: reservation.ID,
		PriceCents:    180000,
	})
	parent, _ := svc.CreateProforma(context.Background(), transport.CreateProformaRequest{OfferID: offer.ID})

	invoice, err := svc.CreateChildInvoice(context.Background(), parent.ID, 45000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if invoice.DocumentType != domain.DocTypeInvoice {
		t.Fatalf("expected invoice document type, got %q", invoice.DocumentType)
	}
	if invoice.ParentProformaID == nil || *invoice.ParentProformaID != parent.ID {
		t.Fatalf("expected parent linkage to %s, got %v", parent.ID, invoice.ParentProformaID)
	}
}

func TestConfirmPaymentSchedulesRetry(t *testing.T) {
	repo := newFakeWorkflowRepo()
	repo.confirmResult = repository.ConfirmResult{
		Booking: repository.ConfirmedBooking{
			ID:         "b-1",
			ProformaID: "pf-1",
			PropertyID: "prop-1",
			StartDate:  "2026-09-01",
			EndDate:    "2027-08-31",
		},
	}
	scheduler := &fakeScheduler{}
	svc := newTestService(repo, scheduler)

	result, err := svc.ConfirmPayment(context.Background(), "pf-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Booking.ID != "b-1" {
		t.Fatalf("unexpected booking: %+v", result.Booking)
	}
	if len(scheduler.calls) != 1 || scheduler.calls[0] != "b-1" {
		t.Fatalf("expected one scheduled retry for b-1, got %v", scheduler.calls)
	}
}

func TestConfirmPaymentSchedulerFailureDoesNotFailConfirmation(t *testing.T) {
	repo := newFakeWorkflowRepo()
	repo.confirmResult = repository.ConfirmResult{
		Booking: repository.ConfirmedBooking{ID: "b-1", ProformaID: "pf-1", PropertyID: "prop-1"},
	}
	scheduler := &fakeScheduler{err: fmt.Errorf("queue down")}
	svc := newTestService(repo, scheduler)

	if _, err := svc.ConfirmPayment(context.Background(), "pf-1"); err != nil {
		t.Fatalf("scheduler failure must not fail confirmation, got %v", err)
	}
}

func TestConfirmPaymentPropagatesConflict(t *testing.T) {
	repo := newFakeWorkflowRepo()
	repo.confirmErr = apperr.Conflict("booking already confirmed for this proforma")
	svc := newTestService(repo, nil)

	_, err := svc.ConfirmPayment(context.Background(), "pf-1")
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestRevertPaidOnlyFromPaid(t *testing.T) {
	repo := newFakeWorkflowRepo()
	reservation := seedReservation(repo)
	svc := newTestService(repo, nil)

	offer, _ := svc.CreateOffer(context.Background(), transport.CreateOfferRequest{
		ReservationID: reservation.ID,
		PriceCents:    180000,
	})
	proforma, _ := svc.CreateProforma(context.Background(), transport.CreateProformaRequest{OfferID: offer.ID})

	if _, err := svc.RevertPaid(context.Background(), proforma.ID); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for unpaid proforma, got %v", err)
	}

	repo.SetProformaStatus(context.Background(), proforma.ID, domain.ProformaPaid)
	reverted, err := svc.RevertPaid(context.Background(), proforma.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reverted.Status != domain.ProformaUnpaid {
		t.Fatalf("expected unpaid, got %q", reverted.Status)
	}
}

func TestCancelReservationRejectsSettled(t *testing.T) {
	repo := newFakeWorkflowRepo()
	reservation := seedReservation(repo)
	svc := newTestService(repo, nil)

	cancelled, err := svc.CancelReservation(context.Background(), reservation.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cancelled.Status != domain.ReservationCancelled {
		t.Fatalf("expected cancelled, got %q", cancelled.Status)
	}

	if _, err := svc.CancelReservation(context.Background(), reservation.ID); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
