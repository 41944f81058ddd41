// Package repository provides data access for the booking workflow:
// reservations, offers, proformas and confirmed bookings.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"rentops_backend/internal/booking/domain"
	"rentops_backend/platform/apperr"
)

// Reservation is a guest inquiry for a property and date range.
type Reservation struct {
	ID         string `json:"id"`
	PropertyID string `json:"propertyId"`
	StartDate  string `json:"startDate"`
	EndDate    string `json:"endDate"`
	GuestName  string `json:"guestName"`
	GuestEmail string `json:"guestEmail"`
	GuestPhone string `json:"guestPhone"`
	Status     string `json:"status"`
	CreatedAt  string `json:"createdAt"`
	UpdatedAt  string `json:"updatedAt"`
}

// Offer is a priced proposal, usually created from a reservation.
type Offer struct {
	ID            string  `json:"id"`
	ReservationID *string `json:"reservationId"`
	PropertyID    string  `json:"propertyId"`
	PriceCents    int64   `json:"priceCents"`
	StartDate     string  `json:"startDate"`
	EndDate       string  `json:"endDate"`
	Status        string  `json:"status"`
	CreatedAt     string  `json:"createdAt"`
	UpdatedAt     string  `json:"updatedAt"`
}

// Proforma is a billing document. BookingID is set only after payment
// confirmation. A proforma may have child invoices via ParentProformaID.
type Proforma struct {
	ID               string  `json:"id"`
	DocumentType     string  `json:"documentType"`
	Status           string  `json:"status"`
	OfferID          *string `json:"offerId"`
	ReservationID    *string `json:"reservationId"`
	BookingID        *string `json:"bookingId"`
	ParentProformaID *string `json:"parentProformaId"`
	AmountCents      int64   `json:"amountCents"`
	CreatedAt        string  `json:"createdAt"`
	UpdatedAt        string  `json:"updatedAt"`
}

// ConfirmedBooking is the authoritative won-tenancy record, created exactly
// once per paid proforma.
type ConfirmedBooking struct {
	ID         string `json:"id"`
	ProformaID string `json:"proformaId"`
	PropertyID string `json:"propertyId"`
	StartDate  string `json:"startDate"`
	EndDate    string `json:"endDate"`
	CreatedAt  string `json:"createdAt"`
}

// CreateReservationParams carries the fields for a new reservation.
type CreateReservationParams struct {
	PropertyID string
	StartDate  string
	EndDate    string
	GuestName  string
	GuestEmail string
	GuestPhone string
}

// CreateOfferParams carries the fields for a new offer.
type CreateOfferParams struct {
	ReservationID *string
	PropertyID    string
	PriceCents    int64
	StartDate     string
	EndDate       string
}

// CreateProformaParams carries the fields for a new billing document.
type CreateProformaParams struct {
	DocumentType     string
	OfferID          *string
	ReservationID    *string
	ParentProformaID *string
	AmountCents      int64
}

// Repository defines data access for the booking workflow.
type Repository interface {
	ListReservations(ctx context.Context, propertyID string) ([]Reservation, error)
	GetReservation(ctx context.Context, id string) (Reservation, error)
	CreateReservation(ctx context.Context, params CreateReservationParams) (Reservation, error)
	UpdateReservationStatus(ctx context.Context, id, status string) (Reservation, error)
	DeleteReservation(ctx context.Context, id string) error

	ListOffers(ctx context.Context, propertyID string) ([]Offer, error)
	GetOffer(ctx context.Context, id string) (Offer, error)
	CreateOffer(ctx context.Context, params CreateOfferParams) (Offer, error)
	UpdateOfferStatus(ctx context.Context, id, status string) (Offer, error)

	ListProformas(ctx context.Context) ([]Proforma, error)
	GetProforma(ctx context.Context, id string) (Proforma, error)
	CreateProforma(ctx context.Context, params CreateProformaParams) (Proforma, error)
	SetProformaStatus(ctx context.Context, id, status string) (Proforma, error)

	GetBooking(ctx context.Context, id string) (ConfirmedBooking, error)
	ListBookings(ctx context.Context) ([]ConfirmedBooking, error)

	ConfirmPayment(ctx context.Context, proformaID string) (ConfirmResult, error)
}

// Repo is the pgx implementation of Repository.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new booking repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// =============================================================================
// Reservations
// =============================================================================

const reservationColumns = `id, property_id, start_date, end_date, guest_name, guest_email, guest_phone, status, created_at, updated_at`

func scanReservation(scan func(dest ...any) error) (Reservation, error) {
	var r Reservation
	var createdAt, updatedAt time.Time
	err := scan(&r.ID, &r.PropertyID, &r.StartDate, &r.EndDate, &r.GuestName,
		&r.GuestEmail, &r.GuestPhone, &r.Status, &createdAt, &updatedAt)
	if err != nil {
		return Reservation{}, err
	}
	r.CreatedAt = createdAt.Format(time.RFC3339)
	r.UpdatedAt = updatedAt.Format(time.RFC3339)
	return r, nil
}

// ListReservations returns reservations, optionally scoped to a property.
func (r *Repo) ListReservations(ctx context.Context, propertyID string) ([]Reservation, error) {
	query := fmt.Sprintf(`SELECT %s FROM reservations`, reservationColumns)
	var args []any
	if propertyID != "" {
		query += " WHERE property_id = $1"
		args = append(args, propertyID)
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	defer rows.Close()

	var reservations []Reservation
	for rows.Next() {
		res, err := scanReservation(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		reservations = append(reservations, res)
	}
	return reservations, rows.Err()
}

// GetReservation returns a reservation by id.
func (r *Repo) GetReservation(ctx context.Context, id string) (Reservation, error) {
	query := fmt.Sprintf(`SELECT %s FROM reservations WHERE id = $1`, reservationColumns)

	res, err := scanReservation(r.pool.QueryRow(ctx, query, id).Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Reservation{}, apperr.NotFound("reservation not found")
		}
		return Reservation{}, fmt.Errorf("get reservation: %w", err)
	}
	return res, nil
}

// CreateReservation inserts an open reservation.
func (r *Repo) CreateReservation(ctx context.Context, params CreateReservationParams) (Reservation, error) {
	query := fmt.Sprintf(`
		INSERT INTO reservations (id, property_id, start_date, end_date, guest_name, guest_email, guest_phone, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING %s`, reservationColumns)

	res, err := scanReservation(r.pool.QueryRow(ctx, query,
		uuid.New().String(), params.PropertyID, params.StartDate, params.EndDate,
		params.GuestName, params.GuestEmail, params.GuestPhone, domain.ReservationOpen,
	).Scan)
	if err != nil {
		return Reservation{}, fmt.Errorf("create reservation: %w", err)
	}
	return res, nil
}

// UpdateReservationStatus sets a reservation's status.
func (r *Repo) UpdateReservationStatus(ctx context.Context, id, status string) (Reservation, error) {
	query := fmt.Sprintf(`
		UPDATE reservations SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING %s`, reservationColumns)

	res, err := scanReservation(r.pool.QueryRow(ctx, query, id, status).Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Reservation{}, apperr.NotFound("reservation not found")
		}
		return Reservation{}, fmt.Errorf("update reservation status: %w", err)
	}
	return res, nil
}

// DeleteReservation removes a reservation. Workflow transitions never call
// this; it exists for explicit user deletes only.
func (r *Repo) DeleteReservation(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM reservations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete reservation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("reservation not found")
	}
	return nil
}

// =============================================================================
// Offers
// =============================================================================

const offerColumns = `id, reservation_id, property_id, price_cents, start_date, end_date, status, created_at, updated_at`

func scanOffer(scan func(dest ...any) error) (Offer, error) {
	var o Offer
	var createdAt, updatedAt time.Time
	err := scan(&o.ID, &o.ReservationID, &o.PropertyID, &o.PriceCents,
		&o.StartDate, &o.EndDate, &o.Status, &createdAt, &updatedAt)
	if err != nil {
		return Offer{}, err
	}
	o.CreatedAt = createdAt.Format(time.RFC3339)
	o.UpdatedAt = updatedAt.Format(time.RFC3339)
	return o, nil
}

// ListOffers returns offers, optionally scoped to a property.
func (r *Repo) ListOffers(ctx context.Context, propertyID string) ([]Offer, error) {
	query := fmt.Sprintf(`SELECT %s FROM offers`, offerColumns)
	var args []any
	if propertyID != "" {
		query += " WHERE property_id = $1"
		args = append(args, propertyID)
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list offers: %w", err)
	}
	defer rows.Close()

	var offers []Offer
	for rows.Next() {
		offer, err := scanOffer(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan offer: %w", err)
		}
		offers = append(offers, offer)
	}
	return offers, rows.Err()
}

// GetOffer returns an offer by id.
func (r *Repo) GetOffer(ctx context.Context, id string) (Offer, error) {
	query := fmt.Sprintf(`SELECT %s FROM offers WHERE id = $1`, offerColumns)

	offer, err := scanOffer(r.pool.QueryRow(ctx, query, id).Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Offer{}, apperr.NotFound("offer not found")
		}
		return Offer{}, fmt.Errorf("get offer: %w", err)
	}
	return offer, nil
}

// CreateOffer inserts a draft offer.
func (r *Repo) CreateOffer(ctx context.Context, params CreateOfferParams) (Offer, error) {
	query := fmt.Sprintf(`
		INSERT INTO offers (id, reservation_id, property_id, price_cents, start_date, end_date, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING %s`, offerColumns)

	offer, err := scanOffer(r.pool.QueryRow(ctx, query,
		uuid.New().String(), params.ReservationID, params.PropertyID,
		params.PriceCents, params.StartDate, params.EndDate, domain.OfferDraft,
	).Scan)
	if err != nil {
		return Offer{}, fmt.Errorf("create offer: %w", err)
	}
	return offer, nil
}

// UpdateOfferStatus sets an offer's status.
func (r *Repo) UpdateOfferStatus(ctx context.Context, id, status string) (Offer, error) {
	query := fmt.Sprintf(`
		UPDATE offers SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING %s`, offerColumns)

	offer, err := scanOffer(r.pool.QueryRow(ctx, query, id, status).Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Offer{}, apperr.NotFound("offer not found")
		}
		return Offer{}, fmt.Errorf("update offer status: %w", err)
	}
	return offer, nil
}

// =============================================================================
// Proformas
// =============================================================================

const proformaColumns = `id, document_type, status, offer_id, reservation_id, booking_id, parent_proforma_id, amount_cents, created_at, updated_at`

func scanProforma(scan func(dest ...any) error) (Proforma, error) {
	var p Proforma
	var createdAt, updatedAt time.Time
	err := scan(&p.ID, &p.DocumentType, &p.Status, &p.OfferID, &p.ReservationID,
		&p.BookingID, &p.ParentProformaID, &p.AmountCents, &createdAt, &updatedAt)
	if err != nil {
		return Proforma{}, err
	}
	p.CreatedAt = createdAt.Format(time.RFC3339)
	p.UpdatedAt = updatedAt.Format(time.RFC3339)
	return p, nil
}

// ListProformas returns all billing documents, newest first.
func (r *Repo) ListProformas(ctx context.Context) ([]Proforma, error) {
	query := fmt.Sprintf(`SELECT %s FROM proformas ORDER BY created_at DESC`, proformaColumns)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list proformas: %w", err)
	}
	defer rows.Close()

	var proformas []Proforma
	for rows.Next() {
		p, err := scanProforma(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan proforma: %w", err)
		}
		proformas = append(proformas, p)
	}
	return proformas, rows.Err()
}

// GetProforma returns a billing document by id.
func (r *Repo) GetProforma(ctx context.Context, id string) (Proforma, error) {
	query := fmt.Sprintf(`SELECT %s FROM proformas WHERE id = $1`, proformaColumns)

	p, err := scanProforma(r.pool.QueryRow(ctx, query, id).Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Proforma{}, apperr.NotFound("proforma not found")
		}
		return Proforma{}, fmt.Errorf("get proforma: %w", err)
	}
	return p, nil
}

// CreateProforma inserts an unpaid billing document.
func (r *Repo) CreateProforma(ctx context.Context, params CreateProformaParams) (Proforma, error) {
	query := fmt.Sprintf(`
		INSERT INTO proformas (id, document_type, status, offer_id, reservation_id, parent_proforma_id, amount_cents)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING %s`, proformaColumns)

	p, err := scanProforma(r.pool.QueryRow(ctx, query,
		uuid.New().String(), params.DocumentType, domain.ProformaUnpaid,
		params.OfferID, params.ReservationID, params.ParentProformaID, params.AmountCents,
	).Scan)
	if err != nil {
		return Proforma{}, fmt.Errorf("create proforma: %w", err)
	}
	return p, nil
}

// SetProformaStatus sets a proforma's status without side effects. Payment
// confirmation goes through ConfirmPayment instead.
func (r *Repo) SetProformaStatus(ctx context.Context, id, status string) (Proforma, error) {
	query := fmt.Sprintf(`
		UPDATE proformas SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING %s`, proformaColumns)

	p, err := scanProforma(r.pool.QueryRow(ctx, query, id, status).Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Proforma{}, apperr.NotFound("proforma not found")
		}
		return Proforma{}, fmt.Errorf("set proforma status: %w", err)
	}
	return p, nil
}

// =============================================================================
// Confirmed bookings
// =============================================================================

const bookingColumns = `id, proforma_id, property_id, start_date, end_date, created_at`

func scanBooking(scan func(dest ...any) error) (ConfirmedBooking, error) {
	var b ConfirmedBooking
	var createdAt time.Time
	err := scan(&b.ID, &b.ProformaID, &b.PropertyID, &b.StartDate, &b.EndDate, &createdAt)
	if err != nil {
		return ConfirmedBooking{}, err
	}
	b.CreatedAt = createdAt.Format(time.RFC3339)
	return b, nil
}

// GetBooking returns a confirmed booking by id.
func (r *Repo) GetBooking(ctx context.Context, id string) (ConfirmedBooking, error) {
	query := fmt.Sprintf(`SELECT %s FROM confirmed_bookings WHERE id = $1`, bookingColumns)

	b, err := scanBooking(r.pool.QueryRow(ctx, query, id).Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ConfirmedBooking{}, apperr.NotFound("booking not found")
		}
		return ConfirmedBooking{}, fmt.Errorf("get booking: %w", err)
	}
	return b, nil
}

// ListBookings returns all confirmed bookings, newest first.
func (r *Repo) ListBookings(ctx context.Context) ([]ConfirmedBooking, error) {
	query := fmt.Sprintf(`SELECT %s FROM confirmed_bookings ORDER BY created_at DESC`, bookingColumns)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	var bookings []ConfirmedBooking
	for rows.Next() {
		b, err := scanBooking(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}
