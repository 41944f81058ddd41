package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"rentops_backend/internal/booking/domain"
	"rentops_backend/platform/apperr"
	"rentops_backend/platform/ident"
)

// ConfirmResult carries everything that changed inside the payment
// confirmation transaction.
type ConfirmResult struct {
	Booking          ConfirmedBooking
	Proforma         Proforma
	Reservation      *Reservation
	LostReservations []Reservation
	// IdentityMismatch is set when the reservation backing the paid
	// proforma could not be found by normalized-id lookup. The payment
	// stays committed; only the status propagation was skipped.
	IdentityMismatch bool
}

// ConfirmPayment is the single atomic operation of the workflow: mark the
// proforma Paid, create the confirmed booking, settle the winning
// reservation and mark competing reservations and their offers lost. Either
// everything commits or nothing does. The UNIQUE(proforma_id) constraint on
// confirmed_bookings turns a replay into a Conflict instead of a second
// booking.
func (r *Repo) ConfirmPayment(ctx context.Context, proformaID string) (ConfirmResult, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return ConfirmResult{}, fmt.Errorf("begin confirm: %w", err)
	}
	defer tx.Rollback(ctx)

	query := fmt.Sprintf(`SELECT %s FROM proformas WHERE id = $1 FOR UPDATE`, proformaColumns)
	proforma, err := scanProforma(tx.QueryRow(ctx, query, proformaID).Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ConfirmResult{}, apperr.NotFound("proforma not found")
		}
		return ConfirmResult{}, fmt.Errorf("lock proforma: %w", err)
	}

	if proforma.Status == domain.ProformaPaid {
		return ConfirmResult{}, apperr.Conflict("proforma is already paid")
	}

	offerID, err := r.resolveOfferID(ctx, tx, proforma)
	if err != nil {
		return ConfirmResult{}, err
	}
	if offerID == nil {
		return ConfirmResult{}, apperr.Validation("proforma is not linked to an offer")
	}

	offerQuery := fmt.Sprintf(`SELECT %s FROM offers WHERE id = $1 FOR UPDATE`, offerColumns)
	offer, err := scanOffer(tx.QueryRow(ctx, offerQuery, *offerID).Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ConfirmResult{}, apperr.Validation("linked offer not found")
		}
		return ConfirmResult{}, fmt.Errorf("lock offer: %w", err)
	}

	bookingQuery := fmt.Sprintf(`
		INSERT INTO confirmed_bookings (id, proforma_id, property_id, start_date, end_date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING %s`, bookingColumns)

	booking, err := scanBooking(tx.QueryRow(ctx, bookingQuery,
		uuid.New().String(), proforma.ID, offer.PropertyID, offer.StartDate, offer.EndDate,
	).Scan)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ConfirmResult{}, apperr.Conflict("booking already confirmed for this proforma")
		}
		return ConfirmResult{}, fmt.Errorf("create booking: %w", err)
	}

	paidQuery := fmt.Sprintf(`
		UPDATE proformas SET status = $2, booking_id = $3, updated_at = now()
		WHERE id = $1
		RETURNING %s`, proformaColumns)
	proforma, err = scanProforma(tx.QueryRow(ctx, paidQuery, proforma.ID, domain.ProformaPaid, booking.ID).Scan)
	if err != nil {
		return ConfirmResult{}, fmt.Errorf("mark proforma paid: %w", err)
	}

	result := ConfirmResult{Booking: booking, Proforma: proforma}

	winner, err := r.settleWinner(ctx, tx, proforma, offer)
	if err != nil {
		return ConfirmResult{}, err
	}
	if winner == nil {
		result.IdentityMismatch = true
	} else {
		result.Reservation = winner
	}

	lost, err := r.settleCompetitors(ctx, tx, offer, winner)
	if err != nil {
		return ConfirmResult{}, err
	}
	result.LostReservations = lost

	if err := tx.Commit(ctx); err != nil {
		return ConfirmResult{}, fmt.Errorf("commit confirm: %w", err)
	}
	return result, nil
}

// resolveOfferID finds the offer linkage: directly on the proforma or
// inherited from its parent proforma.
func (r *Repo) resolveOfferID(ctx context.Context, tx pgx.Tx, proforma Proforma) (*string, error) {
	if proforma.OfferID != nil {
		return proforma.OfferID, nil
	}
	if proforma.ParentProformaID == nil {
		return nil, nil
	}

	var offerID *string
	err := tx.QueryRow(ctx, `SELECT offer_id FROM proformas WHERE id = $1`, *proforma.ParentProformaID).Scan(&offerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("resolve parent offer: %w", err)
	}
	return offerID, nil
}

// settleWinner marks the reservation backing the paid proforma as won. Ids
// may be stored in different representations, so the lookup falls back to a
// normalized scan over the property's reservations. Returns nil when no
// reservation matches; the caller records the identity mismatch.
func (r *Repo) settleWinner(ctx context.Context, tx pgx.Tx, proforma Proforma, offer Offer) (*Reservation, error) {
	winnerID := proforma.ReservationID
	if winnerID == nil {
		winnerID = offer.ReservationID
	}
	if winnerID == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`
		UPDATE reservations SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING %s`, reservationColumns)

	winner, err := scanReservation(tx.QueryRow(ctx, query, *winnerID, domain.ReservationWon).Scan)
	if err == nil {
		return &winner, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("settle winner: %w", err)
	}

	// Direct lookup missed; scan the property's reservations and match
	// under identity normalization.
	listQuery := fmt.Sprintf(`SELECT %s FROM reservations WHERE property_id = $1 FOR UPDATE`, reservationColumns)
	rows, err := tx.Query(ctx, listQuery, offer.PropertyID)
	if err != nil {
		return nil, fmt.Errorf("scan reservations: %w", err)
	}
	candidates, err := collectReservations(rows)
	if err != nil {
		return nil, err
	}

	for _, candidate := range candidates {
		if ident.Equal(candidate.ID, *winnerID) {
			won, err := scanReservation(tx.QueryRow(ctx, query, candidate.ID, domain.ReservationWon).Scan)
			if err != nil {
				return nil, fmt.Errorf("settle winner: %w", err)
			}
			return &won, nil
		}
	}
	return nil, nil
}

// settleCompetitors marks still-active reservations with overlapping dates
// on the same property as lost, and their offers as Lost.
func (r *Repo) settleCompetitors(ctx context.Context, tx pgx.Tx, offer Offer, winner *Reservation) ([]Reservation, error) {
	listQuery := fmt.Sprintf(`SELECT %s FROM reservations WHERE property_id = $1 FOR UPDATE`, reservationColumns)
	rows, err := tx.Query(ctx, listQuery, offer.PropertyID)
	if err != nil {
		return nil, fmt.Errorf("scan competitors: %w", err)
	}
	candidates, err := collectReservations(rows)
	if err != nil {
		return nil, err
	}

	winnerID := ""
	if winner != nil {
		winnerID = winner.ID
	}

	var lost []Reservation
	for _, candidate := range candidates {
		competitor := domain.Competitor{
			ID:        candidate.ID,
			Status:    candidate.Status,
			StartDate: candidate.StartDate,
			EndDate:   candidate.EndDate,
		}
		if !domain.LosesToWinner(competitor, winnerID, offer.StartDate, offer.EndDate) {
			continue
		}

		updateQuery := fmt.Sprintf(`
			UPDATE reservations SET status = $2, updated_at = now()
			WHERE id = $1
			RETURNING %s`, reservationColumns)
		settled, err := scanReservation(tx.QueryRow(ctx, updateQuery, candidate.ID, domain.ReservationLost).Scan)
		if err != nil {
			return nil, fmt.Errorf("settle competitor: %w", err)
		}
		lost = append(lost, settled)

		_, err = tx.Exec(ctx, `
			UPDATE offers SET status = $2, updated_at = now()
			WHERE reservation_id = $1 AND status != $2`,
			candidate.ID, domain.OfferLost)
		if err != nil {
			return nil, fmt.Errorf("settle competitor offers: %w", err)
		}
	}
	return lost, nil
}

func collectReservations(rows pgx.Rows) ([]Reservation, error) {
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
