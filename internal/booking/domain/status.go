// Package domain holds the booking workflow status vocabulary and the
// transition rules shared by service and repository layers.
package domain

import "rentops_backend/platform/ident"

// Reservation statuses.
const (
	ReservationOpen      = "open"
	ReservationOffered   = "offered"
	ReservationInvoiced  = "invoiced"
	ReservationWon       = "won"
	ReservationLost      = "lost"
	ReservationCancelled = "cancelled"
)

// Offer statuses.
const (
	OfferDraft    = "Draft"
	OfferSent     = "Sent"
	OfferAccepted = "Accepted"
	OfferInvoiced = "Invoiced"
	OfferLost     = "Lost"
)

// Proforma statuses and document types.
const (
	ProformaUnpaid = "Unpaid"
	ProformaPaid   = "Paid"

	DocTypeProforma = "proforma"
	DocTypeInvoice  = "invoice"
)

// ReservationActive reports whether a reservation still competes for its
// dates. Won, lost and cancelled reservations are settled.
func ReservationActive(status string) bool {
	switch status {
	case ReservationOpen, ReservationOffered, ReservationInvoiced:
		return true
	}
	return false
}

// DatesOverlap reports whether two inclusive ISO date ranges intersect.
// Dates are YYYY-MM-DD strings, compared lexicographically.
func DatesOverlap(aStart, aEnd, bStart, bEnd string) bool {
	return aStart <= bEnd && bStart <= aEnd
}

// Competitor is a reservation considered for invalidation when another
// reservation wins its dates.
type Competitor struct {
	ID        string
	Status    string
	StartDate string
	EndDate   string
}

// LosesToWinner decides whether a competing reservation is settled as lost
// when a booking is confirmed for the given date range. The winner itself
// never loses; ids are compared under normalization and an empty winner id
// matches nothing. Settled reservations and non-overlapping dates are left
// alone.
func LosesToWinner(candidate Competitor, winnerID, startDate, endDate string) bool {
	if ident.Equal(candidate.ID, winnerID) {
		return false
	}
	if !ReservationActive(candidate.Status) {
		return false
	}
	return DatesOverlap(candidate.StartDate, candidate.EndDate, startDate, endDate)
}
