// Package transport defines request DTOs for the booking HTTP API.
package transport

// CreateReservationRequest records a guest inquiry.
type CreateReservationRequest struct {
	PropertyID string `json:"propertyId" binding:"required"`
	StartDate  string `json:"startDate" binding:"required"`
	EndDate    string `json:"endDate" binding:"required"`
	GuestName  string `json:"guestName" binding:"required"`
	GuestEmail string `json:"guestEmail" validate:"omitempty,email"`
	GuestPhone string `json:"guestPhone"`
}

// CreateOfferRequest drafts an offer from a reservation. Dates default to
// the reservation's range when omitted.
type CreateOfferRequest struct {
	ReservationID string  `json:"reservationId" binding:"required"`
	PriceCents    int64   `json:"priceCents" validate:"gte=0"`
	StartDate     *string `json:"startDate"`
	EndDate       *string `json:"endDate"`
}

// CreateProformaRequest invoices an offer. Amount defaults to the offer
// price when omitted.
type CreateProformaRequest struct {
	OfferID     string `json:"offerId" binding:"required"`
	AmountCents *int64 `json:"amountCents" validate:"omitempty,gte=0"`
}

// CreateInvoiceRequest creates a child invoice under a proforma.
type CreateInvoiceRequest struct {
	AmountCents int64 `json:"amountCents" validate:"gte=0"`
}
