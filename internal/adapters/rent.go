package adapters

import (
	"context"

	paymentsvc "rentops_backend/internal/paymentchain/service"
	rentsvc "rentops_backend/internal/renttimeline/service"
)

// TimelineRents adapts the rent timeline to the payment chain's owner
// receipt derivation.
type TimelineRents struct {
	svc *rentsvc.Service
}

// NewTimelineRents creates the rent timeline adapter.
func NewTimelineRents(svc *rentsvc.Service) *TimelineRents {
	return &TimelineRents{svc: svc}
}

// ActiveWarmTotal returns the warm rent total of the row active at asOf.
// The second return is false when no row covers the date.
func (a *TimelineRents) ActiveWarmTotal(ctx context.Context, propertyID, asOf string) (int64, bool, error) {
	row, err := a.svc.ActiveRow(ctx, propertyID, asOf)
	if err != nil {
		return 0, false, err
	}
	if row == nil {
		return 0, false, nil
	}
	return row.WarmTotalCents(), true, nil
}

var _ paymentsvc.RentResolver = (*TimelineRents)(nil)
