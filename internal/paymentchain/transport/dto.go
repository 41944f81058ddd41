// Package transport defines request DTOs for the payment chain HTTP API.
package transport

// EdgeRequest is the payload for configuring a stored payment chain edge.
// Nil fields clear the corresponding value back to "not configured".
type EdgeRequest struct {
	PayByDay    *int    `json:"payByDay" validate:"omitempty,gte=1,lte=31"`
	TotalCents  *int64  `json:"totalCents" validate:"omitempty,gte=0"`
	Description *string `json:"description"`
	KmCents     *int64  `json:"kmCents" validate:"omitempty,gte=0"`
	BkCents     *int64  `json:"bkCents" validate:"omitempty,gte=0"`
	HkCents     *int64  `json:"hkCents" validate:"omitempty,gte=0"`
}
