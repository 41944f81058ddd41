// Package transport defines request and response DTOs for the rent
// timeline HTTP API.
package transport

import "rentops_backend/internal/renttimeline/repository"

// RowRequest is the payload for creating a rent timeline row. All amounts
// are integer cents.
type RowRequest struct {
	ValidFrom               string  `json:"validFrom" binding:"required"`
	ValidTo                 *string `json:"validTo"`
	KmCents                 int64   `json:"kmCents" validate:"gte=0"`
	BkCents                 int64   `json:"bkCents" validate:"gte=0"`
	HkCents                 int64   `json:"hkCents" validate:"gte=0"`
	MietsteuerCents         int64   `json:"mietsteuerCents" validate:"gte=0"`
	UnternehmenssteuerCents int64   `json:"unternehmenssteuerCents" validate:"gte=0"`
	MuellCents              int64   `json:"muellCents" validate:"gte=0"`
	StromCents              int64   `json:"stromCents" validate:"gte=0"`
	GasCents                int64   `json:"gasCents" validate:"gte=0"`
	WasserCents             int64   `json:"wasserCents" validate:"gte=0"`
}

// RowUpdateRequest is the payload for a partial row update. Nil fields are
// left unchanged; an empty validTo string clears the end date, making the
// row open-ended again.
type RowUpdateRequest struct {
	ValidFrom               *string `json:"validFrom"`
	ValidTo                 *string `json:"validTo"`
	KmCents                 *int64  `json:"kmCents" validate:"omitempty,gte=0"`
	BkCents                 *int64  `json:"bkCents" validate:"omitempty,gte=0"`
	HkCents                 *int64  `json:"hkCents" validate:"omitempty,gte=0"`
	MietsteuerCents         *int64  `json:"mietsteuerCents" validate:"omitempty,gte=0"`
	UnternehmenssteuerCents *int64  `json:"unternehmenssteuerCents" validate:"omitempty,gte=0"`
	MuellCents              *int64  `json:"muellCents" validate:"omitempty,gte=0"`
	StromCents              *int64  `json:"stromCents" validate:"omitempty,gte=0"`
	GasCents                *int64  `json:"gasCents" validate:"omitempty,gte=0"`
	WasserCents             *int64  `json:"wasserCents" validate:"omitempty,gte=0"`
}

// RowResponse is the API shape of a timeline row.
type RowResponse struct {
	ID                      string  `json:"id"`
	PropertyID              string  `json:"propertyId"`
	ValidFrom               string  `json:"validFrom"`
	ValidTo                 *string `json:"validTo"`
	KmCents                 int64   `json:"kmCents"`
	BkCents                 int64   `json:"bkCents"`
	HkCents                 int64   `json:"hkCents"`
	MietsteuerCents         int64   `json:"mietsteuerCents"`
	UnternehmenssteuerCents int64   `json:"unternehmenssteuerCents"`
	MuellCents              int64   `json:"muellCents"`
	StromCents              int64   `json:"stromCents"`
	GasCents                int64   `json:"gasCents"`
	WasserCents             int64   `json:"wasserCents"`
	WarmTotalCents          int64   `json:"warmTotalCents"`
	CreatedAt               string  `json:"createdAt"`
	UpdatedAt               string  `json:"updatedAt"`
}

// ToRowResponse maps a repository row to its API shape.
func ToRowResponse(row repository.Row) RowResponse {
	return RowResponse{
		ID:                      row.ID,
		PropertyID:              row.PropertyID,
		ValidFrom:               row.ValidFrom,
		ValidTo:                 row.ValidTo,
		KmCents:                 row.KmCents,
		BkCents:                 row.BkCents,
		HkCents:                 row.HkCents,
		MietsteuerCents:         row.MietsteuerCents,
		UnternehmenssteuerCents: row.UnternehmenssteuerCents,
		MuellCents:              row.MuellCents,
		StromCents:              row.StromCents,
		GasCents:                row.GasCents,
		WasserCents:             row.WasserCents,
		WarmTotalCents:          row.WarmTotalCents(),
		CreatedAt:               row.CreatedAt,
		UpdatedAt:               row.UpdatedAt,
	}
}

// ToRowResponses maps a slice of rows.
func ToRowResponses(rows []repository.Row) []RowResponse {
	out := make([]RowResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, ToRowResponse(row))
	}
	return out
}
