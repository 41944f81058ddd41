// Package repository persists rent timeline rows.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"rentops_backend/platform/apperr"
)

const rowNotFoundMessage = "rent timeline row not found"

// Row is one time slice of a property's rent composition. Dates are
// ISO-8601 date strings; ValidTo nil means open-ended. All amounts are
// euro cents.
type Row struct {
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
	CreatedAt               string  `json:"createdAt"`
	UpdatedAt               string  `json:"updatedAt"`
}

// WarmTotalCents is the sum of all cost components ("warm" rent).
func (r Row) WarmTotalCents() int64 {
	return r.KmCents + r.BkCents + r.HkCents + r.MietsteuerCents +
		r.UnternehmenssteuerCents + r.MuellCents + r.StromCents + r.GasCents + r.WasserCents
}

// OpenEnded reports whether the row has no end date.
func (r Row) OpenEnded() bool {
	return r.ValidTo == nil || *r.ValidTo == ""
}

// InsertRowParams carries the fields for a new timeline row.
type InsertRowParams struct {
	PropertyID              string
	ValidFrom               string
	ValidTo                 *string
	KmCents                 int64
	BkCents                 int64
	HkCents                 int64
	MietsteuerCents         int64
	UnternehmenssteuerCents int64
	MuellCents              int64
	StromCents              int64
	GasCents                int64
	WasserCents             int64
}

// UpdateRowParams carries partial updates; nil fields are left unchanged.
type UpdateRowParams struct {
	ValidFrom               *string
	ValidTo                 *string
	ClearValidTo            bool
	KmCents                 *int64
	BkCents                 *int64
	HkCents                 *int64
	MietsteuerCents         *int64
	UnternehmenssteuerCents *int64
	MuellCents              *int64
	StromCents              *int64
	GasCents                *int64
	WasserCents             *int64
}

// Repository is the persistence interface for timeline rows.
type Repository interface {
	ListRows(ctx context.Context, propertyID string) ([]Row, error)
	GetRow(ctx context.Context, id string) (Row, error)
	InsertRow(ctx context.Context, params InsertRowParams) (Row, error)
	UpdateRow(ctx context.Context, id string, params UpdateRowParams) (Row, error)
	HasRows(ctx context.Context, propertyID string) (bool, error)
}

// Repo implements Repository on pgx.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new timeline repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

const rowColumns = `id, property_id, valid_from, valid_to, km_cents, bk_cents, hk_cents,
	mietsteuer_cents, unternehmenssteuer_cents, muell_cents, strom_cents, gas_cents, wasser_cents,
	created_at, updated_at`

func scanRow(scan func(dest ...any) error) (Row, error) {
	var row Row
	var createdAt, updatedAt time.Time
	err := scan(
		&row.ID, &row.PropertyID, &row.ValidFrom, &row.ValidTo,
		&row.KmCents, &row.BkCents, &row.HkCents,
		&row.MietsteuerCents, &row.UnternehmenssteuerCents, &row.MuellCents,
		&row.StromCents, &row.GasCents, &row.WasserCents,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return Row{}, err
	}
	row.CreatedAt = createdAt.Format(time.RFC3339)
	row.UpdatedAt = updatedAt.Format(time.RFC3339)
	return row, nil
}

// ListRows returns all rows for a property ordered by valid_from ascending.
func (r *Repo) ListRows(ctx context.Context, propertyID string) ([]Row, error) {
	query := fmt.Sprintf(`SELECT %s FROM rent_timeline_rows WHERE property_id = $1 ORDER BY valid_from ASC`, rowColumns)

	rows, err := r.pool.Query(ctx, query, propertyID)
	if err != nil {
		return nil, fmt.Errorf("list timeline rows: %w", err)
	}
	defer rows.Close()

	out := make([]Row, 0)
	for rows.Next() {
		row, err := scanRow(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan timeline row: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// GetRow returns one row by id.
func (r *Repo) GetRow(ctx context.Context, id string) (Row, error) {
	query := fmt.Sprintf(`SELECT %s FROM rent_timeline_rows WHERE id = $1`, rowColumns)

	row, err := scanRow(r.pool.QueryRow(ctx, query, id).Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Row{}, apperr.NotFound(rowNotFoundMessage)
		}
		return Row{}, fmt.Errorf("get timeline row: %w", err)
	}
	return row, nil
}

// InsertRow inserts a new timeline row.
func (r *Repo) InsertRow(ctx context.Context, params InsertRowParams) (Row, error) {
	query := fmt.Sprintf(`
		INSERT INTO rent_timeline_rows (
			id, property_id, valid_from, valid_to, km_cents, bk_cents, hk_cents,
			mietsteuer_cents, unternehmenssteuer_cents, muell_cents, strom_cents, gas_cents, wasser_cents
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING %s`, rowColumns)

	row, err := scanRow(r.pool.QueryRow(ctx, query,
		uuid.New().String(), params.PropertyID, params.ValidFrom, params.ValidTo,
		params.KmCents, params.BkCents, params.HkCents,
		params.MietsteuerCents, params.UnternehmenssteuerCents, params.MuellCents,
		params.StromCents, params.GasCents, params.WasserCents,
	).Scan)
	if err != nil {
		return Row{}, fmt.Errorf("insert timeline row: %w", err)
	}
	return row, nil
}

// UpdateRow applies a partial update to a row.
func (r *Repo) UpdateRow(ctx context.Context, id string, params UpdateRowParams) (Row, error) {
	validTo := params.ValidTo
	clearValidTo := params.ClearValidTo

	query := fmt.Sprintf(`
		UPDATE rent_timeline_rows
		SET valid_from = COALESCE($2, valid_from),
			valid_to = CASE WHEN $4 THEN NULL ELSE COALESCE($3, valid_to) END,
			km_cents = COALESCE($5, km_cents),
			bk_cents = COALESCE($6, bk_cents),
			hk_cents = COALESCE($7, hk_cents),
			mietsteuer_cents = COALESCE($8, mietsteuer_cents),
			unternehmenssteuer_cents = COALESCE($9, unternehmenssteuer_cents),
			muell_cents = COALESCE($10, muell_cents),
			strom_cents = COALESCE($11, strom_cents),
			gas_cents = COALESCE($12, gas_cents),
			wasser_cents = COALESCE($13, wasser_cents),
			updated_at = now()
		WHERE id = $1
		RETURNING %s`, rowColumns)

	row, err := scanRow(r.pool.QueryRow(ctx, query,
		id, params.ValidFrom, validTo, clearValidTo,
		params.KmCents, params.BkCents, params.HkCents,
		params.MietsteuerCents, params.UnternehmenssteuerCents, params.MuellCents,
		params.StromCents, params.GasCents, params.WasserCents,
	).Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Row{}, apperr.NotFound(rowNotFoundMessage)
		}
		return Row{}, fmt.Errorf("update timeline row: %w", err)
	}
	return row, nil
}

// HasRows reports whether the property has any timeline rows.
func (r *Repo) HasRows(ctx context.Context, propertyID string) (bool, error) {
	var count int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM rent_timeline_rows WHERE property_id = $1`, propertyID,
	).Scan(&count); err != nil {
		return false, fmt.Errorf("count timeline rows: %w", err)
	}
	return count > 0, nil
}
