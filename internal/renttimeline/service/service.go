// Package service implements the rent timeline engine: validated writes and
// deterministic active-row resolution over a property's rent history.
package service

import (
	"context"
	"fmt"
	"time"

	"rentops_backend/internal/renttimeline/repository"
	"rentops_backend/internal/renttimeline/transport"
	"rentops_backend/platform/apperr"
	"rentops_backend/platform/logger"
)

const dateLayout = "2006-01-02"

// Service provides business logic for rent timelines.
type Service struct {
	repo repository.Repository
	log  *logger.Logger
}

// New creates a new timeline service.
func New(repo repository.Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// ListRows returns all timeline rows for a property.
func (s *Service) ListRows(ctx context.Context, propertyID string) ([]repository.Row, error) {
	rows, err := s.repo.ListRows(ctx, propertyID)
	if err != nil {
		return nil, apperr.Unavailable("failed to load rent timeline", err)
	}
	return rows, nil
}

// ActiveRow resolves the row active on asOf (today when asOf is empty).
func (s *Service) ActiveRow(ctx context.Context, propertyID, asOf string) (*repository.Row, error) {
	if asOf == "" {
		asOf = time.Now().UTC().Format(dateLayout)
	} else if err := validateDate(asOf); err != nil {
		return nil, err
	}

	rows, err := s.ListRows(ctx, propertyID)
	if err != nil {
		return nil, err
	}

	row, ok := ResolveActive(rows, asOf)
	if !ok {
		return nil, nil
	}
	return &row, nil
}

// InsertRow validates and persists a new timeline row. Validation failures
// are reported before any store write; overlap with existing rows is a hard
// error so invariant "rows never overlap" holds at write time.
func (s *Service) InsertRow(ctx context.Context, propertyID string, req transport.RowRequest) (repository.Row, error) {
	params := repository.InsertRowParams{
		PropertyID:              propertyID,
		ValidFrom:               req.ValidFrom,
		ValidTo:                 normalizeValidTo(req.ValidTo),
		KmCents:                 req.KmCents,
		BkCents:                 req.BkCents,
		HkCents:                 req.HkCents,
		MietsteuerCents:         req.MietsteuerCents,
		UnternehmenssteuerCents: req.UnternehmenssteuerCents,
		MuellCents:              req.MuellCents,
		StromCents:              req.StromCents,
		GasCents:                req.GasCents,
		WasserCents:             req.WasserCents,
	}

	if err := validateInsert(params); err != nil {
		return repository.Row{}, err
	}

	existing, err := s.repo.ListRows(ctx, propertyID)
	if err != nil {
		return repository.Row{}, apperr.Unavailable("failed to load rent timeline", err)
	}
	if conflict := findOverlap(existing, params.ValidFrom, params.ValidTo, ""); conflict != nil {
		return repository.Row{}, apperr.Validation(
			fmt.Sprintf("row overlaps existing row starting %s", conflict.ValidFrom))
	}

	row, err := s.repo.InsertRow(ctx, params)
	if err != nil {
		return repository.Row{}, apperr.Unavailable("failed to insert timeline row", err)
	}

	s.log.Info("timeline row inserted", "propertyId", propertyID, "validFrom", row.ValidFrom)
	return row, nil
}

// UpdateRow validates and applies a partial update to a row.
func (s *Service) UpdateRow(ctx context.Context, rowID string, req transport.RowUpdateRequest) (repository.Row, error) {
	current, err := s.repo.GetRow(ctx, rowID)
	if err != nil {
		return repository.Row{}, err
	}

	params := repository.UpdateRowParams{
		ValidFrom:               req.ValidFrom,
		ValidTo:                 normalizeValidTo(req.ValidTo),
		ClearValidTo:            req.ValidTo != nil && *req.ValidTo == "",
		KmCents:                 req.KmCents,
		BkCents:                 req.BkCents,
		HkCents:                 req.HkCents,
		MietsteuerCents:         req.MietsteuerCents,
		UnternehmenssteuerCents: req.UnternehmenssteuerCents,
		MuellCents:              req.MuellCents,
		StromCents:              req.StromCents,
		GasCents:                req.GasCents,
		WasserCents:             req.WasserCents,
	}

	effectiveFrom := current.ValidFrom
	if params.ValidFrom != nil {
		effectiveFrom = *params.ValidFrom
	}
	effectiveTo := current.ValidTo
	if params.ClearValidTo {
		effectiveTo = nil
	} else if params.ValidTo != nil {
		effectiveTo = params.ValidTo
	}

	if err := validateRange(effectiveFrom, effectiveTo); err != nil {
		return repository.Row{}, err
	}
	if err := validateAmounts(
		params.KmCents, params.BkCents, params.HkCents, params.MietsteuerCents,
		params.UnternehmenssteuerCents, params.MuellCents, params.StromCents,
		params.GasCents, params.WasserCents,
	); err != nil {
		return repository.Row{}, err
	}

	existing, err := s.repo.ListRows(ctx, current.PropertyID)
	if err != nil {
		return repository.Row{}, apperr.Unavailable("failed to load rent timeline", err)
	}
	if conflict := findOverlap(existing, effectiveFrom, effectiveTo, rowID); conflict != nil {
		return repository.Row{}, apperr.Validation(
			fmt.Sprintf("row overlaps existing row starting %s", conflict.ValidFrom))
	}

	row, err := s.repo.UpdateRow(ctx, rowID, params)
	if err != nil {
		return repository.Row{}, err
	}

	s.log.Info("timeline row updated", "rowId", rowID, "propertyId", row.PropertyID)
	return row, nil
}

// LegacyRent carries the flat rent fields still present on old property
// records that predate the timeline.
type LegacyRent struct {
	Since                   string
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

// BackfillFromLegacy creates one open-ended row from a property's legacy rent
// fields when the property has no timeline yet. Returns true if a row was
// created.
func (s *Service) BackfillFromLegacy(ctx context.Context, propertyID string, legacy LegacyRent) (bool, error) {
	has, err := s.repo.HasRows(ctx, propertyID)
	if err != nil {
		return false, apperr.Unavailable("failed to check rent timeline", err)
	}
	if has {
		return false, nil
	}

	validFrom := legacy.Since
	if validFrom == "" {
		validFrom = "2000-01-01"
	}
	if err := validateDate(validFrom); err != nil {
		return false, err
	}

	_, err = s.repo.InsertRow(ctx, repository.InsertRowParams{
		PropertyID:              propertyID,
		ValidFrom:               validFrom,
		KmCents:                 legacy.KmCents,
		BkCents:                 legacy.BkCents,
		HkCents:                 legacy.HkCents,
		MietsteuerCents:         legacy.MietsteuerCents,
		UnternehmenssteuerCents: legacy.UnternehmenssteuerCents,
		MuellCents:              legacy.MuellCents,
		StromCents:              legacy.StromCents,
		GasCents:                legacy.GasCents,
		WasserCents:             legacy.WasserCents,
	})
	if err != nil {
		return false, apperr.Unavailable("failed to backfill timeline row", err)
	}

	s.log.Info("timeline backfilled from legacy rent", "propertyId", propertyID, "validFrom", validFrom)
	return true, nil
}

// =============================================================================
// Validation
// =============================================================================

func validateInsert(params repository.InsertRowParams) error {
	if err := validateRange(params.ValidFrom, params.ValidTo); err != nil {
		return err
	}
	return validateAmountValues(
		params.KmCents, params.BkCents, params.HkCents, params.MietsteuerCents,
		params.UnternehmenssteuerCents, params.MuellCents, params.StromCents,
		params.GasCents, params.WasserCents,
	)
}

func validateRange(validFrom string, validTo *string) error {
	if validFrom == "" {
		return apperr.Validation("validFrom is required")
	}
	if err := validateDate(validFrom); err != nil {
		return err
	}
	if validTo != nil && *validTo != "" {
		if err := validateDate(*validTo); err != nil {
			return err
		}
		if *validTo < validFrom {
			return apperr.Validation("validTo must not be earlier than validFrom")
		}
	}
	return nil
}

func validateDate(value string) error {
	if _, err := time.Parse(dateLayout, value); err != nil {
		return apperr.Validation(fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", value))
	}
	return nil
}

func validateAmountValues(amounts ...int64) error {
	for _, amount := range amounts {
		if amount < 0 {
			return apperr.Validation("cost components must not be negative")
		}
	}
	return nil
}

func validateAmounts(amounts ...*int64) error {
	for _, amount := range amounts {
		if amount != nil && *amount < 0 {
			return apperr.Validation("cost components must not be negative")
		}
	}
	return nil
}

func normalizeValidTo(validTo *string) *string {
	if validTo == nil || *validTo == "" {
		return nil
	}
	return validTo
}

// findOverlap returns the first existing row whose range intersects
// [validFrom, validTo], ignoring the row identified by excludeID.
func findOverlap(rows []repository.Row, validFrom string, validTo *string, excludeID string) *repository.Row {
	for i := range rows {
		row := rows[i]
		if row.ID == excludeID {
			continue
		}
		if rangesOverlap(validFrom, validTo, row.ValidFrom, row.ValidTo) {
			return &row
		}
	}
	return nil
}

func rangesOverlap(aFrom string, aTo *string, bFrom string, bTo *string) bool {
	aOpen := aTo == nil || *aTo == ""
	bOpen := bTo == nil || *bTo == ""

	aStartsBeforeBEnds := bOpen || aFrom <= *bTo
	bStartsBeforeAEnds := aOpen || bFrom <= *aTo
	return aStartsBeforeBEnds && bStartsBeforeAEnds
}
