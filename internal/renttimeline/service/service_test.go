package service

import (
	"context"
	"testing"

	"rentops_backend/internal/renttimeline/repository"
	"rentops_backend/internal/renttimeline/transport"
	"rentops_backend/platform/apperr"
	"rentops_backend/platform/logger"
)

type fakeRepo struct {
	rows     []repository.Row
	inserted []repository.InsertRowParams
	failList bool
}

func (f *fakeRepo) ListRows(ctx context.Context, propertyID string) ([]repository.Row, error) {
	if f.failList {
		return nil, context.DeadlineExceeded
	}
	out := make([]repository.Row, 0, len(f.rows))
	for _, row := range f.rows {
		if row.PropertyID == propertyID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeRepo) GetRow(ctx context.Context, id string) (repository.Row, error) {
	for _, row := range f.rows {
		if row.ID == id {
			return row, nil
		}
	}
	return repository.Row{}, apperr.NotFound("rent timeline row not found")
}

func (f *fakeRepo) InsertRow(ctx context.Context, params repository.InsertRowParams) (repository.Row, error) {
	f.inserted = append(f.inserted, params)
	row := repository.Row{
		ID:         "new",
		PropertyID: params.PropertyID,
		ValidFrom:  params.ValidFrom,
		ValidTo:    params.ValidTo,
		KmCents:    params.KmCents,
	}
	f.rows = append(f.rows, row)
	return row, nil
}

func (f *fakeRepo) UpdateRow(ctx context.Context, id string, params repository.UpdateRowParams) (repository.Row, error) {
	for i := range f.rows {
		if f.rows[i].ID == id {
			if params.ValidFrom != nil {
				f.rows[i].ValidFrom = *params.ValidFrom
			}
			if params.ClearValidTo {
				f.rows[i].ValidTo = nil
			} else if params.ValidTo != nil {
				f.rows[i].ValidTo = params.ValidTo
			}
			return f.rows[i], nil
		}
	}
	return repository.Row{}, apperr.NotFound("rent timeline row not found")
}

func (f *fakeRepo) HasRows(ctx context.Context, propertyID string) (bool, error) {
	for _, row := range f.rows {
		if row.PropertyID == propertyID {
			return true, nil
		}
	}
	return false, nil
}

func newTestService(repo *fakeRepo) *Service {
	return New(repo, logger.New("development"))
}

func TestInsertRowRejectsMissingValidFrom(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(repo)

	_, err := svc.InsertRow(context.Background(), "p1", transport.RowRequest{})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(repo.inserted) != 0 {
		t.Fatalf("validation failure must not reach the store")
	}
}

func TestInsertRowRejectsNegativeAmounts(t *testing.T) {
	svc := newTestService(&fakeRepo{})

	_, err := svc.InsertRow(context.Background(), "p1", transport.RowRequest{
		ValidFrom: "2024-01-01",
		KmCents:   -1,
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for negative amount, got %v", err)
	}
}

func TestInsertRowRejectsValidToBeforeValidFrom(t *testing.T) {
	svc := newTestService(&fakeRepo{})

	to := "2024-01-01"
	_, err := svc.InsertRow(context.Background(), "p1", transport.RowRequest{
		ValidFrom: "2024-06-01",
		ValidTo:   &to,
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for inverted range, got %v", err)
	}
}

func TestInsertRowRejectsOverlap(t *testing.T) {
	to := "2024-06-30"
	repo := &fakeRepo{rows: []repository.Row{
		{ID: "r1", PropertyID: "p1", ValidFrom: "2024-01-01", ValidTo: &to},
	}}
	svc := newTestService(repo)

	_, err := svc.InsertRow(context.Background(), "p1", transport.RowRequest{
		ValidFrom: "2024-03-01",
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected overlap validation error, got %v", err)
	}
}

func TestInsertRowOverlapAgainstOpenEndedRow(t *testing.T) {
	repo := &fakeRepo{rows: []repository.Row{
		{ID: "r1", PropertyID: "p1", ValidFrom: "2024-01-01"},
	}}
	svc := newTestService(repo)

	_, err := svc.InsertRow(context.Background(), "p1", transport.RowRequest{
		ValidFrom: "2025-01-01",
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected overlap with open-ended row, got %v", err)
	}
}

func TestInsertRowAdjacentRangesAllowed(t *testing.T) {
	to := "2024-06-30"
	repo := &fakeRepo{rows: []repository.Row{
		{ID: "r1", PropertyID: "p1", ValidFrom: "2024-01-01", ValidTo: &to},
	}}
	svc := newTestService(repo)

	row, err := svc.InsertRow(context.Background(), "p1", transport.RowRequest{
		ValidFrom: "2024-07-01",
		KmCents:   60000,
	})
	if err != nil {
		t.Fatalf("expected adjacent row to insert, got %v", err)
	}
	if row.ValidFrom != "2024-07-01" {
		t.Fatalf("unexpected inserted row: %+v", row)
	}
}

func TestUpdateRowAllowsNarrowingOwnRange(t *testing.T) {
	repo := &fakeRepo{rows: []repository.Row{
		{ID: "r1", PropertyID: "p1", ValidFrom: "2024-01-01"},
	}}
	svc := newTestService(repo)

	to := "2024-12-31"
	row, err := svc.UpdateRow(context.Background(), "r1", transport.RowUpdateRequest{ValidTo: &to})
	if err != nil {
		t.Fatalf("expected update against own range to pass, got %v", err)
	}
	if row.ValidTo == nil || *row.ValidTo != "2024-12-31" {
		t.Fatalf("expected validTo persisted, got %+v", row.ValidTo)
	}
}

func TestBackfillSkipsWhenRowsExist(t *testing.T) {
	repo := &fakeRepo{rows: []repository.Row{
		{ID: "r1", PropertyID: "p1", ValidFrom: "2024-01-01"},
	}}
	svc := newTestService(repo)

	created, err := svc.BackfillFromLegacy(context.Background(), "p1", LegacyRent{KmCents: 100})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created {
		t.Fatalf("expected backfill to be a no-op when rows exist")
	}
}

func TestBackfillCreatesOpenEndedRow(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(repo)

	created, err := svc.BackfillFromLegacy(context.Background(), "p2", LegacyRent{
		Since:   "2019-05-01",
		KmCents: 45000,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created {
		t.Fatalf("expected a row to be created")
	}
	if len(repo.inserted) != 1 {
		t.Fatalf("expected one insert, got %d", len(repo.inserted))
	}
	params := repo.inserted[0]
	if params.ValidFrom != "2019-05-01" || params.ValidTo != nil {
		t.Fatalf("expected open-ended row from legacy date, got %+v", params)
	}
}
