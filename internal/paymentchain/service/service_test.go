package service

import (
	"context"
	"errors"
	"io"
	"testing"

	"rentops_backend/internal/adapters/storage"
	"rentops_backend/internal/paymentchain/repository"
	"rentops_backend/internal/paymentchain/transport"
	"rentops_backend/platform/apperr"
	"rentops_backend/platform/logger"
)

type fakeRepo struct {
	edges []repository.Edge
	files []repository.File
}

func (f *fakeRepo) ListEdges(ctx context.Context, propertyID string) ([]repository.Edge, error) {
	return f.edges, nil
}

func (f *fakeRepo) UpsertEdge(ctx context.Context, propertyID, kind string, params repository.UpsertEdgeParams) (repository.Edge, error) {
	edge := repository.Edge{
		ID:          "e1",
		PropertyID:  propertyID,
		Kind:        kind,
		PayByDay:    params.PayByDay,
		TotalCents:  params.TotalCents,
		Description: params.Description,
	}
	f.edges = append(f.edges, edge)
	return edge, nil
}

func (f *fakeRepo) ListFiles(ctx context.Context, propertyID string) ([]repository.File, error) {
	return f.files, nil
}

func (f *fakeRepo) GetFile(ctx context.Context, id string) (repository.File, error) {
	for _, file := range f.files {
		if file.ID == id {
			return file, nil
		}
	}
	return repository.File{}, apperr.NotFound("payment chain file not found")
}

func (f *fakeRepo) InsertFile(ctx context.Context, params repository.InsertFileParams) (repository.File, error) {
	file := repository.File{ID: "f1", PropertyID: params.PropertyID, Tile: params.Tile, FileKey: params.FileKey}
	f.files = append(f.files, file)
	return file, nil
}

func (f *fakeRepo) DeleteFile(ctx context.Context, id string) error {
	for i, file := range f.files {
		if file.ID == id {
			f.files = append(f.files[:i], f.files[i+1:]...)
			return nil
		}
	}
	return apperr.NotFound("payment chain file not found")
}

type fakeRents struct {
	total int64
	found bool
	err   error
}

func (f fakeRents) ActiveWarmTotal(ctx context.Context, propertyID, asOf string) (int64, bool, error) {
	if f.err != nil {
		return 0, false, f.err
	}
	return f.total, f.found, nil
}

type fakeStorage struct {
	uploads int
	deletes int
}

func (f *fakeStorage) EnsureBucketExists(ctx context.Context, bucket string) error { return nil }

func (f *fakeStorage) UploadFile(ctx context.Context, bucket, folder, fileName, contentType string, reader io.Reader, size int64) (string, error) {
	f.uploads++
	return folder + "/" + fileName, nil
}

func (f *fakeStorage) GenerateDownloadURL(ctx context.Context, bucket, fileKey string) (*storage.PresignedURL, error) {
	return &storage.PresignedURL{URL: "https://example.test/" + fileKey, FileKey: fileKey}, nil
}

func (f *fakeStorage) DeleteObject(ctx context.Context, bucket, fileKey string) error {
	f.deletes++
	return nil
}

func (f *fakeStorage) GetMaxFileSize() int64 { return 1 << 20 }

func newTestService(repo *fakeRepo, rents RentResolver) *Service {
	return New(repo, rents, &fakeStorage{}, "evidence", logger.New("development"))
}

func TestGetChainDerivesOwnerReceiptFromActiveRent(t *testing.T) {
	svc := newTestService(&fakeRepo{}, fakeRents{total: 123400, found: true})

	chain, err := svc.GetChain(context.Background(), "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !chain.OwnerReceipt.Configured {
		t.Fatalf("expected owner receipt to be configured")
	}
	if chain.OwnerReceipt.TotalCents != 123400 {
		t.Fatalf("owner receipt total = %d, want 123400", chain.OwnerReceipt.TotalCents)
	}
}

func TestGetChainWithoutTimelineRow(t *testing.T) {
	svc := newTestService(&fakeRepo{}, fakeRents{})

	chain, err := svc.GetChain(context.Background(), "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if chain.OwnerReceipt.Configured {
		t.Fatalf("expected unconfigured owner receipt when no row resolves")
	}
}

func TestGetChainDegradesWhenTimelineLoadFails(t *testing.T) {
	repo := &fakeRepo{
		edges: []repository.Edge{{ID: "e1", Kind: repository.KindC1ToOwner}},
		files: []repository.File{{ID: "f1", Tile: repository.TileC1ToOwner}},
	}
	svc := newTestService(repo, fakeRents{err: errors.New("timeline down")})

	chain, err := svc.GetChain(context.Background(), "p1")
	if err != nil {
		t.Fatalf("chain read must survive a timeline load failure, got %v", err)
	}
	if chain.OwnerReceipt.Configured || chain.OwnerReceipt.TotalCents != 0 {
		t.Fatalf("expected degraded owner receipt, got %+v", chain.OwnerReceipt)
	}
	if chain.OwnerReceipt.Error == "" {
		t.Fatalf("expected owner receipt error indicator to be set")
	}
	if len(chain.Edges) != 1 {
		t.Fatalf("stored edges must stay readable, got %d", len(chain.Edges))
	}
	if len(chain.FilesByTile[repository.TileC1ToOwner]) != 1 {
		t.Fatalf("evidence files must stay readable")
	}
}

func TestGetChainGroupsFilesByTile(t *testing.T) {
	repo := &fakeRepo{files: []repository.File{
		{ID: "f1", Tile: repository.TileOwnerReceipt},
		{ID: "f2", Tile: repository.TileC1ToOwner},
		{ID: "f3", Tile: repository.TileOwnerReceipt},
	}}
	svc := newTestService(repo, fakeRents{found: true})

	chain, err := svc.GetChain(context.Background(), "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chain.FilesByTile[repository.TileOwnerReceipt]) != 2 {
		t.Fatalf("expected 2 owner receipt files, got %d", len(chain.FilesByTile[repository.TileOwnerReceipt]))
	}
	if len(chain.FilesByTile[repository.TileC1ToOwner]) != 1 {
		t.Fatalf("expected 1 c1_to_owner file")
	}
}

func TestUpsertEdgeRejectsOwnerReceiptKind(t *testing.T) {
	svc := newTestService(&fakeRepo{}, fakeRents{})

	_, err := svc.UpsertEdge(context.Background(), "p1", repository.TileOwnerReceipt, transport.EdgeRequest{})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for derived kind, got %v", err)
	}
}

func TestUpsertEdgeRejectsPayByDayOutOfRange(t *testing.T) {
	svc := newTestService(&fakeRepo{}, fakeRents{})

	day := 32
	_, err := svc.UpsertEdge(context.Background(), "p1", repository.KindC1ToOwner, transport.EdgeRequest{PayByDay: &day})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for payByDay=32, got %v", err)
	}

	day = 0
	_, err = svc.UpsertEdge(context.Background(), "p1", repository.KindC1ToOwner, transport.EdgeRequest{PayByDay: &day})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for payByDay=0, got %v", err)
	}
}

func TestUpsertEdgeKeepsAbsentFieldsNil(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(repo, fakeRents{})

	day := 15
	edge, err := svc.UpsertEdge(context.Background(), "p1", repository.KindC2ToC1, transport.EdgeRequest{PayByDay: &day})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if edge.TotalCents != nil || edge.Description != nil {
		t.Fatalf("absent fields must stay nil, got total=%v description=%v", edge.TotalCents, edge.Description)
	}
	if edge.PayByDay == nil || *edge.PayByDay != 15 {
		t.Fatalf("expected payByDay 15, got %v", edge.PayByDay)
	}
}

func TestDeleteFileRemovesStoredObject(t *testing.T) {
	repo := &fakeRepo{files: []repository.File{{ID: "f1", FileKey: "k1"}}}
	store := &fakeStorage{}
	svc := New(repo, fakeRents{}, store, "evidence", logger.New("development"))

	if err := svc.DeleteFile(context.Background(), "f1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.deletes != 1 {
		t.Fatalf("expected one object delete, got %d", store.deletes)
	}
	if len(repo.files) != 0 {
		t.Fatalf("expected file record removed")
	}
}
