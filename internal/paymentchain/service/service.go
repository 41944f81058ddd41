// Package service implements the payment chain calculator. A property's
// money flow is modelled as three fixed edges: owner receipt (derived from
// the rent timeline, never stored), Company1 to owner, and Company2 to
// Company1 (both stored and manually editable).
package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"rentops_backend/internal/adapters/storage"
	"rentops_backend/internal/paymentchain/repository"
	"rentops_backend/internal/paymentchain/transport"
	"rentops_backend/platform/apperr"
	"rentops_backend/platform/logger"
)

// RentResolver resolves the warm rent total active on a date. The second
// return value is false when the property has no timeline row covering or
// preceding the date.
type RentResolver interface {
	ActiveWarmTotal(ctx context.Context, propertyID, asOf string) (int64, bool, error)
}

// OwnerReceipt is the derived tile. Total mirrors the active warm rent;
// Configured is false when no timeline row could be resolved. Error is set
// when the timeline could not be loaded at all, leaving the tile degraded
// while the stored edges and files stay usable.
type OwnerReceipt struct {
	TotalCents int64  `json:"totalCents"`
	Configured bool   `json:"configured"`
	Error      string `json:"error,omitempty"`
}

// Chain is the full payment chain view for a property.
type Chain struct {
	OwnerReceipt OwnerReceipt                 `json:"ownerReceipt"`
	Edges        []repository.Edge            `json:"edges"`
	FilesByTile  map[string][]repository.File `json:"filesByTile"`
}

// Service provides payment chain operations.
type Service struct {
	repo     repository.Repository
	rents    RentResolver
	storage  storage.StorageService
	bucket   string
	log      *logger.Logger
}

// New creates a new payment chain service.
func New(repo repository.Repository, rents RentResolver, storageSvc storage.StorageService, bucket string, log *logger.Logger) *Service {
	return &Service{repo: repo, rents: rents, storage: storageSvc, bucket: bucket, log: log}
}

// GetChain assembles the derived owner receipt tile, the stored edges and
// the evidence files grouped by tile.
func (s *Service) GetChain(ctx context.Context, propertyID string) (Chain, error) {
	asOf := time.Now().Format("2006-01-02")

	receipt := OwnerReceipt{}
	total, found, err := s.rents.ActiveWarmTotal(ctx, propertyID, asOf)
	if err != nil {
		// A timeline load failure degrades only the derived tile. The
		// stored edges and evidence files must stay readable.
		s.log.Error("failed to resolve active rent for payment chain", "propertyId", propertyID, "error", err)
		receipt.Error = "rent timeline unavailable"
	} else {
		receipt.TotalCents = total
		receipt.Configured = found
	}

	edges, err := s.repo.ListEdges(ctx, propertyID)
	if err != nil {
		return Chain{}, apperr.Unavailable("failed to load payment chain", err)
	}

	files, err := s.repo.ListFiles(ctx, propertyID)
	if err != nil {
		return Chain{}, apperr.Unavailable("failed to load payment chain files", err)
	}

	byTile := make(map[string][]repository.File)
	for _, f := range files {
		byTile[f.Tile] = append(byTile[f.Tile], f)
	}

	return Chain{
		OwnerReceipt: receipt,
		Edges:        edges,
		FilesByTile:  byTile,
	}, nil
}

// UpsertEdge validates and stores an editable edge. The owner receipt kind
// is rejected because its value is derived.
func (s *Service) UpsertEdge(ctx context.Context, propertyID, kind string, req transport.EdgeRequest) (repository.Edge, error) {
	if kind != repository.KindC1ToOwner && kind != repository.KindC2ToC1 {
		return repository.Edge{}, apperr.Validation(fmt.Sprintf("unknown edge kind %q", kind))
	}
	if req.PayByDay != nil && (*req.PayByDay < 1 || *req.PayByDay > 31) {
		return repository.Edge{}, apperr.Validation("payByDay must be between 1 and 31")
	}
	if err := validateOptionalAmounts(req.TotalCents, req.KmCents, req.BkCents, req.HkCents); err != nil {
		return repository.Edge{}, err
	}

	edge, err := s.repo.UpsertEdge(ctx, propertyID, kind, repository.UpsertEdgeParams{
		PayByDay:    req.PayByDay,
		TotalCents:  req.TotalCents,
		Description: req.Description,
		KmCents:     req.KmCents,
		BkCents:     req.BkCents,
		HkCents:     req.HkCents,
	})
	if err != nil {
		return repository.Edge{}, apperr.Unavailable("failed to save payment chain edge", err)
	}

	s.log.Info("payment chain edge saved", "propertyId", propertyID, "kind", kind)
	return edge, nil
}

// UploadFile stores an evidence file in object storage and records its
// metadata. The file list stays unchanged when either step fails.
func (s *Service) UploadFile(ctx context.Context, propertyID, tile, fileName, contentType string, reader io.Reader, size int64) (repository.File, error) {
	if !validTile(tile) {
		return repository.File{}, apperr.Validation(fmt.Sprintf("unknown tile %q", tile))
	}
	if size > s.storage.GetMaxFileSize() {
		return repository.File{}, apperr.Validation("file exceeds maximum allowed size")
	}

	folder := fmt.Sprintf("properties/%s/%s", propertyID, tile)
	fileKey, err := s.storage.UploadFile(ctx, s.bucket, folder, fileName, contentType, reader, size)
	if err != nil {
		return repository.File{}, apperr.Unavailable("failed to upload evidence file", err)
	}

	file, err := s.repo.InsertFile(ctx, repository.InsertFileParams{
		PropertyID:  propertyID,
		Tile:        tile,
		FileKey:     fileKey,
		FileName:    fileName,
		ContentType: contentType,
		SizeBytes:   size,
	})
	if err != nil {
		if delErr := s.storage.DeleteObject(ctx, s.bucket, fileKey); delErr != nil {
			s.log.Error("failed to remove orphaned evidence object", "fileKey", fileKey, "error", delErr)
		}
		return repository.File{}, apperr.Unavailable("failed to record evidence file", err)
	}

	s.log.Info("evidence file uploaded", "propertyId", propertyID, "tile", tile, "fileKey", fileKey)
	return file, nil
}

// FileDownloadURL returns a presigned URL for an evidence file.
func (s *Service) FileDownloadURL(ctx context.Context, fileID string) (*storage.PresignedURL, error) {
	file, err := s.repo.GetFile(ctx, fileID)
	if err != nil {
		return nil, err
	}

	url, err := s.storage.GenerateDownloadURL(ctx, s.bucket, file.FileKey)
	if err != nil {
		return nil, apperr.Unavailable("failed to generate download URL", err)
	}
	return url, nil
}

// DeleteFile removes an evidence file record and its stored object.
func (s *Service) DeleteFile(ctx context.Context, fileID string) error {
	file, err := s.repo.GetFile(ctx, fileID)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteFile(ctx, fileID); err != nil {
		return err
	}

	if err := s.storage.DeleteObject(ctx, s.bucket, file.FileKey); err != nil {
		s.log.Error("failed to delete evidence object", "fileKey", file.FileKey, "error", err)
	}

	s.log.Info("evidence file deleted", "propertyId", file.PropertyID, "tile", file.Tile)
	return nil
}

func validTile(tile string) bool {
	switch tile {
	case repository.TileOwnerReceipt, repository.TileC1ToOwner, repository.TileC2ToC1:
		return true
	}
	return false
}

func validateOptionalAmounts(amounts ...*int64) error {
	for _, a := range amounts {
		if a != nil && *a < 0 {
			return apperr.Validation("amounts must not be negative")
		}
	}
	return nil
}
