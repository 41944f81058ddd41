// Package service implements warehouse stock operations.
package service

import (
	"context"

	"rentops_backend/internal/warehouse/repository"
	"rentops_backend/internal/warehouse/transport"
	"rentops_backend/platform/apperr"
	"rentops_backend/platform/logger"
)

// Service provides warehouse stock operations.
type Service struct {
	repo repository.Repository
	log  *logger.Logger
}

// New creates a new warehouse service.
func New(repo repository.Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// ListStock returns stock rows, optionally scoped to one warehouse.
func (s *Service) ListStock(ctx context.Context, warehouseID string) ([]repository.StockItem, error) {
	items, err := s.repo.ListStock(ctx, warehouseID)
	if err != nil {
		return nil, apperr.Unavailable("failed to load stock", err)
	}
	return items, nil
}

// GetStock returns a single stock row.
func (s *Service) GetStock(ctx context.Context, id string) (repository.StockItem, error) {
	return s.repo.GetStock(ctx, id)
}

// CreateStock adds a new stock row.
func (s *Service) CreateStock(ctx context.Context, req transport.CreateStockRequest) (repository.StockItem, error) {
	if req.Quantity < 0 {
		return repository.StockItem{}, apperr.Validation("quantity must not be negative")
	}

	item, err := s.repo.CreateStock(ctx, repository.CreateStockParams{
		WarehouseID: req.WarehouseID,
		ItemID:      req.ItemID,
		Name:        req.Name,
		Quantity:    req.Quantity,
	})
	if err != nil {
		return repository.StockItem{}, apperr.Unavailable("failed to create stock item", err)
	}

	s.log.Info("stock item created", "stockId", item.ID, "warehouseId", item.WarehouseID)
	return item, nil
}

// AdjustQuantity applies a manual correction and records a movement.
func (s *Service) AdjustQuantity(ctx context.Context, stockID string, req transport.AdjustStockRequest) (repository.StockItem, error) {
	if req.QtyChange == 0 {
		return repository.StockItem{}, apperr.Validation("qtyChange must not be zero")
	}

	current, err := s.repo.GetStock(ctx, stockID)
	if err != nil {
		return repository.StockItem{}, err
	}
	if current.Quantity+req.QtyChange < 0 {
		return repository.StockItem{}, apperr.Validation("adjustment would make quantity negative")
	}

	item, err := s.repo.AdjustQuantity(ctx, stockID, req.QtyChange, req.Reason)
	if err != nil {
		return repository.StockItem{}, err
	}

	s.log.Info("stock adjusted", "stockId", stockID, "qtyChange", req.QtyChange)
	return item, nil
}

// DecrementForReference applies an idempotent decrement keyed by reference.
// Returns false when the decrement for this reference was already applied.
func (s *Service) DecrementForReference(ctx context.Context, stockID string, qty int, reason, reference string) (bool, error) {
	if qty <= 0 {
		return false, apperr.Validation("quantity must be positive")
	}
	return s.repo.DecrementForReference(ctx, stockID, qty, reason, reference)
}

// ListMovements returns the movement history for a stock row.
func (s *Service) ListMovements(ctx context.Context, stockID string) ([]repository.Movement, error) {
	movements, err := s.repo.ListMovements(ctx, stockID)
	if err != nil {
		return nil, apperr.Unavailable("failed to load movements", err)
	}
	return movements, nil
}
