// Package service implements property operations. Every property load runs
// the inventory reconciliation sweep against current warehouse stock;
// sweep failures are logged and skipped so the property stays readable.
package service

import (
	"context"

	"golang.org/x/sync/errgroup"

	"rentops_backend/internal/events"
	"rentops_backend/internal/properties/repository"
	"rentops_backend/internal/properties/transport"
	"rentops_backend/platform/apperr"
	"rentops_backend/platform/logger"
)

// StockReader lists current warehouse stock for the reconciliation sweep.
// Implemented by an adapter over the warehouse module.
type StockReader interface {
	CurrentStock(ctx context.Context) ([]StockRef, error)
}

// PropertyView is a property together with its swept inventory.
type PropertyView struct {
	Property  repository.Property        `json:"property"`
	Inventory []repository.InventoryItem `json:"inventory"`
}

// Service provides property operations.
type Service struct {
	repo  repository.Repository
	stock StockReader
	bus   events.Bus
	log   *logger.Logger
}

// New creates a new properties service.
func New(repo repository.Repository, stock StockReader, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, stock: stock, bus: bus, log: log}
}

// ListProperties returns all properties without inventory.
func (s *Service) ListProperties(ctx context.Context) ([]repository.Property, error) {
	properties, err := s.repo.ListProperties(ctx)
	if err != nil {
		return nil, apperr.Unavailable("failed to load properties", err)
	}
	return properties, nil
}

// GetProperty loads a property with its inventory, running the
// reconciliation sweep first. Property, inventory and stock are fetched in
// parallel; a stock fetch error skips the sweep for this load.
func (s *Service) GetProperty(ctx context.Context, id string) (PropertyView, error) {
	var (
		property  repository.Property
		inventory []repository.InventoryItem
		stock     []StockRef
		stockErr  error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		property, err = s.repo.GetProperty(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		inventory, err = s.repo.ListInventory(gctx, id)
		return err
	})
	g.Go(func() error {
		stock, stockErr = s.stock.CurrentStock(gctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		return PropertyView{}, err
	}

	if stockErr != nil {
		s.log.Error("inventory sweep skipped, stock unavailable", "propertyId", id, "error", stockErr)
		return PropertyView{Property: property, Inventory: inventory}, nil
	}

	keep, removed := ReconcileInventory(inventory, stock)
	if len(removed) > 0 {
		ids := make([]string, 0, len(removed))
		for _, item := range removed {
			ids = append(ids, item.ID)
		}
		if err := s.repo.DeleteInventoryItems(ctx, ids); err != nil {
			s.log.Error("failed to persist inventory sweep", "propertyId", id, "error", err)
			return PropertyView{Property: property, Inventory: inventory}, nil
		}

		s.log.Info("inventory sweep removed orphaned lines", "propertyId", id, "removed", len(removed))
		s.bus.Publish(ctx, events.PropertyInventoryChanged{
			BaseEvent:  events.NewBaseEvent(),
			PropertyID: id,
			Removed:    len(removed),
			Reason:     "reconciliation_sweep",
		})
	}

	return PropertyView{Property: property, Inventory: keep}, nil
}

// CreateProperty adds a new property.
func (s *Service) CreateProperty(ctx context.Context, req transport.CreatePropertyRequest) (repository.Property, error) {
	property, err := s.repo.CreateProperty(ctx, repository.CreatePropertyParams{
		Name:      req.Name,
		Address:   req.Address,
		OwnerName: req.OwnerName,
	})
	if err != nil {
		return repository.Property{}, apperr.Unavailable("failed to create property", err)
	}

	s.log.Info("property created", "propertyId", property.ID, "name", property.Name)
	return property, nil
}

// UpdateProperty applies a partial update.
func (s *Service) UpdateProperty(ctx context.Context, id string, req transport.UpdatePropertyRequest) (repository.Property, error) {
	return s.repo.UpdateProperty(ctx, id, repository.UpdatePropertyParams{
		Name:      req.Name,
		Address:   req.Address,
		OwnerName: req.OwnerName,
	})
}

// AddInventoryItem adds a manual inventory line.
func (s *Service) AddInventoryItem(ctx context.Context, propertyID string, req transport.AddInventoryRequest) (repository.InventoryItem, error) {
	if req.Quantity <= 0 {
		return repository.InventoryItem{}, apperr.Validation("quantity must be positive")
	}

	item, err := s.repo.InsertInventory(ctx, repository.InsertInventoryParams{
		PropertyID: propertyID,
		Name:       req.Name,
		Quantity:   req.Quantity,
		ItemID:     req.ItemID,
		InvNumber:  req.InvNumber,
		Source:     repository.SourceManual,
	})
	if err != nil {
		return repository.InventoryItem{}, apperr.Unavailable("failed to add inventory item", err)
	}

	s.bus.Publish(ctx, events.PropertyInventoryChanged{
		BaseEvent:  events.NewBaseEvent(),
		PropertyID: propertyID,
		Added:      1,
		Reason:     "manual_add",
	})
	return item, nil
}

// MergeTransferredItem merges a transferred quantity into the property's
// inventory: increments an existing line matched by the derived inventory
// number, or appends a new transfer-sourced line. Used by the transfer
// orchestrator.
func (s *Service) MergeTransferredItem(ctx context.Context, propertyID, itemID, name string, qty int) error {
	invNumber := DerivedInvNumber(itemID)

	updated, err := s.repo.IncrementInventoryByInvNumber(ctx, propertyID, invNumber, qty)
	if err != nil {
		return err
	}
	if !updated {
		_, err = s.repo.InsertInventory(ctx, repository.InsertInventoryParams{
			PropertyID: propertyID,
			Name:       name,
			Quantity:   qty,
			ItemID:     &itemID,
			InvNumber:  &invNumber,
			Source:     repository.SourceTransfer,
		})
		if err != nil {
			return err
		}
	}

	s.bus.Publish(ctx, events.PropertyInventoryChanged{
		BaseEvent:  events.NewBaseEvent(),
		PropertyID: propertyID,
		Added:      qty,
		Reason:     "transfer",
	})
	return nil
}
