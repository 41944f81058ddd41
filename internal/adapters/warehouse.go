package adapters

import (
	"context"

	propertiessvc "rentops_backend/internal/properties/service"
	transfersvc "rentops_backend/internal/transfer/service"
	warehousesvc "rentops_backend/internal/warehouse/service"
)

// WarehouseStock adapts the warehouse service to the transfer orchestrator's
// stock port and the properties sweep's stock reader.
type WarehouseStock struct {
	svc *warehousesvc.Service
}

// NewWarehouseStock creates the warehouse stock adapter.
func NewWarehouseStock(svc *warehousesvc.Service) *WarehouseStock {
	return &WarehouseStock{svc: svc}
}

// Get returns the transfer-facing slice of a stock row.
func (a *WarehouseStock) Get(ctx context.Context, stockID string) (transfersvc.StockItem, error) {
	item, err := a.svc.GetStock(ctx, stockID)
	if err != nil {
		return transfersvc.StockItem{}, err
	}
	return transfersvc.StockItem{
		ID:       item.ID,
		ItemID:   item.ItemID,
		Name:     item.Name,
		Quantity: item.Quantity,
	}, nil
}

// DecrementForReference applies a reference-keyed decrement. Replays for the
// same reference report applied=false without touching the quantity.
func (a *WarehouseStock) DecrementForReference(ctx context.Context, stockID string, qty int, reason, reference string) (bool, error) {
	return a.svc.DecrementForReference(ctx, stockID, qty, reason, reference)
}

// CurrentStock returns the full stock as sweep references. An empty
// warehouse id means all warehouses.
func (a *WarehouseStock) CurrentStock(ctx context.Context) ([]propertiessvc.StockRef, error) {
	items, err := a.svc.ListStock(ctx, "")
	if err != nil {
		return nil, err
	}
	refs := make([]propertiessvc.StockRef, 0, len(items))
	for _, item := range items {
		refs = append(refs, propertiessvc.StockRef{StockID: item.ID, ItemID: item.ItemID})
	}
	return refs, nil
}

var (
	_ transfersvc.StockStore    = (*WarehouseStock)(nil)
	_ propertiessvc.StockReader = (*WarehouseStock)(nil)
)
