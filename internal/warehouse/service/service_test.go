package service

import (
	"context"
	"testing"

	"rentops_backend/internal/warehouse/repository"
	"rentops_backend/internal/warehouse/transport"
	"rentops_backend/platform/apperr"
	"rentops_backend/platform/logger"
)

// fakeStockRepo mimics the movement table's reference uniqueness with a
// keyed applied map.
type fakeStockRepo struct {
	items   map[string]repository.StockItem
	applied map[string]bool
	moves   []repository.Movement
}

func newFakeStockRepo() *fakeStockRepo {
	return &fakeStockRepo{
		items:   make(map[string]repository.StockItem),
		applied: make(map[string]bool),
	}
}

func (f *fakeStockRepo) ListStock(ctx context.Context, warehouseID string) ([]repository.StockItem, error) {
	var out []repository.StockItem
	for _, item := range f.items {
		if warehouseID == "" || item.WarehouseID == warehouseID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (f *fakeStockRepo) GetStock(ctx context.Context, id string) (repository.StockItem, error) {
	item, ok := f.items[id]
	if !ok {
		return repository.StockItem{}, apperr.NotFound("stock item not found")
	}
	return item, nil
}

func (f *fakeStockRepo) CreateStock(ctx context.Context, params repository.CreateStockParams) (repository.StockItem, error) {
	item := repository.StockItem{
		ID:          "stock-" + params.ItemID,
		WarehouseID: params.WarehouseID,
		ItemID:      params.ItemID,
		Name:        params.Name,
		Quantity:    params.Quantity,
	}
	f.items[item.ID] = item
	return item, nil
}

func (f *fakeStockRepo) AdjustQuantity(ctx context.Context, stockID string, qtyChange int, reason string) (repository.StockItem, error) {
	item, ok := f.items[stockID]
	if !ok {
		return repository.StockItem{}, apperr.NotFound("stock item not found")
	}
	item.Quantity += qtyChange
	f.items[stockID] = item
	f.moves = append(f.moves, repository.Movement{StockID: stockID, QtyChange: qtyChange, Reason: reason})
	return item, nil
}

func (f *fakeStockRepo) DecrementForReference(ctx context.Context, stockID string, qty int, reason, reference string) (bool, error) {
	key := reference + "/" + stockID
	if f.applied[key] {
		return false, nil
	}
	item, ok := f.items[stockID]
	if !ok {
		return false, apperr.NotFound("stock item not found")
	}
	f.applied[key] = true
	item.Quantity -= qty
	f.items[stockID] = item
	ref := reference
	f.moves = append(f.moves, repository.Movement{StockID: stockID, QtyChange: -qty, Reason: reason, Reference: &ref})
	return true, nil
}

func (f *fakeStockRepo) ListMovements(ctx context.Context, stockID string) ([]repository.Movement, error) {
	var out []repository.Movement
	for _, move := range f.moves {
		if move.StockID == stockID {
			out = append(out, move)
		}
	}
	return out, nil
}

var _ repository.Repository = (*fakeStockRepo)(nil)

func newTestService(repo repository.Repository) *Service {
	return New(repo, logger.New("development"))
}

func TestCreateStockRejectsNegativeQuantity(t *testing.T) {
	svc := newTestService(newFakeStockRepo())

	_, err := svc.CreateStock(context.Background(), transport.CreateStockRequest{
		WarehouseID: "wh-1", ItemID: "item-1", Name: "Bett", Quantity: -1,
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAdjustQuantityGuards(t *testing.T) {
	repo := newFakeStockRepo()
	item, _ := repo.CreateStock(context.Background(), repository.CreateStockParams{
		WarehouseID: "wh-1", ItemID: "item-1", Name: "Bett", Quantity: 2,
	})
	svc := newTestService(repo)

	if _, err := svc.AdjustQuantity(context.Background(), item.ID, transport.AdjustStockRequest{
		QtyChange: 0, Reason: "noop",
	}); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for zero change, got %v", err)
	}

	if _, err := svc.AdjustQuantity(context.Background(), item.ID, transport.AdjustStockRequest{
		QtyChange: -3, Reason: "loss",
	}); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for negative result, got %v", err)
	}

	updated, err := svc.AdjustQuantity(context.Background(), item.ID, transport.AdjustStockRequest{
		QtyChange: -2, Reason: "loss",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Quantity != 0 {
		t.Fatalf("expected quantity 0, got %d", updated.Quantity)
	}

	moves, _ := svc.ListMovements(context.Background(), item.ID)
	if len(moves) != 1 {
		t.Fatalf("expected one recorded movement, got %d", len(moves))
	}
}

func TestDecrementForReferenceIsIdempotent(t *testing.T) {
	repo := newFakeStockRepo()
	item, _ := repo.CreateStock(context.Background(), repository.CreateStockParams{
		WarehouseID: "wh-1", ItemID: "item-1", Name: "Bett", Quantity: 7,
	})
	svc := newTestService(repo)

	applied, err := svc.DecrementForReference(context.Background(), item.ID, 3, "transfer", "task-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !applied {
		t.Fatal("expected first decrement to apply")
	}

	applied, err = svc.DecrementForReference(context.Background(), item.ID, 3, "transfer", "task-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if applied {
		t.Fatal("expected replay to be a no-op")
	}

	current, _ := svc.GetStock(context.Background(), item.ID)
	if current.Quantity != 4 {
		t.Fatalf("expected quantity 4 after replay, got %d", current.Quantity)
	}
}

func TestDecrementForReferenceRejectsNonPositiveQty(t *testing.T) {
	svc := newTestService(newFakeStockRepo())

	if _, err := svc.DecrementForReference(context.Background(), "stock-1", 0, "transfer", "task-1"); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
