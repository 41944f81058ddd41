package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"rentops_backend/internal/events"
	"rentops_backend/internal/transfer/transport"
	"rentops_backend/platform/apperr"
	"rentops_backend/platform/logger"
)

type fakeTasks struct {
	mu    sync.Mutex
	tasks map[string]Task
}

func newFakeTasks() *fakeTasks {
	return &fakeTasks{tasks: make(map[string]Task)}
}

func (f *fakeTasks) Get(ctx context.Context, id string) (Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	task, ok := f.tasks[id]
	if !ok {
		return Task{}, apperr.NotFound("task not found")
	}
	return task, nil
}

func (f *fakeTasks) CreateTransferTask(ctx context.Context, propertyID, title, description string) (Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	task := Task{ID: "t1", Status: "open", Description: description, PropertyID: &propertyID}
	f.tasks[task.ID] = task
	return task, nil
}

func (f *fakeTasks) SaveDescription(ctx context.Context, id, description string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	task := f.tasks[id]
	task.Description = description
	f.tasks[id] = task
	return nil
}

func (f *fakeTasks) setStatus(id, status string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	task := f.tasks[id]
	task.Status = status
	f.tasks[id] = task
}

// fakeStock mimics the movement-table idempotency: decrements are keyed by
// (reference, stockID) and replays return applied=false.
type fakeStock struct {
	mu         sync.Mutex
	quantities map[string]int
	items      map[string]StockItem
	applied    map[string]bool
}

func newFakeStock(items ...StockItem) *fakeStock {
	f := &fakeStock{
		quantities: make(map[string]int),
		items:      make(map[string]StockItem),
		applied:    make(map[string]bool),
	}
	for _, item := range items {
		f.items[item.ID] = item
		f.quantities[item.ID] = item.Quantity
	}
	return f
}

func (f *fakeStock) Get(ctx context.Context, stockID string) (StockItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[stockID]
	if !ok {
		return StockItem{}, apperr.NotFound("stock item not found")
	}
	item.Quantity = f.quantities[stockID]
	return item, nil
}

func (f *fakeStock) DecrementForReference(ctx context.Context, stockID string, qty int, reason, reference string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := reference + "/" + stockID
	if f.applied[key] {
		return false, nil
	}
	f.applied[key] = true
	f.quantities[stockID] -= qty
	return true, nil
}

type fakeInventory struct {
	mu     sync.Mutex
	merged map[string]int
}

func newFakeInventory() *fakeInventory {
	return &fakeInventory{merged: make(map[string]int)}
}

func (f *fakeInventory) MergeTransferredItem(ctx context.Context, propertyID, itemID, name string, qty int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.merged[propertyID+"/"+itemID] += qty
	return nil
}

func newTestService(tasks TaskStore, stock StockStore, inventory InventoryMerger) *Service {
	return New(tasks, stock, inventory, events.NewInMemoryBus(logger.New("development")), logger.New("development"))
}

func stageAndVerify(t *testing.T, svc *Service, tasks *fakeTasks) Task {
	t.Helper()
	task, err := svc.StageTransfer(context.Background(), transport.StageTransferRequest{
		WarehouseID:  "w1",
		ToPropertyID: "p1",
		Items:        []transport.TransferItem{{StockID: "s1", Qty: 3}},
	})
	if err != nil {
		t.Fatalf("stage transfer: %v", err)
	}
	tasks.setStatus(task.ID, "verified")
	return task
}

func TestStageTransferDoesNotTouchStock(t *testing.T) {
	tasks := newFakeTasks()
	stock := newFakeStock(StockItem{ID: "s1", ItemID: "A", Name: "Bed", Quantity: 10})
	svc := newTestService(tasks, stock, newFakeInventory())

	stageAndVerify(t, svc, tasks)

	if stock.quantities["s1"] != 10 {
		t.Fatalf("staging must not mutate stock, quantity = %d", stock.quantities["s1"])
	}
}

func TestStageTransferRejectsInsufficientStock(t *testing.T) {
	tasks := newFakeTasks()
	stock := newFakeStock(StockItem{ID: "s1", ItemID: "A", Name: "Bed", Quantity: 2})
	svc := newTestService(tasks, stock, newFakeInventory())

	_, err := svc.StageTransfer(context.Background(), transport.StageTransferRequest{
		WarehouseID:  "w1",
		ToPropertyID: "p1",
		Items:        []transport.TransferItem{{StockID: "s1", Qty: 3}},
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestExecuteSkipsUnverifiedTask(t *testing.T) {
	tasks := newFakeTasks()
	stock := newFakeStock(StockItem{ID: "s1", ItemID: "A", Name: "Bed", Quantity: 10})
	svc := newTestService(tasks, stock, newFakeInventory())

	task, err := svc.StageTransfer(context.Background(), transport.StageTransferRequest{
		WarehouseID:  "w1",
		ToPropertyID: "p1",
		Items:        []transport.TransferItem{{StockID: "s1", Qty: 3}},
	})
	if err != nil {
		t.Fatalf("stage transfer: %v", err)
	}

	if err := svc.ExecuteIfVerified(context.Background(), task.ID); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if stock.quantities["s1"] != 10 {
		t.Fatalf("open task must not execute, quantity = %d", stock.quantities["s1"])
	}
}

func TestExecuteTwiceDecrementsOnce(t *testing.T) {
	tasks := newFakeTasks()
	stock := newFakeStock(StockItem{ID: "s1", ItemID: "A", Name: "Bed", Quantity: 10})
	inventory := newFakeInventory()
	svc := newTestService(tasks, stock, inventory)

	task := stageAndVerify(t, svc, tasks)

	if err := svc.ExecuteIfVerified(context.Background(), task.ID); err != nil {
		t.Fatalf("first execute: %v", err)
	}
	if err := svc.ExecuteIfVerified(context.Background(), task.ID); err != nil {
		t.Fatalf("second execute: %v", err)
	}

	if got := stock.quantities["s1"]; got != 7 {
		t.Fatalf("stock quantity = %d, want 7", got)
	}
	if got := inventory.merged["p1/A"]; got != 3 {
		t.Fatalf("property inventory quantity = %d, want 3", got)
	}

	refreshed, _ := tasks.Get(context.Background(), task.ID)
	payload, ok := ParsePayload(refreshed.Description)
	if !ok || !payload.TransferExecuted {
		t.Fatalf("expected transferExecuted guard to be persisted, got %+v", payload)
	}
}

func TestExecuteIgnoresNonTransferTask(t *testing.T) {
	tasks := newFakeTasks()
	tasks.tasks["t9"] = Task{ID: "t9", Status: "verified", Description: "fix the door"}
	stock := newFakeStock()
	svc := newTestService(tasks, stock, newFakeInventory())

	if err := svc.ExecuteIfVerified(context.Background(), "t9"); err != nil {
		t.Fatalf("non-transfer task must be a no-op, got %v", err)
	}
}

func TestExecuteConcurrentCallsDecrementOnce(t *testing.T) {
	tasks := newFakeTasks()
	stock := newFakeStock(StockItem{ID: "s1", ItemID: "A", Name: "Bed", Quantity: 10})
	inventory := newFakeInventory()
	svc := newTestService(tasks, stock, inventory)

	task := stageAndVerify(t, svc, tasks)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = svc.ExecuteIfVerified(context.Background(), task.ID)
		}()
	}
	wg.Wait()

	// In-flight guard plus keyed decrement: run once more to make sure the
	// winner finished the whole payload.
	if err := svc.ExecuteIfVerified(context.Background(), task.ID); err != nil {
		t.Fatalf("final execute: %v", err)
	}

	if got := stock.quantities["s1"]; got != 7 {
		t.Fatalf("stock quantity = %d, want 7", got)
	}
	if got := inventory.merged["p1/A"]; got != 3 {
		t.Fatalf("property inventory quantity = %d, want 3", got)
	}
}

type fakeCheckScheduler struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeCheckScheduler) ScheduleTransferCheck(ctx context.Context, taskID string, delay time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, taskID)
	return nil
}

func TestStageTransferSchedulesExecutionCheck(t *testing.T) {
	tasks := newFakeTasks()
	stock := newFakeStock(StockItem{ID: "s1", ItemID: "A", Name: "Bed", Quantity: 10})
	svc := newTestService(tasks, stock, newFakeInventory())
	scheduler := &fakeCheckScheduler{}
	svc.SetCheckScheduler(scheduler, time.Minute)

	task, err := svc.StageTransfer(context.Background(), transport.StageTransferRequest{
		WarehouseID:  "w1",
		ToPropertyID: "p1",
		Items:        []transport.TransferItem{{StockID: "s1", Qty: 3}},
	})
	if err != nil {
		t.Fatalf("stage transfer: %v", err)
	}
	if len(scheduler.calls) != 1 || scheduler.calls[0] != task.ID {
		t.Fatalf("expected one scheduled check for %s, got %v", task.ID, scheduler.calls)
	}
}
