// Package service implements the inventory transfer orchestrator. A
// transfer is staged as intent inside a facility task and the stock
// mutation happens only once, after a human verifies the physical move.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"rentops_backend/internal/events"
	"rentops_backend/internal/transfer/transport"
	"rentops_backend/platform/apperr"
	"rentops_backend/platform/logger"
)

// Task is the slice of a facility task the orchestrator needs.
type Task struct {
	ID          string
	Status      string
	Description string
	PropertyID  *string
}

// TaskStore is the facility task access the orchestrator needs.
// Implemented by an adapter over the facility module.
type TaskStore interface {
	Get(ctx context.Context, id string) (Task, error)
	CreateTransferTask(ctx context.Context, propertyID, title, description string) (Task, error)
	SaveDescription(ctx context.Context, id, description string) error
}

// StockItem is the slice of a warehouse stock row the orchestrator needs.
type StockItem struct {
	ID       string
	ItemID   string
	Name     string
	Quantity int
}

// StockStore is the warehouse access the orchestrator needs. The decrement
// is keyed by reference so replays for the same task are no-ops.
type StockStore interface {
	Get(ctx context.Context, stockID string) (StockItem, error)
	DecrementForReference(ctx context.Context, stockID string, qty int, reason, reference string) (bool, error)
}

// InventoryMerger merges a transferred quantity into a property's inventory.
type InventoryMerger interface {
	MergeTransferredItem(ctx context.Context, propertyID, itemID, name string, qty int) error
}

// CheckScheduler enqueues a delayed execution check for a staged task,
// covering a missed task-updated event after verification. Implemented by
// the asynq scheduler client.
type CheckScheduler interface {
	ScheduleTransferCheck(ctx context.Context, taskID string, delay time.Duration) error
}

// Executable statuses. The stock mutation waits for the verification gate.
func executable(status string) bool {
	return status == "completed" || status == "verified"
}

// Service orchestrates staged inventory transfers.
type Service struct {
	tasks     TaskStore
	stock     StockStore
	inventory InventoryMerger
	bus       events.Bus
	log       *logger.Logger

	scheduler  CheckScheduler
	checkDelay time.Duration

	mu         sync.Mutex
	activeRuns map[string]bool
}

// SetCheckScheduler enables delayed execution checks for staged transfers.
func (s *Service) SetCheckScheduler(scheduler CheckScheduler, delay time.Duration) {
	s.scheduler = scheduler
	s.checkDelay = delay
}

// New creates a new transfer orchestrator.
func New(tasks TaskStore, stock StockStore, inventory InventoryMerger, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		tasks:      tasks,
		stock:      stock,
		inventory:  inventory,
		bus:        bus,
		log:        log,
		activeRuns: make(map[string]bool),
	}
}

// StageTransfer validates the requested items against current stock and
// creates a facility task embedding the transfer payload. No stock is
// mutated here.
func (s *Service) StageTransfer(ctx context.Context, req transport.StageTransferRequest) (Task, error) {
	if len(req.Items) == 0 {
		return Task{}, apperr.Validation("at least one item is required")
	}

	payload := Payload{
		Kind:         payloadKind,
		WarehouseID:  req.WarehouseID,
		ToPropertyID: req.ToPropertyID,
	}
	for _, line := range req.Items {
		if line.Qty <= 0 {
			return Task{}, apperr.Validation("item quantity must be positive")
		}
		item, err := s.stock.Get(ctx, line.StockID)
		if err != nil {
			return Task{}, err
		}
		if item.Quantity < line.Qty {
			return Task{}, apperr.Validation(
				fmt.Sprintf("insufficient stock for %s: have %d, need %d", item.Name, item.Quantity, line.Qty))
		}
		payload.Items = append(payload.Items, PayloadItem{
			StockID: item.ID,
			ItemID:  item.ItemID,
			Name:    item.Name,
			Qty:     line.Qty,
		})
	}

	description, err := payload.Encode()
	if err != nil {
		return Task{}, apperr.Internal("failed to encode transfer payload")
	}

	title := fmt.Sprintf("Inventory transfer (%d items)", len(payload.Items))
	task, err := s.tasks.CreateTransferTask(ctx, req.ToPropertyID, title, description)
	if err != nil {
		return Task{}, apperr.Unavailable("failed to create transfer task", err)
	}

	if s.scheduler != nil {
		if err := s.scheduler.ScheduleTransferCheck(ctx, task.ID, s.checkDelay); err != nil {
			s.log.Error("failed to schedule transfer execution check", "taskId", task.ID, "error", err)
		}
	}

	s.log.Info("transfer staged", "taskId", task.ID, "propertyId", req.ToPropertyID, "items", len(payload.Items))
	return task, nil
}

// ExecuteIfVerified runs the staged stock mutation for a task once it has
// passed the verification gate. Safe to call any number of times and from
// multiple trigger points: non-transfer tasks, unexecutable statuses and
// already-executed payloads are no-ops, the per-task in-flight guard
// rejects concurrent runs, and the stock decrement is idempotent per
// (task, stock) pair.
func (s *Service) ExecuteIfVerified(ctx context.Context, taskID string) error {
	if !s.markRunning(taskID) {
		return nil
	}
	defer s.markComplete(taskID)

	task, err := s.tasks.Get(ctx, taskID)
	if err != nil {
		return err
	}

	payload, ok := ParsePayload(task.Description)
	if !ok {
		return nil
	}
	if !executable(task.Status) || payload.TransferExecuted {
		return nil
	}

	for i := range payload.Items {
		item := &payload.Items[i]
		if item.Executed {
			continue
		}

		applied, err := s.stock.DecrementForReference(ctx, item.StockID, item.Qty, "transfer", taskID)
		if err != nil {
			return apperr.Unavailable(fmt.Sprintf("failed to decrement stock for %s", item.Name), err)
		}
		if err := s.inventory.MergeTransferredItem(ctx, payload.ToPropertyID, item.ItemID, item.Name, item.Qty); err != nil {
			return apperr.Unavailable(fmt.Sprintf("failed to merge %s into property inventory", item.Name), err)
		}
		item.Executed = true
		if !applied {
			s.log.Info("stock decrement already recorded for task, skipped", "taskId", taskID, "stockId", item.StockID)
		}

		// Persist per-item progress so a crash mid-run resumes at the
		// next item instead of replaying finished ones.
		if err := s.savePayload(ctx, taskID, payload); err != nil {
			return err
		}
	}

	payload.TransferExecuted = true
	if err := s.savePayload(ctx, taskID, payload); err != nil {
		return err
	}

	s.log.Info("transfer executed", "taskId", taskID, "propertyId", payload.ToPropertyID, "items", len(payload.Items))
	s.bus.Publish(ctx, events.TransferExecuted{
		BaseEvent:   events.NewBaseEvent(),
		TaskID:      taskID,
		PropertyID:  payload.ToPropertyID,
		WarehouseID: payload.WarehouseID,
		ItemCount:   len(payload.Items),
	})
	return nil
}

func (s *Service) savePayload(ctx context.Context, taskID string, payload Payload) error {
	description, err := payload.Encode()
	if err != nil {
		return apperr.Internal("failed to encode transfer payload")
	}
	if err := s.tasks.SaveDescription(ctx, taskID, description); err != nil {
		return apperr.Unavailable("failed to persist transfer payload", err)
	}
	return nil
}

func (s *Service) markRunning(taskID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeRuns[taskID] {
		return false
	}
	s.activeRuns[taskID] = true
	return true
}

func (s *Service) markComplete(taskID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.activeRuns, taskID)
}
