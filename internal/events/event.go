// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"rentops_backend/platform/events"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// Entity ids in events are plain strings: depending on record age they may be
// UUIDs, legacy integers, or numeric strings. Consumers compare them with
// platform/ident, never directly.

// =============================================================================
// Booking Domain Events
// =============================================================================

// BookingConfirmed is published after the atomic payment-confirmation
// transaction commits. Downstream reconciliation (facility tasks, meter logs,
// notifications) hangs off this event and must be idempotent.
type BookingConfirmed struct {
	BaseEvent
	BookingID  string `json:"bookingId"`
	ProformaID string `json:"proformaId"`
	PropertyID string `json:"propertyId"`
	StartDate  string `json:"startDate"`
	EndDate    string `json:"endDate"`
	GuestName  string `json:"guestName"`
	GuestEmail string `json:"guestEmail,omitempty"`
}

func (e BookingConfirmed) EventName() string { return "booking.confirmed" }

// EnsureTasksRequested asks the booking orchestrator to re-run the idempotent
// facility-task reconciliation for a booking. Published by the scheduler
// worker when a delayed retry job fires.
type EnsureTasksRequested struct {
	BaseEvent
	BookingID string `json:"bookingId"`
}

func (e EnsureTasksRequested) EventName() string { return "booking.ensure_tasks.requested" }

// =============================================================================
// Facility Domain Events
// =============================================================================

// TaskUpdated is published on any facility task mutation. Listeners are
// debounced; duplicate or out-of-order delivery must be harmless.
type TaskUpdated struct {
	BaseEvent
	TaskID     string `json:"taskId"`
	TaskType   string `json:"taskType"`
	Status     string `json:"status"`
	BookingID  string `json:"bookingId,omitempty"`
	PropertyID string `json:"propertyId,omitempty"`
}

func (e TaskUpdated) EventName() string { return "facility.task.updated" }

// =============================================================================
// Inventory Domain Events
// =============================================================================

// PropertyInventoryChanged is published when a property's inventory lines
// were mutated (transfer execution or reconciliation sweep).
type PropertyInventoryChanged struct {
	BaseEvent
	PropertyID string `json:"propertyId"`
	Added      int    `json:"added"`
	Removed    int    `json:"removed"`
	Reason     string `json:"reason"`
}

func (e PropertyInventoryChanged) EventName() string { return "properties.inventory.changed" }

// TransferExecutionRequested asks the transfer orchestrator to re-check a
// staged transfer task. Published by the scheduler worker on delayed retry.
type TransferExecutionRequested struct {
	BaseEvent
	TaskID string `json:"taskId"`
}

func (e TransferExecutionRequested) EventName() string { return "transfer.execution.requested" }

// TransferExecuted is published exactly once per staged transfer, after the
// stock decrement and inventory merge completed and the guard flag was
// persisted.
type TransferExecuted struct {
	BaseEvent
	TaskID      string `json:"taskId"`
	PropertyID  string `json:"propertyId"`
	WarehouseID string `json:"warehouseId"`
	ItemCount   int    `json:"itemCount"`
}

func (e TransferExecuted) EventName() string { return "transfer.executed" }
