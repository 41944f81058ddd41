// Package adapters implements the ports the orchestrating contexts define
// over the owning modules. Each adapter is a thin translation layer: the
// consumer keeps its own vocabulary and the owning service stays the single
// place that enforces its rules.
package adapters

import (
	"context"

	bookingsvc "rentops_backend/internal/booking/service"
	facilityrepo "rentops_backend/internal/facility/repository"
	facilitysvc "rentops_backend/internal/facility/service"
	facilitytransport "rentops_backend/internal/facility/transport"
	transfersvc "rentops_backend/internal/transfer/service"
	"rentops_backend/platform/ident"
)

// FacilityTasks adapts the facility service to the task ports of the
// booking and transfer orchestrators.
type FacilityTasks struct {
	svc *facilitysvc.Service
}

// NewFacilityTasks creates the facility task adapter.
func NewFacilityTasks(svc *facilitysvc.Service) *FacilityTasks {
	return &FacilityTasks{svc: svc}
}

// Get returns the transfer-facing slice of a task.
func (a *FacilityTasks) Get(ctx context.Context, id string) (transfersvc.Task, error) {
	task, err := a.svc.GetTask(ctx, id)
	if err != nil {
		return transfersvc.Task{}, err
	}
	return transfersvc.Task{
		ID:          task.ID,
		Status:      task.Status,
		Description: task.Description,
		PropertyID:  task.PropertyID,
	}, nil
}

// CreateTransferTask stages a transfer task against the destination
// property.
func (a *FacilityTasks) CreateTransferTask(ctx context.Context, propertyID, title, description string) (transfersvc.Task, error) {
	task, err := a.svc.CreateTask(ctx, facilitytransport.CreateTaskRequest{
		TaskType:    facilityrepo.TypeTransfer,
		PropertyID:  &propertyID,
		Title:       title,
		Description: description,
	})
	if err != nil {
		return transfersvc.Task{}, err
	}
	return transfersvc.Task{
		ID:          task.ID,
		Status:      task.Status,
		Description: task.Description,
		PropertyID:  task.PropertyID,
	}, nil
}

// SaveDescription persists an updated payload without touching status.
func (a *FacilityTasks) SaveDescription(ctx context.Context, id, description string) error {
	_, err := a.svc.UpdateTaskDescription(ctx, id, description)
	return err
}

// TasksWithBooking returns every task linked to a booking, in the booking
// orchestrator's vocabulary.
func (a *FacilityTasks) TasksWithBooking(ctx context.Context) ([]bookingsvc.BookingTask, error) {
	tasks, err := a.svc.ListTasks(ctx, facilityrepo.TaskFilter{HasBooking: true})
	if err != nil {
		return nil, err
	}
	out := make([]bookingsvc.BookingTask, 0, len(tasks))
	for _, task := range tasks {
		bookingID := ""
		if task.BookingID != nil {
			bookingID = *task.BookingID
		}
		out = append(out, bookingsvc.BookingTask{
			ID:        task.ID,
			TaskType:  task.TaskType,
			BookingID: bookingID,
		})
	}
	return out, nil
}

// CreateBookingTask creates a move task linked to a booking.
func (a *FacilityTasks) CreateBookingTask(ctx context.Context, taskType, propertyID, bookingID, title, dueDate string) (bookingsvc.BookingTask, error) {
	task, err := a.svc.CreateTask(ctx, facilitytransport.CreateTaskRequest{
		TaskType:   taskType,
		PropertyID: &propertyID,
		BookingID:  &bookingID,
		Title:      title,
		DueDate:    &dueDate,
	})
	if err != nil {
		return bookingsvc.BookingTask{}, err
	}
	ensured := bookingsvc.BookingTask{ID: task.ID, TaskType: task.TaskType}
	if task.BookingID != nil {
		ensured.BookingID = *task.BookingID
	}
	return ensured, nil
}

// FacilityMeters adapts the meter log to the booking orchestrator's stub
// port. EnsureStub is idempotent per (booking, entry type) under identity
// normalization.
type FacilityMeters struct {
	svc *facilitysvc.Service
}

// NewFacilityMeters creates the meter log adapter.
func NewFacilityMeters(svc *facilitysvc.Service) *FacilityMeters {
	return &FacilityMeters{svc: svc}
}

// EnsureStub appends a zero-reading meter log entry for the booking unless
// one of the same entry type already exists. The readings stay zero until
// the on-site check fills them in.
func (a *FacilityMeters) EnsureStub(ctx context.Context, propertyID, bookingID, entryType, entryDate string) error {
	entries, err := a.svc.ListMeterLogs(ctx, propertyID)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.EntryType != entryType {
			continue
		}
		if entry.BookingID != nil && ident.Equal(*entry.BookingID, bookingID) {
			return nil
		}
	}

	_, err = a.svc.CreateMeterLog(ctx, facilitytransport.CreateMeterLogRequest{
		PropertyID: propertyID,
		BookingID:  &bookingID,
		EntryType:  entryType,
		EntryDate:  entryDate,
	})
	return err
}

var (
	_ transfersvc.TaskStore = (*FacilityTasks)(nil)
	_ bookingsvc.TaskPort   = (*FacilityTasks)(nil)
	_ bookingsvc.MeterPort  = (*FacilityMeters)(nil)
)
