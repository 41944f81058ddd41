package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"rentops_backend/internal/booking/repository"
	"rentops_backend/internal/events"
	"rentops_backend/platform/apperr"
	"rentops_backend/platform/ident"
	"rentops_backend/platform/logger"
)

// Task types the orchestrator ensures per confirmed booking.
const (
	taskTypeEinzug = "Einzug"
	taskTypeAuszug = "Auszug"
)

// BookingTask is the slice of a facility task the orchestrator matches on.
// BookingID may hold a UUID, a legacy integer, or a numeric string.
type BookingTask struct {
	ID        string
	TaskType  string
	BookingID string
}

// TaskPort is the facility task access the orchestrator needs. Implemented
// by an adapter over the facility module.
type TaskPort interface {
	TasksWithBooking(ctx context.Context) ([]BookingTask, error)
	CreateBookingTask(ctx context.Context, taskType, propertyID, bookingID, title, dueDate string) (BookingTask, error)
}

// MeterPort appends meter log stubs. EnsureStub must be idempotent per
// (booking, entry type).
type MeterPort interface {
	EnsureStub(ctx context.Context, propertyID, bookingID, entryType, entryDate string) error
}

// Orchestrator reconciles the side effects of a confirmed booking: exactly
// one move-in and one move-out task, plus check-in and check-out meter log
// stubs. Every entry point is idempotent, so it can be triggered from the
// confirmation event, a debounced task-updated listener, a scheduled retry
// and manual calls without coordination.
type Orchestrator struct {
	repo   repository.Repository
	tasks  TaskPort
	meters MeterPort
	log    *logger.Logger

	mu         sync.Mutex
	activeRuns map[string]bool

	debounceMu     sync.Mutex
	debounceWindow time.Duration
	pending        map[string]*time.Timer
}

// NewOrchestrator creates the booking side-effect orchestrator.
func NewOrchestrator(repo repository.Repository, tasks TaskPort, meters MeterPort, debounceWindow time.Duration, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		repo:           repo,
		tasks:          tasks,
		meters:         meters,
		log:            log,
		activeRuns:     make(map[string]bool),
		debounceWindow: debounceWindow,
		pending:        make(map[string]*time.Timer),
	}
}

// EnsureFacilityTasks converges the booking's task set to exactly one
// Einzug and one Auszug. Existing tasks are matched under identity
// normalization; each missing task is created independently, so one
// failure does not block the other and a later call fills the gap.
func (o *Orchestrator) EnsureFacilityTasks(ctx context.Context, bookingID string) ([]BookingTask, error) {
	booking, err := o.findBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	key := ident.Normalize(booking.ID)
	if !o.markRunning(key) {
		return nil, nil
	}
	defer o.markComplete(key)

	existing, err := o.tasks.TasksWithBooking(ctx)
	if err != nil {
		return nil, apperr.Unavailable("failed to load tasks", err)
	}

	var ensured []BookingTask
	have := make(map[string]bool)
	for _, task := range existing {
		if !ident.Equal(task.BookingID, booking.ID) {
			continue
		}
		if task.TaskType == taskTypeEinzug || task.TaskType == taskTypeAuszug {
			have[task.TaskType] = true
			ensured = append(ensured, task)
		}
	}

	var errs []error
	if !have[taskTypeEinzug] {
		task, err := o.tasks.CreateBookingTask(ctx, taskTypeEinzug, booking.PropertyID, booking.ID,
			fmt.Sprintf("Einzug %s", booking.StartDate), booking.StartDate)
		if err != nil {
			o.log.Error("failed to create move-in task", "bookingId", booking.ID, "error", err)
			errs = append(errs, err)
		} else {
			ensured = append(ensured, task)
			o.log.Info("move-in task created", "bookingId", booking.ID, "taskId", task.ID)
		}
	}
	if !have[taskTypeAuszug] {
		task, err := o.tasks.CreateBookingTask(ctx, taskTypeAuszug, booking.PropertyID, booking.ID,
			fmt.Sprintf("Auszug %s", booking.EndDate), booking.EndDate)
		if err != nil {
			o.log.Error("failed to create move-out task", "bookingId", booking.ID, "error", err)
			errs = append(errs, err)
		} else {
			ensured = append(ensured, task)
			o.log.Info("move-out task created", "bookingId", booking.ID, "taskId", task.ID)
		}
	}

	if err := o.meters.EnsureStub(ctx, booking.PropertyID, booking.ID, "Check-In", booking.StartDate); err != nil {
		o.log.Error("failed to ensure check-in meter stub", "bookingId", booking.ID, "error", err)
		errs = append(errs, err)
	}
	if err := o.meters.EnsureStub(ctx, booking.PropertyID, booking.ID, "Check-Out", booking.EndDate); err != nil {
		o.log.Error("failed to ensure check-out meter stub", "bookingId", booking.ID, "error", err)
		errs = append(errs, err)
	}

	return ensured, errors.Join(errs...)
}

// findBooking resolves a booking id that may arrive in a different
// representation than the stored one.
func (o *Orchestrator) findBooking(ctx context.Context, bookingID string) (repository.ConfirmedBooking, error) {
	booking, err := o.repo.GetBooking(ctx, bookingID)
	if err == nil {
		return booking, nil
	}
	if !apperr.Is(err, apperr.KindNotFound) {
		return repository.ConfirmedBooking{}, err
	}

	bookings, listErr := o.repo.ListBookings(ctx)
	if listErr != nil {
		return repository.ConfirmedBooking{}, apperr.Unavailable("failed to load bookings", listErr)
	}
	for _, candidate := range bookings {
		if ident.Equal(candidate.ID, bookingID) {
			return candidate, nil
		}
	}
	return repository.ConfirmedBooking{}, err
}

// NotifyTaskUpdated coalesces task-updated signals per booking: repeated
// events within the window collapse into one reconciliation run.
func (o *Orchestrator) NotifyTaskUpdated(bookingID string) {
	if ident.IsEmpty(bookingID) {
		return
	}
	key := ident.Normalize(bookingID)

	o.debounceMu.Lock()
	defer o.debounceMu.Unlock()

	if timer, ok := o.pending[key]; ok {
		timer.Reset(o.debounceWindow)
		return
	}
	o.pending[key] = time.AfterFunc(o.debounceWindow, func() {
		o.debounceMu.Lock()
		delete(o.pending, key)
		o.debounceMu.Unlock()

		if _, err := o.EnsureFacilityTasks(context.Background(), bookingID); err != nil {
			o.log.Error("debounced task reconciliation failed", "bookingId", bookingID, "error", err)
		}
	})
}

// HandleEvent routes bus events into the orchestrator.
func (o *Orchestrator) HandleEvent(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.BookingConfirmed:
		_, err := o.EnsureFacilityTasks(ctx, e.BookingID)
		return err
	case events.EnsureTasksRequested:
		_, err := o.EnsureFacilityTasks(ctx, e.BookingID)
		return err
	case events.TaskUpdated:
		o.NotifyTaskUpdated(e.BookingID)
		return nil
	default:
		return nil
	}
}

func (o *Orchestrator) markRunning(key string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.activeRuns[key] {
		return false
	}
	o.activeRuns[key] = true
	return true
}

func (o *Orchestrator) markComplete(key string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.activeRuns, key)
}
