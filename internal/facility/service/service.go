// Package service implements facility task and meter log operations. Every
// task mutation publishes a TaskUpdated event; downstream listeners (the
// booking orchestrator, the transfer orchestrator) are idempotent, so
// duplicate delivery is harmless.
package service

import (
	"context"
	"fmt"
	"time"

	"rentops_backend/internal/events"
	"rentops_backend/internal/facility/repository"
	"rentops_backend/internal/facility/transport"
	"rentops_backend/platform/apperr"
	"rentops_backend/platform/logger"
)

// allowedTransitions holds the valid status moves. Archiving is reachable
// from every non-archived status.
var allowedTransitions = map[string][]string{
	repository.StatusOpen:       {repository.StatusInProgress, repository.StatusCompleted, repository.StatusArchived},
	repository.StatusInProgress: {repository.StatusOpen, repository.StatusCompleted, repository.StatusArchived},
	repository.StatusCompleted:  {repository.StatusInProgress, repository.StatusVerified, repository.StatusArchived},
	repository.StatusVerified:   {repository.StatusArchived},
	repository.StatusArchived:   {},
}

// Service provides facility task and meter log operations.
type Service struct {
	repo repository.Repository
	bus  events.Bus
	log  *logger.Logger
}

// New creates a new facility service.
func New(repo repository.Repository, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, bus: bus, log: log}
}

// ListTasks returns tasks matching the filter.
func (s *Service) ListTasks(ctx context.Context, filter repository.TaskFilter) ([]repository.Task, error) {
	tasks, err := s.repo.ListTasks(ctx, filter)
	if err != nil {
		return nil, apperr.Unavailable("failed to load tasks", err)
	}
	return tasks, nil
}

// GetTask returns a single task.
func (s *Service) GetTask(ctx context.Context, id string) (repository.Task, error) {
	return s.repo.GetTask(ctx, id)
}

// CreateTask creates a task and announces it.
func (s *Service) CreateTask(ctx context.Context, req transport.CreateTaskRequest) (repository.Task, error) {
	if req.TaskType == "" {
		return repository.Task{}, apperr.Validation("taskType is required")
	}
	if req.DueDate != nil {
		if _, err := time.Parse("2006-01-02", *req.DueDate); err != nil {
			return repository.Task{}, apperr.Validation("dueDate must be YYYY-MM-DD")
		}
	}

	task, err := s.repo.CreateTask(ctx, repository.CreateTaskParams{
		TaskType:    req.TaskType,
		PropertyID:  req.PropertyID,
		BookingID:   req.BookingID,
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
	})
	if err != nil {
		return repository.Task{}, apperr.Unavailable("failed to create task", err)
	}

	s.publishTaskUpdated(ctx, task)
	s.log.Info("task created", "taskId", task.ID, "taskType", task.TaskType)
	return task, nil
}

// UpdateTask applies a partial update. Status changes are checked against
// the transition table.
func (s *Service) UpdateTask(ctx context.Context, id string, req transport.UpdateTaskRequest) (repository.Task, error) {
	current, err := s.repo.GetTask(ctx, id)
	if err != nil {
		return repository.Task{}, err
	}

	if req.Status != nil && *req.Status != current.Status {
		if !transitionAllowed(current.Status, *req.Status) {
			return repository.Task{}, apperr.Validation(
				fmt.Sprintf("cannot move task from %s to %s", current.Status, *req.Status))
		}
	}

	// Transfer task descriptions carry the staged payload and its executed
	// guards; only the transfer workflow may rewrite them.
	if req.Description != nil && current.TaskType == repository.TypeTransfer {
		return repository.Task{}, apperr.Validation("transfer task descriptions are managed by the transfer workflow")
	}

	task, err := s.repo.UpdateTask(ctx, id, repository.UpdateTaskParams{
		Status:      req.Status,
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
	})
	if err != nil {
		return repository.Task{}, err
	}

	s.publishTaskUpdated(ctx, task)
	s.log.Info("task updated", "taskId", task.ID, "status", task.Status)
	return task, nil
}

// UpdateTaskDescription replaces only the description. Used by the transfer
// orchestrator to persist the executed guard flag inside the payload without
// touching status.
func (s *Service) UpdateTaskDescription(ctx context.Context, id, description string) (repository.Task, error) {
	task, err := s.repo.UpdateTask(ctx, id, repository.UpdateTaskParams{Description: &description})
	if err != nil {
		return repository.Task{}, err
	}
	return task, nil
}

// ListMeterLogs returns a property's meter log.
func (s *Service) ListMeterLogs(ctx context.Context, propertyID string) ([]repository.MeterLogEntry, error) {
	entries, err := s.repo.ListMeterLogs(ctx, propertyID)
	if err != nil {
		return nil, apperr.Unavailable("failed to load meter log", err)
	}
	return entries, nil
}

// CreateMeterLog records a new meter reading.
func (s *Service) CreateMeterLog(ctx context.Context, req transport.CreateMeterLogRequest) (repository.MeterLogEntry, error) {
	if !validMeterType(req.EntryType) {
		return repository.MeterLogEntry{}, apperr.Validation(fmt.Sprintf("unknown entry type %q", req.EntryType))
	}
	if _, err := time.Parse("2006-01-02", req.EntryDate); err != nil {
		return repository.MeterLogEntry{}, apperr.Validation("entryDate must be YYYY-MM-DD")
	}
	if req.Electricity < 0 || req.Water < 0 || req.Gas < 0 {
		return repository.MeterLogEntry{}, apperr.Validation("readings must not be negative")
	}

	entry, err := s.repo.CreateMeterLog(ctx, repository.CreateMeterLogParams{
		PropertyID:  req.PropertyID,
		BookingID:   req.BookingID,
		EntryType:   req.EntryType,
		EntryDate:   req.EntryDate,
		Electricity: req.Electricity,
		Water:       req.Water,
		Gas:         req.Gas,
	})
	if err != nil {
		return repository.MeterLogEntry{}, apperr.Unavailable("failed to create meter log entry", err)
	}

	s.log.Info("meter log entry created", "propertyId", entry.PropertyID, "entryType", entry.EntryType)
	return entry, nil
}

func (s *Service) publishTaskUpdated(ctx context.Context, task repository.Task) {
	event := events.TaskUpdated{
		BaseEvent: events.NewBaseEvent(),
		TaskID:    task.ID,
		TaskType:  task.TaskType,
		Status:    task.Status,
	}
	if task.BookingID != nil {
		event.BookingID = *task.BookingID
	}
	if task.PropertyID != nil {
		event.PropertyID = *task.PropertyID
	}
	s.bus.Publish(ctx, event)
}

func transitionAllowed(from, to string) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func validMeterType(entryType string) bool {
	switch entryType {
	case repository.MeterInitial, repository.MeterCheckIn, repository.MeterCheckOut, repository.MeterInterim:
		return true
	}
	return false
}
