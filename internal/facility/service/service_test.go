package service

import (
	"context"
	"testing"

	"rentops_backend/internal/events"
	"rentops_backend/internal/facility/repository"
	"rentops_backend/internal/facility/transport"
	"rentops_backend/platform/apperr"
	"rentops_backend/platform/logger"
)

type fakeRepo struct {
	tasks  []repository.Task
	meters []repository.MeterLogEntry
}

func (f *fakeRepo) ListTasks(ctx context.Context, filter repository.TaskFilter) ([]repository.Task, error) {
	return f.tasks, nil
}

func (f *fakeRepo) GetTask(ctx context.Context, id string) (repository.Task, error) {
	for _, task := range f.tasks {
		if task.ID == id {
			return task, nil
		}
	}
	return repository.Task{}, apperr.NotFound("task not found")
}

func (f *fakeRepo) CreateTask(ctx context.Context, params repository.CreateTaskParams) (repository.Task, error) {
	status := params.Status
	if status == "" {
		status = repository.StatusOpen
	}
	task := repository.Task{
		ID:        "t1",
		TaskType:  params.TaskType,
		BookingID: params.BookingID,
		Status:    status,
		Title:     params.Title,
	}
	f.tasks = append(f.tasks, task)
	return task, nil
}

func (f *fakeRepo) UpdateTask(ctx context.Context, id string, params repository.UpdateTaskParams) (repository.Task, error) {
	for i := range f.tasks {
		if f.tasks[i].ID == id {
			if params.Status != nil {
				f.tasks[i].Status = *params.Status
			}
			if params.Description != nil {
				f.tasks[i].Description = *params.Description
			}
			return f.tasks[i], nil
		}
	}
	return repository.Task{}, apperr.NotFound("task not found")
}

func (f *fakeRepo) ListMeterLogs(ctx context.Context, propertyID string) ([]repository.MeterLogEntry, error) {
	return f.meters, nil
}

func (f *fakeRepo) CreateMeterLog(ctx context.Context, params repository.CreateMeterLogParams) (repository.MeterLogEntry, error) {
	entry := repository.MeterLogEntry{ID: "m1", PropertyID: params.PropertyID, EntryType: params.EntryType, EntryDate: params.EntryDate}
	f.meters = append(f.meters, entry)
	return entry, nil
}

func newTestService(repo repository.Repository, bus events.Bus) *Service {
	return New(repo, bus, logger.New("development"))
}

func TestUpdateTaskAllowsCompletedToVerified(t *testing.T) {
	repo := &fakeRepo{tasks: []repository.Task{{ID: "t1", Status: repository.StatusCompleted}}}
	svc := newTestService(repo, events.NewInMemoryBus(logger.New("development")))

	status := repository.StatusVerified
	task, err := svc.UpdateTask(context.Background(), "t1", transport.UpdateTaskRequest{Status: &status})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.Status != repository.StatusVerified {
		t.Fatalf("status = %s, want verified", task.Status)
	}
}

func TestUpdateTaskRejectsOpenToVerified(t *testing.T) {
	repo := &fakeRepo{tasks: []repository.Task{{ID: "t1", Status: repository.StatusOpen}}}
	svc := newTestService(repo, events.NewInMemoryBus(logger.New("development")))

	status := repository.StatusVerified
	_, err := svc.UpdateTask(context.Background(), "t1", transport.UpdateTaskRequest{Status: &status})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateTaskRejectsLeavingArchived(t *testing.T) {
	repo := &fakeRepo{tasks: []repository.Task{{ID: "t1", Status: repository.StatusArchived}}}
	svc := newTestService(repo, events.NewInMemoryBus(logger.New("development")))

	status := repository.StatusOpen
	_, err := svc.UpdateTask(context.Background(), "t1", transport.UpdateTaskRequest{Status: &status})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateTaskRejectsTransferDescriptionEdit(t *testing.T) {
	repo := &fakeRepo{tasks: []repository.Task{{
		ID:          "t1",
		TaskType:    repository.TypeTransfer,
		Status:      repository.StatusOpen,
		Description: `{"transferExecuted":false}`,
	}}}
	svc := newTestService(repo, events.NewInMemoryBus(logger.New("development")))

	desc := "wiped"
	_, err := svc.UpdateTask(context.Background(), "t1", transport.UpdateTaskRequest{Description: &desc})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if repo.tasks[0].Description != `{"transferExecuted":false}` {
		t.Fatalf("transfer payload must not be overwritten, got %q", repo.tasks[0].Description)
	}

	// The transfer workflow path still rewrites the payload.
	if _, err := svc.UpdateTaskDescription(context.Background(), "t1", `{"transferExecuted":true}`); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.tasks[0].Description != `{"transferExecuted":true}` {
		t.Fatalf("expected workflow description update to apply")
	}
}

func TestUpdateTaskAllowsDescriptionEditOnNonTransferTask(t *testing.T) {
	repo := &fakeRepo{tasks: []repository.Task{{ID: "t1", TaskType: repository.TypeEinzug, Status: repository.StatusOpen}}}
	svc := newTestService(repo, events.NewInMemoryBus(logger.New("development")))

	desc := "bring spare keys"
	task, err := svc.UpdateTask(context.Background(), "t1", transport.UpdateTaskRequest{Description: &desc})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.Description != "bring spare keys" {
		t.Fatalf("description = %q, want updated", task.Description)
	}
}

func TestUpdateTaskPublishesEvent(t *testing.T) {
	repo := &fakeRepo{tasks: []repository.Task{{ID: "t1", Status: repository.StatusOpen}}}
	bus := events.NewInMemoryBus(logger.New("development"))

	received := make(chan events.TaskUpdated, 1)
	bus.Subscribe(events.TaskUpdated{}.EventName(), events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		received <- event.(events.TaskUpdated)
		return nil
	}))

	svc := newTestService(repo, bus)
	status := repository.StatusInProgress
	if _, err := svc.UpdateTask(context.Background(), "t1", transport.UpdateTaskRequest{Status: &status}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	event := <-received
	if event.TaskID != "t1" || event.Status != repository.StatusInProgress {
		t.Fatalf("unexpected event: %+v", event)
	}
}

func TestCreateMeterLogRejectsUnknownType(t *testing.T) {
	svc := newTestService(&fakeRepo{}, events.NewInMemoryBus(logger.New("development")))

	_, err := svc.CreateMeterLog(context.Background(), transport.CreateMeterLogRequest{
		PropertyID: "p1",
		EntryType:  "Final",
		EntryDate:  "2024-01-01",
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateMeterLogRejectsBadDate(t *testing.T) {
	svc := newTestService(&fakeRepo{}, events.NewInMemoryBus(logger.New("development")))

	_, err := svc.CreateMeterLog(context.Background(), transport.CreateMeterLogRequest{
		PropertyID: "p1",
		EntryType:  repository.MeterCheckIn,
		EntryDate:  "01.02.2024",
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
