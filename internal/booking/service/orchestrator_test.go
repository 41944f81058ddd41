package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"rentops_backend/internal/booking/repository"
	"rentops_backend/platform/apperr"
	"rentops_backend/platform/logger"
)

// fakeBookingRepo embeds the interface so only the methods the orchestrator
// touches need implementations.
type fakeBookingRepo struct {
	repository.Repository
	bookings []repository.ConfirmedBooking
}

func (f *fakeBookingRepo) GetBooking(ctx context.Context, id string) (repository.ConfirmedBooking, error) {
	for _, b := range f.bookings {
		if b.ID == id {
			return b, nil
		}
	}
	return repository.ConfirmedBooking{}, apperr.NotFound("booking not found")
}

func (f *fakeBookingRepo) ListBookings(ctx context.Context) ([]repository.ConfirmedBooking, error) {
	return f.bookings, nil
}

type fakeTaskPort struct {
	mu     sync.Mutex
	tasks  []BookingTask
	nextID int
	fail   map[string]bool
}

func (f *fakeTaskPort) TasksWithBooking(ctx context.Context) ([]BookingTask, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]BookingTask, len(f.tasks))
	copy(out, f.tasks)
	return out, nil
}

func (f *fakeTaskPort) CreateBookingTask(ctx context.Context, taskType, propertyID, bookingID, title, dueDate string) (BookingTask, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[taskType] {
		return BookingTask{}, fmt.Errorf("create %s failed", taskType)
	}
	f.nextID++
	task := BookingTask{ID: fmt.Sprintf("task-%d", f.nextID), TaskType: taskType, BookingID: bookingID}
	f.tasks = append(f.tasks, task)
	return task, nil
}

func (f *fakeTaskPort) count(taskType string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, t := range f.tasks {
		if t.TaskType == taskType {
			n++
		}
	}
	return n
}

type fakeMeterPort struct {
	mu    sync.Mutex
	stubs map[string]int
	fail  bool
}

func (f *fakeMeterPort) EnsureStub(ctx context.Context, propertyID, bookingID, entryType, entryDate string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return fmt.Errorf("meter store down")
	}
	if f.stubs == nil {
		f.stubs = make(map[string]int)
	}
	f.stubs[bookingID+"/"+entryType]++
	return nil
}

func testBooking() repository.ConfirmedBooking {
	return repository.ConfirmedBooking{
		ID:         "b-1",
		ProformaID: "pf-1",
		PropertyID: "prop-1",
		StartDate:  "2026-09-01",
		EndDate:    "2027-08-31",
	}
}

func newTestOrchestrator(repo repository.Repository, tasks TaskPort, meters MeterPort) *Orchestrator {
	return NewOrchestrator(repo, tasks, meters, 0, logger.New("development"))
}

func TestEnsureFacilityTasksCreatesBothOnce(t *testing.T) {
	repo := &fakeBookingRepo{bookings: []repository.ConfirmedBooking{testBooking()}}
	tasks := &fakeTaskPort{}
	meters := &fakeMeterPort{}
	orch := newTestOrchestrator(repo, tasks, meters)

	for i := 0; i < 5; i++ {
		if _, err := orch.EnsureFacilityTasks(context.Background(), "b-1"); err != nil {
			t.Fatalf("run %d: unexpected error: %v", i, err)
		}
	}

	if got := tasks.count("Einzug"); got != 1 {
		t.Fatalf("expected exactly one move-in task, got %d", got)
	}
	if got := tasks.count("Auszug"); got != 1 {
		t.Fatalf("expected exactly one move-out task, got %d", got)
	}
	if meters.stubs["b-1/Check-In"] == 0 || meters.stubs["b-1/Check-Out"] == 0 {
		t.Fatalf("expected check-in and check-out meter stubs, got %v", meters.stubs)
	}
}

func TestEnsureFacilityTasksConcurrent(t *testing.T) {
	repo := &fakeBookingRepo{bookings: []repository.ConfirmedBooking{testBooking()}}
	tasks := &fakeTaskPort{}
	orch := newTestOrchestrator(repo, tasks, &fakeMeterPort{})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			orch.EnsureFacilityTasks(context.Background(), "b-1")
		}()
	}
	wg.Wait()

	// Concurrent calls may be skipped by the in-flight guard, so converge
	// with one final run before asserting.
	if _, err := orch.EnsureFacilityTasks(context.Background(), "b-1"); err != nil {
		t.Fatalf("final run: unexpected error: %v", err)
	}

	if got := tasks.count("Einzug"); got != 1 {
		t.Fatalf("expected exactly one move-in task after concurrent runs, got %d", got)
	}
	if got := tasks.count("Auszug"); got != 1 {
		t.Fatalf("expected exactly one move-out task after concurrent runs, got %d", got)
	}
}

func TestEnsureFacilityTasksMatchesNormalizedIDs(t *testing.T) {
	booking := testBooking()
	booking.ID = "42"
	repo := &fakeBookingRepo{bookings: []repository.ConfirmedBooking{booking}}
	tasks := &fakeTaskPort{tasks: []BookingTask{
		{ID: "legacy-1", TaskType: "Einzug", BookingID: " 42 "},
	}}
	orch := newTestOrchestrator(repo, tasks, &fakeMeterPort{})

	ensured, err := orch.EnsureFacilityTasks(context.Background(), "42")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := tasks.count("Einzug"); got != 1 {
		t.Fatalf("expected the legacy move-in task to be recognized, got %d tasks", got)
	}
	if got := tasks.count("Auszug"); got != 1 {
		t.Fatalf("expected a new move-out task, got %d", got)
	}
	if len(ensured) != 2 {
		t.Fatalf("expected two ensured tasks, got %d", len(ensured))
	}
}

func TestEnsureFacilityTasksResolvesBookingByNormalizedID(t *testing.T) {
	booking := testBooking()
	booking.ID = "42"
	repo := &fakeBookingRepo{bookings: []repository.ConfirmedBooking{booking}}
	tasks := &fakeTaskPort{}
	orch := newTestOrchestrator(repo, tasks, &fakeMeterPort{})

	// The stored id is "42"; the caller sends a padded representation that
	// only matches after normalization.
	if _, err := orch.EnsureFacilityTasks(context.Background(), " 42 "); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := tasks.count("Einzug"); got != 1 {
		t.Fatalf("expected one move-in task, got %d", got)
	}
}

func TestEnsureFacilityTasksUnknownBooking(t *testing.T) {
	repo := &fakeBookingRepo{}
	orch := newTestOrchestrator(repo, &fakeTaskPort{}, &fakeMeterPort{})

	_, err := orch.EnsureFacilityTasks(context.Background(), "missing")
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestEnsureFacilityTasksPartialFailureFillsGapLater(t *testing.T) {
	repo := &fakeBookingRepo{bookings: []repository.ConfirmedBooking{testBooking()}}
	tasks := &fakeTaskPort{fail: map[string]bool{"Auszug": true}}
	orch := newTestOrchestrator(repo, tasks, &fakeMeterPort{})

	_, err := orch.EnsureFacilityTasks(context.Background(), "b-1")
	if err == nil {
		t.Fatal("expected an error from the failing move-out creation")
	}
	if !strings.Contains(err.Error(), "Auszug") {
		t.Fatalf("expected the move-out failure to surface, got %v", err)
	}
	if got := tasks.count("Einzug"); got != 1 {
		t.Fatalf("move-in creation should not be blocked, got %d", got)
	}

	tasks.fail = nil
	if _, err := orch.EnsureFacilityTasks(context.Background(), "b-1"); err != nil {
		t.Fatalf("retry: unexpected error: %v", err)
	}
	if got := tasks.count("Auszug"); got != 1 {
		t.Fatalf("expected the retry to fill the missing move-out task, got %d", got)
	}
	if got := tasks.count("Einzug"); got != 1 {
		t.Fatalf("retry must not duplicate the move-in task, got %d", got)
	}
}

func TestEnsureFacilityTasksMeterFailureDoesNotBlockTasks(t *testing.T) {
	repo := &fakeBookingRepo{bookings: []repository.ConfirmedBooking{testBooking()}}
	tasks := &fakeTaskPort{}
	meters := &fakeMeterPort{fail: true}
	orch := newTestOrchestrator(repo, tasks, meters)

	_, err := orch.EnsureFacilityTasks(context.Background(), "b-1")
	if err == nil {
		t.Fatal("expected the meter failure to surface")
	}
	if tasks.count("Einzug") != 1 || tasks.count("Auszug") != 1 {
		t.Fatalf("tasks should be created despite meter failure, got %v", tasks.tasks)
	}
}
