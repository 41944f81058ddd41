package scheduler

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"rentops_backend/platform/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	client, err := NewClient(&config.Config{
		RedisURL:       "redis://" + mr.Addr(),
		AsynqQueueName: "rentops",
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func TestScheduleEnsureTasksEnqueues(t *testing.T) {
	client, mr := newTestClient(t)

	if err := client.ScheduleEnsureTasks(context.Background(), "b-1", time.Minute); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: mr.Addr()})
	defer inspector.Close()

	tasks, err := inspector.ListScheduledTasks("rentops")
	if err != nil {
		t.Fatalf("list scheduled: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("expected one scheduled task, got %d", len(tasks))
	}
	if tasks[0].Type != TaskEnsureBookingTasks {
		t.Fatalf("expected %s, got %s", TaskEnsureBookingTasks, tasks[0].Type)
	}

	var payload EnsureBookingTasksPayload
	if err := json.Unmarshal(tasks[0].Payload, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.BookingID != "b-1" {
		t.Fatalf("expected booking b-1, got %q", payload.BookingID)
	}
}

func TestScheduleTransferCheckEnqueues(t *testing.T) {
	client, mr := newTestClient(t)

	if err := client.ScheduleTransferCheck(context.Background(), "task-9", 30*time.Second); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: mr.Addr()})
	defer inspector.Close()

	tasks, err := inspector.ListScheduledTasks("rentops")
	if err != nil {
		t.Fatalf("list scheduled: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Type != TaskTransferExecuteCheck {
		t.Fatalf("expected one %s task, got %+v", TaskTransferExecuteCheck, tasks)
	}
}

func TestNewClientRequiresRedisURL(t *testing.T) {
	if _, err := NewClient(&config.Config{}); err == nil {
		t.Fatal("expected an error without a redis url")
	}
}

func TestNilClientIsNoop(t *testing.T) {
	var client *Client
	if err := client.ScheduleEnsureTasks(context.Background(), "b-1", time.Minute); err != nil {
		t.Fatalf("nil client should be a no-op, got %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("nil client close should be a no-op, got %v", err)
	}
}
