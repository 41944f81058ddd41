package scheduler

import (
	"context"
	"fmt"

	"rentops_backend/internal/events"
	"rentops_backend/platform/config"
	"rentops_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// Worker processes queued reconciliation tasks by republishing the
// corresponding events synchronously, so a handler failure surfaces as a
// task failure and asynq retries it.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	bus    events.Bus
	log    *logger.Logger
}

// NewWorker creates the asynq worker from configuration.
func NewWorker(cfg *config.Config, bus events.Bus, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{server: server, mux: mux, bus: bus, log: log}

	mux.HandleFunc(TaskEnsureBookingTasks, w.handleEnsureBookingTasks)
	mux.HandleFunc(TaskTransferExecuteCheck, w.handleTransferExecuteCheck)

	return w, nil
}

// Run blocks processing tasks until Shutdown is called.
func (w *Worker) Run() error {
	return w.server.Run(w.mux)
}

// Shutdown stops the worker gracefully.
func (w *Worker) Shutdown() {
	w.server.Shutdown()
}

func (w *Worker) handleEnsureBookingTasks(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseEnsureBookingTasksPayload(task)
	if err != nil {
		return err
	}

	w.log.Info("running scheduled task reconciliation", "bookingId", payload.BookingID)
	return w.bus.PublishSync(ctx, events.EnsureTasksRequested{
		BaseEvent: events.NewBaseEvent(),
		BookingID: payload.BookingID,
	})
}

func (w *Worker) handleTransferExecuteCheck(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseTransferExecuteCheckPayload(task)
	if err != nil {
		return err
	}

	w.log.Info("running scheduled transfer execution check", "taskId", payload.TaskID)
	return w.bus.PublishSync(ctx, events.TransferExecutionRequested{
		BaseEvent: events.NewBaseEvent(),
		TaskID:    payload.TaskID,
	})
}
