package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rentops_backend/internal/adapters"
	"rentops_backend/internal/booking"
	"rentops_backend/internal/events"
	"rentops_backend/internal/facility"
	"rentops_backend/internal/properties"
	"rentops_backend/internal/scheduler"
	"rentops_backend/internal/transfer"
	"rentops_backend/internal/warehouse"
	"rentops_backend/platform/config"
	"rentops_backend/platform/db"
	"rentops_backend/platform/logger"
	"rentops_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// The worker process republishes queued tasks as bus events, so the
// listening modules are wired here exactly as in the API process. The
// handlers are idempotent; running in both processes is safe.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler worker", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)
	val := validator.New()

	warehouseModule := warehouse.NewModule(pool, val, log)
	stock := adapters.NewWarehouseStock(warehouseModule.Service())
	propertiesModule := properties.NewModule(pool, stock, eventBus, val, log)
	facilityModule := facility.NewModule(pool, eventBus, val, log)
	facilityTasks := adapters.NewFacilityTasks(facilityModule.Service())
	facilityMeters := adapters.NewFacilityMeters(facilityModule.Service())

	transferModule := transfer.NewModule(facilityTasks, stock, propertiesModule.Service(), eventBus, val, log)
	transferModule.RegisterHandlers(eventBus)

	// No retry scheduler here: a failed reconciliation fails the asynq task
	// and asynq itself retries it.
	bookingModule := booking.NewModule(pool, facilityTasks, facilityMeters, nil,
		cfg.ReconcileRetryDelay, cfg.TaskDebounceWindow, eventBus, val, log)
	bookingModule.RegisterHandlers(eventBus)

	worker, err := scheduler.NewWorker(cfg, eventBus, log)
	if err != nil {
		log.Error("failed to initialize worker", "error", err)
		panic("failed to initialize worker: " + err.Error())
	}

	workerErr := make(chan error, 1)
	go func() {
		workerErr <- worker.Run()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, stopping worker")
		worker.Shutdown()
	case err := <-workerErr:
		if err != nil {
			log.Error("worker error", "error", err)
			panic("worker error: " + err.Error())
		}
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
