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
	"rentops_backend/internal/adapters/storage"
	"rentops_backend/internal/agreement"
	"rentops_backend/internal/booking"
	bookingservice "rentops_backend/internal/booking/service"
	"rentops_backend/internal/events"
	"rentops_backend/internal/facility"
	apphttp "rentops_backend/internal/http"
	"rentops_backend/internal/http/router"
	"rentops_backend/internal/notification"
	"rentops_backend/internal/paymentchain"
	"rentops_backend/internal/properties"
	propertiesrepo "rentops_backend/internal/properties/repository"
	"rentops_backend/internal/renttimeline"
	"rentops_backend/internal/scheduler"
	"rentops_backend/internal/transfer"
	"rentops_backend/internal/warehouse"
	"rentops_backend/platform/config"
	"rentops_backend/platform/db"
	"rentops_backend/platform/logger"
	"rentops_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ensureBucket wraps the retry logic for verifying a MinIO bucket exists.
func ensureBucket(ctx context.Context, log *logger.Logger, storageSvc storage.StorageService, name, bucket string) {
	if err := withRetry(ctx, log, "ensure "+name+" bucket", 5, 2*time.Second, func() error {
		return storageSvc.EnsureBucketExists(ctx, bucket)
	}); err != nil {
		log.Error("failed to ensure storage bucket exists", "error", err, "bucket", bucket)
		panic("failed to ensure storage bucket exists: " + err.Error())
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, "migrations")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

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
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	schedulerClient, closeScheduler := initScheduler(cfg, log)
	if closeScheduler != nil {
		defer closeScheduler()
	}

	// Shared validator instance for dependency injection
	val := validator.New()

	// Storage service for evidence files and agreement PDFs (MinIO)
	storageSvc, err := storage.NewMinIOService(cfg)
	if err != nil {
		log.Error("failed to initialize storage service", "error", err)
		panic("failed to initialize storage service: " + err.Error())
	}
	ensureBucket(ctx, log, storageSvc, "payment-evidence", cfg.GetMinioBucketPaymentEvidence())
	ensureBucket(ctx, log, storageSvc, "agreements", cfg.GetMinioBucketAgreements())
	log.Info("storage service initialized",
		"paymentEvidenceBucket", cfg.GetMinioBucketPaymentEvidence(),
		"agreementsBucket", cfg.GetMinioBucketAgreements(),
	)

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	renttimelineModule := renttimeline.NewModule(pool, val, log)
	rents := adapters.NewTimelineRents(renttimelineModule.Service())

	paymentchainModule := paymentchain.NewModule(pool, rents, storageSvc, cfg.GetMinioBucketPaymentEvidence(), val, log)

	warehouseModule := warehouse.NewModule(pool, val, log)
	stock := adapters.NewWarehouseStock(warehouseModule.Service())

	propertiesModule := properties.NewModule(pool, stock, eventBus, val, log)

	facilityModule := facility.NewModule(pool, eventBus, val, log)
	facilityTasks := adapters.NewFacilityTasks(facilityModule.Service())
	facilityMeters := adapters.NewFacilityMeters(facilityModule.Service())

	transferModule := transfer.NewModule(facilityTasks, stock, propertiesModule.Service(), eventBus, val, log)
	transferModule.RegisterHandlers(eventBus)
	if schedulerClient != nil {
		transferModule.Service().SetCheckScheduler(schedulerClient, cfg.ReconcileRetryDelay)
	}

	var retryScheduler bookingservice.RetryScheduler
	if schedulerClient != nil {
		retryScheduler = schedulerClient
	}
	bookingModule := booking.NewModule(pool, facilityTasks, facilityMeters, retryScheduler,
		cfg.ReconcileRetryDelay, cfg.TaskDebounceWindow, eventBus, val, log)
	bookingModule.RegisterHandlers(eventBus)

	propertyMaster := adapters.NewPropertyMaster(propertiesrepo.New(pool))
	agreementModule := agreement.NewModule(pool, propertyMaster, rents, storageSvc, cfg.GetMinioBucketAgreements(), log)
	agreementModule.RegisterHandlers(eventBus)

	// Notification listener subscribes to domain events (not HTTP-facing)
	var sender notification.Sender
	if cfg.EmailEnabled {
		sender = notification.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser,
			cfg.SMTPPassword, cfg.EmailFromAddress, "RentOps")
	} else {
		log.Warn("email disabled; booking confirmation mails will not be sent")
	}
	notification.NewListener(sender, log).RegisterHandlers(eventBus)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			propertiesModule,
			renttimelineModule,
			paymentchainModule,
			warehouseModule,
			facilityModule,
			transferModule,
			bookingModule,
			agreementModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = shutdownCtx
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func initScheduler(cfg *config.Config, log *logger.Logger) (*scheduler.Client, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; reconciliation retries disabled")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
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
