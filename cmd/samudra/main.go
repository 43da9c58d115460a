package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/samudra-erp/samudra-erp/internal/agents"
	"github.com/samudra-erp/samudra-erp/internal/app"
	"github.com/samudra-erp/samudra-erp/internal/archive"
	"github.com/samudra-erp/samudra-erp/internal/bookings"
	"github.com/samudra-erp/samudra-erp/internal/commissions"
	"github.com/samudra-erp/samudra-erp/internal/observability"
	"github.com/samudra-erp/samudra-erp/internal/payments"
	"github.com/samudra-erp/samudra-erp/internal/platform/cache"
	"github.com/samudra-erp/samudra-erp/internal/platform/db"
	"github.com/samudra-erp/samudra-erp/internal/schedules"
	"github.com/samudra-erp/samudra-erp/internal/shared"
	"github.com/samudra-erp/samudra-erp/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.Connect(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.Connect(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "samudra_session", cfg.SessionTTL)
	auditLogger := shared.NewAuditLogger(pool)
	idempotencyStore := shared.NewIdempotencyStore(pool)
	metrics := observability.NewMetrics()

	jobsClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()
	notifier := jobs.NewNotifier(jobsClient)

	scheduleRepo := schedules.NewRepository(pool)
	availabilityCache := schedules.NewAvailabilityCache(redisClient, cfg.AvailabilityCacheTTL)
	scheduleService := schedules.NewService(scheduleRepo, auditLogger, availabilityCache, logger)
	scheduleHandler := schedules.NewHandler(logger, scheduleService)

	bookingRepo := bookings.NewRepository(pool)
	bookingService := bookings.NewService(bookingRepo, scheduleService, auditLogger, notifier, idempotencyStore, metrics, logger)
	bookingHandler := bookings.NewHandler(logger, bookingService)

	paymentRepo := payments.NewRepository(pool)
	paymentService := payments.NewService(paymentRepo, auditLogger, logger)
	paymentHandler := payments.NewHandler(logger, paymentService)

	agentRepo := agents.NewRepository(pool)
	agentService := agents.NewService(agentRepo)
	agentHandler := agents.NewHandler(logger, agentService)

	commissionRepo := commissions.NewRepository(pool)
	commissionService := commissions.NewService(commissionRepo, agentRepo, auditLogger, cfg.DefaultCommissionRate, logger)
	commissionHandler := commissions.NewHandler(logger, commissionService)

	registry := archive.NewRegistry()
	registry.Register("schedule", scheduleRepo)
	registry.Register("agent", agentRepo)
	archiveHandler := archive.NewHandler(logger, registry)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		SessionManager:    sessionManager,
		Metrics:           metrics,
		ScheduleHandler:   scheduleHandler,
		BookingHandler:    bookingHandler,
		PaymentHandler:    paymentHandler,
		CommissionHandler: commissionHandler,
		AgentHandler:      agentHandler,
		ArchiveHandler:    archiveHandler,
		JobHandler:        jobHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
