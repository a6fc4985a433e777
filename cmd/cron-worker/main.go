package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rafaelortiz/tradeyard-backend/internal/audit"
	"github.com/rafaelortiz/tradeyard-backend/internal/cron"
	"github.com/rafaelortiz/tradeyard-backend/internal/gateway"
	"github.com/rafaelortiz/tradeyard-backend/internal/orders"
	"github.com/rafaelortiz/tradeyard-backend/internal/payments"
	"github.com/rafaelortiz/tradeyard-backend/internal/returns"
	"github.com/rafaelortiz/tradeyard-backend/pkg/config"
	"github.com/rafaelortiz/tradeyard-backend/pkg/db"
	"github.com/rafaelortiz/tradeyard-backend/pkg/lock"
	"github.com/rafaelortiz/tradeyard-backend/pkg/logger"
	"github.com/rafaelortiz/tradeyard-backend/pkg/metrics"
	"github.com/rafaelortiz/tradeyard-backend/pkg/migrate"
	"github.com/rafaelortiz/tradeyard-backend/pkg/outbox"
	"github.com/rafaelortiz/tradeyard-backend/pkg/redis"
)

const lockKeyFormat = "ty:cron-worker:lock:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	locks, err := lock.NewManager(redisClient, cfg.Lock)
	if err != nil {
		logg.Error(context.Background(), "failed to create lock manager", err)
		os.Exit(1)
	}

	auditSvc, err := audit.NewService(audit.NewRepository(dbClient.DB()), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create audit service", err)
		os.Exit(1)
	}

	outboxSvc := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	coordinator, err := payments.NewCoordinator(auditSvc, outboxSvc, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment coordinator", err)
		os.Exit(1)
	}

	ordersRepo := orders.NewRepository(dbClient.DB())

	gatewaySvc, err := gateway.NewService(
		dbClient,
		ordersRepo,
		returns.NewRepository(dbClient.DB()),
		auditSvc,
		coordinator,
		outboxSvc,
		locks,
		metrics.NewTransitionMetrics(prometheus.DefaultRegisterer),
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create transition gateway", err)
		os.Exit(1)
	}

	sweepJob, err := cron.NewCompletionSweepJob(gatewaySvc, ordersRepo, cfg.Completion, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create completion sweep job", err)
		os.Exit(1)
	}

	jobLock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), cfg.Cron.JobLockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(sweepJob),
		Lock:     jobLock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.CompletionSweepInterval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
