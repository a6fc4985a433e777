package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/rafaelortiz/tradeyard-backend/api/routes"
	"github.com/rafaelortiz/tradeyard-backend/internal/audit"
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

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

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

	gatewaySvc, err := gateway.NewService(
		dbClient,
		orders.NewRepository(dbClient.DB()),
		returns.NewRepository(dbClient.DB()),
		auditSvc,
		coordinator,
		outboxSvc,
		locks,
		metrics.NewTransitionMetrics(registry),
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create transition gateway", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.New(routes.Dependencies{
			Config:      cfg,
			Gateway:     gatewaySvc,
			DB:          dbClient,
			Redis:       redisClient,
			Idempotency: redisClient,
			Metrics:     registry,
			Logger:      logg,
		}),
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "api server shutting down gracefully")
}
