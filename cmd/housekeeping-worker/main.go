package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/threadline/threadline-backend/internal/housekeeping"
	"github.com/threadline/threadline-backend/internal/notifications"
	"github.com/threadline/threadline-backend/pkg/config"
	"github.com/threadline/threadline-backend/pkg/db"
	"github.com/threadline/threadline-backend/pkg/logger"
	"github.com/threadline/threadline-backend/pkg/metrics"
	"github.com/threadline/threadline-backend/pkg/redis"
)

const lockName = "housekeeping"

func main() {
	logg := logger.New(logger.Options{ServiceName: "housekeeping-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "housekeeping-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(context.Background(), "housekeeping worker stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, dbClient.Close())
	}()

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, redisClient.Close())
	}()

	registry := prometheus.NewRegistry()
	jobMetrics := metrics.NewJobMetrics(registry)
	store := notifications.NewRetentionStore(dbClient.DB())

	adminRetention, err := housekeeping.NewRetentionJob(housekeeping.RetentionJobParams{
		Name:          "admin-notification-retention",
		Logger:        logg,
		DB:            dbClient,
		Purge:         store.DeleteReadAdminBefore,
		RetentionDays: cfg.Housekeeping.AdminNotificationRetentionDays,
		Metrics:       jobMetrics,
	})
	if err != nil {
		return err
	}
	customerRetention, err := housekeeping.NewRetentionJob(housekeeping.RetentionJobParams{
		Name:          "customer-notification-retention",
		Logger:        logg,
		DB:            dbClient,
		Purge:         store.DeleteInactiveCustomerBefore,
		RetentionDays: cfg.Housekeeping.CustomerNotificationRetentionDays,
		Metrics:       jobMetrics,
	})
	if err != nil {
		return err
	}

	lock, err := housekeeping.NewRedisLock(redisClient, lockName, 0)
	if err != nil {
		return err
	}
	scheduler, err := housekeeping.NewScheduler(housekeeping.SchedulerParams{
		Logger:   logg,
		Registry: housekeeping.NewRegistry(adminRetention, customerRetention),
		Lock:     lock,
		Metrics:  jobMetrics,
		Interval: cfg.Housekeeping.Interval,
	})
	if err != nil {
		return err
	}

	metricsServer := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           metrics.Handler(registry),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "metrics server stopped", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err = multierr.Append(err, metricsServer.Shutdown(shutdownCtx))
	}()

	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"interval": cfg.Housekeeping.Interval.String(),
	})
	logg.Info(ctx, "starting housekeeping worker")

	err = scheduler.Run(ctx)
	if errors.Is(err, context.Canceled) {
		logg.Info(ctx, "housekeeping worker shutting down gracefully")
		return nil
	}
	return err
}
