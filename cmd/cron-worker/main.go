package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/reelpass-backend/internal/bootstrap"
	"github.com/angelmondragon/reelpass-backend/internal/cron"
	"github.com/angelmondragon/reelpass-backend/pkg/config"
	"github.com/angelmondragon/reelpass-backend/pkg/db"
	"github.com/angelmondragon/reelpass-backend/pkg/logger"
	"github.com/angelmondragon/reelpass-backend/pkg/metrics"
	"github.com/angelmondragon/reelpass-backend/pkg/migrate"
	"github.com/angelmondragon/reelpass-backend/pkg/redis"
)

const (
	serviceKind      = "cron-worker"
	retentionCadence = 24 * time.Hour
	defaultLockScope = "local"
)

func main() {
	bootLog := logger.New(logger.Options{ServiceName: serviceKind})
	if err := godotenv.Load(); err != nil {
		bootLog.Warn(context.Background(), ".env file not found, relying on environment")
	}
	cfg, err := config.Load()
	if err != nil {
		bootLog.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	cfg.Service.Kind = serviceKind

	logg := logger.New(logger.Options{
		ServiceName: serviceKind,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
		Fields:      map[string]string{"env": cfg.App.Env},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		stop()
		os.Exit(1)
	}
	logg.Info(ctx, "cron worker shut down")
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) error {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer closeWith(logg, "database", dbClient.Close)

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return fmt.Errorf("dev migrations: %w", err)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	defer closeWith(logg, "redis", redisClient.Close)

	svc, err := bootstrap.Build(bootstrap.Params{
		Config:     cfg,
		Logger:     logg,
		DB:         dbClient,
		Redis:      redisClient,
		Registerer: prometheus.DefaultRegisterer,
	})
	if err != nil {
		return fmt.Errorf("services: %w", err)
	}

	registry, err := jobs(cfg, logg, svc)
	if err != nil {
		return err
	}

	scope := cfg.App.Env
	if scope == "" {
		scope = defaultLockScope
	}
	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(serviceKind+":"+scope), cron.LockTTL(cfg.Booking.SweepInterval))
	if err != nil {
		return fmt.Errorf("cron lock: %w", err)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Booking.SweepInterval,
	})
	if err != nil {
		return fmt.Errorf("cron service: %w", err)
	}

	ctx = logg.WithFields(ctx, map[string]any{
		"serviceKind": cfg.Service.Kind,
		"interval":    cfg.Booking.SweepInterval.String(),
		"jobs":        len(registry.Jobs()),
	})
	logg.Info(ctx, "starting cron worker")
	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// jobs builds the schedule: hold expiry on every tick, payout sync and
// outbox retention on their own cadence.
func jobs(cfg *config.Config, logg *logger.Logger, svc *bootstrap.Services) (*cron.Registry, error) {
	holdExpiry, err := cron.NewHoldExpiryJob(cron.HoldExpiryJobParams{
		Logger:    logg,
		Bookings:  svc.Bookings,
		Purchases: svc.Purchases,
	})
	if err != nil {
		return nil, fmt.Errorf("hold expiry job: %w", err)
	}
	payoutSync, err := cron.NewPayoutSyncJob(cron.PayoutSyncJobParams{
		Logger:  logg,
		Payouts: svc.Payouts,
	})
	if err != nil {
		return nil, fmt.Errorf("payout sync job: %w", err)
	}
	retention, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:     logg,
		Repository: svc.Outbox,
		Retention:  cfg.Outbox.Retention,
		BatchSize:  cfg.Outbox.BatchSize,
	})
	if err != nil {
		return nil, fmt.Errorf("outbox retention job: %w", err)
	}
	return cron.NewRegistry(
		holdExpiry,
		cron.Every(payoutSync, cfg.Payouts.SyncInterval),
		cron.Every(retention, retentionCadence),
	), nil
}

func closeWith(logg *logger.Logger, name string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logg.Error(context.Background(), "error closing "+name, err)
	}
}
