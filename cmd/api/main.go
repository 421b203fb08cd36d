package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/reelpass-backend/api/routes"
	"github.com/angelmondragon/reelpass-backend/internal/bootstrap"
	"github.com/angelmondragon/reelpass-backend/pkg/config"
	"github.com/angelmondragon/reelpass-backend/pkg/db"
	"github.com/angelmondragon/reelpass-backend/pkg/instance"
	"github.com/angelmondragon/reelpass-backend/pkg/logger"
	"github.com/angelmondragon/reelpass-backend/pkg/migrate"
	"github.com/angelmondragon/reelpass-backend/pkg/redis"
)

const (
	serviceKind       = "api"
	readHeaderTimeout = 10 * time.Second
	drainTimeout      = 20 * time.Second
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
		Fields: map[string]string{
			"env":      cfg.App.Env,
			"instance": instance.GetID("local"),
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		stop()
		os.Exit(1)
	}
	logg.Info(ctx, "api server shut down")
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) error {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()
	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return fmt.Errorf("dev migrations: %w", err)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

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

	handler := routes.NewRouter(cfg, logg, dbClient, redisClient, prometheus.DefaultGatherer, routes.Services{
		Catalog:     svc.Catalog,
		Seats:       svc.Inventory,
		Bookings:    svc.Bookings,
		Payments:    svc.Payments,
		Recorder:    svc.Payments,
		Webhooks:    svc.Payments,
		Purchases:   svc.Purchases,
		Vendors:     svc.Vendors,
		Earnings:    svc.Earnings,
		Payouts:     svc.Payouts,
		Tickets:     svc.Tickets,
		DeadLetters: svc.DeadLetters,
	})

	// PORT is injected by the hosting platform and wins over config.
	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	served := make(chan error, 1)
	go func() {
		served <- server.ListenAndServe()
	}()
	logg.Info(logg.WithField(ctx, "addr", server.Addr), "api server listening")

	select {
	case err := <-served:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	logg.Info(drainCtx, "draining in-flight requests")
	if err := server.Shutdown(drainCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
