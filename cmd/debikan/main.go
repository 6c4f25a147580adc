package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"debikan/internal/amqp"
	"debikan/internal/backend"
	"debikan/internal/cache"
	"debikan/internal/cli"
	"debikan/internal/core"
	apphttp "debikan/internal/http"
	applog "debikan/internal/log"
	"debikan/internal/metrics"
	"debikan/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger).CreateBackend(context.Background(), bcfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	m := metrics.New()

	// Messaging is optional: without a broker edits are still saved, only
	// the sheets export is not notified.
	var publisher services.EventPublisher
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, amqp.RoutingOverrideSaved)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without export events", "error", err)
		} else {
			publisher = amqpClient
			logger.Info("Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	store := res.Backend
	edits := services.NewEditReconciler(store, publisher, m)
	months := services.NewMonthService(store, edits, cfg.SessionCacheSize, cfg.SessionCacheTTL, services.SessionOptions{
		AmountDebounce: cfg.AmountDebounce,
		Metrics:        m,
		OnEditError: func(month core.Month, itemID int64, err error) {
			logger.Error("Debounced amount write failed",
				applog.FieldMonth, month.String(),
				applog.FieldItemID, itemID,
				applog.FieldError, err)
		},
	})
	items := services.NewItemService(store, months)

	cacheManager := cache.NewManager()
	cacheManager.Register(months.Sessions())
	cacheManager.StartCleanup(5 * time.Minute)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Options{
		Months:  months,
		Items:   items,
		Ready:   store.Ping,
		Metrics: m,
		Logger:  applog.New(applog.Config{Level: applog.ParseLevel(cfg.LogLevel), Format: cfg.LogFormat}),
	})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		// Typed amounts still waiting for their debounce are written now.
		logger.Info("Flushing pending writes", "pending", months.PendingWrites())
		months.Close()
		cacheManager.Stop()
		if amqpClient != nil {
			_ = amqpClient.Close()
		}
		if err := res.Close(); err != nil {
			logger.Error("Backend cleanup error", "error", err)
		}
	})

	logger.Info("Starting debikan server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"amqp_enabled", publisher != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
