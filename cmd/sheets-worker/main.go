package main

import (
	"context"
	"errors"
	"os"
	"time"

	"debikan/internal/amqp"
	"debikan/internal/backend"
	"debikan/internal/cli"
	applog "debikan/internal/log"
	"debikan/internal/metrics"
	"debikan/internal/sheets"
	gsheet "debikan/internal/sheets/google"
	memsheet "debikan/internal/sheets/memory"
	"debikan/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentSheets)
	logger.Info("Starting sheets-worker")
	cfg := cli.LoadAndValidateConfig(logger)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP URL is required for the sheets-worker")
		os.Exit(1)
	}

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger).CreateBackend(context.Background(), bcfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err)
		os.Exit(1)
	}
	defer res.Close()

	// Without a spreadsheet the worker runs dry: months are rendered and
	// kept in memory so the pipeline can be checked locally.
	var writer sheets.MonthWriter
	if err := cfg.ValidateSheetsExport(); err != nil {
		logger.Warn("Sheets export not configured, running dry", "error", err)
		writer = memsheet.New(cfg.GoogleSheetPrefix)
	} else {
		exporter, err := gsheet.NewFromEnv(context.Background(), cfg.GoogleSpreadsheetID, cfg.GoogleSheetPrefix)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		writer = exporter
		logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, amqp.RoutingOverrideSaved)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	sheetsWorker := worker.NewSheetsWorker(res.Backend, writer, metrics.New())

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	logger.Info("Performing startup export")
	if err := sheetsWorker.StartupExport(ctx, time.Now()); err != nil {
		logger.Error("Startup export failed", "error", err)
	}

	go func() {
		if err := client.ConsumeWithRetry(ctx, sheetsWorker.Handle); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption stopped", "error", err)
		}
	}()

	cli.WaitForShutdown(ctx, done)
	logger.Info("Sheets-worker shutdown complete")
}
