package main

import (
	"context"
	"os"
	"time"

	"github.com/robfig/cron/v3"

	"debikan/internal/amqp"
	"debikan/internal/backend"
	"debikan/internal/cli"
	applog "debikan/internal/log"
	"debikan/internal/metrics"
	"debikan/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentReminder)
	logger.Info("Starting reminder-worker")
	cfg := cli.LoadAndValidateConfig(logger)

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	if bcfg.Type == backend.MemoryBackend {
		logger.Warn("Memory backend is private to this process, reminders will always be empty")
	}
	res, err := backend.NewFactory(logger).CreateBackend(context.Background(), bcfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err)
		os.Exit(1)
	}
	defer res.Close()

	// Without a broker reminders are only logged.
	var publisher services.EventPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPReminderQueue, amqp.RoutingPaymentReminder)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, reminders will only be logged", "error", err)
		} else {
			defer client.Close()
			publisher = client
		}
	}

	processor := services.NewReminderProcessor(res.Backend, publisher, cfg.ReminderLookaheadDays, metrics.New())

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	run := func() {
		count, err := processor.ProcessDueReminders(ctx, time.Now())
		if err != nil {
			logger.Error("Reminder run failed", "error", err)
			return
		}
		logger.Info("Reminder run complete", "reminders_sent", count)
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.ReminderSchedule, run); err != nil {
		logger.Error("Invalid reminder schedule", "schedule", cfg.ReminderSchedule, "error", err)
		os.Exit(1)
	}

	logger.Info("Running initial reminder check")
	run()

	scheduler.Start()
	logger.Info("Reminder schedule active",
		"schedule", cfg.ReminderSchedule,
		"lookahead_days", cfg.ReminderLookaheadDays,
		"amqp_enabled", publisher != nil)

	cli.WaitForShutdown(ctx, done)

	// Let a run in progress finish.
	<-scheduler.Stop().Done()
	logger.Info("Reminder-worker shutdown complete")
}
