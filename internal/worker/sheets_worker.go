// Package worker hosts the background consumers of domain events.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"debikan/internal/amqp"
	"debikan/internal/core"
	"debikan/internal/metrics"
	"debikan/internal/services"
	"debikan/internal/sheets"
	"debikan/internal/store"
)

// SheetsWorker mirrors months into a spreadsheet whenever one of their
// overrides is saved.
type SheetsWorker struct {
	store   store.RecordStore
	writer  sheets.MonthWriter
	metrics *metrics.Metrics
}

func NewSheetsWorker(st store.RecordStore, writer sheets.MonthWriter, m *metrics.Metrics) *SheetsWorker {
	return &SheetsWorker{store: st, writer: writer, metrics: m}
}

// Handle is an amqp.Handler dispatching on the routing key.
func (w *SheetsWorker) Handle(ctx context.Context, routingKey string, body []byte) error {
	switch routingKey {
	case amqp.RoutingOverrideSaved:
		msg, err := amqp.OverrideSavedMessageFromJSON(body)
		if err != nil {
			return fmt.Errorf("%w: %w", amqp.ErrMalformed, err)
		}
		return w.HandleOverrideSaved(ctx, msg)
	default:
		slog.WarnContext(ctx, "Ignoring message with unexpected routing key", "routing_key", routingKey)
		return nil
	}
}

// HandleOverrideSaved re-exports the month the saved override belongs to.
func (w *SheetsWorker) HandleOverrideSaved(ctx context.Context, msg *amqp.OverrideSavedMessage) error {
	slog.InfoContext(ctx, "Processing override saved message",
		"message_id", msg.ID,
		"override_id", msg.OverrideID,
		"item_id", msg.ItemID,
		"month", msg.Month)

	month, err := core.ParseMonth(msg.Month)
	if err != nil {
		return fmt.Errorf("%w: %w", amqp.ErrMalformed, err)
	}
	return w.ExportMonth(ctx, month)
}

// ExportMonth reads month from the store and writes it out.
func (w *SheetsWorker) ExportMonth(ctx context.Context, month core.Month) error {
	session := services.NewMonthSession(month, w.store, nil, nil, services.SessionOptions{Metrics: w.metrics})
	if err := session.Load(ctx); err != nil {
		w.metrics.SheetsExport(err)
		return fmt.Errorf("load month: %w", err)
	}

	ref, err := w.writer.WriteMonth(ctx, month, session.Rows(), session.Summary())
	w.metrics.SheetsExport(err)
	if err != nil {
		return fmt.Errorf("write month to sheets: %w", err)
	}

	slog.InfoContext(ctx, "Successfully exported month",
		"month", month.String(),
		"sheets_ref", ref)
	return nil
}

// StartupExport exports the current month so the sheet is fresh even if
// messages were missed while the worker was down.
func (w *SheetsWorker) StartupExport(ctx context.Context, now time.Time) error {
	month := core.MonthOf(now)
	if err := w.ExportMonth(ctx, month); err != nil {
		return fmt.Errorf("startup export of %s: %w", month, err)
	}
	return nil
}
