package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"debikan/internal/amqp"
	"debikan/internal/core"
	applog "debikan/internal/log"
	"debikan/internal/metrics"
	"debikan/internal/store"
)

// EventPublisher delivers domain events to the message broker.
type EventPublisher interface {
	Publish(ctx context.Context, msg amqp.Message) error
}

// EditReconciler persists a single edit of an item's monthly state as an
// upsert keyed by (item, date).
type EditReconciler struct {
	store     store.OverrideStore
	publisher EventPublisher
	metrics   *metrics.Metrics

	// Lookup and write must not interleave with another edit.
	mu sync.Mutex
}

// NewEditReconciler creates a reconciler. publisher and m may be nil.
func NewEditReconciler(st store.OverrideStore, publisher EventPublisher, m *metrics.Metrics) *EditReconciler {
	return &EditReconciler{store: st, publisher: publisher, metrics: m}
}

// ApplyEdit updates the override of itemID on date if one exists and
// inserts it otherwise. It returns the id of the record written. A changed
// due date is just an upsert at the new date; the record at the old date
// is left alone.
func (r *EditReconciler) ApplyEdit(ctx context.Context, itemID int64, date core.Date, amount int64, paid bool) (int64, error) {
	if err := date.Validate(); err != nil {
		return 0, err
	}
	if amount < 0 {
		return 0, core.ErrInvalidAmount
	}

	r.mu.Lock()
	id, op, err := r.upsert(ctx, itemID, date, amount, paid)
	r.mu.Unlock()

	r.metrics.OverrideWrite(op, err)
	sl := applog.NewStructuredLogger(applog.FromContext(ctx).WithComponent(applog.ComponentSession))
	month := core.MonthOf(date.Time).String()
	if err != nil {
		sl.LogError(ctx, "Override write failed", err, op,
			applog.NewFields().WithMonth(month).WithOverride(0, itemID, date.String(), amount, paid))
		return 0, err
	}
	sl.LogOverrideSaved(ctx, month, id, itemID, date.String(), amount, paid)

	if err := r.publishSaved(ctx, id, itemID, date, amount, paid); err != nil {
		slog.ErrorContext(ctx, "Failed to publish override saved event",
			"override_id", id, "error", err)
		// The write succeeded; the event is best effort.
	}
	return id, nil
}

func (r *EditReconciler) upsert(ctx context.Context, itemID int64, date core.Date, amount int64, paid bool) (int64, string, error) {
	existing, err := r.store.FindOverride(ctx, itemID, date)
	switch {
	case err == nil:
		id, err := r.store.UpdateOverride(ctx, existing.ID, amount, paid)
		if err != nil {
			return 0, "update", fmt.Errorf("update override: %w", err)
		}
		return id, "update", nil
	case errors.Is(err, core.ErrNotFound):
		id, err := r.store.InsertOverride(ctx, itemID, date, amount, paid)
		if err != nil {
			return 0, "insert", fmt.Errorf("insert override: %w", err)
		}
		return id, "insert", nil
	default:
		return 0, "find", fmt.Errorf("find override: %w", err)
	}
}

func (r *EditReconciler) publishSaved(ctx context.Context, id, itemID int64, date core.Date, amount int64, paid bool) error {
	if r.publisher == nil {
		slog.WarnContext(ctx, "Event publisher not configured, skipping override saved event")
		return nil
	}
	month := core.MonthOf(date.Time).String()
	return r.publisher.Publish(ctx, amqp.NewOverrideSavedMessage(id, itemID, month, date.String(), amount, paid))
}
