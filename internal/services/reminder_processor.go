package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"debikan/internal/amqp"
	"debikan/internal/core"
	"debikan/internal/metrics"
	"debikan/internal/store"
)

// ReminderProcessor announces accounts whose pay deadline is near.
type ReminderProcessor struct {
	store     store.RecordStore
	publisher EventPublisher
	lookahead int
	metrics   *metrics.Metrics
}

// NewReminderProcessor creates a processor that reminds about deadlines
// falling within lookaheadDays from the processing date (inclusive).
// publisher may be nil, reminders are then only logged.
func NewReminderProcessor(st store.RecordStore, publisher EventPublisher, lookaheadDays int, m *metrics.Metrics) *ReminderProcessor {
	if lookaheadDays < 0 {
		lookaheadDays = 0
	}
	return &ReminderProcessor{store: st, publisher: publisher, lookahead: lookaheadDays, metrics: m}
}

// Reminder is one account that needs money on it soon.
type Reminder struct {
	Month   core.Month
	Summary core.AccountSummary
}

// DueReminders summarises every month touched by the lookahead window and
// returns the accounts whose deadline falls inside it.
func (p *ReminderProcessor) DueReminders(ctx context.Context, now time.Time) ([]Reminder, error) {
	if p.store == nil {
		return nil, fmt.Errorf("processor not properly initialized")
	}

	from := core.DateOf(now)
	until := core.DateOf(now.AddDate(0, 0, p.lookahead))

	var out []Reminder
	for m := core.MonthOf(from.Time); !core.NewDate(m.Year, m.Month, 1).After(until.Time); m = m.Next() {
		session := NewMonthSession(m, p.store, nil, nil, SessionOptions{Metrics: p.metrics})
		if err := session.Load(ctx); err != nil {
			return nil, err
		}
		for _, acc := range session.Summary() {
			if acc.PayDeadline.Before(from) || until.Before(acc.PayDeadline) {
				continue
			}
			out = append(out, Reminder{Month: m, Summary: acc})
		}
	}
	return out, nil
}

// ProcessDueReminders sends a reminder per due account and returns how many
// were sent.
func (p *ReminderProcessor) ProcessDueReminders(ctx context.Context, now time.Time) (int, error) {
	reminders, err := p.DueReminders(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("collect due reminders: %w", err)
	}

	slog.InfoContext(ctx, "Processing payment reminders",
		"due_accounts", len(reminders),
		"processing_date", core.DateOf(now).String(),
		"lookahead_days", p.lookahead)

	sent := 0
	for _, r := range reminders {
		acc := r.Summary
		slog.InfoContext(ctx, acc.DeadlineLine(),
			"account", acc.Account,
			"month", r.Month.String(),
			"pay_deadline", acc.PayDeadline.String(),
			"amount_yen", acc.Total)

		if p.publisher == nil {
			slog.WarnContext(ctx, "Event publisher not available, reminder only logged", "account", acc.Account)
			continue
		}

		msg := amqp.NewReminderMessage(r.Month.String(), acc.Account, acc.PayDeadline.String(), acc.Total, acc.Lines())
		if err := p.publisher.Publish(ctx, msg); err != nil {
			slog.ErrorContext(ctx, "Failed to publish reminder",
				"account", acc.Account,
				"error", err)
			continue
		}
		p.metrics.ReminderSent()
		sent++
	}

	slog.InfoContext(ctx, "Payment reminder processing complete",
		"sent", sent,
		"total_due", len(reminders))
	return sent, nil
}
