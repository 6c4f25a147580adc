package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"debikan/internal/core"
	"debikan/internal/metrics"
	"debikan/internal/store"
)

// DefaultAmountDebounce is how long amount typing must pause before the
// amount is written.
const DefaultAmountDebounce = time.Second

// EditErrorFunc receives failures of writes that happen after the editing
// call returned (debounced amount writes).
type EditErrorFunc func(month core.Month, itemID int64, err error)

// SessionOptions configures a MonthSession.
type SessionOptions struct {
	AmountDebounce time.Duration
	OnEditError    EditErrorFunc
	Metrics        *metrics.Metrics
}

// MonthSession holds the reconciled view of one month and applies edits
// to it. It replaces the view wholesale on Load and patches single rows
// after writes.
type MonthSession struct {
	month     core.Month
	store     store.RecordStore
	edits     *EditReconciler
	debouncer *Debouncer
	opts      SessionOptions

	mu        sync.Mutex
	loaded    bool
	items     []core.Item
	overrides map[int64]core.Override
	rows      []core.MonthlyViewRow
}

func NewMonthSession(month core.Month, st store.RecordStore, edits *EditReconciler, debouncer *Debouncer, opts SessionOptions) *MonthSession {
	if opts.AmountDebounce <= 0 {
		opts.AmountDebounce = DefaultAmountDebounce
	}
	return &MonthSession{
		month:     month,
		store:     st,
		edits:     edits,
		debouncer: debouncer,
		opts:      opts,
		overrides: make(map[int64]core.Override),
	}
}

func (s *MonthSession) Month() core.Month { return s.month }

// Load fetches the catalog and the month's overrides concurrently and
// rebuilds the view. On failure the previous view is kept.
func (s *MonthSession) Load(ctx context.Context) error {
	start, end := s.month.Range()

	var (
		items     []core.Item
		overrides map[int64]core.Override
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = s.store.ListItems(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		overrides, err = s.store.ListOverridesInRange(gctx, start, end)
		return err
	})
	err := g.Wait()
	s.opts.Metrics.SessionLoad(err)
	if err != nil {
		slog.ErrorContext(ctx, "Month load failed", "month", s.month.String(), "error", err)
		return fmt.Errorf("load %s: %w", s.month, err)
	}

	rows := core.Reconcile(items, overrides, s.month.Year, s.month.Month)

	s.mu.Lock()
	cleared := countUnsynced(s.rows)
	s.items = items
	s.overrides = overrides
	s.rows = rows
	s.loaded = true
	s.mu.Unlock()

	s.opts.Metrics.AddUnsynced(-cleared)
	slog.DebugContext(ctx, "Month loaded",
		"month", s.month.String(),
		"items", len(items),
		"overrides", len(overrides))
	return nil
}

// Loaded reports whether Load has succeeded at least once.
func (s *MonthSession) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// Rows returns a copy of the current view.
func (s *MonthSession) Rows() []core.MonthlyViewRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.MonthlyViewRow(nil), s.rows...)
}

// Summary derives the unpaid summary from the current view.
func (s *MonthSession) Summary() core.Summary {
	return core.Summarize(s.Rows())
}

// Row returns the current row of itemID.
func (s *MonthSession) Row(itemID int64) (core.MonthlyViewRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(itemID)
	if i < 0 {
		return core.MonthlyViewRow{}, fmt.Errorf("%w: item %d in %s", core.ErrNotFound, itemID, s.month)
	}
	return s.rows[i], nil
}

// SetAmount shows text as the row's amount right away and writes it once
// typing pauses. A later call for the same row replaces the pending write.
func (s *MonthSession) SetAmount(ctx context.Context, itemID int64, text string) (core.MonthlyViewRow, error) {
	s.mu.Lock()
	i := s.indexOf(itemID)
	if i < 0 {
		s.mu.Unlock()
		return core.MonthlyViewRow{}, fmt.Errorf("%w: item %d in %s", core.ErrNotFound, itemID, s.month)
	}
	s.rows[i].Amount = text
	row := s.rows[i]
	s.mu.Unlock()

	bg := context.WithoutCancel(ctx)
	s.debouncer.Schedule(s.amountKey(itemID), s.opts.AmountDebounce, func() {
		err := s.persistAmount(bg, itemID)
		s.opts.Metrics.DebouncedWrite(err)
		if err != nil && s.opts.OnEditError != nil {
			s.opts.OnEditError(s.month, itemID, err)
		}
	})
	return row, nil
}

// CancelPendingAmount drops an amount write that has not fired yet.
func (s *MonthSession) CancelPendingAmount(itemID int64) bool {
	return s.debouncer.Cancel(s.amountKey(itemID))
}

func (s *MonthSession) persistAmount(ctx context.Context, itemID int64) error {
	row, err := s.Row(itemID)
	if err != nil {
		// The item vanished after a reload; nothing to write.
		slog.WarnContext(ctx, "Dropping amount write for missing row", "item_id", itemID, "month", s.month.String())
		return nil
	}
	_, err = s.write(ctx, row, row.Date, core.ParseAmount(row.Amount), row.Paid)
	return err
}

// SetPaid writes the paid flag immediately.
func (s *MonthSession) SetPaid(ctx context.Context, itemID int64, paid bool) (core.MonthlyViewRow, error) {
	row, err := s.Row(itemID)
	if err != nil {
		return core.MonthlyViewRow{}, err
	}
	return s.write(ctx, row, row.Date, core.ParseAmount(row.Amount), paid)
}

// SetDate moves the row's due date and writes it immediately. The new date
// gets its own record; the record at the old date stays in the store.
func (s *MonthSession) SetDate(ctx context.Context, itemID int64, date core.Date) (core.MonthlyViewRow, error) {
	if err := date.Validate(); err != nil {
		return core.MonthlyViewRow{}, err
	}
	row, err := s.Row(itemID)
	if err != nil {
		return core.MonthlyViewRow{}, err
	}
	return s.write(ctx, row, date, core.ParseAmount(row.Amount), row.Paid)
}

// write persists the state and patches the row. On failure the row keeps
// the edited values and is flagged unsynced until the next Load.
func (s *MonthSession) write(ctx context.Context, row core.MonthlyViewRow, date core.Date, amount int64, paid bool) (core.MonthlyViewRow, error) {
	id, err := s.edits.ApplyEdit(ctx, row.ItemID, date, amount, paid)

	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(row.ItemID)
	if i < 0 {
		if err != nil {
			return core.MonthlyViewRow{}, err
		}
		return core.MonthlyViewRow{}, fmt.Errorf("%w: item %d in %s", core.ErrNotFound, row.ItemID, s.month)
	}

	r := &s.rows[i]
	wasUnsynced := r.Unsynced
	r.Paid = paid
	r.Date = date
	if err != nil {
		r.Unsynced = true
		if !wasUnsynced {
			s.opts.Metrics.AddUnsynced(1)
		}
		patched := *r
		core.SortRows(s.rows)
		return patched, err
	}

	r.OverrideID = id
	r.Unsynced = false
	if wasUnsynced {
		s.opts.Metrics.AddUnsynced(-1)
	}
	s.overrides[row.ItemID] = core.Override{ID: id, ItemID: row.ItemID, Date: date, Amount: amount, Paid: paid}
	patched := *r
	core.SortRows(s.rows)
	return patched, nil
}

// Unsynced returns how many rows carry a failed write.
func (s *MonthSession) Unsynced() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return countUnsynced(s.rows)
}

func (s *MonthSession) amountKey(itemID int64) string {
	return fmt.Sprintf("%s:amount:%d", s.month, itemID)
}

func (s *MonthSession) indexOf(itemID int64) int {
	for i := range s.rows {
		if s.rows[i].ItemID == itemID {
			return i
		}
	}
	return -1
}

func countUnsynced(rows []core.MonthlyViewRow) int {
	n := 0
	for _, r := range rows {
		if r.Unsynced {
			n++
		}
	}
	return n
}
