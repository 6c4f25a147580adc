package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"debikan/internal/core"
)

func day(d int) *int { return &d }

func TestMemoryStoreItems(t *testing.T) {
	ctx := context.Background()
	s := New()

	id, err := s.CreateItem(ctx, "  Card A ", "Bank X", day(27))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.CreateItem(ctx, "", "Bank X", nil); !errors.Is(err, core.ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}

	items, _ := s.ListItems(ctx)
	if len(items) != 1 || items[0].Name != "Card A" || *items[0].DefaultDay != 27 {
		t.Fatalf("unexpected items: %+v", items)
	}

	if _, err := s.UpdateItem(ctx, id, "Card A", "Bank Y", nil); err != nil {
		t.Fatalf("update: %v", err)
	}
	items, _ = s.ListItems(ctx)
	if items[0].Account != "Bank Y" || items[0].DefaultDay != nil {
		t.Fatalf("update not applied: %+v", items[0])
	}

	if _, err := s.UpdateItem(ctx, 99, "x", "y", nil); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreOverrides(t *testing.T) {
	ctx := context.Background()
	s := NewSeeded([]core.Item{{Name: "Card A", Account: "Bank X"}, {Name: "Rent", Account: "Bank Y"}})
	date := core.NewDate(2025, time.June, 27)

	if _, err := s.FindOverride(ctx, 1, date); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	id, err := s.InsertOverride(ctx, 1, date, 5000, false)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := s.UpdateOverride(ctx, id, 6000, true); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := s.FindOverride(ctx, 1, date)
	if err != nil || got.Amount != 6000 || !got.Paid {
		t.Fatalf("unexpected override %+v err=%v", got, err)
	}

	// Outside June.
	if _, err := s.InsertOverride(ctx, 2, core.NewDate(2025, time.July, 1), 100, false); err != nil {
		t.Fatalf("insert: %v", err)
	}
	start, end := core.MonthRange(2025, time.June)
	m, _ := s.ListOverridesInRange(ctx, start, end)
	if len(m) != 1 || m[1].ID != id {
		t.Fatalf("unexpected range result: %+v", m)
	}

	if _, err := s.InsertOverride(ctx, 42, date, 1, false); !errors.Is(err, core.ErrWriteFailure) {
		t.Fatalf("expected ErrWriteFailure for unknown item, got %v", err)
	}
}

func TestMemoryStoreLastInsertedWins(t *testing.T) {
	ctx := context.Background()
	s := NewSeeded([]core.Item{{Name: "Card A", Account: "Bank X"}})
	_, _ = s.InsertOverride(ctx, 1, core.NewDate(2025, 6, 10), 100, false)
	last, _ := s.InsertOverride(ctx, 1, core.NewDate(2025, 6, 20), 200, false)

	start, end := core.MonthRange(2025, time.June)
	m, _ := s.ListOverridesInRange(ctx, start, end)
	if m[1].ID != last {
		t.Fatalf("expected last inserted override %d, got %+v", last, m[1])
	}
}

func TestMemoryStoreDeleteCascades(t *testing.T) {
	ctx := context.Background()
	s := NewSeeded([]core.Item{{Name: "Card A", Account: "Bank X"}})
	_, _ = s.InsertOverride(ctx, 1, core.NewDate(2025, 6, 10), 100, false)

	if _, err := s.DeleteItem(ctx, 1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if n := s.OverrideCount(); n != 0 {
		t.Fatalf("expected overrides to cascade, %d left", n)
	}
}
