// Package memory is an in-process RecordStore used for development and
// tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"debikan/internal/core"
)

type Store struct {
	mu        sync.Mutex
	items     map[int64]core.Item
	overrides map[int64]core.Override
	nextItem  int64
	nextOv    int64
}

func New() *Store {
	return &Store{
		items:     make(map[int64]core.Item),
		overrides: make(map[int64]core.Override),
	}
}

// NewSeeded returns a store pre-populated with the given items. IDs are
// assigned in order.
func NewSeeded(items []core.Item) *Store {
	s := New()
	for _, it := range items {
		_, _ = s.CreateItem(context.Background(), it.Name, it.Account, it.DefaultDay)
	}
	return s
}

func (s *Store) ListItems(_ context.Context) ([]core.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Item, 0, len(s.items))
	for _, it := range s.items {
		out = append(out, cloneItem(it))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) CreateItem(_ context.Context, name, account string, defaultDay *int) (int64, error) {
	it := core.Item{Name: strings.TrimSpace(name), Account: strings.TrimSpace(account), DefaultDay: copyDay(defaultDay)}
	if err := it.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextItem++
	it.ID = s.nextItem
	s.items[it.ID] = it
	return it.ID, nil
}

func (s *Store) UpdateItem(_ context.Context, id int64, name, account string, defaultDay *int) (int64, error) {
	it := core.Item{ID: id, Name: strings.TrimSpace(name), Account: strings.TrimSpace(account), DefaultDay: copyDay(defaultDay)}
	if err := it.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return 0, fmt.Errorf("%w: item %d", core.ErrNotFound, id)
	}
	s.items[id] = it
	return id, nil
}

func (s *Store) DeleteItem(_ context.Context, id int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return 0, fmt.Errorf("%w: item %d", core.ErrNotFound, id)
	}
	delete(s.items, id)
	for oid, ov := range s.overrides {
		if ov.ItemID == id {
			delete(s.overrides, oid)
		}
	}
	return id, nil
}

func (s *Store) ListOverridesInRange(_ context.Context, start, end core.Date) (map[int64]core.Override, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int64, 0, len(s.overrides))
	for id := range s.overrides {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make(map[int64]core.Override)
	for _, id := range ids {
		ov := s.overrides[id]
		if ov.Date.Before(start) || end.Before(ov.Date) {
			continue
		}
		out[ov.ItemID] = ov
	}
	return out, nil
}

func (s *Store) FindOverride(_ context.Context, itemID int64, date core.Date) (core.Override, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var (
		found core.Override
		ok    bool
	)
	for _, ov := range s.overrides {
		if ov.ItemID == itemID && ov.Date.Equal(date) && (!ok || ov.ID < found.ID) {
			found, ok = ov, true
		}
	}
	if !ok {
		return core.Override{}, fmt.Errorf("%w: override for item %d on %s", core.ErrNotFound, itemID, date)
	}
	return found, nil
}

func (s *Store) InsertOverride(_ context.Context, itemID int64, date core.Date, amount int64, paid bool) (int64, error) {
	ov := core.Override{ItemID: itemID, Date: date, Amount: amount, Paid: paid}
	if err := ov.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[itemID]; !ok {
		return 0, fmt.Errorf("%w: item %d does not exist", core.ErrWriteFailure, itemID)
	}
	s.nextOv++
	ov.ID = s.nextOv
	s.overrides[ov.ID] = ov
	return ov.ID, nil
}

func (s *Store) UpdateOverride(_ context.Context, id int64, amount int64, paid bool) (int64, error) {
	if amount < 0 {
		return 0, core.ErrInvalidAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ov, ok := s.overrides[id]
	if !ok {
		return 0, fmt.Errorf("%w: override %d", core.ErrNotFound, id)
	}
	ov.Amount = amount
	ov.Paid = paid
	s.overrides[id] = ov
	return id, nil
}

// Ping always succeeds; the store lives in process.
func (s *Store) Ping(_ context.Context) error {
	return nil
}

// OverrideCount reports how many override records exist.
func (s *Store) OverrideCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.overrides)
}

func copyDay(d *int) *int {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}

func cloneItem(it core.Item) core.Item {
	it.DefaultDay = copyDay(it.DefaultDay)
	return it
}
