package services

import (
	"context"
	"fmt"
	"log/slog"

	"debikan/internal/core"
	"debikan/internal/store"
)

// CatalogListener is told before the catalog is deleted from (Flush) and
// after any catalog change (Refresh).
type CatalogListener interface {
	Flush()
	Refresh(ctx context.Context)
}

// ItemService manages the item catalog.
type ItemService struct {
	store    store.ItemStore
	listener CatalogListener
}

// NewItemService creates the service. listener may be nil.
func NewItemService(st store.ItemStore, listener CatalogListener) *ItemService {
	return &ItemService{store: st, listener: listener}
}

func (s *ItemService) List(ctx context.Context) ([]core.Item, error) {
	items, err := s.store.ListItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

// Create adds an item. A default day of 0 means "none".
func (s *ItemService) Create(ctx context.Context, name, account string, defaultDay *int) (core.Item, error) {
	defaultDay = normalizeDay(defaultDay)
	id, err := s.store.CreateItem(ctx, name, account, defaultDay)
	if err != nil {
		return core.Item{}, fmt.Errorf("create item: %w", err)
	}
	s.changed(ctx)
	return s.find(ctx, id)
}

func (s *ItemService) Update(ctx context.Context, id int64, name, account string, defaultDay *int) (core.Item, error) {
	defaultDay = normalizeDay(defaultDay)
	if _, err := s.store.UpdateItem(ctx, id, name, account, defaultDay); err != nil {
		return core.Item{}, fmt.Errorf("update item: %w", err)
	}
	s.changed(ctx)
	return s.find(ctx, id)
}

// Delete removes an item together with all its monthly overrides.
func (s *ItemService) Delete(ctx context.Context, id int64) error {
	// Pending amount writes for the item must land before it disappears.
	if s.listener != nil {
		s.listener.Flush()
	}
	if _, err := s.store.DeleteItem(ctx, id); err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	slog.InfoContext(ctx, "Item removed with its overrides", "item_id", id)
	s.changed(ctx)
	return nil
}

func (s *ItemService) find(ctx context.Context, id int64) (core.Item, error) {
	items, err := s.List(ctx)
	if err != nil {
		return core.Item{}, err
	}
	for _, it := range items {
		if it.ID == id {
			return it, nil
		}
	}
	return core.Item{}, fmt.Errorf("%w: item %d", core.ErrNotFound, id)
}

func (s *ItemService) changed(ctx context.Context) {
	if s.listener != nil {
		s.listener.Refresh(ctx)
	}
}

func normalizeDay(d *int) *int {
	if d == nil || *d == 0 {
		return nil
	}
	return d
}
