// Package store defines the persistence ports of the tracker.
package store

import (
	"context"

	"debikan/internal/core"
)

// Ports for record persistence. Implementations return errors wrapping the
// core store sentinels (core.ErrNotFound, core.ErrQueryFailure,
// core.ErrWriteFailure) so callers can branch with errors.Is.
type (
	ItemStore interface {
		ListItems(ctx context.Context) ([]core.Item, error)
		CreateItem(ctx context.Context, name, account string, defaultDay *int) (int64, error)
		UpdateItem(ctx context.Context, id int64, name, account string, defaultDay *int) (int64, error)
		// DeleteItem removes the item and every override referencing it.
		DeleteItem(ctx context.Context, id int64) (int64, error)
	}

	OverrideStore interface {
		// ListOverridesInRange returns the overrides dated within [start, end]
		// keyed by item id. When an item has several, the one inserted last
		// wins.
		ListOverridesInRange(ctx context.Context, start, end core.Date) (map[int64]core.Override, error)
		// FindOverride returns core.ErrNotFound when no record matches.
		FindOverride(ctx context.Context, itemID int64, date core.Date) (core.Override, error)
		InsertOverride(ctx context.Context, itemID int64, date core.Date, amount int64, paid bool) (int64, error)
		UpdateOverride(ctx context.Context, id int64, amount int64, paid bool) (int64, error)
	}

	// RecordStore is the full persistence surface used by the services.
	RecordStore interface {
		ItemStore
		OverrideStore
	}
)
