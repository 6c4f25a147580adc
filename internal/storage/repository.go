// Package storage implements the record store on SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"debikan/internal/core"
	"debikan/internal/store"

	_ "modernc.org/sqlite"
)

var _ store.RecordStore = (*SQLiteRepository)(nil)

const (
	itemsTable     = "items"
	overridesTable = "monthly_overrides"
)

var (
	itemColumns     = []string{"id", "name", "account", "default_day"}
	overrideColumns = []string{"id", "item_id", "date", "amount", "paid"}
)

// SQLiteRepository is the RecordStore backed by a single SQLite connection.
type SQLiteRepository struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

// NewSQLiteRepository opens (creating if needed) the database at dbPath and
// migrates it. Any failure is reported as core.ErrStoreUnavailable.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("%w: create db directory: %w", core.ErrStoreUnavailable, err)
	}

	if err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrStoreUnavailable, err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite database: %w", core.ErrStoreUnavailable, err)
	}
	// One logical connection: every statement is serialised.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: ping database: %w", core.ErrStoreUnavailable, err)
	}

	return &SQLiteRepository{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Question).RunWith(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", core.ErrStoreUnavailable, err)
	}
	return nil
}

func (r *SQLiteRepository) ListItems(ctx context.Context) ([]core.Item, error) {
	rows, err := r.sb.Select(itemColumns...).From(itemsTable).OrderBy("id").QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list items: %w", core.ErrQueryFailure, err)
	}
	defer rows.Close()

	var items []core.Item
	for rows.Next() {
		var (
			it  core.Item
			day sql.NullInt64
		)
		if err := rows.Scan(&it.ID, &it.Name, &it.Account, &day); err != nil {
			return nil, fmt.Errorf("%w: scan item: %w", core.ErrQueryFailure, err)
		}
		if day.Valid {
			d := int(day.Int64)
			it.DefaultDay = &d
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list items: %w", core.ErrQueryFailure, err)
	}
	return items, nil
}

func (r *SQLiteRepository) CreateItem(ctx context.Context, name, account string, defaultDay *int) (int64, error) {
	it := core.Item{Name: strings.TrimSpace(name), Account: strings.TrimSpace(account), DefaultDay: defaultDay}
	if err := it.Validate(); err != nil {
		return 0, err
	}

	res, err := r.sb.Insert(itemsTable).
		Columns("name", "account", "default_day").
		Values(it.Name, it.Account, nullableDay(defaultDay)).
		ExecContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: create item: %w", core.ErrWriteFailure, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%w: create item id: %w", core.ErrWriteFailure, err)
	}

	slog.InfoContext(ctx, "Item created", "item_id", id, "name", it.Name, "account", it.Account)
	return id, nil
}

func (r *SQLiteRepository) UpdateItem(ctx context.Context, id int64, name, account string, defaultDay *int) (int64, error) {
	it := core.Item{ID: id, Name: strings.TrimSpace(name), Account: strings.TrimSpace(account), DefaultDay: defaultDay}
	if err := it.Validate(); err != nil {
		return 0, err
	}

	res, err := r.sb.Update(itemsTable).
		Set("name", it.Name).
		Set("account", it.Account).
		Set("default_day", nullableDay(defaultDay)).
		Where(sq.Eq{"id": id}).
		ExecContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: update item %d: %w", core.ErrWriteFailure, id, err)
	}
	if err := requireAffected(res, "item", id); err != nil {
		return 0, err
	}

	slog.InfoContext(ctx, "Item updated", "item_id", id)
	return id, nil
}

func (r *SQLiteRepository) DeleteItem(ctx context.Context, id int64) (int64, error) {
	res, err := r.sb.Delete(itemsTable).Where(sq.Eq{"id": id}).ExecContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: delete item %d: %w", core.ErrWriteFailure, id, err)
	}
	if err := requireAffected(res, "item", id); err != nil {
		return 0, err
	}

	slog.InfoContext(ctx, "Item deleted", "item_id", id)
	return id, nil
}

func (r *SQLiteRepository) ListOverridesInRange(ctx context.Context, start, end core.Date) (map[int64]core.Override, error) {
	// ISO dates compare correctly as text. Ordering by id lets later
	// records replace earlier ones for the same item.
	rows, err := r.sb.Select(overrideColumns...).
		From(overridesTable).
		Where(sq.And{
			sq.GtOrEq{"date": start.String()},
			sq.LtOrEq{"date": end.String()},
		}).
		OrderBy("id").
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list overrides %s..%s: %w", core.ErrQueryFailure, start, end, err)
	}
	defer rows.Close()

	out := make(map[int64]core.Override)
	for rows.Next() {
		ov, err := scanOverride(rows)
		if err != nil {
			return nil, err
		}
		out[ov.ItemID] = ov
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list overrides: %w", core.ErrQueryFailure, err)
	}
	return out, nil
}

func (r *SQLiteRepository) FindOverride(ctx context.Context, itemID int64, date core.Date) (core.Override, error) {
	row := r.sb.Select(overrideColumns...).
		From(overridesTable).
		Where(sq.Eq{"item_id": itemID, "date": date.String()}).
		OrderBy("id").
		Limit(1).
		QueryRowContext(ctx)

	ov, err := scanOverride(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Override{}, fmt.Errorf("%w: override for item %d on %s", core.ErrNotFound, itemID, date)
	}
	if err != nil {
		return core.Override{}, err
	}
	return ov, nil
}

func (r *SQLiteRepository) InsertOverride(ctx context.Context, itemID int64, date core.Date, amount int64, paid bool) (int64, error) {
	ov := core.Override{ItemID: itemID, Date: date, Amount: amount, Paid: paid}
	if err := ov.Validate(); err != nil {
		return 0, err
	}

	res, err := r.sb.Insert(overridesTable).
		Columns("item_id", "date", "amount", "paid").
		Values(itemID, date.String(), amount, paid).
		ExecContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: insert override for item %d: %w", core.ErrWriteFailure, itemID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%w: insert override id: %w", core.ErrWriteFailure, err)
	}

	slog.InfoContext(ctx, "Override inserted",
		"override_id", id,
		"item_id", itemID,
		"date", date.String(),
		"amount_yen", amount,
		"paid", paid)
	return id, nil
}

func (r *SQLiteRepository) UpdateOverride(ctx context.Context, id int64, amount int64, paid bool) (int64, error) {
	if amount < 0 {
		return 0, core.ErrInvalidAmount
	}

	res, err := r.sb.Update(overridesTable).
		Set("amount", amount).
		Set("paid", paid).
		Where(sq.Eq{"id": id}).
		ExecContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: update override %d: %w", core.ErrWriteFailure, id, err)
	}
	if err := requireAffected(res, "override", id); err != nil {
		return 0, err
	}

	slog.InfoContext(ctx, "Override updated", "override_id", id, "amount_yen", amount, "paid", paid)
	return id, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOverride(s scanner) (core.Override, error) {
	var (
		ov   core.Override
		date string
	)
	if err := s.Scan(&ov.ID, &ov.ItemID, &date, &ov.Amount, &ov.Paid); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Override{}, err
		}
		return core.Override{}, fmt.Errorf("%w: scan override: %w", core.ErrQueryFailure, err)
	}
	d, err := core.ParseDate(date)
	if err != nil {
		return core.Override{}, fmt.Errorf("%w: override %d has malformed date %q", core.ErrQueryFailure, ov.ID, date)
	}
	ov.Date = d
	return ov, nil
}

func requireAffected(res sql.Result, kind string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %s %d rows affected: %w", core.ErrWriteFailure, kind, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s %d", core.ErrNotFound, kind, id)
	}
	return nil
}

func nullableDay(d *int) any {
	if d == nil {
		return nil
	}
	return *d
}
