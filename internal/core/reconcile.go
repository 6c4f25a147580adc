package core

import (
	"sort"
	"time"
)

// MonthlyViewRow is the resolved state of one item for one month.
type MonthlyViewRow struct {
	ItemID     int64
	Name       string
	Account    string
	DefaultDay *int

	Amount string // display text, "" when not entered
	Paid   bool
	Date   Date

	// OverrideID is the persisted record backing the row, 0 when none.
	OverrideID int64
	// Unsynced is set when the last write for this row failed and the
	// displayed values may differ from the store until the next reload.
	Unsynced bool
}

// Reconcile merges the item catalog with the overrides of one month.
//
// overrides is keyed by item id and must already be restricted to the
// target month. Every item yields exactly one row. Items without an override
// get an empty amount, paid=false and a date synthesised from the default
// day (or the 1st); days past the end of the month roll into the next month.
// Rows are sorted by date, ties keep catalog order.
func Reconcile(items []Item, overrides map[int64]Override, year int, month time.Month) []MonthlyViewRow {
	rows := make([]MonthlyViewRow, 0, len(items))
	for _, it := range items {
		row := MonthlyViewRow{
			ItemID:     it.ID,
			Name:       it.Name,
			Account:    it.Account,
			DefaultDay: it.DefaultDay,
		}
		if ov, ok := overrides[it.ID]; ok {
			row.Amount = AmountText(ov.Amount)
			row.Paid = ov.Paid
			row.Date = ov.Date
			row.OverrideID = ov.ID
		} else {
			row.Date = NewDate(year, month, it.DayOrFirst())
		}
		rows = append(rows, row)
	}
	SortRows(rows)
	return rows
}

// SortRows orders rows by resolved date, keeping the existing relative order
// of rows that share a date.
func SortRows(rows []MonthlyViewRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Date.Before(rows[j].Date)
	})
}
