package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcile_NoOverrideUsesDefaults(t *testing.T) {
	items := []Item{
		{ID: 1, Name: "Card A", Account: "Bank X", DefaultDay: intPtr(27)},
		{ID: 2, Name: "Rent", Account: "Bank Y"},
	}

	rows := Reconcile(items, nil, 2025, time.June)
	require.Len(t, rows, 2)

	// Rent has no default day and falls on the 1st, so it sorts first.
	assert.Equal(t, "Rent", rows[0].Name)
	assert.Equal(t, "2025-06-01", rows[0].Date.String())

	card := rows[1]
	assert.Equal(t, int64(1), card.ItemID)
	assert.Equal(t, "2025-06-27", card.Date.String())
	assert.Equal(t, "", card.Amount)
	assert.False(t, card.Paid)
	assert.Zero(t, card.OverrideID)
}

func TestReconcile_OverrideRoundTrip(t *testing.T) {
	items := []Item{{ID: 7, Name: "Card A", Account: "Bank X", DefaultDay: intPtr(27)}}
	overrides := map[int64]Override{
		7: {ID: 40, ItemID: 7, Date: NewDate(2025, time.June, 25), Amount: 5000, Paid: true},
	}

	rows := Reconcile(items, overrides, 2025, time.June)
	require.Len(t, rows, 1)
	assert.Equal(t, "2025-06-25", rows[0].Date.String())
	assert.Equal(t, "5000", rows[0].Amount)
	assert.True(t, rows[0].Paid)
	assert.Equal(t, int64(40), rows[0].OverrideID)
}

func TestReconcile_ZeroOverrideAmountRendersEmpty(t *testing.T) {
	items := []Item{{ID: 1, Name: "Card A", Account: "Bank X"}}
	overrides := map[int64]Override{1: {ID: 1, ItemID: 1, Date: NewDate(2025, 6, 10)}}

	rows := Reconcile(items, overrides, 2025, time.June)
	assert.Equal(t, "", rows[0].Amount)
	assert.Equal(t, "2025-06-10", rows[0].Date.String())
}

func TestReconcile_DayRollsIntoNextMonth(t *testing.T) {
	items := []Item{{ID: 1, Name: "Card A", Account: "Bank X", DefaultDay: intPtr(31)}}

	rows := Reconcile(items, nil, 2025, time.June)
	assert.Equal(t, "2025-07-01", rows[0].Date.String())
}

func TestReconcile_StableOrderOnTies(t *testing.T) {
	items := []Item{
		{ID: 3, Name: "C", Account: "Bank", DefaultDay: intPtr(10)},
		{ID: 1, Name: "A", Account: "Bank", DefaultDay: intPtr(5)},
		{ID: 2, Name: "B", Account: "Bank", DefaultDay: intPtr(10)},
		{ID: 4, Name: "D", Account: "Bank", DefaultDay: intPtr(10)},
	}

	rows := Reconcile(items, nil, 2025, time.June)
	var names []string
	for _, r := range rows {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"A", "C", "B", "D"}, names)
}

func TestReconcile_OneRowPerItem(t *testing.T) {
	items := []Item{
		{ID: 1, Name: "A", Account: "X"},
		{ID: 2, Name: "B", Account: "X"},
	}
	// An override for an unknown item never produces a row.
	overrides := map[int64]Override{99: {ID: 1, ItemID: 99, Date: NewDate(2025, 6, 3), Amount: 10}}

	rows := Reconcile(items, overrides, 2025, time.June)
	assert.Len(t, rows, 2)
}

func TestReconcile_Deterministic(t *testing.T) {
	items := []Item{
		{ID: 1, Name: "A", Account: "X", DefaultDay: intPtr(20)},
		{ID: 2, Name: "B", Account: "Y", DefaultDay: intPtr(3)},
	}
	overrides := map[int64]Override{1: {ID: 9, ItemID: 1, Date: NewDate(2025, 6, 2), Amount: 100}}

	first := Reconcile(items, overrides, 2025, time.June)
	second := Reconcile(items, overrides, 2025, time.June)
	assert.Equal(t, first, second)
	// Inputs are not mutated.
	assert.Equal(t, "A", items[0].Name)
	assert.Len(t, overrides, 1)
}
