package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"debikan/internal/core"
)

func newTestMonthService(st *faultyStore) *MonthService {
	return NewMonthService(st, NewEditReconciler(st, nil, nil), 4, time.Minute, SessionOptions{AmountDebounce: time.Hour})
}

func TestMonthService_SessionIsCached(t *testing.T) {
	svc := newTestMonthService(newFaultyStore(cardItems()...))
	defer svc.Close()
	ctx := context.Background()

	a, err := svc.Session(ctx, june)
	require.NoError(t, err)
	b, err := svc.Session(ctx, june)
	require.NoError(t, err)
	assert.Same(t, a, b)

	_, err = svc.Session(ctx, core.Month{Year: 2025, Month: 13})
	assert.ErrorIs(t, err, core.ErrInvalidMonth)
}

func TestMonthService_LoadFailureIsNotCached(t *testing.T) {
	st := newFaultyStore(cardItems()...)
	svc := newTestMonthService(st)
	defer svc.Close()

	st.setFailReads(true)
	_, err := svc.Session(context.Background(), june)
	require.ErrorIs(t, err, core.ErrQueryFailure)
	assert.Zero(t, svc.Sessions().Size())

	st.setFailReads(false)
	_, err = svc.Session(context.Background(), june)
	assert.NoError(t, err)
}

func TestMonthService_ReloadFlushesPendingAmounts(t *testing.T) {
	st := newFaultyStore(cardItems()...)
	svc := newTestMonthService(st)
	defer svc.Close()
	ctx := context.Background()

	s, err := svc.Session(ctx, june)
	require.NoError(t, err)
	_, err = s.SetAmount(ctx, 1, "5000")
	require.NoError(t, err)
	assert.Equal(t, 1, svc.PendingWrites())

	s, err = svc.Reload(ctx, june)
	require.NoError(t, err)
	assert.Zero(t, svc.PendingWrites())

	row, err := s.Row(1)
	require.NoError(t, err)
	assert.Equal(t, "5000", row.Amount)
	assert.NotZero(t, row.OverrideID)
}

func TestItemService_RefreshesCachedSessions(t *testing.T) {
	st := newFaultyStore(cardItems()...)
	months := newTestMonthService(st)
	defer months.Close()
	items := NewItemService(st, months)
	ctx := context.Background()

	s, err := months.Session(ctx, june)
	require.NoError(t, err)
	require.Len(t, s.Rows(), 2)

	created, err := items.Create(ctx, "Rent", "Bank Y", day(0))
	require.NoError(t, err)
	assert.Nil(t, created.DefaultDay, "day 0 means no default day")
	assert.Len(t, s.Rows(), 3)

	_, err = items.Update(ctx, created.ID, "Rent", "Bank Y", day(5))
	require.NoError(t, err)
	row, err := s.Row(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "2025-06-05", row.Date.String())

	require.NoError(t, items.Delete(ctx, created.ID))
	assert.Len(t, s.Rows(), 2)

	_, err = items.Create(ctx, "", "Bank Y", nil)
	assert.ErrorIs(t, err, core.ErrEmptyName)
	assert.ErrorIs(t, items.Delete(ctx, 999), core.ErrNotFound)
}

func TestItemService_DeleteFlushesPendingWritesFirst(t *testing.T) {
	st := newFaultyStore(cardItems()...)
	months := newTestMonthService(st)
	defer months.Close()
	items := NewItemService(st, months)
	ctx := context.Background()

	s, err := months.Session(ctx, june)
	require.NoError(t, err)
	_, err = s.SetAmount(ctx, 1, "5000")
	require.NoError(t, err)

	require.NoError(t, items.Delete(ctx, 1))
	assert.Zero(t, months.PendingWrites())
	_, inserts, _ := st.counts()
	assert.Equal(t, 1, inserts)
}
