package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"debikan/internal/amqp"
	"debikan/internal/core"
)

func TestEditReconciler_InsertThenUpdate(t *testing.T) {
	st := newFaultyStore(cardItems()...)
	pub := &recordingPublisher{}
	r := NewEditReconciler(st, pub, nil)
	ctx := context.Background()
	date := core.NewDate(2025, time.June, 27)

	id1, err := r.ApplyEdit(ctx, 1, date, 5000, false)
	require.NoError(t, err)
	id2, err := r.ApplyEdit(ctx, 1, date, 5000, true)
	require.NoError(t, err)

	assert.Equal(t, id1, id2)
	_, inserts, updates := st.counts()
	assert.Equal(t, 1, inserts)
	assert.Equal(t, 1, updates)

	got, err := st.FindOverride(ctx, 1, date)
	require.NoError(t, err)
	assert.True(t, got.Paid)
	assert.Equal(t, int64(5000), got.Amount)

	msgs := pub.messages()
	require.Len(t, msgs, 2)
	saved := msgs[1].(*amqp.OverrideSavedMessage)
	assert.Equal(t, "2025-06", saved.Month)
	assert.Equal(t, "2025-06-27", saved.Date)
	assert.True(t, saved.Paid)
}

func TestEditReconciler_Idempotent(t *testing.T) {
	st := newFaultyStore(cardItems()...)
	r := NewEditReconciler(st, nil, nil)
	ctx := context.Background()
	date := core.NewDate(2025, time.June, 27)

	for i := 0; i < 3; i++ {
		_, err := r.ApplyEdit(ctx, 1, date, 1200, false)
		require.NoError(t, err)
	}

	start, end := core.MonthRange(2025, time.June)
	m, err := st.ListOverridesInRange(ctx, start, end)
	require.NoError(t, err)
	assert.Len(t, m, 1)
	assert.Equal(t, int64(1200), m[1].Amount)
}

func TestEditReconciler_DateChangeCreatesNewRecord(t *testing.T) {
	st := newFaultyStore(cardItems()...)
	r := NewEditReconciler(st, nil, nil)
	ctx := context.Background()

	oldID, err := r.ApplyEdit(ctx, 1, core.NewDate(2025, 6, 27), 5000, false)
	require.NoError(t, err)
	newID, err := r.ApplyEdit(ctx, 1, core.NewDate(2025, 6, 25), 5000, false)
	require.NoError(t, err)
	assert.NotEqual(t, oldID, newID)

	_, err = st.FindOverride(ctx, 1, core.NewDate(2025, 6, 27))
	assert.NoError(t, err, "record at the old date is left in place")

	start, end := core.MonthRange(2025, time.June)
	m, err := st.ListOverridesInRange(ctx, start, end)
	require.NoError(t, err)
	assert.Equal(t, newID, m[1].ID, "latest record wins on reload")
}

func TestEditReconciler_WriteFailure(t *testing.T) {
	st := newFaultyStore(cardItems()...)
	st.setFailWrites(true)
	pub := &recordingPublisher{}
	r := NewEditReconciler(st, pub, nil)

	_, err := r.ApplyEdit(context.Background(), 1, core.NewDate(2025, 6, 27), 5000, false)
	assert.ErrorIs(t, err, core.ErrWriteFailure)
	assert.Empty(t, pub.messages())
}

func TestEditReconciler_PublishFailureDoesNotFailEdit(t *testing.T) {
	st := newFaultyStore(cardItems()...)
	pub := &recordingPublisher{err: errBoom}
	r := NewEditReconciler(st, pub, nil)

	id, err := r.ApplyEdit(context.Background(), 1, core.NewDate(2025, 6, 27), 5000, false)
	require.NoError(t, err)
	assert.NotZero(t, id)
}

func TestEditReconciler_RejectsInvalidInput(t *testing.T) {
	r := NewEditReconciler(newFaultyStore(cardItems()...), nil, nil)
	ctx := context.Background()

	_, err := r.ApplyEdit(ctx, 1, core.Date{}, 1, false)
	assert.ErrorIs(t, err, core.ErrInvalidDate)
	_, err = r.ApplyEdit(ctx, 1, core.NewDate(2025, 6, 1), -1, false)
	assert.ErrorIs(t, err, core.ErrInvalidAmount)
}
