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

func seedReminderStore(t *testing.T) *faultyStore {
	t.Helper()
	st := newFaultyStore(
		core.Item{Name: "Card A", Account: "Bank X", DefaultDay: day(27)},
		core.Item{Name: "Card B", Account: "Bank X", DefaultDay: day(27)},
		core.Item{Name: "Rent", Account: "Bank Y", DefaultDay: day(2)},
		core.Item{Name: "Gym", Account: "Bank Z", DefaultDay: day(28)},
	)
	ctx := context.Background()
	for _, ov := range []struct {
		item   int64
		date   core.Date
		amount int64
		paid   bool
	}{
		{1, core.NewDate(2025, 6, 27), 5000, false},
		{2, core.NewDate(2025, 6, 27), 3000, false},
		{3, core.NewDate(2025, 7, 2), 80000, false},
		{4, core.NewDate(2025, 6, 28), 1000, true},
	} {
		_, err := st.InsertOverride(ctx, ov.item, ov.date, ov.amount, ov.paid)
		require.NoError(t, err)
	}
	return st
}

func TestReminderProcessor_DueReminders(t *testing.T) {
	p := NewReminderProcessor(seedReminderStore(t), nil, 7, nil)
	now := time.Date(2025, 6, 25, 9, 0, 0, 0, time.UTC)

	got, err := p.DueReminders(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "Bank X", got[0].Summary.Account)
	assert.Equal(t, int64(8000), got[0].Summary.Total)
	assert.Equal(t, "2025-06", got[0].Month.String())

	assert.Equal(t, "Bank Y", got[1].Summary.Account)
	assert.Equal(t, "2025-07", got[1].Month.String())
}

func TestReminderProcessor_WindowExcludesPastAndFar(t *testing.T) {
	p := NewReminderProcessor(seedReminderStore(t), nil, 1, nil)

	got, err := p.DueReminders(context.Background(), time.Date(2025, 6, 28, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestReminderProcessor_Publishes(t *testing.T) {
	pub := &recordingPublisher{}
	p := NewReminderProcessor(seedReminderStore(t), pub, 3, nil)

	sent, err := p.ProcessDueReminders(context.Background(), time.Date(2025, 6, 27, 8, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	msgs := pub.messages()
	require.Len(t, msgs, 1)
	r := msgs[0].(*amqp.ReminderMessage)
	assert.Equal(t, "Bank X", r.Account)
	assert.Equal(t, "2025-06-27", r.PayDeadline)
	assert.Equal(t, []string{
		"27日: ¥8,000 (Card A, Card B)",
		"→ 27日までに合計 ¥8,000 が必要",
	}, r.Lines)
}

func TestReminderProcessor_LoadFailure(t *testing.T) {
	st := seedReminderStore(t)
	st.setFailReads(true)
	p := NewReminderProcessor(st, nil, 3, nil)

	_, err := p.ProcessDueReminders(context.Background(), time.Now())
	assert.ErrorIs(t, err, core.ErrQueryFailure)
}
