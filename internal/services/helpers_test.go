package services

import (
	"context"
	"errors"
	"sync"

	"debikan/internal/amqp"
	"debikan/internal/core"
	"debikan/internal/store"
	"debikan/internal/store/memory"
)

var errBoom = errors.New("boom")

// faultyStore wraps a RecordStore and fails selected operations.
type faultyStore struct {
	store.RecordStore

	mu          sync.Mutex
	failWrites  bool
	failReads   bool
	findCalls   int
	insertCalls int
	updateCalls int
}

func newFaultyStore(items ...core.Item) *faultyStore {
	return &faultyStore{RecordStore: memory.NewSeeded(items)}
}

func (f *faultyStore) setFailWrites(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failWrites = v
}

func (f *faultyStore) setFailReads(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failReads = v
}

func (f *faultyStore) readErr() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failReads {
		return errors.Join(core.ErrQueryFailure, errBoom)
	}
	return nil
}

func (f *faultyStore) writeErr() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites {
		return errors.Join(core.ErrWriteFailure, errBoom)
	}
	return nil
}

func (f *faultyStore) ListItems(ctx context.Context) ([]core.Item, error) {
	if err := f.readErr(); err != nil {
		return nil, err
	}
	return f.RecordStore.ListItems(ctx)
}

func (f *faultyStore) ListOverridesInRange(ctx context.Context, start, end core.Date) (map[int64]core.Override, error) {
	if err := f.readErr(); err != nil {
		return nil, err
	}
	return f.RecordStore.ListOverridesInRange(ctx, start, end)
}

func (f *faultyStore) FindOverride(ctx context.Context, itemID int64, date core.Date) (core.Override, error) {
	f.mu.Lock()
	f.findCalls++
	f.mu.Unlock()
	return f.RecordStore.FindOverride(ctx, itemID, date)
}

func (f *faultyStore) InsertOverride(ctx context.Context, itemID int64, date core.Date, amount int64, paid bool) (int64, error) {
	f.mu.Lock()
	f.insertCalls++
	f.mu.Unlock()
	if err := f.writeErr(); err != nil {
		return 0, err
	}
	return f.RecordStore.InsertOverride(ctx, itemID, date, amount, paid)
}

func (f *faultyStore) UpdateOverride(ctx context.Context, id int64, amount int64, paid bool) (int64, error) {
	f.mu.Lock()
	f.updateCalls++
	f.mu.Unlock()
	if err := f.writeErr(); err != nil {
		return 0, err
	}
	return f.RecordStore.UpdateOverride(ctx, id, amount, paid)
}

func (f *faultyStore) counts() (find, insert, update int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.findCalls, f.insertCalls, f.updateCalls
}

// recordingPublisher keeps every published message.
type recordingPublisher struct {
	mu   sync.Mutex
	msgs []amqp.Message
	err  error
}

func (p *recordingPublisher) Publish(_ context.Context, msg amqp.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, msg)
	return nil
}

func (p *recordingPublisher) messages() []amqp.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]amqp.Message(nil), p.msgs...)
}

func day(d int) *int { return &d }

func cardItems() []core.Item {
	return []core.Item{
		{Name: "Card A", Account: "Bank X", DefaultDay: day(27)},
		{Name: "Card B", Account: "Bank X", DefaultDay: day(27)},
	}
}
