package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"debikan/internal/cache"
	"debikan/internal/core"
	"debikan/internal/store"
)

// MonthService hands out month sessions, keeping recently used ones in an
// LRU cache so optimistic state survives between requests.
type MonthService struct {
	store     store.RecordStore
	edits     *EditReconciler
	debouncer *Debouncer
	sessions  *cache.LRUCache[*MonthSession]
	opts      SessionOptions

	// Serialises session creation so a month is loaded once.
	mu sync.Mutex
}

func NewMonthService(st store.RecordStore, edits *EditReconciler, cacheSize int, cacheTTL time.Duration, opts SessionOptions) *MonthService {
	sessions := cache.NewLRUCache[*MonthSession](cacheSize, cacheTTL)
	sessions.OnEvict(func(key string, s *MonthSession) {
		if n := s.Unsynced(); n > 0 {
			opts.Metrics.AddUnsynced(-n)
			slog.Warn("Evicted month session with unsynced rows", "month", key, "unsynced", n)
		}
	})
	return &MonthService{
		store:     st,
		edits:     edits,
		debouncer: NewDebouncer(),
		sessions:  sessions,
		opts:      opts,
	}
}

// Sessions exposes the session cache so it can be registered for cleanup.
func (m *MonthService) Sessions() *cache.LRUCache[*MonthSession] {
	return m.sessions
}

// Session returns the loaded session of month, loading it on first use.
func (m *MonthService) Session(ctx context.Context, month core.Month) (*MonthSession, error) {
	if err := month.Validate(); err != nil {
		return nil, err
	}
	key := month.String()
	if s, ok := m.sessions.Get(key); ok {
		return s, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions.Get(key); ok {
		return s, nil
	}

	s := NewMonthSession(month, m.store, m.edits, m.debouncer, m.opts)
	if err := s.Load(ctx); err != nil {
		return nil, err
	}
	m.sessions.Set(key, s)
	return s, nil
}

// Reload discards optimistic state of month and reads it from the store.
// Pending amount writes are flushed first so typed values are not lost.
func (m *MonthService) Reload(ctx context.Context, month core.Month) (*MonthSession, error) {
	s, err := m.Session(ctx, month)
	if err != nil {
		return nil, err
	}
	m.debouncer.Flush()
	if err := s.Load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Refresh reloads every cached session, e.g. after the item catalog
// changed. Sessions that fail to reload are dropped from the cache.
func (m *MonthService) Refresh(ctx context.Context) {
	m.debouncer.Flush()
	m.sessions.Each(func(key string, s *MonthSession) {
		if err := s.Load(ctx); err != nil {
			slog.ErrorContext(ctx, "Failed to refresh month session", "month", key, "error", err)
			m.sessions.Delete(key)
		}
	})
}

// Flush writes all pending debounced amounts now.
func (m *MonthService) Flush() {
	m.debouncer.Flush()
}

// PendingWrites reports the number of amount writes still waiting.
func (m *MonthService) PendingWrites() int {
	return m.debouncer.Pending()
}

// Close flushes pending writes and stops accepting new ones.
func (m *MonthService) Close() {
	m.debouncer.Flush()
	m.debouncer.Stop()
	m.sessions.Purge()
}
