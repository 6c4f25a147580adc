package services

import (
	"sync"
	"time"
)

// Debouncer coalesces bursts of calls per key: only the last function
// scheduled for a key runs, once the key has been quiet for the delay.
type Debouncer struct {
	mu      sync.Mutex
	pending map[string]*debounceEntry
	seq     uint64
	stopped bool
	wg      sync.WaitGroup
}

type debounceEntry struct {
	timer *time.Timer
	fn    func()
	token uint64
}

func NewDebouncer() *Debouncer {
	return &Debouncer{pending: make(map[string]*debounceEntry)}
}

// Schedule replaces any pending function for key with fn, to run after
// delay.
func (d *Debouncer) Schedule(key string, delay time.Duration, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}

	if prev, ok := d.pending[key]; ok {
		prev.timer.Stop()
	}
	d.seq++
	token := d.seq
	e := &debounceEntry{fn: fn, token: token}
	e.timer = time.AfterFunc(delay, func() { d.fire(key, token) })
	d.pending[key] = e
}

func (d *Debouncer) fire(key string, token uint64) {
	d.mu.Lock()
	e, ok := d.pending[key]
	// A timer that lost the race against a reschedule is stale.
	if !ok || e.token != token {
		d.mu.Unlock()
		return
	}
	delete(d.pending, key)
	d.wg.Add(1)
	d.mu.Unlock()

	defer d.wg.Done()
	e.fn()
}

// Cancel drops the pending function for key, if any.
func (d *Debouncer) Cancel(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, ok := d.pending[key]
	if !ok {
		return false
	}
	e.timer.Stop()
	delete(d.pending, key)
	return true
}

// Pending reports how many keys have a scheduled function.
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Flush runs every pending function now, in the caller's goroutine, and
// waits for functions already firing to finish.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	fns := make([]func(), 0, len(d.pending))
	for key, e := range d.pending {
		e.timer.Stop()
		fns = append(fns, e.fn)
		delete(d.pending, key)
	}
	d.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
	d.wg.Wait()
}

// Stop cancels everything pending and rejects further scheduling.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	for key, e := range d.pending {
		e.timer.Stop()
		delete(d.pending, key)
	}
}
