// Package memory keeps exported months in process, for development and
// tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"debikan/internal/core"
	ports "debikan/internal/sheets"
)

var _ ports.MonthWriter = (*Writer)(nil)

type Writer struct {
	mu     sync.Mutex
	prefix string
	sheets map[string][][]any
	writes int
}

func New(prefix string) *Writer {
	return &Writer{prefix: prefix, sheets: make(map[string][][]any)}
}

func (w *Writer) WriteMonth(_ context.Context, month core.Month, rows []core.MonthlyViewRow, summary core.Summary) (string, error) {
	name := ports.SheetName(w.prefix, month)
	values := ports.MonthValues(rows, summary)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.sheets[name] = values
	w.writes++
	return fmt.Sprintf("mem:%s", name), nil
}

// Sheet returns the values last written for month.
func (w *Writer) Sheet(month core.Month) ([][]any, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	v, ok := w.sheets[ports.SheetName(w.prefix, month)]
	return v, ok
}

// Writes reports how many exports happened.
func (w *Writer) Writes() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.writes
}
