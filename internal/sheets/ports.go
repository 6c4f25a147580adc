package sheets

import (
	"context"

	"debikan/internal/core"
)

// Ports for outbound spreadsheet adapters.
type (
	// MonthWriter replaces the exported copy of one month.
	MonthWriter interface {
		WriteMonth(ctx context.Context, month core.Month, rows []core.MonthlyViewRow, summary core.Summary) (ref string, err error)
	}
)
