// Package sheets renders month views for spreadsheet export.
package sheets

import (
	"fmt"
	"strings"

	"debikan/internal/core"
)

// Header of the item table.
var Header = []any{"Date", "Item", "Account", "Amount", "Paid"}

// SheetName is the tab title of month under prefix, e.g. "Debikan 2025-06".
func SheetName(prefix string, month core.Month) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return month.String()
	}
	return fmt.Sprintf("%s %s", prefix, month)
}

// MonthValues lays out the month as cell values: the item table, a blank
// row, then one block per account with its summary lines. An empty summary
// yields a single "nothing unpaid" line.
func MonthValues(rows []core.MonthlyViewRow, summary core.Summary) [][]any {
	values := make([][]any, 0, len(rows)+len(summary)*3+3)
	values = append(values, Header)
	for _, r := range rows {
		var amount any = ""
		if v := core.ParseAmount(r.Amount); v > 0 {
			amount = v
		}
		values = append(values, []any{r.Date.String(), r.Name, r.Account, amount, r.Paid})
	}

	values = append(values, []any{})
	if summary.IsEmpty() {
		values = append(values, []any{"未払いなし"})
		return values
	}
	for _, acc := range summary {
		values = append(values, []any{acc.Account})
		for _, line := range acc.Lines() {
			values = append(values, []any{"", line})
		}
	}
	return values
}
