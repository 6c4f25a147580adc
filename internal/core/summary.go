package core

import (
	"fmt"
	"sort"
	"strings"
)

// AccountSummaryEntry aggregates the unpaid obligations of one account that
// fall on the same day.
type AccountSummaryEntry struct {
	Date  Date
	Total int64
	Names []string // contributing items in encounter order
}

// AccountSummary is the unpaid total of one withdrawal account.
type AccountSummary struct {
	Account     string
	Entries     []AccountSummaryEntry // ascending by date
	PayDeadline Date                  // latest entry date
	Total       int64
}

// Summary lists accounts in the order their first unpaid row was seen.
type Summary []AccountSummary

// IsEmpty reports whether nothing is left to pay. Callers render this as a
// dedicated state instead of an empty list.
func (s Summary) IsEmpty() bool {
	return len(s) == 0
}

// Account returns the summary for one account.
func (s Summary) Account(name string) (AccountSummary, bool) {
	for _, a := range s {
		if a.Account == name {
			return a, true
		}
	}
	return AccountSummary{}, false
}

// Total is the grand total over all accounts.
func (s Summary) Total() int64 {
	var t int64
	for _, a := range s {
		t += a.Total
	}
	return t
}

// Summarize groups unpaid rows with a known amount by account, then by due
// date. A blank or zero amount means "not known yet" and the row is left out
// entirely, as are paid rows.
func Summarize(rows []MonthlyViewRow) Summary {
	var out Summary
	accountIdx := make(map[string]int)
	// per account: ISO date -> index into that account's Entries
	dateIdx := make(map[string]map[string]int)

	for _, r := range rows {
		if r.Paid {
			continue
		}
		amount := ParseAmount(r.Amount)
		if amount == 0 {
			continue
		}

		ai, ok := accountIdx[r.Account]
		if !ok {
			ai = len(out)
			accountIdx[r.Account] = ai
			dateIdx[r.Account] = make(map[string]int)
			out = append(out, AccountSummary{Account: r.Account})
		}
		acc := &out[ai]

		key := r.Date.String()
		ei, ok := dateIdx[r.Account][key]
		if !ok {
			ei = len(acc.Entries)
			dateIdx[r.Account][key] = ei
			acc.Entries = append(acc.Entries, AccountSummaryEntry{Date: r.Date})
		}
		acc.Entries[ei].Total += amount
		acc.Entries[ei].Names = append(acc.Entries[ei].Names, r.Name)
	}

	for i := range out {
		acc := &out[i]
		sort.SliceStable(acc.Entries, func(a, b int) bool {
			return acc.Entries[a].Date.Before(acc.Entries[b].Date)
		})
		for _, e := range acc.Entries {
			acc.Total += e.Total
		}
		acc.PayDeadline = acc.Entries[len(acc.Entries)-1].Date
	}
	return out
}

// Lines renders the account the way the summary panel shows it: one line per
// due date followed by the deadline line.
//
//	27日: ¥8,000 (Card A, Card B)
//	→ 27日までに合計 ¥8,000 が必要
func (a AccountSummary) Lines() []string {
	lines := make([]string, 0, len(a.Entries)+1)
	for _, e := range a.Entries {
		lines = append(lines, fmt.Sprintf("%d日: %s (%s)", e.Date.Day(), FormatYen(e.Total), strings.Join(e.Names, ", ")))
	}
	lines = append(lines, a.DeadlineLine())
	return lines
}

// DeadlineLine is the "pay by" line of the account.
func (a AccountSummary) DeadlineLine() string {
	return fmt.Sprintf("→ %d日までに合計 %s が必要", a.PayDeadline.Day(), FormatYen(a.Total))
}
