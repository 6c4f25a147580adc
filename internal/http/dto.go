package http

import (
	"bytes"
	"encoding/json"
	"strconv"

	"debikan/internal/core"
)

type itemJSON struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Account    string `json:"account"`
	DefaultDay *int   `json:"default_day"`
}

// dayField accepts a number, a numeric string, an empty string or null,
// and reads it the way the item form does: anything unparsable or 0 is
// "no default day".
type dayField struct {
	Day *int
}

func (d *dayField) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		d.Day = nil
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		d.Day = core.ParseDefaultDay(s)
		return nil
	}
	d.Day = core.ParseDefaultDay(string(b))
	return nil
}

type itemRequest struct {
	Name       string   `json:"name"`
	Account    string   `json:"account"`
	DefaultDay dayField `json:"default_day"`
}

type rowJSON struct {
	ItemID     int64  `json:"item_id"`
	Name       string `json:"name"`
	Account    string `json:"account"`
	DefaultDay *int   `json:"default_day"`
	Amount     string `json:"amount"`
	Paid       bool   `json:"paid"`
	Date       string `json:"date"`
	OverrideID int64  `json:"override_id,omitempty"`
	Unsynced   bool   `json:"unsynced,omitempty"`
}

type entryJSON struct {
	Date  string   `json:"date"`
	Total int64    `json:"total"`
	Names []string `json:"names"`
}

type accountJSON struct {
	Account     string      `json:"account"`
	Entries     []entryJSON `json:"entries"`
	PayDeadline string      `json:"pay_deadline"`
	Total       int64       `json:"total"`
	TotalText   string      `json:"total_text"`
	Lines       []string    `json:"lines"`
}

type summaryJSON struct {
	Month         string        `json:"month"`
	NothingUnpaid bool          `json:"nothing_unpaid"`
	Total         int64         `json:"total"`
	TotalText     string        `json:"total_text"`
	Accounts      []accountJSON `json:"accounts"`
}

type monthJSON struct {
	Month    string      `json:"month"`
	Prev     string      `json:"prev"`
	Next     string      `json:"next"`
	Rows     []rowJSON   `json:"rows"`
	Summary  summaryJSON `json:"summary"`
	Unsynced int         `json:"unsynced"`
}

type amountRequest struct {
	// Amount is the raw field text; a bare number is accepted too.
	Amount json.RawMessage `json:"amount"`
}

// text returns the amount as typed. Numbers are rendered back to their
// digits.
func (a amountRequest) text() (string, bool) {
	raw := bytes.TrimSpace(a.Amount)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", true
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false
		}
		return s, true
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", false
	}
	if _, err := strconv.ParseFloat(n.String(), 64); err != nil {
		return "", false
	}
	return n.String(), true
}

type paidRequest struct {
	Paid *bool `json:"paid"`
}

type dateRequest struct {
	Date string `json:"date"`
}

func toItemJSON(it core.Item) itemJSON {
	return itemJSON{ID: it.ID, Name: it.Name, Account: it.Account, DefaultDay: it.DefaultDay}
}

func toRowJSON(r core.MonthlyViewRow) rowJSON {
	return rowJSON{
		ItemID:     r.ItemID,
		Name:       r.Name,
		Account:    r.Account,
		DefaultDay: r.DefaultDay,
		Amount:     r.Amount,
		Paid:       r.Paid,
		Date:       r.Date.String(),
		OverrideID: r.OverrideID,
		Unsynced:   r.Unsynced,
	}
}

func toSummaryJSON(month core.Month, s core.Summary) summaryJSON {
	out := summaryJSON{
		Month:         month.String(),
		NothingUnpaid: s.IsEmpty(),
		Total:         s.Total(),
		TotalText:     core.FormatYen(s.Total()),
		Accounts:      make([]accountJSON, 0, len(s)),
	}
	for _, a := range s {
		acc := accountJSON{
			Account:     a.Account,
			PayDeadline: a.PayDeadline.String(),
			Total:       a.Total,
			TotalText:   core.FormatYen(a.Total),
			Lines:       a.Lines(),
		}
		for _, e := range a.Entries {
			acc.Entries = append(acc.Entries, entryJSON{Date: e.Date.String(), Total: e.Total, Names: e.Names})
		}
		out.Accounts = append(out.Accounts, acc)
	}
	return out
}

func toMonthJSON(month core.Month, rows []core.MonthlyViewRow) monthJSON {
	out := monthJSON{
		Month:   month.String(),
		Prev:    month.Prev().String(),
		Next:    month.Next().String(),
		Rows:    make([]rowJSON, 0, len(rows)),
		Summary: toSummaryJSON(month, core.Summarize(rows)),
	}
	for _, r := range rows {
		out.Rows = append(out.Rows, toRowJSON(r))
		if r.Unsynced {
			out.Unsynced++
		}
	}
	return out
}
