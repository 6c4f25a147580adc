package core

import (
	"errors"
	"strings"
	"time"
)

// DateLayout is the storage and wire format of calendar dates.
const DateLayout = "2006-01-02"

type (
	// Date is a calendar date pinned to midnight UTC.
	Date struct {
		time.Time
	}

	// Item is a recurring payment obligation.
	Item struct {
		ID         int64
		Name       string
		Account    string // withdrawal account label
		DefaultDay *int   // 1-31, nil when unset
	}

	// Override holds the concrete due date, amount and paid flag of one
	// item for one month.
	Override struct {
		ID     int64
		ItemID int64
		Date   Date
		Amount int64 // yen
		Paid   bool
	}
)

var (
	ErrEmptyName     = errors.New("empty item name")
	ErrNameTooLong   = errors.New("name too long (max 200 characters)")
	ErrEmptyAccount  = errors.New("empty account")
	ErrInvalidDay    = errors.New("invalid day")
	ErrInvalidMonth  = errors.New("invalid month")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidDate   = errors.New("invalid date")
)

// Store failure taxonomy. Wrap with fmt.Errorf("%w: ...: %w", Err..., err).
var (
	ErrNotFound         = errors.New("not found")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrQueryFailure     = errors.New("query failed")
	ErrWriteFailure     = errors.New("write failed")
)

// NewDate creates a Date from year, month, day. Out of range values are
// normalised the way time.Date does it, so day 31 of a 30 day month
// becomes the 1st of the following month.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// String returns the ISO representation used as storage key.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// Before reports whether d falls on an earlier day than o.
func (d Date) Before(o Date) bool {
	return d.Time.Before(o.Time)
}

// Equal reports whether both dates name the same day.
func (d Date) Equal(o Date) bool {
	return d.Time.Equal(o.Time)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (i Item) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return ErrEmptyName
	}
	if len(i.Name) > 200 {
		return ErrNameTooLong
	}
	if strings.TrimSpace(i.Account) == "" {
		return ErrEmptyAccount
	}
	if i.DefaultDay != nil && (*i.DefaultDay < 1 || *i.DefaultDay > 31) {
		return ErrInvalidDay
	}
	return nil
}

func (o Override) Validate() error {
	if err := o.Date.Validate(); err != nil {
		return err
	}
	if o.Amount < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// DayOrFirst returns the configured default day, or 1 when unset.
func (i Item) DayOrFirst() int {
	if i.DefaultDay == nil {
		return 1
	}
	return *i.DefaultDay
}
