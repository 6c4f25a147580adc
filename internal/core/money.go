// Package core provides amount parsing and formatting utilities.
//
// Amounts are whole yen. Text typed by the user is kept verbatim in the
// monthly view and only converted when it is persisted or summed.
package core

import (
	"strconv"
	"strings"
)

// ParseAmount converts amount text to yen the way the input field is read:
// leading whitespace is skipped, then the leading run of digits is taken and
// anything after it ignored. Text without leading digits yields 0.
//
// Examples:
//
//	ParseAmount("5000")    -> 5000
//	ParseAmount(" 12abc")  -> 12
//	ParseAmount("")        -> 0
//	ParseAmount("-300")    -> 0
func ParseAmount(s string) int64 {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	v, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// AmountText is the display text of a stored amount. Zero renders empty
// because a stored zero cannot be told apart from "not entered yet".
func AmountText(yen int64) string {
	if yen == 0 {
		return ""
	}
	return strconv.FormatInt(yen, 10)
}

// FormatYen formats yen with thousands separators, e.g. "¥12,345".
func FormatYen(yen int64) string {
	neg := yen < 0
	if neg {
		yen = -yen
	}
	digits := strconv.FormatInt(yen, 10)
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteString("¥")
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ParseDefaultDay reads the optional default day field. Blank, zero or
// unparsable input means "no default day".
func ParseDefaultDay(s string) *int {
	d := int(ParseAmount(s))
	if d == 0 {
		return nil
	}
	return &d
}
