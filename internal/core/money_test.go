package core

import "testing"

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out int64
	}{
		{"5000", 5000},
		{" 3000 ", 3000},
		{"12abc", 12},
		{"0", 0},
		{"", 0},
		{"abc", 0},
		{"-300", 0},
		{"1.5", 1},
		{"99999999999999999999", 0}, // overflow
	}
	for _, tc := range cases {
		if got := ParseAmount(tc.in); got != tc.out {
			t.Fatalf("%q expected %d, got %d", tc.in, tc.out, got)
		}
	}
}

func TestAmountText(t *testing.T) {
	if got := AmountText(0); got != "" {
		t.Fatalf("zero should render empty, got %q", got)
	}
	if got := AmountText(5000); got != "5000" {
		t.Fatalf("expected 5000, got %q", got)
	}
}

func TestFormatYen(t *testing.T) {
	cases := map[int64]string{
		0:       "¥0",
		999:     "¥999",
		1000:    "¥1,000",
		8000:    "¥8,000",
		1234567: "¥1,234,567",
		-120000: "-¥120,000",
	}
	for in, want := range cases {
		if got := FormatYen(in); got != want {
			t.Fatalf("FormatYen(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestParseDefaultDay(t *testing.T) {
	if d := ParseDefaultDay("27"); d == nil || *d != 27 {
		t.Fatalf("expected 27, got %v", d)
	}
	for _, in := range []string{"", "0", "abc"} {
		if d := ParseDefaultDay(in); d != nil {
			t.Fatalf("%q expected nil, got %d", in, *d)
		}
	}
}
