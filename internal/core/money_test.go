package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1.0", "1", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{"0", "0", true},
		{"0.01", "0.01", true},
		{" 2.50 ", "2.5", true},
		{"-1", "", false},
		{"+1", "", false},
		{"1e3", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || !got.Equal(decimal.RequireFromString(tc.out)) {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	if got := FormatAmount(decimal.NewFromInt(950), "₾"); got != "950.00 ₾" {
		t.Fatalf("unexpected format: %q", got)
	}
	if got := FormatAmount(decimal.RequireFromString("-12.5"), "₾"); got != "-12.50 ₾" {
		t.Fatalf("unexpected format: %q", got)
	}
	if got := FormatAmount(decimal.RequireFromString("3.456"), ""); got != "3.46" {
		t.Fatalf("unexpected format: %q", got)
	}
}
