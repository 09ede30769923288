// Package core provides money parsing and handling utilities.
//
// This file contains the amount parser used by every input surface (form,
// CLI, importers) and the display formatter used by the dashboard metrics.
package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultCurrencySymbol is the lari sign shown next to every amount.
const DefaultCurrencySymbol = "₾"

// ParseAmount converts user input into a non-negative decimal amount.
//
// Both dot (12.34) and comma (12,34) decimal separators are accepted.
// Zero is allowed, a leading sign is not.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("12,34") -> 12.34, nil
//	ParseAmount("0")     -> 0, nil
//	ParseAmount("-1")    -> error
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if strings.ContainsAny(s, "eE") {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return d, nil
}

// FormatAmount renders an amount with two decimals followed by the currency
// symbol, e.g. "950.00 ₾".
func FormatAmount(d decimal.Decimal, symbol string) string {
	if symbol == "" {
		return d.StringFixed(2)
	}
	return d.StringFixed(2) + " " + symbol
}
