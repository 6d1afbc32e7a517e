// Package core implements the aggregation and reconciliation engines over
// expense and lend/return records.
//
// This file contains amount parsing and rounding helpers. Amounts are exact
// decimals on the record; direction of cash flow is carried by the category or
// transaction kind, never by sign.
package core

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount parses a monetary amount from its string form. It accepts both
// dot and comma decimal separators and rejects negative values.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, &ValidationError{Field: "amount", Message: "amount is required"}
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &ValidationError{Field: "amount", Message: "invalid amount: " + s}
	}
	if d.IsNegative() {
		return decimal.Zero, &ValidationError{Field: "amount", Message: "amount must not be negative"}
	}
	return d, nil
}

// Round2 rounds to two decimal places, half away from zero. Applied wherever
// a total or percentage is surfaced; intermediate sums stay unrounded.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
