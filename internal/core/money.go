package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// All money in the system is stored and compared at two decimal places,
// rounded half up. Every value that crosses a boundary (request input,
// derived total, stock write) passes through one of these helpers so that no
// two code paths round differently.

// RoundAmount normalizes a decimal to currency precision (2dp, half up).
func RoundAmount(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// ToAmount parses a money field from display-oriented input. Blank, "null"
// and unparsable values fall back to zero instead of failing; the result is
// rounded to currency precision.
func ToAmount(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "null") {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d.Round(2)
}

// ParsePositiveAmount parses a mandatory monetary input such as a payment
// amount. Unlike ToAmount it rejects rather than defaults: zero, negative or
// unparsable input is a ValidationError.
func ParsePositiveAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, validationf("invalid amount %q", s)
	}
	if !d.IsPositive() {
		return decimal.Zero, validationf("amount must be greater than zero, got %s", d)
	}
	return d.Round(2), nil
}

// ParsePositiveQuantity parses a stock quantity (piece count or weight).
// Same rules as ParsePositiveAmount; kept separate so error messages name
// the right field.
func ParsePositiveQuantity(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, validationf("invalid quantity %q", s)
	}
	if !d.IsPositive() {
		return decimal.Zero, validationf("quantity must be greater than zero, got %s", d)
	}
	return d.Round(2), nil
}
