// Package core holds the expense model shared by the router and the stores.
//
// This file contains amount parsing and the fixed pt-BR rendering used in
// every bot reply.
package core

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// maxAmountDigits caps the integer part of an amount so that it fits the
// NUMERIC(12,2) column and int64 cents.
const maxAmountDigits = 10

var hundred = decimal.NewFromInt(100)

// ParseAmount converts a user amount to a decimal.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. Only
// plain positive numbers are allowed: no sign, no exponent, no grouping.
//
// Examples:
//
//	ParseAmount("58,90") -> 58.9, nil
//	ParseAmount("200")   -> 200, nil
//	ParseAmount("0")     -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.Replace(s, ",", ".", 1)

	intPart, _, _ := strings.Cut(s, ".")
	if len(intPart) > maxAmountDigits {
		return decimal.Zero, ErrInvalidAmount
	}
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' {
			return decimal.Zero, ErrInvalidAmount
		}
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if d.Sign() <= 0 {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// FormatBRL renders an amount with '.' thousands and ',' decimals and
// exactly two fraction digits, e.g. 1234.5 -> "1.234,50". The output never
// depends on the host locale.
func FormatBRL(d decimal.Decimal) string {
	r := d.Round(2)
	sign := ""
	if r.IsNegative() {
		sign = "-"
		r = r.Abs()
	}
	units := r.Truncate(0)
	cents := r.Sub(units).Mul(hundred).IntPart()
	return sign + humanize.FormatInteger("#.###,", int(units.IntPart())) + fmt.Sprintf(",%02d", cents)
}

// ToCents converts an amount to integer cents, rounding half away from zero.
func ToCents(d decimal.Decimal) int64 {
	return d.Mul(hundred).Round(0).IntPart()
}

// FromCents is the inverse of ToCents.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// Sum adds up the amounts of the given expenses.
func Sum(expenses []Expense) decimal.Decimal {
	total := decimal.Zero
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}
	return total
}
