// Package types provides the numeric value types shared by all layers.
package types

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point errors.
type Money = decimal.Decimal

// Zero returns zero Money value.
func Zero() Money {
	return decimal.Zero
}

// NewMoneyFromInt creates a Money value from whole currency units.
func NewMoneyFromInt(v int64) Money {
	return decimal.NewFromInt(v)
}

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// ParseMoney parses a price or amount. Missing or malformed input is zero.
func ParseMoney(s string) Money {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ParseQuantity parses a unit count. Missing or malformed input is zero and
// fractional input is truncated toward zero.
func ParseQuantity(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if q, err := strconv.ParseInt(s, 10, 64); err == nil {
		return q
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	return d.Truncate(0).IntPart()
}

// LineAmount returns quantity * price.
func LineAmount(quantity int64, price Money) Money {
	return price.Mul(decimal.NewFromInt(quantity))
}

// ClampQuantity returns max(0, q).
func ClampQuantity(q int64) int64 {
	if q < 0 {
		return 0
	}
	return q
}

// ClampMoney returns max(0, m).
func ClampMoney(m Money) Money {
	if m.IsNegative() {
		return decimal.Zero
	}
	return m
}

// FormatMoney renders an amount with two fraction digits and comma thousands
// separators, rounding half away from zero, e.g. 1234.5 -> "1,234.50".
func FormatMoney(m Money) string {
	s := m.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	intPart, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}
