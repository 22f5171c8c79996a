// Package core holds the domain model of the cashflow engine: transaction
// records, category rules, bill schedules and money arithmetic. Everything
// here is pure; persistence and transport live elsewhere.
package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// centsBound guards int64 overflow when scaling decimals to cents.
var centsBound = decimal.New(1, 17)

// ParseSignedCents converts a provider decimal amount (e.g. "-42.50") into
// signed cents with half-up rounding on the third decimal place. Negative
// amounts are outflows. Empty or non-numeric input is rejected.
func ParseSignedCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if d.Abs().GreaterThan(centsBound) {
		return 0, fmt.Errorf("%w: %q out of range", ErrInvalidAmount, s)
	}
	return d.Shift(2).Round(0).IntPart(), nil
}

// NormalizeCurrency uppercases and validates a 3-letter ISO currency code.
func NormalizeCurrency(s string) (string, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) != 3 {
		return "", ErrInvalidCurrency
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return "", ErrInvalidCurrency
		}
	}
	return s, nil
}

// Neg returns the negated amount.
func (m Money) Neg() Money {
	return Money{Cents: -m.Cents}
}

// Add returns the sum of two amounts.
func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

// IsOutflow reports whether the amount is negative.
func (m Money) IsOutflow() bool {
	return m.Cents < 0
}

// Magnitude returns the absolute amount.
func (m Money) Magnitude() Money {
	if m.Cents < 0 {
		return Money{Cents: -m.Cents}
	}
	return m
}

// Float returns the amount in currency units for display purposes only;
// all arithmetic stays in cents.
func (m Money) Float() float64 {
	return float64(m.Cents) / 100.0
}

func (m Money) String() string {
	neg := m.Cents < 0
	c := m.Cents
	if neg {
		c = -c
	}
	s := fmt.Sprintf("%d.%02d", c/100, c%100)
	if neg {
		return "-" + s
	}
	return s
}
