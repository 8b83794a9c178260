package domain

import (
	"github.com/shopspring/decimal"
)

// Money values are decimal.Decimal kept at 2 decimal places and stored as
// NUMERIC(12,2). Arithmetic on dues and payment breakdowns must stay exact,
// so amounts never pass through float64.

// ZeroMoney is the additive identity for money sums.
var ZeroMoney = decimal.Zero

// MoneyFromString parses a currency amount and normalizes it to 2 decimal places.
func MoneyFromString(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	return d.Round(2), nil
}

// MustMoney is a test/config helper that panics on malformed amounts.
func MustMoney(s string) decimal.Decimal {
	d, err := MoneyFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// RoundMoney normalizes an amount to 2 decimal places.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// MinMoney returns the smaller of two amounts.
func MinMoney(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

// PercentOf computes rate * amount rounded to a money value.
// A rate of 0.015 on 10000.00 yields 150.00.
func PercentOf(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate).Round(2)
}

// IsPositiveMoney reports whether the amount is strictly greater than zero.
func IsPositiveMoney(d decimal.Decimal) bool {
	return d.GreaterThan(decimal.Zero)
}
