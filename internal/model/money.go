package model

import "math"

// Cents converts a decimal currency amount to integer minor units.
// Amounts cross the JSON boundary as decimals but all arithmetic and
// storage happen in cents.
func Cents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// Amount converts integer minor units back to a decimal amount.
func Amount(cents int64) float64 {
	return float64(cents) / 100
}
