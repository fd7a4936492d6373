// Package money provides integer minor-unit monetary arithmetic.
//
// All amounts are signed counts of the smallest currency unit (cents,
// pence). No floating point enters any calculation: percentage rates are
// converted once, at the API boundary, to basis points and every division
// is an integer floor. This keeps totals bit-identical across recomputes.
package money

import (
	"errors"
	"fmt"
	"math"
)

// Money is an amount in currency minor units.
type Money int64

// ErrOverflow reports that an arithmetic result does not fit in int64.
// Overflow is always fatal for the caller; it is never wrapped silently.
var ErrOverflow = errors.New("money: amount overflow")

// BasisPoints is a percentage scaled by 100 (20% == 2000 bps).
// Rates with up to two fractional digits convert exactly.
type BasisPoints int64

// RateToBasisPoints converts a fractional percentage (0-100) to basis
// points. This is the only place a float is touched.
func RateToBasisPoints(rate float64) BasisPoints {
	return BasisPoints(math.Round(rate * 100))
}

// Multiply returns unit*qty, failing on overflow.
func Multiply(unit Money, qty int64) (Money, error) {
	if unit == 0 || qty == 0 {
		return 0, nil
	}
	result := int64(unit) * qty
	if result/qty != int64(unit) {
		return 0, fmt.Errorf("%w: %d * %d", ErrOverflow, unit, qty)
	}
	return Money(result), nil
}

// PercentOf returns floor(amount * bps / 10000), the exclusive-rate
// portion of amount. Operands are expected non-negative.
func PercentOf(amount Money, bps BasisPoints) (Money, error) {
	if amount == 0 || bps == 0 {
		return 0, nil
	}
	scaled := int64(amount) * int64(bps)
	if scaled/int64(bps) != int64(amount) {
		return 0, fmt.Errorf("%w: %d bps of %d", ErrOverflow, bps, amount)
	}
	return Money(scaled / 10000), nil
}

// InclusivePortion returns floor(amount * bps / (10000 + bps)), the tax
// already embedded in a gross amount at the given rate.
func InclusivePortion(amount Money, bps BasisPoints) (Money, error) {
	if amount == 0 || bps == 0 {
		return 0, nil
	}
	scaled := int64(amount) * int64(bps)
	if scaled/int64(bps) != int64(amount) {
		return 0, fmt.Errorf("%w: %d bps in %d", ErrOverflow, bps, amount)
	}
	return Money(scaled / (10000 + int64(bps))), nil
}

// SubtractCapped returns a-b, floored at zero. Discount amounts are
// subtracted with this so a line can never go negative.
func SubtractCapped(a, b Money) Money {
	if b >= a {
		return 0
	}
	return a - b
}

// Min returns the smaller of two amounts.
func Min(a, b Money) Money {
	if a < b {
		return a
	}
	return b
}

// Add returns a+b, failing on overflow.
func Add(a, b Money) (Money, error) {
	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		return 0, fmt.Errorf("%w: %d + %d", ErrOverflow, a, b)
	}
	return sum, nil
}
