// Package safe provides exact decimal arithmetic pinned to a wallet's scale.
//
// Every operation truncates toward zero at the requested number of decimal
// places; nothing here rounds. Results stay exact because amounts are
// shopspring decimals, never binary floats.
package safe

import "github.com/shopspring/decimal"

// FloorAt truncates d toward zero at the given number of decimal places.
// Negative values also truncate toward zero: FloorAt(-1.19, 1) == -1.1.
func FloorAt(d decimal.Decimal, places int32) decimal.Decimal {
	return d.Truncate(places)
}

// AddAt returns a+b truncated toward zero at the given decimal places.
func AddAt(a, b decimal.Decimal, places int32) decimal.Decimal {
	return a.Add(b).Truncate(places)
}

// SubAt returns a-b truncated toward zero at the given decimal places.
func SubAt(a, b decimal.Decimal, places int32) decimal.Decimal {
	return a.Sub(b).Truncate(places)
}

// PercentOf returns floor(amount * percent / 100) at the given decimal
// places. The division by 100 is an exact decimal-point shift, so the only
// precision loss is the final truncation.
func PercentOf(amount, percent decimal.Decimal, places int32) decimal.Decimal {
	return amount.Mul(percent).Shift(-2).Truncate(places)
}

// Max returns the larger of a and b.
func Max(a, b decimal.Decimal) decimal.Decimal {
	if a.GreaterThanOrEqual(b) {
		return a
	}

	return b
}

// Min returns the smaller of a and b.
func Min(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThanOrEqual(b) {
		return a
	}

	return b
}
