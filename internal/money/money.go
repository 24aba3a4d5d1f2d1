// Package money holds the bounded decimal arithmetic used for account balances.
//
// Balances are arbitrary-precision decimals, but the representable range is
// capped at a 96-bit mantissa. Arithmetic that would leave the range clamps to
// the nearest bound instead of failing.
package money

import "github.com/shopspring/decimal"

var (
	// Max is the largest representable balance (2^96 - 1).
	Max = decimal.RequireFromString("79228162514264337593543950335")
	// Min is the smallest representable balance.
	Min = Max.Neg()
)

// DefaultPrecision is the number of fractional digits amounts are rounded to on output.
const DefaultPrecision int32 = 4

// Clamp limits d to [Min, Max].
func Clamp(d decimal.Decimal) decimal.Decimal {
	if d.GreaterThan(Max) {
		return Max
	}
	if d.LessThan(Min) {
		return Min
	}
	return d
}

// SaturatingAdd returns a+b clamped to the representable range.
func SaturatingAdd(a, b decimal.Decimal) decimal.Decimal {
	return Clamp(a.Add(b))
}

// SaturatingSub returns a-b clamped to the representable range.
func SaturatingSub(a, b decimal.Decimal) decimal.Decimal {
	return Clamp(a.Sub(b))
}

// Round rounds d to places fractional digits, half to even.
func Round(d decimal.Decimal, places int32) decimal.Decimal {
	return d.RoundBank(places)
}
