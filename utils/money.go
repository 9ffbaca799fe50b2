package utils

import "github.com/shopspring/decimal"

// Money renders an amount with exactly two decimals, rounding half away from
// zero.
func Money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
