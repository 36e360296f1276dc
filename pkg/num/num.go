// Package num provides shared numeric helpers for prices and dollars.
package num

import (
	"fmt"
	"math"
)

// Round2 rounds to two decimal places (cents / price ticks).
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// RoundTick rounds a price to the nearest multiple of tick. A tick of
// zero falls back to cent rounding.
func RoundTick(price, tick float64) float64 {
	if tick <= 0 {
		return Round2(price)
	}
	return Round2(math.Round(price/tick) * tick)
}

// FormatUSD formats a dollar amount with sign, e.g. "+$210.00".
func FormatUSD(amount float64) string {
	if amount < 0 {
		return fmt.Sprintf("-$%.2f", -amount)
	}
	return fmt.Sprintf("+$%.2f", amount)
}

// FormatPercent formats a fraction as a signed percentage.
func FormatPercent(frac float64) string {
	return fmt.Sprintf("%+.2f%%", frac*100)
}
