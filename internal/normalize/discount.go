package normalize

import (
	"regexp"

	"github.com/shopspring/decimal"
)

var (
	hundred           = decimal.NewFromInt(100)
	percentagePattern = regexp.MustCompile(`(\d{1,3}(?:[.,]\d{1,2})?)\s*%`)
)

// Discount computes the absolute and percentage discount of current against original.
// ok is false unless original > current and the percentage rounded to two
// places is positive, in which case 0 < percentage <= 100.
func Discount(original, current decimal.Decimal) (amount, percentage decimal.Decimal, ok bool) {
	if !original.GreaterThan(current) || !original.IsPositive() || current.IsNegative() {
		return decimal.Zero, decimal.Zero, false
	}
	amount = original.Sub(current)
	percentage = amount.Div(original).Mul(hundred).Round(2)
	if !percentage.IsPositive() {
		return decimal.Zero, decimal.Zero, false
	}
	return amount, percentage, true
}

// ParsePercentage finds the first "NN%" figure in raw; values outside (0, 100] are rejected
func ParsePercentage(raw string) (decimal.Decimal, bool) {
	m := percentagePattern.FindStringSubmatch(CleanText(raw))
	if m == nil {
		return decimal.Zero, false
	}
	pct, err := decimal.NewFromString(resolveSeparators(m[1]))
	if err != nil || !pct.IsPositive() || pct.GreaterThan(hundred) {
		return decimal.Zero, false
	}
	return pct, true
}
