// Package normalize turns raw page text into canonical domain values:
// money amounts, size tokens, size ranges and discount figures.
package normalize

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"
)

// Money is a decimal amount tagged with an ISO currency code
type Money struct {
	Amount   decimal.Decimal
	Currency string
}

// String renders the amount with two fraction digits and the currency code
func (m Money) String() string {
	return m.Amount.StringFixed(2) + " " + m.Currency
}

var (
	amountPattern = regexp.MustCompile(`\d+(?:[.,']\d+)*`)

	// Ordered so that multi-character codes are found before single glyphs
	currencyMarkers = []struct {
		marker string
		code   string
	}{
		{"EUR", "EUR"},
		{"CHF", "CHF"},
		{"GBP", "GBP"},
		{"USD", "USD"},
		{"€", "EUR"},
		{"£", "GBP"},
		{"$", "USD"},
	}
)

// CleanText applies NFKC normalisation (no-break spaces become plain spaces)
// and collapses whitespace runs.
func CleanText(raw string) string {
	return strings.Join(strings.Fields(norm.NFKC.String(raw)), " ")
}

// ParseAmount extracts the first numeral in raw as a decimal.
// Returns false when raw carries no parseable numeral.
func ParseAmount(raw string) (decimal.Decimal, bool) {
	token := amountPattern.FindString(CleanText(raw))
	if token == "" {
		return decimal.Zero, false
	}
	amount, err := decimal.NewFromString(resolveSeparators(token))
	if err != nil {
		return decimal.Zero, false
	}
	return amount, true
}

// ParseMoney parses raw price text such as "1.299,00 €" or "EUR 89.90".
// The currency falls back to defaultCurrency when raw names none.
func ParseMoney(raw, defaultCurrency string) (Money, bool) {
	amount, ok := ParseAmount(raw)
	if !ok {
		return Money{}, false
	}
	return Money{Amount: amount, Currency: DetectCurrency(raw, defaultCurrency)}, true
}

// DetectCurrency returns the currency code named in raw, or fallback
func DetectCurrency(raw, fallback string) string {
	upper := strings.ToUpper(raw)
	for _, m := range currencyMarkers {
		if strings.Contains(upper, m.marker) {
			return m.code
		}
	}
	return fallback
}

// resolveSeparators rewrites a numeral token into decimal.NewFromString form.
// With both ',' and '.' present the last one is the decimal separator. A lone
// separator followed by exactly three digits is a thousands separator.
func resolveSeparators(token string) string {
	token = strings.ReplaceAll(token, "'", "")

	lastComma := strings.LastIndex(token, ",")
	lastDot := strings.LastIndex(token, ".")

	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			token = strings.ReplaceAll(token, ".", "")
			return strings.Replace(token, ",", ".", 1)
		}
		return strings.ReplaceAll(token, ",", "")
	case lastComma >= 0:
		return resolveSingle(token, ",")
	case lastDot >= 0:
		return resolveSingle(token, ".")
	default:
		return token
	}
}

func resolveSingle(token, sep string) string {
	if strings.Count(token, sep) > 1 {
		return strings.ReplaceAll(token, sep, "")
	}
	idx := strings.Index(token, sep)
	if len(token)-idx-1 == 3 {
		return strings.Replace(token, sep, "", 1)
	}
	return strings.Replace(token, sep, ".", 1)
}

// OrderPrices returns the pair as (original, current) with original >= current.
// Page order of the two prices is not guaranteed.
func OrderPrices(original, current decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	if current.GreaterThan(original) {
		return current, original
	}
	return original, current
}
