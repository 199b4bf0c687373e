package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"

	"sjsage522/catalogworker/internal/normalize"
)

// PriceResult is the price pair read from a product page. Original is only
// set when the page shows a reference price; Percent is the discount the page
// states, which may disagree with the computed one.
type PriceResult struct {
	Current  *normalize.Money
	Original *normalize.Money
	Percent  *decimal.Decimal
	Strategy string
}

// pricePattern locates a price layout in free text; zero group indexes are unused
type pricePattern struct {
	name     string
	re       *regexp.Regexp
	original int
	current  int
	percent  int
}

const (
	num  = `(\d[\d.,']*\d|\d)`
	cur  = `\s*(?:€|EUR|CHF|£|\$)`
	pct  = `(\d{1,3}(?:[.,]\d{1,2})?)\s*%`
	dash = `\s*[-–]\s*`
)

// Ordered most specific layout first
var pricePatterns = []pricePattern{
	{
		name:     "rrp-percent-current",
		re:       regexp.MustCompile(`(?i)(?:RRP|UVP)\s*` + num + cur + dash + pct + `\s*` + num + cur),
		original: 1,
		percent:  2,
		current:  3,
	},
	{
		name:     "original-percent-current",
		re:       regexp.MustCompile(num + cur + dash + pct + `\s*` + num + cur),
		original: 1,
		percent:  2,
		current:  3,
	},
	{
		name:     "percent-current-original",
		re:       regexp.MustCompile(`(?i)-\s*` + pct + `\s*` + num + cur + `\s*(?:(?:RRP|UVP)\s*)?` + num + cur),
		original: 3,
		percent:  1,
		current:  2,
	},
	{
		name:     "rrp-current",
		re:       regexp.MustCompile(`(?i)(?:RRP|UVP)\s*` + num + cur + `.*?` + num + cur),
		original: 1,
		current:  2,
	},
	{
		name:     "two-prices",
		re:       regexp.MustCompile(num + cur + `.*?` + num + cur),
		original: 1,
		current:  2,
	},
}

// ExtractPrices reads the price pair. Free-text layouts in the description
// and the price blocks come first, then the JSON-LD offer, then price probes.
// The returned pair is ordered so that Original >= Current.
func (r *Registry) ExtractPrices(doc *goquery.Document, description string) PriceResult {
	var res PriceResult

	sources := []string{description}
	for _, css := range r.table.PriceBlocks {
		doc.Find(css).Each(func(_ int, s *goquery.Selection) {
			sources = append(sources, s.Text())
		})
	}
	for _, text := range sources {
		if res = r.pricesFromText(text); res.Current != nil {
			break
		}
	}

	if res.Current == nil {
		if p, ok := findJSONLDProduct(doc); ok {
			if offer, ok := p.offer(); ok {
				currency := offer.PriceCurrency
				if currency == "" {
					currency = r.opts.Currency
				}
				if m, ok := normalize.ParseMoney(offer.priceText(), currency); ok && m.Amount.IsPositive() {
					m.Currency = currency
					res.Current = &m
					res.Strategy = "jsonld:offers.price"
				}
			}
		}
	}
	if res.Current == nil {
		if m, name, ok := r.moneyFromProbes(doc, probeStrategies(r.table.CurrentPrice)); ok {
			res.Current = &m
			res.Strategy = name
		}
	}
	if res.Original == nil && res.Current != nil {
		if m, _, ok := r.moneyFromProbes(doc, probeStrategies(r.table.OriginalPrice)); ok {
			res.Original = &m
		}
	}

	if res.Current != nil && res.Original != nil {
		original, current := normalize.OrderPrices(res.Original.Amount, res.Current.Amount)
		res.Original.Amount, res.Current.Amount = original, current
	}
	return res
}

func (r *Registry) pricesFromText(text string) PriceResult {
	text = normalize.CleanText(text)
	if text == "" {
		return PriceResult{}
	}

	for _, p := range pricePatterns {
		m := p.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		currency := normalize.DetectCurrency(m[0], r.opts.Currency)
		original, okOriginal := normalize.ParseAmount(m[p.original])
		current, okCurrent := normalize.ParseAmount(m[p.current])
		if !okOriginal || !okCurrent || !original.IsPositive() || !current.IsPositive() {
			continue
		}

		res := PriceResult{
			Original: &normalize.Money{Amount: original, Currency: currency},
			Current:  &normalize.Money{Amount: current, Currency: currency},
			Strategy: "text:" + p.name,
		}
		if p.percent > 0 {
			if pct, ok := normalize.ParsePercentage(m[p.percent] + "%"); ok {
				res.Percent = &pct
			}
		}
		return res
	}
	return PriceResult{}
}

func (r *Registry) moneyFromProbes(doc *goquery.Document, strategies []Strategy) (normalize.Money, string, bool) {
	for _, s := range strategies {
		res := apply(FieldPrice, s, doc)
		if !res.Found || !strings.ContainsAny(res.Value, "0123456789") {
			continue
		}
		if m, ok := normalize.ParseMoney(res.Value, r.opts.Currency); ok && m.Amount.IsPositive() {
			return m, s.Name, true
		}
	}
	return normalize.Money{}, "", false
}
