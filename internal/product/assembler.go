package product

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"sjsage522/catalogworker/helpers"
	"sjsage522/catalogworker/internal/extract"
	"sjsage522/catalogworker/internal/normalize"
)

// Context is what the navigator knows about where a product was found
type Context struct {
	Category    string
	Subcategory string
	Gender      string
}

// Assembler composes Product records from extracted fields
type Assembler struct {
	site      string
	skuPrefix string
	currency  string
	maxImages int
	now       func() time.Time
}

// NewAssembler creates an assembler. maxImages caps ImageURLs.
func NewAssembler(site, skuPrefix, currency string, maxImages int) *Assembler {
	return &Assembler{
		site:      site,
		skuPrefix: skuPrefix,
		currency:  currency,
		maxImages: maxImages,
		now:       time.Now,
	}
}

// Assemble builds and validates one record. A record missing name or brand
// yields a record_invalid error and must not be stored.
func (a *Assembler) Assemble(sourceURL string, f extract.Fields, c Context) (*Product, error) {
	p := &Product{
		SourceURL:       sourceURL,
		SiteIdentifier:  a.site,
		SKU:             f.SKU,
		ExtractedAt:     a.now().UTC(),
		Name:            f.Name,
		Brand:           f.Brand,
		ColorRaw:        f.Color,
		Description:     f.Description,
		Currency:        a.currency,
		AvailableSizes:  nonNil(f.Sizes.Available),
		OutOfStockSizes: nonNil(f.Sizes.OutOfStock),
		InStock:         f.Stock.InStock,
		StockLevel:      stockLevel(f.Stock.Level),
		ImageURLs:       capped(f.Images, a.maxImages),
		Category:        c.Category,
		Subcategory:     c.Subcategory,
		Gender:          c.Gender,
	}
	if p.SKU == "" {
		p.SKU = NewSKU(a.skuPrefix, sourceURL)
	}

	a.applyPrices(p, f.Prices)

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (a *Assembler) applyPrices(p *Product, prices extract.PriceResult) {
	if prices.Current == nil {
		return
	}
	current := prices.Current.Amount
	if prices.Current.Currency != "" {
		p.Currency = prices.Current.Currency
	}
	p.CurrentPrice = &current

	if prices.Original == nil {
		return
	}
	original := prices.Original.Amount
	original, current = normalize.OrderPrices(original, current)
	p.OriginalPrice, p.CurrentPrice = &original, &current

	if amount, pct, ok := normalize.Discount(original, current); ok {
		p.DiscountAmount = &amount
		p.DiscountPercentage = &pct
	}
}

// NewSKU derives a stable token for a product whose page exposes no SKU.
// The product id from a ".../product/<id>" path is used when present,
// otherwise a name-based UUID of the URL.
func NewSKU(prefix, sourceURL string) string {
	if id, err := helpers.PathSegmentAfter(sourceURL, "product"); err == nil && id != "" {
		return prefix + "-" + strings.ToUpper(id)
	}
	id := uuid.NewSHA1(uuid.NameSpaceURL, []byte(sourceURL))
	token := strings.ToUpper(strings.ReplaceAll(id.String(), "-", ""))
	return prefix + "-" + token[:12]
}

func stockLevel(level extract.StockLevel) StockLevel {
	switch level {
	case extract.StockIn:
		return StockInStock
	case extract.StockOut:
		return StockOutOfStock
	default:
		return StockUnknown
	}
}

func capped(urls []string, max int) []string {
	if max > 0 && len(urls) > max {
		urls = urls[:max]
	}
	return nonNil(urls)
}

func nonNil(values []string) []string {
	out := make([]string, len(values))
	copy(out, values)
	return out
}

// Amount is a convenience for building decimal pointers in callers and tests
func Amount(value string) *decimal.Decimal {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return nil
	}
	return &d
}
