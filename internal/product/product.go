// Package product defines the Product record and assembles it from extracted fields.
package product

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"sjsage522/catalogworker/internal/normalize"
	apperrors "sjsage522/catalogworker/pkg/errors"
)

func init() {
	// Prices are written as JSON numbers for downstream readers
	decimal.MarshalJSONWithoutQuotes = true
}

// StockLevel is the coarse availability of a product
type StockLevel string

const (
	StockInStock    StockLevel = "in_stock"
	StockOutOfStock StockLevel = "out_of_stock"
	StockUnknown    StockLevel = "unknown"
)

// Product is one extracted catalog item. SourceURL is its identity.
// JSON names are consumed by external readers and must stay stable.
type Product struct {
	SourceURL          string           `json:"source_url"`
	SiteIdentifier     string           `json:"site"`
	SKU                string           `json:"sku"`
	ExtractedAt        time.Time        `json:"extracted_at"`
	Name               string           `json:"name"`
	Brand              string           `json:"brand"`
	ColorRaw           string           `json:"color"`
	Description        string           `json:"description"`
	CurrentPrice       *decimal.Decimal `json:"current_price"`
	OriginalPrice      *decimal.Decimal `json:"original_price"`
	Currency           string           `json:"currency"`
	DiscountAmount     *decimal.Decimal `json:"discount_amount"`
	DiscountPercentage *decimal.Decimal `json:"discount_percentage"`
	AvailableSizes     []string         `json:"available_sizes"`
	OutOfStockSizes    []string         `json:"out_of_stock_sizes"`
	InStock            bool             `json:"in_stock"`
	StockLevel         StockLevel       `json:"stock_level"`
	ImageURLs          []string         `json:"image_urls"`
	Category           string           `json:"category"`
	Subcategory        string           `json:"subcategory"`
	Gender             string           `json:"gender"`
}

// Validate checks the record invariants
func (p *Product) Validate() error {
	switch {
	case p.SourceURL == "":
		return apperrors.NewRecordInvalid(p.SourceURL, "missing source url")
	case p.Name == "" && p.Brand == "":
		return apperrors.NewRecordInvalid(p.SourceURL, "missing name and brand")
	case p.Name == "":
		return apperrors.NewRecordInvalid(p.SourceURL, "missing name")
	case p.Brand == "":
		return apperrors.NewRecordInvalid(p.SourceURL, "missing brand")
	}

	available := make(map[string]bool, len(p.AvailableSizes))
	for _, size := range p.AvailableSizes {
		if !normalize.SizeGrammar.MatchString(size) {
			return apperrors.NewRecordInvalid(p.SourceURL, fmt.Sprintf("size %q is not canonical", size))
		}
		available[size] = true
	}
	for _, size := range p.OutOfStockSizes {
		if !normalize.SizeGrammar.MatchString(size) {
			return apperrors.NewRecordInvalid(p.SourceURL, fmt.Sprintf("size %q is not canonical", size))
		}
		if available[size] {
			return apperrors.NewRecordInvalid(p.SourceURL, fmt.Sprintf("size %q is both available and out of stock", size))
		}
	}

	if p.DiscountPercentage != nil {
		pct := *p.DiscountPercentage
		if !pct.IsPositive() || pct.GreaterThan(decimal.NewFromInt(100)) {
			return apperrors.NewRecordInvalid(p.SourceURL, fmt.Sprintf("discount percentage %s out of range", pct))
		}
		if p.OriginalPrice == nil || p.CurrentPrice == nil || !p.OriginalPrice.GreaterThan(*p.CurrentPrice) {
			return apperrors.NewRecordInvalid(p.SourceURL, "discount without original > current")
		}
	}
	return nil
}
