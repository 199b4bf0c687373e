package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// StockLevel is the coarse availability of a product
type StockLevel string

const (
	StockIn      StockLevel = "in_stock"
	StockOut     StockLevel = "out_of_stock"
	StockUnknown StockLevel = "unknown"
)

// StockResult is the stock signal and where it came from
type StockResult struct {
	InStock  bool
	Level    StockLevel
	Strategy string
}

// ExtractStock decides availability. The JSON-LD offer is trusted first, then
// available sizes, then out-of-stock and in-stock markers, then a product whose
// only sizes are sold out. Anything else is unknown.
func (r *Registry) ExtractStock(doc *goquery.Document, sizes SizeResult) StockResult {
	if p, ok := findJSONLDProduct(doc); ok {
		if offer, ok := p.offer(); ok {
			availability := strings.ToLower(offer.Availability)
			switch {
			case strings.Contains(availability, "outofstock"), strings.Contains(availability, "soldout"):
				return StockResult{Level: StockOut, Strategy: "jsonld:availability"}
			case strings.Contains(availability, "instock"), strings.Contains(availability, "limitedavailability"):
				return StockResult{InStock: true, Level: StockIn, Strategy: "jsonld:availability"}
			}
		}
	}

	if len(sizes.Available) > 0 {
		return StockResult{InStock: true, Level: StockIn, Strategy: "sizes:" + sizes.Tier}
	}

	for _, css := range r.table.OutOfStock {
		if doc.Find(css).Length() > 0 {
			return StockResult{Level: StockOut, Strategy: "css:" + css}
		}
	}
	for _, css := range r.table.InStock {
		if doc.Find(css).Length() > 0 {
			return StockResult{InStock: true, Level: StockIn, Strategy: "css:" + css}
		}
	}

	if len(sizes.OutOfStock) > 0 {
		return StockResult{Level: StockOut, Strategy: "sizes:" + sizes.Tier}
	}
	return StockResult{Level: StockUnknown}
}
