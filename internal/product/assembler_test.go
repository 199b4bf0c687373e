package product

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/catalogworker/internal/extract"
	"sjsage522/catalogworker/internal/normalize"
	apperrors "sjsage522/catalogworker/pkg/errors"
)

const productURL = "https://www.shop.test/de/product/ab1234?ref=list"

func eur(value string) *normalize.Money {
	return &normalize.Money{Amount: decimal.RequireFromString(value), Currency: "EUR"}
}

func newTestAssembler() *Assembler {
	a := NewAssembler("BestSecret", "BS", "EUR", 2)
	a.now = func() time.Time { return time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC) }
	return a
}

func baseFields() extract.Fields {
	return extract.Fields{
		Name:  "Wool Coat",
		Brand: "Acme",
		Color: "Camel",
		Sizes: extract.SizeResult{Available: []string{"S", "M"}, OutOfStock: []string{"L"}},
		Stock: extract.StockResult{InStock: true, Level: extract.StockIn},
		Images: []string{
			"https://cdn.shop.test/1.jpg",
			"https://cdn.shop.test/2.jpg",
			"https://cdn.shop.test/3.jpg",
		},
	}
}

func TestAssembleSwapsReversedPrices(t *testing.T) {
	f := baseFields()
	f.Prices = extract.PriceResult{Current: eur("50"), Original: eur("30")}

	p, err := newTestAssembler().Assemble(productURL, f, Context{Category: "WOMEN", Gender: "women"})
	require.NoError(t, err)

	assert.Equal(t, "50", p.OriginalPrice.String())
	assert.Equal(t, "30", p.CurrentPrice.String())
	assert.Equal(t, "20", p.DiscountAmount.String())
	assert.True(t, decimal.NewFromFloat(40.0).Equal(*p.DiscountPercentage))
}

func TestAssembleDescriptionPriceScenario(t *testing.T) {
	f := baseFields()
	f.Prices = extract.PriceResult{Current: eur("90.00"), Original: eur("120.00")}

	p, err := newTestAssembler().Assemble(productURL, f, Context{})
	require.NoError(t, err)
	assert.Equal(t, "120", p.OriginalPrice.String())
	assert.Equal(t, "90", p.CurrentPrice.String())
	assert.Equal(t, "25", p.DiscountPercentage.String())
	assert.Equal(t, "EUR", p.Currency)
}

func TestAssembleWithoutDiscount(t *testing.T) {
	f := baseFields()
	f.Prices = extract.PriceResult{Current: eur("30")}

	p, err := newTestAssembler().Assemble(productURL, f, Context{})
	require.NoError(t, err)
	assert.Equal(t, "30", p.CurrentPrice.String())
	assert.Nil(t, p.OriginalPrice)
	assert.Nil(t, p.DiscountAmount)
	assert.Nil(t, p.DiscountPercentage)

	f.Prices = extract.PriceResult{Current: eur("30"), Original: eur("30")}
	p, err = newTestAssembler().Assemble(productURL, f, Context{})
	require.NoError(t, err)
	assert.Nil(t, p.DiscountPercentage)

	// A discount that rounds to 0% keeps the record and omits the derived fields
	f.Prices = extract.PriceResult{Current: eur("999999.99"), Original: eur("1000000")}
	p, err = newTestAssembler().Assemble(productURL, f, Context{})
	require.NoError(t, err)
	assert.Equal(t, "1000000", p.OriginalPrice.String())
	assert.Nil(t, p.DiscountAmount)
	assert.Nil(t, p.DiscountPercentage)
}

func TestAssembleDropsIncompleteRecords(t *testing.T) {
	a := newTestAssembler()

	f := baseFields()
	f.Name = ""
	_, err := a.Assemble(productURL, f, Context{})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeRecordInvalid))
	assert.Contains(t, err.Error(), "missing name")

	f = baseFields()
	f.Brand = ""
	_, err = a.Assemble(productURL, f, Context{})
	assert.Contains(t, err.Error(), "missing brand")
}

func TestAssembleFillsRecord(t *testing.T) {
	p, err := newTestAssembler().Assemble(productURL, baseFields(), Context{
		Category:    "WOMEN",
		Subcategory: "WOMEN_LUXURY",
		Gender:      "women",
	})
	require.NoError(t, err)

	assert.Equal(t, "BS-AB1234", p.SKU)
	assert.Equal(t, "BestSecret", p.SiteIdentifier)
	assert.Equal(t, time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC), p.ExtractedAt)
	assert.Equal(t, []string{"S", "M"}, p.AvailableSizes)
	assert.Equal(t, []string{"L"}, p.OutOfStockSizes)
	assert.Equal(t, StockInStock, p.StockLevel)
	assert.Len(t, p.ImageURLs, 2)
	assert.Equal(t, "WOMEN_LUXURY", p.Subcategory)
	assert.Nil(t, p.CurrentPrice)
}

func TestNewSKUIsStable(t *testing.T) {
	a := NewSKU("BS", "https://www.shop.test/catalog/coat-camel")
	b := NewSKU("BS", "https://www.shop.test/catalog/coat-camel")
	c := NewSKU("BS", "https://www.shop.test/catalog/coat-black")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Regexp(t, `^BS-[0-9A-F]{12}$`, a)

	assert.Equal(t, "BS-AB1234", NewSKU("BS", productURL))
}

func TestValidateRejectsOverlappingSizes(t *testing.T) {
	p := &Product{
		SourceURL:       productURL,
		Name:            "Coat",
		Brand:           "Acme",
		AvailableSizes:  []string{"M"},
		OutOfStockSizes: []string{"M"},
	}
	assert.Error(t, p.Validate())

	p.OutOfStockSizes = []string{"Select size"}
	assert.Error(t, p.Validate())

	p.OutOfStockSizes = nil
	p.DiscountPercentage = Amount("120")
	assert.Error(t, p.Validate())
}

func TestProductJSONFieldNames(t *testing.T) {
	f := baseFields()
	f.Prices = extract.PriceResult{Current: eur("90.00"), Original: eur("120.00")}
	p, err := newTestAssembler().Assemble(productURL, f, Context{Category: "WOMEN"})
	require.NoError(t, err)

	data, err := json.Marshal(p)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	for _, key := range []string{
		"source_url", "site", "sku", "extracted_at", "name", "brand", "color",
		"description", "current_price", "original_price", "currency", "discount_amount",
		"discount_percentage", "available_sizes", "out_of_stock_sizes", "in_stock",
		"stock_level", "image_urls", "category", "subcategory", "gender",
	} {
		assert.Contains(t, raw, key)
	}
	assert.Equal(t, 120.0, raw["original_price"])
	assert.Equal(t, 25.0, raw["discount_percentage"])
}
