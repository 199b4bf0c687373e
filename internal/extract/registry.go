package extract

import (
	"context"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/catalogworker/internal/agent"
	"sjsage522/catalogworker/internal/selectors"
)

// Logical field names
const (
	FieldName        = "name"
	FieldBrand       = "brand"
	FieldColor       = "color"
	FieldDescription = "description"
	FieldSKU         = "sku"
	FieldPrice       = "price"
	FieldSizes       = "sizes"
	FieldStock       = "stock"
	FieldImages      = "images"
)

// FieldKeys lists every field reported in coverage statistics, in report order
var FieldKeys = []string{
	FieldName, FieldBrand, FieldPrice, FieldColor, FieldSizes,
	FieldStock, FieldImages, FieldDescription, FieldSKU,
}

var (
	skuPattern     = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._\-]{2,63}$`)
	imageExtension = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true}
)

// Options tune a Registry
type Options struct {
	SiteRoot     string
	Currency     string
	MaxImages    int
	ProbeTimeout time.Duration
}

// Fields is everything extracted from one product page
type Fields struct {
	Name        string
	Brand       string
	Color       string
	Description string
	SKU         string
	Prices      PriceResult
	Sizes       SizeResult
	Stock       StockResult
	Images      []string

	// Hits records which logical fields produced a value
	Hits map[string]bool
}

// Registry owns the ordered strategy lists for every field
type Registry struct {
	table  selectors.ProductSelectors
	opts   Options
	fields map[string]Field
	sizes  *SizeExtractor
}

// NewRegistry builds the default strategy lists from a selector table
func NewRegistry(table selectors.ProductSelectors, opts Options) *Registry {
	if opts.MaxImages <= 0 {
		opts.MaxImages = 10
	}
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = 3 * time.Second
	}

	r := &Registry{
		table:  table,
		opts:   opts,
		fields: make(map[string]Field),
		sizes:  NewSizeExtractor(table, opts.ProbeTimeout),
	}

	r.Register(Field{
		Name: FieldName,
		Strategies: append(probeStrategies(table.Name),
			jsonLDStrategy("name", func(p *jsonLDProduct) string { return p.Name }),
			metaStrategy("og:title"),
		),
		Valid: all(textWithin(300), hasLetter),
	})
	r.Register(Field{
		Name: FieldBrand,
		Strategies: append(probeStrategies(table.Brand),
			jsonLDStrategy("brand", (*jsonLDProduct).brandName),
			metaStrategy("product:brand"),
		),
		Valid: all(textWithin(100), hasLetter),
	})
	r.Register(Field{
		Name: FieldColor,
		Strategies: append(probeStrategies(table.Color),
			jsonLDStrategy("color", func(p *jsonLDProduct) string { return p.Color }),
			metaStrategy("product:color"),
		),
		Valid: all(textWithin(60), hasLetter),
	})
	r.Register(Field{
		Name: FieldDescription,
		Strategies: append(probeStrategies(table.Description),
			jsonLDStrategy("description", func(p *jsonLDProduct) string { return p.Description }),
			metaStrategy("og:description"),
			metaStrategy("description"),
		),
		Valid: textWithin(5000),
	})
	r.Register(Field{
		Name: FieldSKU,
		Strategies: append(probeStrategies(table.SKU),
			jsonLDStrategy("sku", func(p *jsonLDProduct) string { return p.Sku }),
		),
		Valid: skuPattern.MatchString,
	})

	return r
}

// Register adds a field or replaces the one with the same name
func (r *Registry) Register(f Field) {
	r.fields[f.Name] = f
}

// Extract returns the first valid value for field, or false when every strategy is exhausted
func (r *Registry) Extract(field string, doc *goquery.Document) (string, bool) {
	f, ok := r.fields[field]
	if !ok {
		return "", false
	}
	value, _, ok := f.Extract(doc)
	return value, ok
}

// ExtractFields runs every extractor against one product page. a may be nil,
// in which case the interactive size tier is skipped.
func (r *Registry) ExtractFields(ctx context.Context, a agent.Agent, doc *goquery.Document) Fields {
	f := Fields{Hits: make(map[string]bool, len(FieldKeys))}

	f.Name, f.Hits[FieldName] = r.Extract(FieldName, doc)
	f.Brand, f.Hits[FieldBrand] = r.Extract(FieldBrand, doc)
	f.Color, f.Hits[FieldColor] = r.Extract(FieldColor, doc)
	f.Description, f.Hits[FieldDescription] = r.Extract(FieldDescription, doc)
	f.SKU, f.Hits[FieldSKU] = r.Extract(FieldSKU, doc)

	f.Prices = r.ExtractPrices(doc, f.Description)
	f.Hits[FieldPrice] = f.Prices.Current != nil

	f.Sizes = r.sizes.Extract(ctx, a, doc, f.Description)
	f.Hits[FieldSizes] = !f.Sizes.Empty()

	f.Stock = r.ExtractStock(doc, f.Sizes)
	f.Hits[FieldStock] = f.Stock.Level != StockUnknown

	f.Images = r.ExtractImages(doc, r.opts.MaxImages)
	f.Hits[FieldImages] = len(f.Images) > 0

	return f
}

// ExtractImages collects absolute image URLs in strategy order, de-duplicated and capped at max
func (r *Registry) ExtractImages(doc *goquery.Document, max int) []string {
	if max <= 0 {
		return nil
	}
	var images []string
	seen := make(map[string]bool)

	add := func(raw string) bool {
		abs, ok := r.absoluteImage(raw)
		if ok && !seen[abs] {
			seen[abs] = true
			images = append(images, abs)
		}
		return len(images) < max
	}

	for _, p := range r.table.Images {
		attr := p.Attr
		if attr == "" {
			attr = "src"
		}
		more := true
		doc.Find(p.CSS).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			v, _ := s.Attr(attr)
			more = add(v)
			return more
		})
		if !more {
			return images
		}
	}

	if p, ok := findJSONLDProduct(doc); ok {
		for _, img := range p.images() {
			if !add(img) {
				break
			}
		}
	}
	return images
}

func (r *Registry) absoluteImage(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasPrefix(raw, "data:") {
		return "", false
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	if base, err := url.Parse(r.opts.SiteRoot); err == nil {
		ref = base.ResolveReference(ref)
	}
	if ref.Scheme != "http" && ref.Scheme != "https" {
		return "", false
	}
	if !imageExtension[strings.ToLower(path.Ext(ref.Path))] {
		return "", false
	}
	return ref.String(), true
}

func all(validators ...Validator) Validator {
	return func(value string) bool {
		for _, v := range validators {
			if !v(value) {
				return false
			}
		}
		return true
	}
}

func hasLetter(value string) bool {
	return strings.IndexFunc(value, unicode.IsLetter) >= 0
}
