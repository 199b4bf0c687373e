package extract

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// jsonLDProduct is the subset of a schema.org Product the extractors read.
// Brand, image and offers come in several shapes and are decoded lazily.
type jsonLDProduct struct {
	Type        json.RawMessage   `json:"@type"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Sku         string            `json:"sku"`
	Color       string            `json:"color"`
	Brand       json.RawMessage   `json:"brand"`
	Image       json.RawMessage   `json:"image"`
	Offers      json.RawMessage   `json:"offers"`
	Graph       []json.RawMessage `json:"@graph"`
}

type jsonLDOffer struct {
	Availability  string          `json:"availability"`
	Price         json.RawMessage `json:"price"` // Can be string or number
	PriceCurrency string          `json:"priceCurrency"`
}

// findJSONLDProduct returns the first Product node in the page's JSON-LD blocks
func findJSONLDProduct(doc *goquery.Document) (*jsonLDProduct, bool) {
	var found *jsonLDProduct
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		found = productFromRaw(json.RawMessage(s.Text()))
		return found == nil
	})
	return found, found != nil
}

func productFromRaw(raw json.RawMessage) *jsonLDProduct {
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") {
		var list []json.RawMessage
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil
		}
		for _, item := range list {
			if p := productFromRaw(item); p != nil {
				return p
			}
		}
		return nil
	}

	var node jsonLDProduct
	if err := json.Unmarshal(raw, &node); err != nil {
		return nil
	}
	if hasType(node.Type, "Product") {
		return &node
	}
	for _, item := range node.Graph {
		if p := productFromRaw(item); p != nil {
			return p
		}
	}
	return nil
}

func hasType(raw json.RawMessage, want string) bool {
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return single == want
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err == nil {
		for _, t := range many {
			if t == want {
				return true
			}
		}
	}
	return false
}

// brandName accepts both "brand": "X" and "brand": {"name": "X"}
func (p *jsonLDProduct) brandName() string {
	var name string
	if err := json.Unmarshal(p.Brand, &name); err == nil {
		return name
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(p.Brand, &obj); err == nil {
		return obj.Name
	}
	return ""
}

func (p *jsonLDProduct) images() []string {
	var single string
	if err := json.Unmarshal(p.Image, &single); err == nil {
		return []string{single}
	}
	var many []string
	if err := json.Unmarshal(p.Image, &many); err == nil {
		return many
	}
	return nil
}

func (p *jsonLDProduct) offer() (jsonLDOffer, bool) {
	var offer jsonLDOffer
	if err := json.Unmarshal(p.Offers, &offer); err == nil {
		return offer, true
	}
	var offers []jsonLDOffer
	if err := json.Unmarshal(p.Offers, &offers); err == nil && len(offers) > 0 {
		return offers[0], true
	}
	return jsonLDOffer{}, false
}

// priceText returns the offer price as text whether it was encoded as a string or a number
func (o jsonLDOffer) priceText() string {
	var s string
	if err := json.Unmarshal(o.Price, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(o.Price, &n); err == nil {
		return n.String()
	}
	return ""
}
