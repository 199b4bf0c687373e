// Package selectors holds the versioned locator tables that tell the session
// controller, navigator and extractors where to look. Candidate lists are
// ordered most specific first, most generic (text match) last.
package selectors

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"dario.cat/mergo"
	"github.com/titanous/json5"

	"sjsage522/catalogworker/internal/agent"
)

// Table is the full set of locators for one site
type Table struct {
	Version       string                     `json:"version"`
	Session       SessionLocators            `json:"session"`
	Categories    map[string]Category        `json:"categories"`
	Subcategories map[string][]agent.Locator `json:"subcategories"`
	Filters       map[string][]agent.Locator `json:"filters"`
	ProductLinks  []agent.Locator            `json:"product_links"`
	Product       ProductSelectors           `json:"product"`
}

// SessionLocators are the candidates used while logging in
type SessionLocators struct {
	Consent         []agent.Locator `json:"consent"`
	LoginAffordance []agent.Locator `json:"login_affordance"`
	Email           []agent.Locator `json:"email"`
	Password        []agent.Locator `json:"password"`
	Submit          []agent.Locator `json:"submit"`
}

// Category is a top-level catalog section
type Category struct {
	Gender   string          `json:"gender"`
	Locators []agent.Locator `json:"locators"`
}

// Probe reads a value from the first element matching CSS: its Attr when set, else its text
type Probe struct {
	CSS  string `json:"css"`
	Attr string `json:"attr,omitempty"`
}

// ProductSelectors locate fields on a product page
type ProductSelectors struct {
	Name          []Probe `json:"name"`
	Brand         []Probe `json:"brand"`
	Color         []Probe `json:"color"`
	Description   []Probe `json:"description"`
	SKU           []Probe `json:"sku"`
	Images        []Probe `json:"images"`
	CurrentPrice  []Probe `json:"current_price"`
	OriginalPrice []Probe `json:"original_price"`

	// Containers whose text holds the "RRP ... % ... current" price layout
	PriceBlocks []string `json:"price_blocks"`

	SizeToggles []agent.Locator `json:"size_toggles"`
	SizeOptions []agent.Locator `json:"size_options"`
	StaticSizes []Probe         `json:"static_sizes"`

	OutOfStock         []string `json:"out_of_stock"`
	InStock            []string `json:"in_stock"`
	UnavailableClasses []string `json:"unavailable_classes"`
}

// Load returns the default table merged with the json5 file at path and then
// with its ".local" sibling (products.json5 -> products.local.json5), when present.
// An empty path yields the defaults.
func Load(path string) (*Table, error) {
	table := Default()
	if path == "" {
		return table, nil
	}

	ext := filepath.Ext(path)
	local := strings.TrimSuffix(path, ext) + ".local" + ext

	found := false
	for _, name := range []string{path, local} {
		data, err := os.ReadFile(name)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read selectors %s: %w", name, err)
		}

		var override Table
		if err := json5.Unmarshal(data, &override); err != nil {
			return nil, fmt.Errorf("failed to parse selectors %s: %w", name, err)
		}
		if err := mergo.Merge(table, override, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge selectors %s: %w", name, err)
		}
		found = true
	}
	if !found {
		return nil, fmt.Errorf("selectors file %s: %w", path, os.ErrNotExist)
	}

	if err := table.Validate(); err != nil {
		return nil, err
	}
	return table, nil
}

// Validate rejects tables the pipeline cannot run with
func (t *Table) Validate() error {
	if t.Version == "" {
		return fmt.Errorf("selectors: version is required")
	}
	if len(t.Categories) == 0 {
		return fmt.Errorf("selectors: no categories")
	}
	for name, cat := range t.Categories {
		if len(cat.Locators) == 0 {
			return fmt.Errorf("selectors: category %s has no locators", name)
		}
		if err := validateLocators("category "+name, cat.Locators); err != nil {
			return err
		}
	}
	for name, locs := range t.Subcategories {
		if err := validateLocators("subcategory "+name, locs); err != nil {
			return err
		}
	}
	if len(t.ProductLinks) == 0 {
		return fmt.Errorf("selectors: no product link locators")
	}
	if len(t.Product.Name) == 0 || len(t.Product.Brand) == 0 {
		return fmt.Errorf("selectors: name and brand probes are required")
	}
	return validateLocators("product links", t.ProductLinks)
}

func validateLocators(scope string, locs []agent.Locator) error {
	for i, loc := range locs {
		if loc.Query == "" {
			return fmt.Errorf("selectors: %s locator %d has an empty query", scope, i)
		}
		switch loc.By {
		case agent.ByCSS, agent.ByText:
		default:
			return fmt.Errorf("selectors: %s locator %d has unknown kind %q", scope, i, loc.By)
		}
	}
	return nil
}

// CategoryNames returns the configured category keys in sorted order
func (t *Table) CategoryNames() []string {
	names := make([]string, 0, len(t.Categories))
	for name := range t.Categories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
