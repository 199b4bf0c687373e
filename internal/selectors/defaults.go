package selectors

import "sjsage522/catalogworker/internal/agent"

// DefaultVersion identifies the compiled-in table
const DefaultVersion = "2025.07-bestsecret"

var css, text = agent.CSS, agent.Text

// Default returns the compiled-in table. Each call returns a fresh copy.
func Default() *Table {
	return &Table{
		Version: DefaultVersion,
		Session: SessionLocators{
			Consent: []agent.Locator{
				css("[data-testid='accept-cookies']"),
				css("#onetrust-accept-btn-handler"),
				css(".cmp-overlay button"),
				text("button", "Accept all"),
				text("button", "Alle akzeptieren"),
			},
			LoginAffordance: []agent.Locator{
				css("#login-button"),
				css("a[href*='login']"),
				text("button", "LOGIN"),
				text("a", "Login"),
			},
			Email: []agent.Locator{
				css("#username"),
				css("input[type='email']"),
				css("input[name='username']"),
			},
			Password: []agent.Locator{
				css("#password"),
				css("input[type='password']"),
			},
			Submit: []agent.Locator{
				css("#kc-login"),
				css("button[type='submit']"),
				text("button", "LOGIN"),
				text("button", "Log in"),
			},
		},
		Categories: map[string]Category{
			"WOMEN": {
				Gender: "women",
				Locators: []agent.Locator{
					css(".gender-switch-with-dropdown a:nth-child(1)"),
					css(".gender-switch-links a:nth-child(1)"),
					css("nav a[href*='FEMALE']"),
					text("a", "WOMEN"),
					text("a", "Women"),
				},
			},
			"MEN": {
				Gender: "men",
				Locators: []agent.Locator{
					css(".gender-switch-with-dropdown a:nth-child(2)"),
					css(".gender-switch-links a:nth-child(2)"),
					css("nav a[href*='=MALE']"),
					text("a", "MEN"),
					text("a", "Men"),
				},
			},
			"KIDS": {
				Gender: "kids",
				Locators: []agent.Locator{
					css(".gender-switch-with-dropdown a:nth-child(3)"),
					css(".gender-switch-links a:nth-child(3)"),
					css("nav a[href*='KIDS']"),
					text("a", "KIDS"),
					text("a", "Kids"),
				},
			},
		},
		Subcategories: map[string][]agent.Locator{
			"WOMEN_HOME":        {css("#gtm-category-navigation-WOMEN_NEW_1")},
			"WOMEN_LUXURY":      {css("#gtm-category-navigation-WOMEN_LUXURY_2"), text("a", "Luxury")},
			"WOMEN_CLOTHING":    {css("#gtm-category-navigation-WOMEN_CLOTHING_3"), text("a", "Clothing")},
			"WOMEN_SHOES":       {css("#gtm-category-navigation-WOMEN_SHOES_4"), text("a", "Shoes")},
			"WOMEN_SPORTS":      {css("#gtm-category-navigation-WOMEN_SPORTS_5")},
			"WOMEN_ACCESSORIES": {css("#gtm-category-navigation-WOMEN_ACCESSORIES_6")},
			"WOMEN_DESIGNER":    {css("#gtm-category-navigation-WOMEN_DESIGNER_7")},
			"MEN_HOME":          {css("#gtm-category-navigation-MEN_NEW_1")},
			"MEN_LUXURY":        {css("#gtm-category-navigation-MEN_LUXURY_2"), text("a", "Luxury")},
			"MEN_CLOTHING":      {css("#gtm-category-navigation-MEN_CLOTHING_3"), text("a", "Clothing")},
			"MEN_SHOES":         {css("#gtm-category-navigation-MEN_SHOES_4"), text("a", "Shoes")},
			"MEN_ACCESSORIES":   {css("#gtm-category-navigation-MEN_ACCESSORIES_6")},
			"KIDS_HOME":         {css("#gtm-category-navigation-KIDS_NEW_1")},
			"KIDS_CLOTHING":     {css("#gtm-category-navigation-KIDS_CLOTHING_3")},
			"KIDS_SHOES":        {css("#gtm-category-navigation-KIDS_SHOES_4")},
		},
		Filters: map[string][]agent.Locator{
			"WOMEN_LUXURY": {
				css("#v1-0-4 .filter-dropdown__button-label__text__inactive-version"),
				css("#v1-0-7 .filter-dropdown__button-label__text__inactive-version"),
				css("#v1-0-12 .filter-dropdown__button-label__text__inactive-version"),
			},
		},
		ProductLinks: []agent.Locator{
			css(`a[href*="/product/"]`),
			css(`a[href*="/artikel/"]`),
			css(`a[href*="/item/"]`),
			css(".product-tile a"),
			css(".product-card a"),
			css(".product-link"),
			css(`[data-testid*="product"] a`),
		},
		Product: ProductSelectors{
			Name: []Probe{
				{CSS: "[data-product-name]", Attr: "data-product-name"},
				{CSS: ".product-name"},
				{CSS: ".product-title"},
				{CSS: ".item-name"},
				{CSS: `h1[class*="product"]`},
				{CSS: `h1[class*="title"]`},
				{CSS: "h1"},
			},
			Brand: []Probe{
				{CSS: "[data-product-brand]", Attr: "data-product-brand"},
				{CSS: ".brand-name"},
				{CSS: ".product-brand"},
				{CSS: ".designer-name"},
				{CSS: ".vendor"},
				{CSS: ".brand"},
				{CSS: `span[class*="brand"]`},
				{CSS: `div[class*="brand"]`},
				{CSS: ".t-brand"},
			},
			Color: []Probe{
				{CSS: ".color-name"},
				{CSS: ".product-color"},
				{CSS: "[data-color]", Attr: "data-color"},
				{CSS: ".selected-color"},
				{CSS: ".color-option.selected"},
			},
			Description: []Probe{
				{CSS: ".product-description"},
				{CSS: ".description"},
				{CSS: ".product-details"},
				{CSS: ".item-description"},
				{CSS: ".product-info"},
				{CSS: ".product-measurements"},
			},
			SKU: []Probe{
				{CSS: "[data-product-sku]", Attr: "data-product-sku"},
				{CSS: "[itemprop='sku']", Attr: "content"},
				{CSS: ".product-sku"},
			},
			Images: []Probe{
				{CSS: ".product-image img", Attr: "src"},
				{CSS: ".product-gallery img", Attr: "src"},
				{CSS: ".main-image img", Attr: "src"},
				{CSS: "[data-product-image]", Attr: "data-product-image"},
				{CSS: `img[src*="product"]`, Attr: "src"},
				{CSS: `img[alt*="product"]`, Attr: "src"},
				{CSS: ".product-gallery img", Attr: "data-src"},
				{CSS: ".product-gallery img", Attr: "data-original"},
			},
			CurrentPrice: []Probe{
				{CSS: "[data-price-current]", Attr: "data-price-current"},
				{CSS: ".price-current"},
				{CSS: ".current-price"},
				{CSS: ".product-price .price"},
				{CSS: "[itemprop='price']", Attr: "content"},
			},
			OriginalPrice: []Probe{
				{CSS: "[data-price-original]", Attr: "data-price-original"},
				{CSS: ".price-original"},
				{CSS: ".original-price"},
				{CSS: ".price-rrp"},
				{CSS: "s.price"},
			},
			PriceBlocks: []string{
				".product-price",
				".price-box",
				".prices",
				"[data-testid*='price']",
			},
			SizeToggles: []agent.Locator{
				css("#size-selector-button"),
				css(".size-selector-button"),
				css("button[class*='size']"),
				css("[data-testid*='size']"),
				css(".product-size-selector"),
			},
			SizeOptions: []agent.Locator{
				css("#size-options > div > span.option-size"),
				css(".size-option"),
				css(".size-list .size"),
				css("[data-size]"),
				css("span[class*='size']"),
				css(".product-sizes .size"),
				css(".size-dropdown-option"),
			},
			StaticSizes: []Probe{
				{CSS: "[data-size]", Attr: "data-size"},
				{CSS: "[data-testid*='size']"},
				{CSS: ".size"},
				{CSS: ".sizes span"},
				{CSS: ".product-size"},
				{CSS: ".item-size"},
				{CSS: "[class*='size']"},
			},
			OutOfStock: []string{
				".out-of-stock",
				".sold-out",
				".unavailable",
				`[data-stock="false"]`,
				".stock-out",
			},
			InStock: []string{
				".in-stock",
				`[data-stock="true"]`,
				".add-to-cart:not([disabled])",
			},
			UnavailableClasses: []string{"disabled", "unavailable", "out-of-stock", "sold-out"},
		},
	}
}
