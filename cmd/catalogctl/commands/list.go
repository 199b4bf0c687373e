package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"sjsage522/catalogworker/internal/product"
	"sjsage522/catalogworker/internal/store"
)

// listFilter narrows the stored collection; empty fields match everything
type listFilter struct {
	Category string
	Brand    string
	Gender   string
	Limit    int
}

func (f listFilter) apply(products []product.Product) []product.Product {
	var out []product.Product
	for _, p := range products {
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
		if f.Category != "" && !strings.EqualFold(p.Category, f.Category) {
			continue
		}
		if f.Brand != "" && !strings.Contains(strings.ToLower(p.Brand), strings.ToLower(f.Brand)) {
			continue
		}
		if f.Gender != "" && !strings.EqualFold(p.Gender, f.Gender) {
			continue
		}
		out = append(out, p)
	}
	return out
}

var (
	listStore *string
	listOpts  listFilter
)

func init() {
	listStore = listCmd.Flags().String("store", "", "The store file to read, defaults to STORE_PATH.")
	listCmd.Flags().StringVar(&listOpts.Category, "category", "", "Only products of this category.")
	listCmd.Flags().StringVar(&listOpts.Brand, "brand", "", "Only products whose brand contains this text.")
	listCmd.Flags().StringVar(&listOpts.Gender, "gender", "", "Only products of this gender.")
	listCmd.Flags().IntVar(&listOpts.Limit, "limit", 0, "Show at most this many products.")
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list [--store <path>] [--category <c>] [--brand <b>] [--gender <g>] [--limit <n>]",
	Short: "Lists stored products as a table.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := *listStore
		if path == "" {
			path = loadConfig().StorePath
		}

		products, err := store.NewFileStore(path).LoadAll()
		if err != nil {
			return err
		}
		products = listOpts.apply(products)

		out := cmd.OutOrStdout()
		renderProducts(out, products)
		fmt.Fprintf(out, "%d products\n", len(products))
		return nil
	},
}

func renderProducts(w io.Writer, products []product.Product) {
	t := newTable(w)
	t.AppendHeader(table.Row{"SKU", "Brand", "Name", "Price", "Original", "Discount", "Sizes", "Stock", "Category"})
	for _, p := range products {
		t.AppendRow(table.Row{
			p.SKU,
			p.Brand,
			p.Name,
			money(p.CurrentPrice, p.Currency),
			money(p.OriginalPrice, p.Currency),
			percent(p),
			strings.Join(p.AvailableSizes, " "),
			string(p.StockLevel),
			strings.Trim(p.Category+"/"+p.Subcategory, "/"),
		})
	}
	t.Render()
}

func money(amount *decimal.Decimal, currency string) string {
	if amount == nil {
		return "-"
	}
	return amount.String() + " " + currency
}

func percent(p product.Product) string {
	if p.DiscountPercentage == nil {
		return "-"
	}
	return p.DiscountPercentage.String() + "%"
}
