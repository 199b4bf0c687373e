package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"sjsage522/catalogworker/internal/app"
)

var (
	parseCategory    *string
	parseSubcategory *string
	parseMax         *int
	parseAgent       *string
)

func init() {
	parseCategory = parseCmd.Flags().String("category", "", "The logical category to parse (e.g. WOMEN).")
	parseSubcategory = parseCmd.Flags().String("subcategory", "", "An optional subcategory key (e.g. WOMEN_LUXURY).")
	parseMax = parseCmd.Flags().Int("max", 0, "The maximum number of products, defaults to MAX_PRODUCTS.")
	parseAgent = parseCmd.Flags().String("agent", "", "The rendering agent to use: chrome or http.")
	parseCmd.MarkFlagRequired("category")
	rootCmd.AddCommand(parseCmd)
}

var parseCmd = &cobra.Command{
	Use:   "parse --category <CATEGORY> [--subcategory <KEY>] [--max <n>]",
	Short: "Logs in, parses one category and stores every valid product.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		if *parseAgent != "" {
			cfg.AgentKind = *parseAgent
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		max := cfg.MaxProducts
		if *parseMax > 0 {
			max = *parseMax
		}

		services, err := app.InitializeServices(cmd.Context(), cfg, app.NewAgent)
		if err != nil {
			return err
		}
		defer services.Cleanup()

		products, summary, err := services.Parser.ParseCategory(cmd.Context(), *parseCategory, *parseSubcategory, max)
		out := cmd.OutOrStdout()
		if len(products) > 0 {
			renderProducts(out, products)
		}
		summary.Render(out)
		if err != nil {
			return fmt.Errorf("parse %s: %w", *parseCategory, err)
		}
		return nil
	},
}
