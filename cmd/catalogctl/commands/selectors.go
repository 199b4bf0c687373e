package commands

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"sjsage522/catalogworker/internal/app"
)

var selectorsPath *string

func init() {
	selectorsPath = selectorsCmd.Flags().String("file", "", "A json5 selector file to merge, defaults to SELECTORS_PATH.")
	rootCmd.AddCommand(selectorsCmd)
}

var selectorsCmd = &cobra.Command{
	Use:   "selectors [--file <path/to/selectors.json5>]",
	Short: "Prints the effective selector table as JSON.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		if *selectorsPath != "" {
			cfg.SelectorsPath = *selectorsPath
		}
		table, err := app.LoadTable(cfg)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(table)
	},
}
