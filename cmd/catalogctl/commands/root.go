package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"sjsage522/catalogworker/config"
)

var rootCmd = &cobra.Command{
	Use:          "catalogctl",
	Short:        "catalogctl runs catalog extractions and inspects their results.",
	SilenceUsage: true,
}

// ExecuteContext runs the command line and exits non-zero on error
func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the environment; commands override fields from flags
var loadConfig = config.LoadConfig

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}
