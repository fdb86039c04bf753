package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newAssetsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "assets",
		Short: "List the configured tracked assets",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := NewApp(opts.Config, opts.Logger)
			if err != nil {
				return err
			}
			defer app.Close()

			assets, err := app.Store.ListAssets(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SYMBOL\tNAME\tPROVIDER\tUPPER\tLOWER\tLAST ALERT")
			for _, a := range assets {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					a.Symbol, a.Name, a.ProviderSymbol,
					formatThreshold(a.UpperThreshold),
					formatThreshold(a.LowerThreshold),
					formatLastAlert(a.LastAlertedAt))
			}
			return w.Flush()
		},
	}
}

func formatThreshold(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}

func formatLastAlert(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return t.UTC().Format(time.RFC3339)
}
