package cli

import (
	"github.com/spf13/cobra"
)

func newFetchCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch",
		Short: "Run one fetch-evaluate-alert cycle and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := NewApp(opts.Config, opts.Logger)
			if err != nil {
				return err
			}
			defer app.Close()

			return app.Scheduler.RunCycle(cmd.Context())
		},
	}
}
