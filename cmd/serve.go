package cmd

import (
	"github.com/spf13/cobra"

	"github.com/jonesrussell/engagement-advisor/internal/bootstrap"
)

func serveCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard and JSON API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return bootstrap.Serve(cmd.Context(), opts.configPath)
		},
	}
}
