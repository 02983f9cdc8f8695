// Package cli holds the lpr-server commands.
package cli

import (
	"os"

	"github.com/spf13/cobra"
)

func Execute() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	serve := serveCmd()
	cmd := &cobra.Command{
		Use:          "lpr-server",
		Short:        "Thai license plate recognition service",
		SilenceUsage: true,
		RunE:         serve.RunE,
	}
	cmd.AddCommand(serve, provinceCmd(), hashPasswordCmd())
	return cmd
}
