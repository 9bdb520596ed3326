package main

import (
	"github.com/spf13/cobra"

	"github.com/omsdash/omsctl/internal/mcp"
)

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the order tools over MCP on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, _, err := openApp(true)
			if err != nil {
				return err
			}
			// Run closes the cache database.
			return mcp.NewServer(app, version).Run(cmd.Context())
		},
	}
}
