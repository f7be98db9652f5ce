package main

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/sumandas0/worldkit/internal/mcp"
)

func serveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, func(ctx context.Context, a *app) error {
				server := mcp.NewServer(a.client.Elements, a.logger.GetZerologLogger(), version)
				return server.Run(ctx, &mcpsdk.StdioTransport{})
			})
		},
	}
}
