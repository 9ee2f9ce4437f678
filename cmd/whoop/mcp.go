// ABOUTME: CLI command for starting the MCP server.
// ABOUTME: Serves the cache over stdio while the tick loop keeps it fresh.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/harperreed/whoop/internal/loop"
	"github.com/harperreed/whoop/internal/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server",
	Long: `Start the Model Context Protocol (MCP) server for AI assistant integration.

The server communicates via stdin/stdout. The tick loop runs in the
background so the cache stays current; logs go to stderr.

CONFIGURATION:

  {
    "mcpServers": {
      "whoop": {
        "command": "whoop",
        "args": ["mcp"]
      }
    }
  }

AVAILABLE TOOLS:

  get_latest    Most recent record of one or more variants
  get_record    Record by variant and id
  get_field     One field of a record
  list_fields   Fields, option codes and units of a variant
  fetch         Fetch a variant from the API now

AVAILABLE RESOURCES:

  whoop://summary   Headline reading of each variant
  whoop://records   Every cached record`,
	RunE: func(cmd *cobra.Command, args []string) error {
		server, err := mcp.NewServer(a.store, a.client, version)
		if err != nil {
			return err
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		lp := loop.New(loop.Config{
			Fetcher:  a.client,
			Store:    a.store,
			Interval: a.cfg.GetTickInterval(),
			Logger:   a.logger,
		})
		go func() {
			_ = lp.Run(ctx)
		}()

		return server.Serve(ctx)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
