// ABOUTME: MCP server setup for the WHOOP record cache.
// ABOUTME: Wraps the MCP server with read access to the store and an optional fetcher.
package mcp

import (
	"context"

	"github.com/harperreed/whoop/internal/client"
	"github.com/harperreed/whoop/internal/models"
	"github.com/harperreed/whoop/internal/storage"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Fetcher retrieves the latest record of a variant.
type Fetcher interface {
	Fetch(ctx context.Context, v models.Variant) (client.Outcome, error)
}

// Server wraps the MCP server with storage access.
type Server struct {
	mcpServer *mcp.Server
	repo      storage.Repository
	fetcher   Fetcher
}

// NewServer creates a new MCP server over repo. A nil fetcher leaves out
// the fetch tool.
func NewServer(repo storage.Repository, fetcher Fetcher, version string) (*Server, error) {
	if version == "" {
		version = "dev"
	}
	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "whoop",
			Version: version,
		},
		nil,
	)

	s := &Server{
		mcpServer: mcpServer,
		repo:      repo,
		fetcher:   fetcher,
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Serve starts the MCP server using stdio transport.
func (s *Server) Serve(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}
