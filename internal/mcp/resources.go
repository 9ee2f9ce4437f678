// ABOUTME: MCP resource implementations for the WHOOP record cache.
// ABOUTME: Provides whoop://summary and whoop://records resources.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/harperreed/whoop/internal/display"
	"github.com/harperreed/whoop/internal/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) registerResources() {
	// whoop://summary - headline reading of each variant
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         "whoop://summary",
		Name:        "WHOOP Summary",
		Description: "Headline reading and colour grade of the latest recovery, sleep, cycle and workout",
		MIMEType:    "application/json",
	}, s.handleSummaryResource)

	// whoop://records - every cached record
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         "whoop://records",
		Name:        "Cached WHOOP Records",
		Description: "Every record held in the cache, newest first",
		MIMEType:    "application/json",
	}, s.handleRecordsResource)
}

type summaryEntry struct {
	Variant string  `json:"variant"`
	Field   string  `json:"field"`
	Value   float64 `json:"value"`
	Color   string  `json:"color"`
	Present bool    `json:"present"`
	State   string  `json:"score_state,omitempty"`
}

// Resource handlers

func (s *Server) handleSummaryResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	entries := make([]summaryEntry, 0, len(models.AllVariants))
	for _, v := range models.AllVariants {
		r, err := display.ReadHeadline(s.repo, v)
		if err != nil {
			return nil, fmt.Errorf("read %s headline: %w", v, err)
		}
		name := ""
		if f, ok := models.FieldFor(r.Field); ok {
			name = f.Name
		}
		entry := summaryEntry{
			Variant: v.String(),
			Field:   name,
			Value:   r.Value,
			Color:   r.Color.String(),
			Present: r.Present,
		}
		if r.Present {
			entry.State = r.State.String()
		}
		entries = append(entries, entry)
	}
	return jsonResource("whoop://summary", entries)
}

func (s *Server) handleRecordsResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	records := s.repo.Snapshot()
	out := make([]any, 0, len(records))
	for _, r := range records {
		out = append(out, r.Export())
	}
	return jsonResource("whoop://records", out)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
