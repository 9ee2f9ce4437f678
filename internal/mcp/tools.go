// ABOUTME: MCP tool implementations over the WHOOP record cache.
// ABOUTME: Provides latest-record, by-id, single-field, field listing and fetch tools.
package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/harperreed/whoop/internal/display"
	"github.com/harperreed/whoop/internal/models"
	"github.com/harperreed/whoop/internal/storage"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_latest",
		Description: "Get the most recent cached WHOOP record for one or more variants (recovery, sleep, cycle, workout)",
	}, s.handleGetLatest)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_record",
		Description: "Get a cached WHOOP record by variant and id",
	}, s.handleGetRecord)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_field",
		Description: "Read one field of a cached WHOOP record",
	}, s.handleGetField)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_fields",
		Description: "List the fields, option codes and units of a variant",
	}, s.handleListFields)

	if s.fetcher != nil {
		mcp.AddTool(s.mcpServer, &mcp.Tool{
			Name:        "fetch",
			Description: "Fetch the latest record of a variant from the WHOOP API into the cache",
		}, s.handleFetch)
	}
}

// Tool input/output types

type getLatestInput struct {
	Variants []string `json:"variants,omitempty" jsonschema:"variants to read; all when empty"`
}

type recordOutput struct {
	Variant    string         `json:"variant"`
	ID         int64          `json:"id"`
	ScoreState string         `json:"score_state"`
	FetchedAt  string         `json:"fetched_at"`
	Headline   float64        `json:"headline"`
	Color      string         `json:"color"`
	Fields     map[string]any `json:"fields"`
}

type latestOutput struct {
	Records []recordOutput `json:"records"`
	Missing []string       `json:"missing,omitempty"`
}

type getRecordInput struct {
	Variant string `json:"variant" jsonschema:"recovery, sleep, cycle or workout"`
	ID      int64  `json:"id" jsonschema:"record id; 0 for the most recent; recovery accepts a sleep or cycle id"`
}

type getFieldInput struct {
	Variant string `json:"variant" jsonschema:"recovery, sleep, cycle or workout"`
	ID      int64  `json:"id,omitempty" jsonschema:"record id; 0 or omitted for the most recent"`
	Field   string `json:"field" jsonschema:"field name such as strain or score.stage_summary.sleep_cycle_count"`
}

type fieldOutput struct {
	Variant string `json:"variant"`
	ID      int64  `json:"id"`
	Field   string `json:"field"`
	Option  string `json:"option"`
	Kind    string `json:"kind"`
	Unit    string `json:"unit,omitempty"`
	Value   any    `json:"value"`
}

type listFieldsInput struct {
	Variant string `json:"variant" jsonschema:"recovery, sleep, cycle or workout"`
}

type fieldInfo struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	Option   string `json:"option"`
	Kind     string `json:"kind"`
	Unit     string `json:"unit,omitempty"`
	Optional bool   `json:"optional,omitempty"`
}

type listFieldsOutput struct {
	Variant string      `json:"variant"`
	Fields  []fieldInfo `json:"fields"`
}

type fetchInput struct {
	Variant string `json:"variant" jsonschema:"recovery, sleep, cycle or workout"`
}

type fetchOutput struct {
	Variant string `json:"variant"`
	Outcome string `json:"outcome"`
	Error   string `json:"error,omitempty"`
}

// Tool handlers

func (s *Server) handleGetLatest(ctx context.Context, req *mcp.CallToolRequest, input getLatestInput) (*mcp.CallToolResult, latestOutput, error) {
	variants := models.AllVariants
	if len(input.Variants) > 0 {
		variants = nil
		for _, name := range input.Variants {
			v, err := models.ParseVariant(name)
			if err != nil {
				return nil, latestOutput{}, err
			}
			variants = append(variants, v)
		}
	}

	out := latestOutput{Records: []recordOutput{}}
	for _, v := range variants {
		rec, err := storage.Lookup(s.repo, v, 0)
		if err != nil {
			out.Missing = append(out.Missing, v.String())
			continue
		}
		out.Records = append(out.Records, toRecordOutput(rec))
	}
	return nil, out, nil
}

func (s *Server) handleGetRecord(ctx context.Context, req *mcp.CallToolRequest, input getRecordInput) (*mcp.CallToolResult, recordOutput, error) {
	v, err := models.ParseVariant(input.Variant)
	if err != nil {
		return nil, recordOutput{}, err
	}
	rec, err := storage.Lookup(s.repo, v, input.ID)
	if err != nil {
		return nil, recordOutput{}, fmt.Errorf("get %s %d: %w", v, input.ID, err)
	}
	return nil, toRecordOutput(rec), nil
}

func (s *Server) handleGetField(ctx context.Context, req *mcp.CallToolRequest, input getFieldInput) (*mcp.CallToolResult, fieldOutput, error) {
	v, err := models.ParseVariant(input.Variant)
	if err != nil {
		return nil, fieldOutput{}, err
	}
	f, err := models.LookupField(v, input.Field)
	if err != nil {
		return nil, fieldOutput{}, err
	}
	rec, err := storage.Lookup(s.repo, v, input.ID)
	if err != nil {
		return nil, fieldOutput{}, fmt.Errorf("find %s %d: %w", v, input.ID, err)
	}
	val, ok := rec.Value(f.Option)
	if !ok {
		return nil, fieldOutput{}, fmt.Errorf("get %s: %w", f.Option, storage.ErrInvalidOption)
	}

	out := fieldOutput{
		Variant: v.String(),
		ID:      rec.ID(),
		Field:   f.Key(),
		Option:  fmt.Sprintf("%#04x", uint16(f.Option)),
		Kind:    f.Kind.String(),
		Unit:    f.Unit,
		Value:   val.Interface(),
	}
	if f.Role == models.RoleState {
		out.Value = models.ScoreState(val.Int).String()
	}
	return nil, out, nil
}

func (s *Server) handleListFields(ctx context.Context, req *mcp.CallToolRequest, input listFieldsInput) (*mcp.CallToolResult, listFieldsOutput, error) {
	v, err := models.ParseVariant(input.Variant)
	if err != nil {
		return nil, listFieldsOutput{}, err
	}
	out := listFieldsOutput{Variant: v.String()}
	for _, f := range models.Fields(v) {
		out.Fields = append(out.Fields, fieldInfo{
			Name:     f.Name,
			Path:     f.Key(),
			Option:   fmt.Sprintf("%#04x", uint16(f.Option)),
			Kind:     f.Kind.String(),
			Unit:     f.Unit,
			Optional: f.Optional,
		})
	}
	return nil, out, nil
}

func (s *Server) handleFetch(ctx context.Context, req *mcp.CallToolRequest, input fetchInput) (*mcp.CallToolResult, fetchOutput, error) {
	v, err := models.ParseVariant(input.Variant)
	if err != nil {
		return nil, fetchOutput{}, err
	}
	outcome, err := s.fetcher.Fetch(ctx, v)
	out := fetchOutput{Variant: v.String(), Outcome: outcome.String()}
	if err != nil {
		out.Error = err.Error()
	}
	return nil, out, nil
}

func toRecordOutput(rec *storage.Record) recordOutput {
	exported := rec.Export()
	headline, _ := rec.Value(models.HeadlineField(rec.Variant))
	grade := display.Off
	if rec.ScoreState() == models.ScoreScored {
		grade = display.ColorFor(rec.Variant, headline.Number())
	}
	return recordOutput{
		Variant:    exported.Variant,
		ID:         exported.ID,
		ScoreState: exported.ScoreState,
		FetchedAt:  exported.FetchedAt.Format(time.RFC3339),
		Headline:   headline.Number(),
		Color:      grade.String(),
		Fields:     exported.Fields,
	}
}
