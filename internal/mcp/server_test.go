// ABOUTME: Tests for MCP server, tools, and resources.
// ABOUTME: Covers NewServer, tool handlers, and resource handlers over a seeded store.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/harperreed/whoop/internal/client"
	"github.com/harperreed/whoop/internal/models"
	"github.com/harperreed/whoop/internal/storage"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type stubFetcher struct {
	calls []models.Variant
}

func (f *stubFetcher) Fetch(_ context.Context, v models.Variant) (client.Outcome, error) {
	f.calls = append(f.calls, v)
	return client.Deferred, nil
}

// setupTestStore creates a store holding one scored cycle and one pending recovery.
func setupTestStore(t *testing.T) *storage.Store {
	t.Helper()
	store := storage.New(storage.DefaultCapacity)

	c, err := store.Create(models.VariantCycle, 100)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := store.Apply(c, []storage.Assignment{
		{Option: models.CycleScoreState, Value: storage.IntValue(int64(models.ScoreScored))},
		{Option: models.CycleStrain, Value: storage.FloatValue(14.3)},
		{Option: models.CycleMaxHeartRate, Value: storage.IntValue(171)},
	}); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	r, err := store.Create(models.VariantRecovery, 100, 55)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := store.SetInt(r, models.RecoveryScoreState, int64(models.ScorePending)); err != nil {
		t.Fatalf("SetInt failed: %v", err)
	}
	return store
}

func TestNewServer(t *testing.T) {
	server, err := NewServer(setupTestStore(t), nil, "")
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	if server.mcpServer == nil {
		t.Error("Expected non-nil mcpServer")
	}
	if server.repo == nil {
		t.Error("Expected non-nil repo")
	}
}

func TestHandleGetLatest(t *testing.T) {
	server, _ := NewServer(setupTestStore(t), nil, "test")
	ctx := context.Background()

	_, out, err := server.handleGetLatest(ctx, nil, getLatestInput{})
	if err != nil {
		t.Fatalf("handleGetLatest failed: %v", err)
	}
	if len(out.Records) != 2 {
		t.Fatalf("got %d records, want 2", len(out.Records))
	}
	if strings.Join(out.Missing, ",") != "sleep,workout" {
		t.Errorf("Missing = %v, want [sleep workout]", out.Missing)
	}

	_, out, err = server.handleGetLatest(ctx, nil, getLatestInput{Variants: []string{"cycle"}})
	if err != nil {
		t.Fatalf("handleGetLatest failed: %v", err)
	}
	if len(out.Records) != 1 {
		t.Fatalf("got %d records, want 1", len(out.Records))
	}
	rec := out.Records[0]
	if rec.Headline != 14.3 || rec.Color != "orange" || rec.ScoreState != "SCORED" {
		t.Errorf("cycle record = %+v", rec)
	}

	if _, _, err := server.handleGetLatest(ctx, nil, getLatestInput{Variants: []string{"steps"}}); err == nil {
		t.Error("expected error for unknown variant")
	}
}

func TestHandleGetRecord(t *testing.T) {
	server, _ := NewServer(setupTestStore(t), nil, "test")
	ctx := context.Background()

	tests := []struct {
		name    string
		input   getRecordInput
		wantID  int64
		wantErr bool
	}{
		{"by cycle id", getRecordInput{Variant: "recovery", ID: 100}, 100, false},
		{"by sleep id", getRecordInput{Variant: "recovery", ID: 55}, 100, false},
		{"latest", getRecordInput{Variant: "cycle"}, 100, false},
		{"missing id", getRecordInput{Variant: "cycle", ID: 7}, 0, true},
		{"empty variant", getRecordInput{Variant: "sleep"}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, out, err := server.handleGetRecord(ctx, nil, tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && out.ID != tt.wantID {
				t.Errorf("ID = %d, want %d", out.ID, tt.wantID)
			}
		})
	}
}

func TestHandleGetField(t *testing.T) {
	server, _ := NewServer(setupTestStore(t), nil, "test")
	ctx := context.Background()

	_, out, err := server.handleGetField(ctx, nil, getFieldInput{Variant: "cycle", Field: "max_heart_rate"})
	if err != nil {
		t.Fatalf("handleGetField failed: %v", err)
	}
	if out.Value != int64(171) || out.Option != "0x2003" || out.Unit != "bpm" {
		t.Errorf("field = %+v", out)
	}

	_, out, err = server.handleGetField(ctx, nil, getFieldInput{Variant: "recovery", ID: 55, Field: "score_state"})
	if err != nil {
		t.Fatalf("handleGetField failed: %v", err)
	}
	if out.Value != "PENDING" {
		t.Errorf("score_state = %v, want PENDING", out.Value)
	}

	if _, _, err := server.handleGetField(ctx, nil, getFieldInput{Variant: "cycle", Field: "recovery_score"}); err == nil {
		t.Error("expected error for field of another variant")
	}
}

// copyOnlyRepo fails single-field reads so callers must work from one
// record copy.
type copyOnlyRepo struct {
	storage.Repository
	records int
}

func (r *copyOnlyRepo) Get(storage.Handle, models.Option) (storage.Value, error) {
	return storage.Value{}, errors.New("single-field read")
}

func (r *copyOnlyRepo) Record(h storage.Handle) (*storage.Record, error) {
	r.records++
	return r.Repository.Record(h)
}

func TestHandleGetFieldReadsOneCopy(t *testing.T) {
	repo := &copyOnlyRepo{Repository: setupTestStore(t)}
	server, _ := NewServer(repo, nil, "test")

	_, out, err := server.handleGetField(context.Background(), nil, getFieldInput{Variant: "cycle", ID: 100, Field: "score.strain"})
	if err != nil {
		t.Fatalf("handleGetField failed: %v", err)
	}
	if out.Value != 14.3 || out.ID != 100 {
		t.Errorf("field = %+v", out)
	}
	if repo.records != 1 {
		t.Errorf("Record called %d times, want 1", repo.records)
	}
}

func TestHandleGetRecordPendingIsOff(t *testing.T) {
	server, _ := NewServer(setupTestStore(t), nil, "test")

	_, out, err := server.handleGetRecord(context.Background(), nil, getRecordInput{Variant: "recovery", ID: 55})
	if err != nil {
		t.Fatalf("handleGetRecord failed: %v", err)
	}
	if out.ScoreState != "PENDING" || out.Color != "off" {
		t.Errorf("pending recovery = %+v", out)
	}
}

func TestHandleListFields(t *testing.T) {
	server, _ := NewServer(storage.New(1), nil, "test")

	_, out, err := server.handleListFields(context.Background(), nil, listFieldsInput{Variant: "workout"})
	if err != nil {
		t.Fatalf("handleListFields failed: %v", err)
	}
	if len(out.Fields) != 17 {
		t.Errorf("got %d workout fields, want 17", len(out.Fields))
	}
	if out.Fields[0].Option != "0x4000" || out.Fields[0].Name != "id" {
		t.Errorf("first field = %+v", out.Fields[0])
	}
}

func TestHandleFetch(t *testing.T) {
	fetcher := &stubFetcher{}
	server, _ := NewServer(storage.New(1), fetcher, "test")

	_, out, err := server.handleFetch(context.Background(), nil, fetchInput{Variant: "sleep"})
	if err != nil {
		t.Fatalf("handleFetch failed: %v", err)
	}
	if out.Outcome != "deferred" || len(fetcher.calls) != 1 || fetcher.calls[0] != models.VariantSleep {
		t.Errorf("fetch = %+v, calls %v", out, fetcher.calls)
	}
}

func TestSummaryResource(t *testing.T) {
	server, _ := NewServer(setupTestStore(t), nil, "test")

	res, err := server.handleSummaryResource(context.Background(), &mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatalf("handleSummaryResource failed: %v", err)
	}
	if len(res.Contents) != 1 || res.Contents[0].URI != "whoop://summary" {
		t.Fatalf("contents = %+v", res.Contents)
	}

	var entries []summaryEntry
	if err := json.Unmarshal([]byte(res.Contents[0].Text), &entries); err != nil {
		t.Fatalf("summary is not JSON: %v", err)
	}
	if len(entries) != 4 {
		t.Fatalf("got %d entries, want 4", len(entries))
	}
	for _, e := range entries {
		if e.Variant == "cycle" && (!e.Present || e.Field != "strain" || e.Color != "orange") {
			t.Errorf("cycle entry = %+v", e)
		}
		if e.Variant == "recovery" && (!e.Present || e.State != "PENDING" || e.Color != "off") {
			t.Errorf("pending recovery entry = %+v", e)
		}
		if e.Variant == "sleep" && e.Present {
			t.Errorf("sleep entry present without data: %+v", e)
		}
	}
}

func TestRecordsResource(t *testing.T) {
	server, _ := NewServer(setupTestStore(t), nil, "test")

	res, err := server.handleRecordsResource(context.Background(), &mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatalf("handleRecordsResource failed: %v", err)
	}
	var records []storage.ExportRecord
	if err := json.Unmarshal([]byte(res.Contents[0].Text), &records); err != nil {
		t.Fatalf("records is not JSON: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("got %d records, want 2", len(records))
	}
}
