// ABOUTME: Tests for record snapshots and export.
// ABOUTME: Verifies JSON, YAML, and Markdown export formats.
package storage

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/harperreed/whoop/internal/models"
	"gopkg.in/yaml.v3"
)

func seededStore(t *testing.T) *Store {
	t.Helper()
	s := New(DefaultCapacity)
	base := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	c, _ := s.Create(models.VariantCycle, 100)
	_ = s.Apply(c, []Assignment{
		{Option: models.CycleScoreState, Value: IntValue(int64(models.ScoreScored))},
		{Option: models.CycleStrain, Value: FloatValue(14.3)},
		{Option: models.CycleAverageHeartRate, Value: IntValue(68)},
	})
	r, _ := s.Create(models.VariantRecovery, 100, 55)
	_ = s.Apply(r, []Assignment{
		{Option: models.RecoveryScoreState, Value: IntValue(int64(models.ScorePending))},
	})
	return s
}

func TestSnapshotNewestFirst(t *testing.T) {
	s := seededStore(t)
	records := s.Snapshot()
	if len(records) != 2 {
		t.Fatalf("Snapshot returned %d records, want 2", len(records))
	}
	if records[0].Variant != models.VariantRecovery || records[1].Variant != models.VariantCycle {
		t.Errorf("order = %s, %s; want recovery, cycle", records[0].Variant, records[1].Variant)
	}
	if records[1].ScoreState() != models.ScoreScored {
		t.Errorf("cycle score state = %s, want SCORED", records[1].ScoreState())
	}
	if v, _ := records[1].Value(models.CycleStrain); v.Float != 14.3 {
		t.Errorf("cycle strain = %v, want 14.3", v.Float)
	}
}

func TestRecordCopyIsDetached(t *testing.T) {
	s := seededStore(t)
	h, _ := s.Find(models.VariantCycle, 100)
	rec, err := s.Record(h)
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	_ = s.SetFloat(h, models.CycleStrain, 1.0)
	if v, _ := rec.Value(models.CycleStrain); v.Float != 14.3 {
		t.Errorf("copied strain changed to %v", v.Float)
	}
}

func TestExportJSON(t *testing.T) {
	s := seededStore(t)

	data, err := s.ExportJSON()
	if err != nil {
		t.Fatalf("ExportJSON failed: %v", err)
	}

	var export ExportData
	if err := json.Unmarshal(data, &export); err != nil {
		t.Fatalf("Failed to parse JSON: %v", err)
	}

	if export.Version != "1.0" {
		t.Errorf("Expected version 1.0, got %s", export.Version)
	}
	if export.Tool != "whoop" {
		t.Errorf("Expected tool whoop, got %s", export.Tool)
	}
	if len(export.Records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(export.Records))
	}
	cycle := export.Records[1]
	if cycle.Variant != "cycle" || cycle.ID != 100 {
		t.Errorf("cycle record = %s/%d", cycle.Variant, cycle.ID)
	}
	if cycle.Fields["strain"] != 14.3 {
		t.Errorf("strain = %v, want 14.3", cycle.Fields["strain"])
	}
	if cycle.Fields["score_state"] != "SCORED" {
		t.Errorf("score_state = %v, want SCORED", cycle.Fields["score_state"])
	}
}

func TestExportYAML(t *testing.T) {
	s := seededStore(t)

	data, err := s.ExportYAML()
	if err != nil {
		t.Fatalf("ExportYAML failed: %v", err)
	}

	var parsed struct {
		Tool    string                      `yaml:"tool"`
		Records map[string][]map[string]any `yaml:"records"`
	}
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("Failed to parse YAML: %v", err)
	}
	if parsed.Tool != "whoop" {
		t.Errorf("Expected tool whoop, got %s", parsed.Tool)
	}
	if len(parsed.Records["cycle"]) != 1 || len(parsed.Records["recovery"]) != 1 {
		t.Errorf("records grouped as %v", parsed.Records)
	}
}

func TestExportMarkdown(t *testing.T) {
	s := seededStore(t)

	md := s.ExportMarkdown(nil)
	for _, want := range []string{"# WHOOP Export", "## Recovery", "## Cycle", "| strain | strain | 14.30 |", "| score_state |  | PENDING |"} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
	if strings.Contains(md, "## Sleep") {
		t.Error("markdown has a section for an empty variant")
	}

	cycle := models.VariantCycle
	md = s.ExportMarkdown(&cycle)
	if strings.Contains(md, "## Recovery") {
		t.Error("filtered markdown contains recovery section")
	}
}
