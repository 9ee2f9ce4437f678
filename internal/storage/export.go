// ABOUTME: Record snapshots and export of the store contents.
// ABOUTME: Supports JSON, YAML, and Markdown export formats.
package storage

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/harperreed/whoop/internal/models"
	"gopkg.in/yaml.v3"
)

// FieldValue is one field of a record copied out of the store.
type FieldValue struct {
	Field models.Field
	Value Value
}

// Record is a point-in-time copy of one slot.
type Record struct {
	Handle    Handle
	Variant   models.Variant
	Seq       uint64
	FetchedAt time.Time
	Fields    []FieldValue
}

// Value returns the copied value of opt.
func (r *Record) Value(opt models.Option) (Value, bool) {
	for _, fv := range r.Fields {
		if fv.Field.Option == opt {
			return fv.Value, true
		}
	}
	return Value{}, false
}

// ID returns the record's primary id. For recovery this is the cycle id.
func (r *Record) ID() int64 {
	ids := models.IdentityFields(r.Variant)
	if len(ids) == 0 {
		return 0
	}
	v, _ := r.Value(ids[0].Option)
	return v.Int
}

// ScoreState returns the stored scoring state.
func (r *Record) ScoreState() models.ScoreState {
	v, _ := r.Value(models.ScoreStateField(r.Variant).Option)
	return models.ScoreState(v.Int)
}

// Map returns field name to value for encoding.
func (r *Record) Map() map[string]any {
	m := make(map[string]any, len(r.Fields))
	for _, fv := range r.Fields {
		if fv.Field.Role == models.RoleState {
			m[fv.Field.Name] = models.ScoreState(fv.Value.Int).String()
			continue
		}
		m[fv.Field.Name] = fv.Value.Interface()
	}
	return m
}

// Record copies every field of the slot behind h.
func (s *Store) Record(h Handle) (*Record, error) {
	r, err := s.ringFor(h)
	if err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.seq[h.slot] == 0 {
		return nil, fmt.Errorf("%s: %w", h, ErrNoRecordings)
	}
	return r.copySlot(h.slot), nil
}

// copySlot builds a Record from a slot. Caller holds the lock.
func (r *ring) copySlot(slot int) *Record {
	fields := models.Fields(r.variant)
	rec := &Record{
		Handle:    Handle{variant: r.variant, slot: slot},
		Variant:   r.variant,
		Seq:       r.seq[slot],
		FetchedAt: r.stamps[slot],
		Fields:    make([]FieldValue, 0, len(fields)),
	}
	for _, f := range fields {
		var v Value
		if f.Kind == models.KindFloat {
			v = FloatValue(r.floats[slot][f.Offset])
		} else {
			v = IntValue(r.ints[slot][f.Offset])
		}
		rec.Fields = append(rec.Fields, FieldValue{Field: f, Value: v})
	}
	return rec
}

// Snapshot copies every live record, newest first.
func (s *Store) Snapshot() []*Record {
	var out []*Record
	for _, v := range models.AllVariants {
		r := s.rings[v]
		r.mu.RLock()
		for slot := 0; slot < r.live(); slot++ {
			out = append(out, r.copySlot(slot))
		}
		r.mu.RUnlock()
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].FetchedAt.Equal(out[j].FetchedAt) {
			return out[i].FetchedAt.After(out[j].FetchedAt)
		}
		if out[i].Variant != out[j].Variant {
			return variantRank(out[i].Variant) < variantRank(out[j].Variant)
		}
		return out[i].Seq > out[j].Seq
	})
	return out
}

func variantRank(v models.Variant) int {
	for i, av := range models.AllVariants {
		if av == v {
			return i
		}
	}
	return len(models.AllVariants)
}

// ExportData represents the full export format for cached records.
type ExportData struct {
	Version    string         `json:"version" yaml:"version"`
	ExportedAt time.Time      `json:"exported_at" yaml:"exported_at"`
	Tool       string         `json:"tool" yaml:"tool"`
	Capacity   int            `json:"capacity" yaml:"capacity"`
	Records    []ExportRecord `json:"records" yaml:"records"`
}

// ExportRecord is the serialized form of a Record.
type ExportRecord struct {
	Variant    string         `json:"variant" yaml:"variant"`
	ID         int64          `json:"id" yaml:"id"`
	ScoreState string         `json:"score_state" yaml:"score_state"`
	FetchedAt  time.Time      `json:"fetched_at" yaml:"fetched_at"`
	Fields     map[string]any `json:"fields" yaml:"fields"`
}

// Export converts a Record to its serialized form.
func (r *Record) Export() ExportRecord {
	return ExportRecord{
		Variant:    r.Variant.String(),
		ID:         r.ID(),
		ScoreState: r.ScoreState().String(),
		FetchedAt:  r.FetchedAt,
		Fields:     r.Map(),
	}
}

// GetAllData collects every live record for export.
func (s *Store) GetAllData() *ExportData {
	records := s.Snapshot()
	data := &ExportData{
		Version:    "1.0",
		ExportedAt: time.Now(),
		Tool:       "whoop",
		Capacity:   s.capacity,
		Records:    make([]ExportRecord, 0, len(records)),
	}
	for _, r := range records {
		data.Records = append(data.Records, r.Export())
	}
	return data
}

// ExportJSON exports all records as JSON.
func (s *Store) ExportJSON() ([]byte, error) {
	return json.MarshalIndent(s.GetAllData(), "", "  ")
}

// ExportYAML exports all records as YAML, grouped by variant.
func (s *Store) ExportYAML() ([]byte, error) {
	data := s.GetAllData()

	yamlData := struct {
		Version    string                  `yaml:"version"`
		ExportedAt string                  `yaml:"exported_at"`
		Tool       string                  `yaml:"tool"`
		Records    map[string][]yamlRecord `yaml:"records"`
	}{
		Version:    data.Version,
		ExportedAt: data.ExportedAt.Format(time.RFC3339),
		Tool:       data.Tool,
		Records:    make(map[string][]yamlRecord),
	}

	for _, r := range data.Records {
		yamlData.Records[r.Variant] = append(yamlData.Records[r.Variant], yamlRecord{
			ID:         r.ID,
			ScoreState: r.ScoreState,
			FetchedAt:  r.FetchedAt.Format(time.RFC3339),
			Fields:     r.Fields,
		})
	}

	out, err := yaml.Marshal(yamlData)
	if err != nil {
		return nil, fmt.Errorf("marshal yaml: %w", err)
	}
	return out, nil
}

type yamlRecord struct {
	ID         int64          `yaml:"id"`
	ScoreState string         `yaml:"score_state"`
	FetchedAt  string         `yaml:"fetched_at"`
	Fields     map[string]any `yaml:"fields"`
}

// ExportMarkdown exports records as Markdown tables, one section per
// variant. A non-nil variant limits the output to that variant.
func (s *Store) ExportMarkdown(variant *models.Variant) string {
	records := s.Snapshot()

	var sb strings.Builder
	now := time.Now()

	sb.WriteString(fmt.Sprintf("# WHOOP Export - %s\n\n", now.Format("2006-01-02")))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", now.Format(time.RFC3339)))

	for _, v := range models.AllVariants {
		if variant != nil && *variant != v {
			continue
		}
		var group []*Record
		for _, r := range records {
			if r.Variant == v {
				group = append(group, r)
			}
		}
		if len(group) == 0 {
			continue
		}

		sb.WriteString(fmt.Sprintf("## %s\n\n", titleCase(v.String())))
		sb.WriteString("| Field | Unit |")
		for _, r := range group {
			sb.WriteString(fmt.Sprintf(" %d |", r.ID()))
		}
		sb.WriteString("\n|-------|------|")
		for range group {
			sb.WriteString("------|")
		}
		sb.WriteString("\n")

		for _, f := range models.Fields(v) {
			sb.WriteString(fmt.Sprintf("| %s | %s |", f.Name, f.Unit))
			for _, r := range group {
				val, _ := r.Value(f.Option)
				cell := val.String()
				if f.Role == models.RoleState {
					cell = models.ScoreState(val.Int).String()
				} else if f.Kind == models.KindFloat {
					cell = fmt.Sprintf("%.2f", val.Float)
				}
				sb.WriteString(fmt.Sprintf(" %s |", cell))
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
