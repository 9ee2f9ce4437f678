// ABOUTME: Turns one WHOOP API payload into one validated record in the store.
// ABOUTME: Validates everything first, then writes the record in a single batch.
package ingest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/harperreed/whoop/internal/models"
	"github.com/harperreed/whoop/internal/storage"
)

// Pipeline parses API payloads into store records.
type Pipeline struct {
	store  storage.Repository
	logger *slog.Logger
}

// NewPipeline creates a pipeline writing into store. A nil logger uses slog.Default().
func NewPipeline(store storage.Repository, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{store: store, logger: logger}
}

// staged is a fully validated payload ready to be written.
type staged struct {
	ids    []int64
	state  models.ScoreState
	base   []storage.Assignment
	scores []storage.Assignment
}

// Ingest parses payload as a {records:[...]} response of variant v and writes
// its first record. It returns the handle of the written record. A record that
// is not SCORED still has its score state written and returns ErrNotScored.
func (p *Pipeline) Ingest(v models.Variant, payload []byte) (storage.Handle, error) {
	if !v.Valid() {
		return storage.Handle{}, fmt.Errorf("ingest %s: %w", v, storage.ErrInvalidOption)
	}

	st, err := stage(v, payload)
	if err != nil {
		p.logger.Warn("payload rejected", "variant", v.String(), "error", err)
		return storage.Handle{}, err
	}

	h, err := p.resolve(v, st.ids)
	if err != nil {
		return storage.Handle{}, err
	}

	if st.state != models.ScoreScored {
		if err := p.store.Apply(h, st.base); err != nil {
			return storage.Handle{}, fmt.Errorf("write %s: %w", v, err)
		}
		p.logger.Info("record not scored", "variant", v.String(), "id", st.ids[0], "score_state", st.state.String())
		return h, ErrNotScored
	}

	if err := p.store.Apply(h, append(st.base, st.scores...)); err != nil {
		return storage.Handle{}, fmt.Errorf("write %s: %w", v, err)
	}
	p.logger.Debug("record ingested", "variant", v.String(), "id", st.ids[0], "handle", h.String())
	return h, nil
}

// resolve finds the slot already holding the record or claims a new one.
func (p *Pipeline) resolve(v models.Variant, ids []int64) (storage.Handle, error) {
	h, err := p.store.Find(v, ids[0])
	if err == nil {
		return h, nil
	}
	if !errors.Is(err, storage.ErrIDNotFound) && !errors.Is(err, storage.ErrNoRecordings) {
		return storage.Handle{}, fmt.Errorf("find %s: %w", v, err)
	}
	h, err = p.store.Create(v, ids...)
	if err != nil {
		return storage.Handle{}, fmt.Errorf("create %s: %w", v, err)
	}
	return h, nil
}

func stage(v models.Variant, payload []byte) (*staged, error) {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()

	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	rawRecords, ok := doc["records"]
	if !ok || rawRecords == nil {
		return nil, &MissingFieldError{Field: "records"}
	}
	records, ok := rawRecords.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: records is not an array", ErrParse)
	}
	if len(records) == 0 {
		return nil, &MissingFieldError{Field: "records[0]"}
	}
	record, ok := records[0].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: records[0] is not an object", ErrParse)
	}

	st := &staged{}

	for _, f := range models.IdentityFields(v) {
		val, err := required(record, f)
		if err != nil {
			return nil, err
		}
		if val.Int == 0 {
			return nil, fmt.Errorf("%w: %s is zero", ErrParse, f.Key())
		}
		st.ids = append(st.ids, val.Int)
		st.base = append(st.base, storage.Assignment{Option: f.Option, Value: val})
	}

	stateField := models.ScoreStateField(v)
	rawState, ok := record[stateField.Name]
	if !ok || rawState == nil {
		return nil, &MissingFieldError{Field: stateField.Key()}
	}
	stateStr, ok := rawState.(string)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a string", ErrParse, stateField.Key())
	}
	st.state = models.ParseScoreState(stateStr)
	st.base = append(st.base, storage.Assignment{
		Option: stateField.Option,
		Value:  storage.IntValue(int64(st.state)),
	})

	for _, f := range models.Fields(v) {
		if f.Role != models.RoleRecord {
			continue
		}
		val, ok, err := lookup(record, f)
		if err != nil {
			return nil, err
		}
		if ok {
			st.base = append(st.base, storage.Assignment{Option: f.Option, Value: val})
		}
	}

	if st.state != models.ScoreScored {
		return st, nil
	}

	for _, f := range models.Fields(v) {
		if f.Role != models.RoleScore {
			continue
		}
		val, ok, err := lookup(record, f)
		if err != nil {
			return nil, err
		}
		if !ok {
			if f.Optional {
				continue
			}
			return nil, &MissingFieldError{Field: missingPath(record, f)}
		}
		st.scores = append(st.scores, storage.Assignment{Option: f.Option, Value: val})
	}

	return st, nil
}

func required(record map[string]any, f models.Field) (storage.Value, error) {
	val, ok, err := lookup(record, f)
	if err != nil {
		return storage.Value{}, err
	}
	if !ok {
		return storage.Value{}, &MissingFieldError{Field: f.Key()}
	}
	return val, nil
}

// lookup walks f.Path through nested objects. A missing or null field
// reports ok=false; a field of the wrong type is a parse error.
func lookup(record map[string]any, f models.Field) (storage.Value, bool, error) {
	var cur any = record
	for i, key := range f.Path {
		obj, ok := cur.(map[string]any)
		if !ok {
			return storage.Value{}, false, fmt.Errorf("%w: %s is not an object", ErrParse, strings.Join(f.Path[:i], "."))
		}
		cur, ok = obj[key]
		if !ok || cur == nil {
			return storage.Value{}, false, nil
		}
	}

	val, err := convert(cur, f.Kind)
	if err != nil {
		return storage.Value{}, false, fmt.Errorf("%w: %s: %v", ErrParse, f.Key(), err)
	}
	return val, true, nil
}

// missingPath returns the shallowest absent segment of f.Path, so a missing
// score object is reported as "score" rather than one of its fields.
func missingPath(record map[string]any, f models.Field) string {
	var cur any = record
	for i, key := range f.Path {
		obj, _ := cur.(map[string]any)
		next, ok := obj[key]
		if !ok || next == nil {
			return strings.Join(f.Path[:i+1], ".")
		}
		cur = next
	}
	return f.Key()
}

func convert(raw any, kind models.FieldKind) (storage.Value, error) {
	switch x := raw.(type) {
	case json.Number:
		if kind == models.KindFloat {
			f, err := x.Float64()
			if err != nil {
				return storage.Value{}, err
			}
			return storage.FloatValue(f), nil
		}
		if i, err := x.Int64(); err == nil {
			return storage.IntValue(i), nil
		}
		f, err := x.Float64()
		if err != nil {
			return storage.Value{}, err
		}
		if math.IsNaN(f) || math.Abs(f) >= 1<<63 {
			return storage.Value{}, fmt.Errorf("%s out of int64 range", x)
		}
		return storage.IntValue(int64(f)), nil
	case bool:
		n := int64(0)
		if x {
			n = 1
		}
		if kind == models.KindFloat {
			return storage.FloatValue(float64(n)), nil
		}
		return storage.IntValue(n), nil
	default:
		return storage.Value{}, fmt.Errorf("unexpected %T", raw)
	}
}
