// ABOUTME: Field descriptor table mapping every option code to its JSON name, path and unit.
// ABOUTME: Lets callers resolve fields by name and drives ingestion of API payloads.
package models

import (
	"fmt"
	"sort"
	"strings"
)

// FieldRole says where a field comes from in an API record.
type FieldRole uint8

const (
	RoleIdentity FieldRole = iota // server-assigned id, always required
	RoleState                     // score_state, always required
	RoleRecord                    // record-level attribute, written when present
	RoleScore                     // lives under the score object, read only when scored
)

// Field describes one slot of a variant's flat record layout.
type Field struct {
	Option   Option
	Variant  Variant
	Kind     FieldKind
	Offset   int
	Name     string
	Path     []string
	Unit     string
	Role     FieldRole
	Optional bool
}

// Key returns the dotted JSON path of the field within a record.
func (f Field) Key() string {
	return strings.Join(f.Path, ".")
}

func field(v Variant, kind FieldKind, offset int, role FieldRole, unit string, path ...string) Field {
	return Field{
		Option:  MustEncode(v, kind, offset),
		Variant: v,
		Kind:    kind,
		Offset:  offset,
		Name:    path[len(path)-1],
		Path:    path,
		Unit:    unit,
		Role:    role,
	}
}

func optional(f Field) Field {
	f.Optional = true
	return f
}

var fieldTable = []Field{
	field(VariantSleep, KindInt, 0, RoleIdentity, "", "id"),
	field(VariantSleep, KindInt, 1, RoleState, "", "score_state"),
	optional(field(VariantSleep, KindInt, 2, RoleRecord, "bool", "nap")),
	field(VariantSleep, KindInt, 3, RoleScore, "ms", "score", "stage_summary", "total_in_bed_time_milli"),
	field(VariantSleep, KindInt, 4, RoleScore, "ms", "score", "stage_summary", "total_awake_time_milli"),
	field(VariantSleep, KindInt, 5, RoleScore, "ms", "score", "stage_summary", "total_no_data_time_milli"),
	field(VariantSleep, KindInt, 6, RoleScore, "ms", "score", "stage_summary", "total_light_sleep_time_milli"),
	field(VariantSleep, KindInt, 7, RoleScore, "ms", "score", "stage_summary", "total_slow_wave_sleep_time_milli"),
	field(VariantSleep, KindInt, 8, RoleScore, "ms", "score", "stage_summary", "total_rem_sleep_time_milli"),
	field(VariantSleep, KindInt, 9, RoleScore, "count", "score", "stage_summary", "sleep_cycle_count"),
	field(VariantSleep, KindInt, 10, RoleScore, "count", "score", "stage_summary", "disturbance_count"),
	field(VariantSleep, KindInt, 11, RoleScore, "ms", "score", "sleep_needed", "baseline_milli"),
	field(VariantSleep, KindInt, 12, RoleScore, "ms", "score", "sleep_needed", "need_from_sleep_debt_milli"),
	field(VariantSleep, KindInt, 13, RoleScore, "ms", "score", "sleep_needed", "need_from_recent_strain_milli"),
	field(VariantSleep, KindInt, 14, RoleScore, "ms", "score", "sleep_needed", "need_from_recent_nap_milli"),
	field(VariantSleep, KindFloat, 0, RoleScore, "breaths/min", "score", "respiratory_rate"),
	field(VariantSleep, KindFloat, 1, RoleScore, "%", "score", "sleep_performance_percentage"),
	field(VariantSleep, KindFloat, 2, RoleScore, "%", "score", "sleep_consistency_percentage"),
	field(VariantSleep, KindFloat, 3, RoleScore, "%", "score", "sleep_efficiency_percentage"),

	field(VariantCycle, KindInt, 0, RoleIdentity, "", "id"),
	field(VariantCycle, KindInt, 1, RoleState, "", "score_state"),
	field(VariantCycle, KindInt, 2, RoleScore, "bpm", "score", "average_heart_rate"),
	field(VariantCycle, KindInt, 3, RoleScore, "bpm", "score", "max_heart_rate"),
	field(VariantCycle, KindFloat, 0, RoleScore, "strain", "score", "strain"),
	field(VariantCycle, KindFloat, 1, RoleScore, "kJ", "score", "kilojoule"),

	field(VariantWorkout, KindInt, 0, RoleIdentity, "", "id"),
	field(VariantWorkout, KindInt, 1, RoleState, "", "score_state"),
	optional(field(VariantWorkout, KindInt, 2, RoleRecord, "", "sport_id")),
	field(VariantWorkout, KindInt, 3, RoleScore, "bpm", "score", "average_heart_rate"),
	field(VariantWorkout, KindInt, 4, RoleScore, "bpm", "score", "max_heart_rate"),
	field(VariantWorkout, KindInt, 5, RoleScore, "ms", "score", "zone_duration", "zone_zero_milli"),
	field(VariantWorkout, KindInt, 6, RoleScore, "ms", "score", "zone_duration", "zone_one_milli"),
	field(VariantWorkout, KindInt, 7, RoleScore, "ms", "score", "zone_duration", "zone_two_milli"),
	field(VariantWorkout, KindInt, 8, RoleScore, "ms", "score", "zone_duration", "zone_three_milli"),
	field(VariantWorkout, KindInt, 9, RoleScore, "ms", "score", "zone_duration", "zone_four_milli"),
	field(VariantWorkout, KindInt, 10, RoleScore, "ms", "score", "zone_duration", "zone_five_milli"),
	field(VariantWorkout, KindFloat, 0, RoleScore, "strain", "score", "strain"),
	field(VariantWorkout, KindFloat, 1, RoleScore, "kJ", "score", "kilojoule"),
	field(VariantWorkout, KindFloat, 2, RoleScore, "%", "score", "percent_recorded"),
	optional(field(VariantWorkout, KindFloat, 3, RoleScore, "m", "score", "distance_meter")),
	optional(field(VariantWorkout, KindFloat, 4, RoleScore, "m", "score", "altitude_gain_meter")),
	optional(field(VariantWorkout, KindFloat, 5, RoleScore, "m", "score", "altitude_change_meter")),

	field(VariantRecovery, KindInt, 0, RoleIdentity, "", "cycle_id"),
	field(VariantRecovery, KindInt, 1, RoleIdentity, "", "sleep_id"),
	field(VariantRecovery, KindInt, 2, RoleState, "", "score_state"),
	field(VariantRecovery, KindInt, 3, RoleScore, "bool", "score", "user_calibrating"),
	field(VariantRecovery, KindFloat, 0, RoleScore, "%", "score", "recovery_score"),
	field(VariantRecovery, KindFloat, 1, RoleScore, "bpm", "score", "resting_heart_rate"),
	field(VariantRecovery, KindFloat, 2, RoleScore, "ms", "score", "hrv_rmssd_milli"),
	optional(field(VariantRecovery, KindFloat, 3, RoleScore, "%", "score", "spo2_percentage")),
	optional(field(VariantRecovery, KindFloat, 4, RoleScore, "°C", "score", "skin_temp_celsius")),
}

var (
	fieldByOption   = map[Option]Field{}
	fieldsByVariant = map[Variant][]Field{}
)

func init() {
	for _, f := range fieldTable {
		fieldByOption[f.Option] = f
		fieldsByVariant[f.Variant] = append(fieldsByVariant[f.Variant], f)
	}
	for v := range fieldsByVariant {
		fs := fieldsByVariant[v]
		sort.SliceStable(fs, func(i, j int) bool { return fs[i].Option < fs[j].Option })
	}
}

// Fields returns every field of a variant ordered by option code.
func Fields(v Variant) []Field {
	fs := fieldsByVariant[v]
	out := make([]Field, len(fs))
	copy(out, fs)
	return out
}

// AllFields returns the full descriptor table.
func AllFields() []Field {
	out := make([]Field, len(fieldTable))
	copy(out, fieldTable)
	return out
}

// FieldFor returns the descriptor of an option code.
func FieldFor(o Option) (Field, bool) {
	f, ok := fieldByOption[o]
	return f, ok
}

// LookupField finds a field by JSON name or dotted path, e.g. "strain" or
// "score.stage_summary.sleep_cycle_count".
func LookupField(v Variant, name string) (Field, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, f := range fieldsByVariant[v] {
		if f.Name == name || f.Key() == name {
			return f, nil
		}
	}
	return Field{}, fmt.Errorf("unknown %s field: %s", v, name)
}

// IdentityFields returns the identity fields of a variant in option order.
// Recovery has two: cycle_id then sleep_id.
func IdentityFields(v Variant) []Field {
	var out []Field
	for _, f := range fieldsByVariant[v] {
		if f.Role == RoleIdentity {
			out = append(out, f)
		}
	}
	return out
}

// ScoreStateField returns the score_state field of a variant.
func ScoreStateField(v Variant) Field {
	for _, f := range fieldsByVariant[v] {
		if f.Role == RoleState {
			return f
		}
	}
	return Field{}
}

// HeadlineField is the single reading shown for a variant on the display.
func HeadlineField(v Variant) Option {
	switch v {
	case VariantRecovery:
		return RecoveryScore
	case VariantSleep:
		return SleepPerformancePercentage
	case VariantCycle:
		return CycleStrain
	case VariantWorkout:
		return WorkoutStrain
	default:
		return 0
	}
}
