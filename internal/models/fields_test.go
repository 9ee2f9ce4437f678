// ABOUTME: Tests for the field descriptor table.
// ABOUTME: Verifies table completeness, name lookup and variant helpers.
package models

import "testing"

func TestFieldTableCoversEveryOffset(t *testing.T) {
	for _, v := range AllVariants {
		fs := Fields(v)
		if want := IntCount(v) + FloatCount(v); len(fs) != want {
			t.Errorf("Fields(%s) has %d entries, want %d", v, len(fs), want)
		}
		seen := map[Option]bool{}
		for _, f := range fs {
			if seen[f.Option] {
				t.Errorf("duplicate option %s", f.Option)
			}
			seen[f.Option] = true
			if f.Option.Variant() != v {
				t.Errorf("%s listed under %s", f.Option, v)
			}
		}
	}
}

func TestLookupField(t *testing.T) {
	tests := []struct {
		v    Variant
		name string
		want Option
	}{
		{VariantCycle, "strain", CycleStrain},
		{VariantWorkout, "STRAIN", WorkoutStrain},
		{VariantSleep, "score.stage_summary.sleep_cycle_count", SleepCycleCount},
		{VariantRecovery, "sleep_id", RecoverySleepID},
		{VariantRecovery, "skin_temp_celsius", RecoverySkinTempCelsius},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := LookupField(tt.v, tt.name)
			if err != nil {
				t.Fatalf("LookupField error: %v", err)
			}
			if f.Option != tt.want {
				t.Errorf("LookupField(%s, %s) = %s, want %s", tt.v, tt.name, f.Option, tt.want)
			}
		})
	}

	if _, err := LookupField(VariantCycle, "recovery_score"); err == nil {
		t.Error("expected error for field of another variant")
	}
}

func TestIdentityFields(t *testing.T) {
	ids := IdentityFields(VariantRecovery)
	if len(ids) != 2 || ids[0].Option != RecoveryCycleID || ids[1].Option != RecoverySleepID {
		t.Errorf("IdentityFields(recovery) = %v", ids)
	}
	if ids := IdentityFields(VariantWorkout); len(ids) != 1 || ids[0].Option != WorkoutID {
		t.Errorf("IdentityFields(workout) = %v", ids)
	}
	if f := ScoreStateField(VariantRecovery); f.Option != RecoveryScoreState {
		t.Errorf("ScoreStateField(recovery) = %s", f.Option)
	}
}

func TestParseVariant(t *testing.T) {
	for _, v := range AllVariants {
		got, err := ParseVariant(v.String())
		if err != nil || got != v {
			t.Errorf("ParseVariant(%q) = %s, %v", v.String(), got, err)
		}
	}
	if _, err := ParseVariant("steps"); err == nil {
		t.Error("expected error for unknown variant")
	}
}

func TestParseScoreState(t *testing.T) {
	tests := map[string]ScoreState{
		"SCORED":         ScoreScored,
		"PENDING":        ScorePending,
		"UNSCORABLE":     ScoreUnscorable,
		"PENDING_MANUAL": ScoreUnscorable,
		"":               ScoreUnscorable,
	}
	for in, want := range tests {
		if got := ParseScoreState(in); got != want {
			t.Errorf("ParseScoreState(%q) = %s, want %s", in, got, want)
		}
	}
}
