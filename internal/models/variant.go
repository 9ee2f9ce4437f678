// ABOUTME: Variant, ScoreState and FieldKind enums for WHOOP records.
// ABOUTME: Covers the four record kinds the device caches: sleep, cycle, workout, recovery.
package models

import (
	"fmt"
	"strings"
)

// Variant identifies one of the four WHOOP record schemas.
// The numeric values double as the variant bits of an Option code.
type Variant uint8

const (
	VariantSleep    Variant = 0x1
	VariantCycle    Variant = 0x2
	VariantWorkout  Variant = 0x4
	VariantRecovery Variant = 0x8
)

// AllVariants lists every variant in display rotation order.
var AllVariants = []Variant{VariantRecovery, VariantSleep, VariantCycle, VariantWorkout}

var variantNames = map[Variant]string{
	VariantSleep:    "sleep",
	VariantCycle:    "cycle",
	VariantWorkout:  "workout",
	VariantRecovery: "recovery",
}

// String returns the lowercase name used in URLs, config and CLI args.
func (v Variant) String() string {
	if name, ok := variantNames[v]; ok {
		return name
	}
	return fmt.Sprintf("variant(%#x)", uint8(v))
}

// Valid reports whether v is one of the four known variants.
func (v Variant) Valid() bool {
	_, ok := variantNames[v]
	return ok
}

// ParseVariant converts a name like "sleep" into a Variant.
func ParseVariant(s string) (Variant, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for v, n := range variantNames {
		if n == name {
			return v, nil
		}
	}
	return 0, fmt.Errorf("unknown variant: %s", s)
}

// ScoreState describes whether the service has finished scoring a record.
type ScoreState int64

const (
	ScoreScored     ScoreState = 0
	ScorePending    ScoreState = 1
	ScoreUnscorable ScoreState = 2
)

// ParseScoreState maps the API's score_state string onto a ScoreState.
// Anything other than SCORED or PENDING is treated as unscorable.
func ParseScoreState(s string) ScoreState {
	switch s {
	case "SCORED":
		return ScoreScored
	case "PENDING":
		return ScorePending
	default:
		return ScoreUnscorable
	}
}

func (s ScoreState) String() string {
	switch s {
	case ScoreScored:
		return "SCORED"
	case ScorePending:
		return "PENDING"
	default:
		return "UNSCORABLE"
	}
}

// FieldKind selects which of a record's two flat arrays a field lives in.
type FieldKind uint8

const (
	KindInt   FieldKind = 0
	KindFloat FieldKind = 1
)

func (k FieldKind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}
