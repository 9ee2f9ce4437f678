// ABOUTME: Option codes pack (variant, field kind, offset) into one integer.
// ABOUTME: Codes follow the device documentation: variantBit<<12 | kind<<8 | offset.
package models

import (
	"errors"
	"fmt"
)

// ErrInvalidOption is returned for codes Encode could never produce.
var ErrInvalidOption = errors.New("invalid option")

// Option addresses one field of one variant's record.
type Option uint16

// Array lengths per variant.
var arrayLens = map[Variant][2]int{
	VariantSleep:    {15, 4},
	VariantCycle:    {4, 2},
	VariantWorkout:  {11, 6},
	VariantRecovery: {4, 5},
}

// IntCount returns the number of integer fields a variant carries.
func IntCount(v Variant) int { return arrayLens[v][KindInt] }

// FloatCount returns the number of float fields a variant carries.
func FloatCount(v Variant) int { return arrayLens[v][KindFloat] }

// Encode builds the option code for a field.
func Encode(v Variant, kind FieldKind, offset int) (Option, error) {
	lens, ok := arrayLens[v]
	if !ok {
		return 0, fmt.Errorf("encode %s: %w", v, ErrInvalidOption)
	}
	if kind != KindInt && kind != KindFloat {
		return 0, fmt.Errorf("encode %s kind %s: %w", v, kind, ErrInvalidOption)
	}
	if offset < 0 || offset >= lens[kind] {
		return 0, fmt.Errorf("encode %s %s offset %d: %w", v, kind, offset, ErrInvalidOption)
	}
	return Option(uint16(v)<<12 | uint16(kind)<<8 | uint16(offset)), nil
}

// MustEncode is Encode for package-level tables; it panics on bad input.
func MustEncode(v Variant, kind FieldKind, offset int) Option {
	o, err := Encode(v, kind, offset)
	if err != nil {
		panic(err)
	}
	return o
}

// Decode splits an option code back into its parts.
func (o Option) Decode() (Variant, FieldKind, int, error) {
	v := Variant(o >> 12)
	kind := FieldKind((o >> 8) & 0xF)
	offset := int(o & 0xFF)
	if _, err := Encode(v, kind, offset); err != nil {
		return 0, 0, 0, fmt.Errorf("decode %#04x: %w", uint16(o), ErrInvalidOption)
	}
	return v, kind, offset, nil
}

// Variant returns the variant bits of o without validating the rest.
func (o Option) Variant() Variant { return Variant(o >> 12) }

func (o Option) String() string {
	if f, ok := fieldByOption[o]; ok {
		return f.Variant.String() + "." + f.Name
	}
	return fmt.Sprintf("option(%#04x)", uint16(o))
}

// Sleep fields.
const (
	SleepID                          Option = 0x1000
	SleepScoreState                  Option = 0x1001
	SleepNap                         Option = 0x1002
	SleepTotalInBedTimeMilli         Option = 0x1003
	SleepTotalAwakeTimeMilli         Option = 0x1004
	SleepTotalNoDataTimeMilli        Option = 0x1005
	SleepTotalLightSleepTimeMilli    Option = 0x1006
	SleepTotalSlowWaveSleepTimeMilli Option = 0x1007
	SleepTotalRemSleepTimeMilli      Option = 0x1008
	SleepCycleCount                  Option = 0x1009
	SleepDisturbanceCount            Option = 0x100A
	SleepBaselineMilli               Option = 0x100B
	SleepNeedFromSleepDebtMilli      Option = 0x100C
	SleepNeedFromRecentStrainMilli   Option = 0x100D
	SleepNeedFromRecentNapMilli      Option = 0x100E

	SleepRespiratoryRate       Option = 0x1100
	SleepPerformancePercentage Option = 0x1101
	SleepConsistencyPercentage Option = 0x1102
	SleepEfficiencyPercentage  Option = 0x1103
)

// Cycle fields.
const (
	CycleID               Option = 0x2000
	CycleScoreState       Option = 0x2001
	CycleAverageHeartRate Option = 0x2002
	CycleMaxHeartRate     Option = 0x2003

	CycleStrain    Option = 0x2100
	CycleKilojoule Option = 0x2101
)

// Workout fields.
const (
	WorkoutID               Option = 0x4000
	WorkoutScoreState       Option = 0x4001
	WorkoutSportID          Option = 0x4002
	WorkoutAverageHeartRate Option = 0x4003
	WorkoutMaxHeartRate     Option = 0x4004
	WorkoutZoneZeroMilli    Option = 0x4005
	WorkoutZoneOneMilli     Option = 0x4006
	WorkoutZoneTwoMilli     Option = 0x4007
	WorkoutZoneThreeMilli   Option = 0x4008
	WorkoutZoneFourMilli    Option = 0x4009
	WorkoutZoneFiveMilli    Option = 0x400A

	WorkoutStrain              Option = 0x4100
	WorkoutKilojoule           Option = 0x4101
	WorkoutPercentRecorded     Option = 0x4102
	WorkoutDistanceMeter       Option = 0x4103
	WorkoutAltitudeGainMeter   Option = 0x4104
	WorkoutAltitudeChangeMeter Option = 0x4105
)

// Recovery fields.
const (
	RecoveryCycleID         Option = 0x8000
	RecoverySleepID         Option = 0x8001
	RecoveryScoreState      Option = 0x8002
	RecoveryUserCalibrating Option = 0x8003

	RecoveryScore            Option = 0x8100
	RecoveryRestingHeartRate Option = 0x8101
	RecoveryHrvRmssdMilli    Option = 0x8102
	RecoverySpo2Percentage   Option = 0x8103
	RecoverySkinTempCelsius  Option = 0x8104
)
