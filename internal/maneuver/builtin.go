package maneuver

import (
	"fmt"
	"sort"
)

// ReferenceWidth is the segment duration of the reference script.
const ReferenceWidth = 1.25

// Canonical offsets. Roll acts on motors 1&4 vs 2&3, pitch on 3&4 vs 1&2
// and yaw on the diagonal pairs.
var (
	Neutral            = Offset{0, 0, 0, 0}
	SmallThrustUp      = Offset{3, 3, 3, 3}
	SmallThrustDown    = Offset{-3, -3, -3, -3}
	LargeThrustUp      = Offset{9, 9, 9, 9}
	LargeThrustDown    = Offset{-9, -9, -9, -9}
	SmallRollForward   = Offset{0.1, 0, 0, 0.1}
	SmallRollBackward  = Offset{0, 0.1, 0.1, 0}
	LargeRollForward   = Offset{0.3, 0, 0, 0.3}
	LargeRollBackward  = Offset{0, 0.3, 0.3, 0}
	SmallPitchForward  = Offset{0, 0, 0.1, 0.1}
	SmallPitchBackward = Offset{0.1, 0.1, 0, 0}
	LargePitchForward  = Offset{0, 0, 0.3, 0.3}
	LargePitchBackward = Offset{0.3, 0.3, 0, 0}
	YawCW              = Offset{0.1, -0.1, 0.1, -0.1}
	YawCCW             = Offset{-0.1, 0.1, -0.1, 0.1}
)

// Offsets maps the canonical offset names usable from scripts.
func Offsets() map[string]Offset {
	return map[string]Offset{
		"neutral":              Neutral,
		"small_thrust_up":      SmallThrustUp,
		"small_thrust_down":    SmallThrustDown,
		"large_thrust_up":      LargeThrustUp,
		"large_thrust_down":    LargeThrustDown,
		"small_roll_forward":   SmallRollForward,
		"small_roll_backward":  SmallRollBackward,
		"large_roll_forward":   LargeRollForward,
		"large_roll_backward":  LargeRollBackward,
		"small_pitch_forward":  SmallPitchForward,
		"small_pitch_backward": SmallPitchBackward,
		"large_pitch_forward":  LargePitchForward,
		"large_pitch_backward": LargePitchBackward,
		"yaw_cw":               YawCW,
		"yaw_ccw":              YawCCW,
	}
}

// referenceOrder is the 96 segment, 0-120 s maneuver script.
var referenceOrder = [][]string{
	// thrust, 0-10 s
	{"neutral", "small_thrust_up", "neutral", "small_thrust_down",
		"neutral", "neutral", "large_thrust_up", "large_thrust_down"},
	// roll, 10-35 s
	{"neutral", "small_thrust_up", "neutral",
		"small_roll_forward", "small_roll_backward", "small_roll_backward", "small_roll_forward",
		"small_roll_backward", "small_roll_forward", "small_roll_forward", "small_roll_backward",
		"neutral",
		"large_roll_backward", "large_roll_forward", "large_roll_forward", "large_roll_backward",
		"large_roll_forward", "large_roll_backward", "large_roll_backward", "large_roll_forward"},
	// pitch, 35-60 s
	{"neutral", "small_thrust_down", "neutral",
		"small_pitch_forward", "small_pitch_backward", "small_pitch_backward", "small_pitch_forward",
		"small_pitch_backward", "small_pitch_forward", "small_pitch_forward", "small_pitch_backward",
		"neutral",
		"large_pitch_backward", "large_pitch_forward", "large_pitch_forward", "large_pitch_backward",
		"large_pitch_forward", "large_pitch_backward", "large_pitch_backward", "large_pitch_forward"},
	// yaw, 60-68.75 s
	{"neutral", "small_thrust_up", "small_thrust_up",
		"yaw_cw", "yaw_ccw", "yaw_ccw", "yaw_cw"},
	// pitch, 68.75-78.75 s
	{"small_pitch_forward", "small_pitch_backward", "small_pitch_backward", "small_pitch_forward",
		"small_pitch_backward", "small_pitch_forward", "small_pitch_forward", "small_pitch_backward"},
	// roll, 78.75-88.75 s
	{"small_roll_backward", "small_roll_forward", "small_roll_forward", "small_roll_backward",
		"small_roll_forward", "small_roll_backward", "small_roll_backward", "small_roll_forward"},
	// yaw and thrust, 88.75-100 s
	{"yaw_ccw", "yaw_cw", "yaw_cw", "yaw_ccw",
		"large_thrust_up", "neutral", "large_thrust_down", "neutral", "neutral"},
	// roll, 100-110 s
	{"large_roll_forward", "large_roll_backward", "large_roll_backward", "large_roll_forward",
		"large_roll_backward", "large_roll_forward", "large_roll_forward", "large_roll_backward"},
	// pitch, 110-120 s
	{"large_pitch_forward", "large_pitch_backward", "large_pitch_backward", "large_pitch_forward",
		"large_pitch_backward", "large_pitch_forward", "large_pitch_forward", "large_pitch_backward"},
}

func referenceScript() Script {
	var steps []Step
	for _, block := range referenceOrder {
		for _, name := range block {
			steps = append(steps, Step{Offset: name})
		}
	}
	return Script{
		Name:            "reference",
		Description:     "Thrust, roll, pitch and yaw excitation blocks over 120 s in 1.25 s bins.",
		SegmentDuration: ReferenceWidth,
		Steps:           steps,
	}
}

// BuiltIn returns the predefined maneuver scripts.
func BuiltIn() map[string]Script {
	return map[string]Script{
		"reference": referenceScript(),
		"hover": {
			Name:            "hover",
			Description:     "Single neutral segment; the vehicle holds hover.",
			SegmentDuration: ReferenceWidth,
			Steps:           []Step{{Offset: "neutral"}},
		},
		"thrust-steps": {
			Name:            "thrust-steps",
			Description:     "Climb, hold and descend with small and large uniform offsets.",
			SegmentDuration: ReferenceWidth,
			Steps: []Step{
				{Offset: "neutral"},
				{Offset: "small_thrust_up"},
				{Offset: "neutral", Repeat: 2},
				{Offset: "small_thrust_down"},
				{Offset: "neutral", Repeat: 2},
				{Offset: "large_thrust_up"},
				{Offset: "large_thrust_down"},
				{Offset: "neutral"},
			},
		},
		"yaw-sweep": {
			Name:            "yaw-sweep",
			Description:     "Alternating clockwise and counter-clockwise yaw torque.",
			SegmentDuration: ReferenceWidth,
			Steps: []Step{
				{Offset: "neutral"},
				{Offset: "yaw_cw", Repeat: 2},
				{Offset: "yaw_ccw", Repeat: 4},
				{Offset: "yaw_cw", Repeat: 2},
				{Offset: "neutral"},
			},
		},
	}
}

// Names lists the built-in scripts in sorted order.
func Names() []string {
	bi := BuiltIn()
	names := make([]string, 0, len(bi))
	for n := range bi {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Named builds the built-in script called name.
func Named(name string) (*Sequence, error) {
	sc, ok := BuiltIn()[name]
	if !ok {
		return nil, fmt.Errorf("maneuver: unknown built-in %q", name)
	}
	return sc.Build()
}

// Reference returns the reference maneuver sequence.
func Reference() *Sequence {
	seq, err := referenceScript().Build()
	if err != nil {
		panic(err)
	}
	return seq
}
