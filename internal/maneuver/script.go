package maneuver

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Script is the YAML form of a maneuver: named offsets plus an ordered list
// of steps referencing them.
type Script struct {
	Name            string               `yaml:"name,omitempty"`
	Description     string               `yaml:"description,omitempty"`
	SegmentDuration float64              `yaml:"segment_duration,omitempty"`
	Offsets         map[string][]float64 `yaml:"offsets,omitempty"`
	Steps           []Step               `yaml:"segments"`
}

// Step selects an offset by name or inline motor values. Duration falls back
// to the script's segment_duration and Repeat to one.
type Step struct {
	Offset   string    `yaml:"offset,omitempty"`
	Motors   []float64 `yaml:"motors,omitempty"`
	Duration float64   `yaml:"duration,omitempty"`
	Repeat   int       `yaml:"repeat,omitempty"`
}

// Load reads a YAML maneuver script from disk.
func Load(path string) (*Script, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read maneuver: %w", err)
	}
	return Parse(b)
}

// Parse decodes a YAML maneuver script.
func Parse(b []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("parse maneuver: %w", err)
	}
	return &s, nil
}

// Build resolves offset names and expands repeats into a Sequence. Names
// defined in the script shadow the canonical offsets.
func (s Script) Build() (*Sequence, error) {
	table := Offsets()
	for name, vals := range s.Offsets {
		o, err := toOffset(vals)
		if err != nil {
			return nil, fmt.Errorf("maneuver %s: offset %q: %w", s.Name, name, err)
		}
		table[name] = o
	}

	var segs []Segment
	for i, st := range s.Steps {
		var (
			off   Offset
			label string
		)
		switch {
		case len(st.Motors) > 0 && st.Offset != "":
			return nil, fmt.Errorf("maneuver %s: step %d sets both offset and motors", s.Name, i)
		case len(st.Motors) > 0:
			o, err := toOffset(st.Motors)
			if err != nil {
				return nil, fmt.Errorf("maneuver %s: step %d: %w", s.Name, i, err)
			}
			off, label = o, "inline"
		default:
			name := strings.TrimSpace(st.Offset)
			o, ok := table[name]
			if !ok {
				return nil, fmt.Errorf("maneuver %s: step %d: unknown offset %q", s.Name, i, st.Offset)
			}
			off, label = o, name
		}

		d := st.Duration
		if d == 0 {
			d = s.SegmentDuration
		}
		n := st.Repeat
		if n == 0 {
			n = 1
		}
		if n < 0 {
			return nil, fmt.Errorf("maneuver %s: step %d: negative repeat %d", s.Name, i, n)
		}
		for k := 0; k < n; k++ {
			segs = append(segs, Segment{Label: label, Duration: d, Offset: off})
		}
	}
	return NewSequence(segs)
}

func toOffset(vals []float64) (Offset, error) {
	var o Offset
	if len(vals) != len(o) {
		return o, fmt.Errorf("want 4 motor values, got %d", len(vals))
	}
	copy(o[:], vals)
	return o, nil
}
