// Package maneuver provides time-indexed tables of per-motor speed offsets
// around the hover baseline and the open-loop command source built on them.
package maneuver

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"quadsim/internal/telemetry"
)

// ErrEmptySequence is returned when a sequence has no segments.
var ErrEmptySequence = errors.New("maneuver: sequence has no segments")

// Offset is a per-motor speed offset in rad/s, motors 1..4.
type Offset [4]float64

// Segment holds one offset for a fixed duration.
type Segment struct {
	Label    string
	Duration float64
	Offset   Offset
}

// Window is the half-open time interval [Start, End) covered by a segment.
type Window struct {
	Start float64
	End   float64
}

// Sequence is an ordered list of contiguous segments starting at t = 0.
type Sequence struct {
	segments []Segment
	ends     []float64
}

// NewSequence validates segs and precomputes the segment end times.
func NewSequence(segs []Segment) (*Sequence, error) {
	if len(segs) == 0 {
		return nil, ErrEmptySequence
	}
	s := &Sequence{
		segments: make([]Segment, len(segs)),
		ends:     make([]float64, len(segs)),
	}
	copy(s.segments, segs)
	end := 0.0
	for i, seg := range segs {
		if !(seg.Duration > 0) || math.IsInf(seg.Duration, 0) {
			return nil, fmt.Errorf("maneuver: segment %d (%s): duration must be positive, got %v", i, seg.Label, seg.Duration)
		}
		end += seg.Duration
		s.ends[i] = end
	}
	return s, nil
}

// Uniform builds a sequence where every segment lasts width seconds.
func Uniform(width float64, offsets ...Offset) (*Sequence, error) {
	segs := make([]Segment, len(offsets))
	for i, o := range offsets {
		segs[i] = Segment{Duration: width, Offset: o}
	}
	return NewSequence(segs)
}

// Len returns the number of segments.
func (s *Sequence) Len() int { return len(s.segments) }

// Span is the total duration covered by the table.
func (s *Sequence) Span() float64 { return s.ends[len(s.ends)-1] }

// Segments returns a copy of the segment list.
func (s *Sequence) Segments() []Segment {
	out := make([]Segment, len(s.segments))
	copy(out, s.segments)
	return out
}

// Windows returns the time interval of every segment.
func (s *Sequence) Windows() []Window {
	out := make([]Window, len(s.ends))
	start := 0.0
	for i, end := range s.ends {
		out[i] = Window{Start: start, End: end}
		start = end
	}
	return out
}

// Index returns the segment active at t, or -1 when t lies outside the table.
func (s *Sequence) Index(t float64) int {
	if t < 0 || math.IsNaN(t) {
		return -1
	}
	i := sort.Search(len(s.ends), func(i int) bool { return s.ends[i] > t })
	if i == len(s.ends) {
		return -1
	}
	return i
}

// Speeds returns the motor speeds at t: the hover speed plus the active
// offset, or plain hover outside the table. Every speed is clamped at zero.
func (s *Sequence) Speeds(t, hover float64) telemetry.Motors {
	var off Offset
	if i := s.Index(t); i >= 0 {
		off = s.segments[i].Offset
	}
	var out telemetry.Motors
	for i := range out {
		out[i] = math.Max(hover+off[i], 0)
	}
	return out
}

// OpenLoop replays a Sequence around a fixed hover speed. It ignores the
// vehicle state.
type OpenLoop struct {
	Sequence *Sequence
	Hover    float64
}

// Command implements dynamics.CommandSource.
func (o OpenLoop) Command(t float64, _ telemetry.State) (telemetry.Motors, error) {
	return o.Sequence.Speeds(t, o.Hover), nil
}
