package dynamics

import (
	"math"

	"quadsim/internal/telemetry"
)

// Trajectory is an append-only, in-memory Sink.
type Trajectory struct {
	states []telemetry.State
}

// NewTrajectory preallocates room for n states.
func NewTrajectory(n int) *Trajectory {
	if n < 0 {
		n = 0
	}
	return &Trajectory{states: make([]telemetry.State, 0, n)}
}

// Append implements Sink.
func (tr *Trajectory) Append(s telemetry.State) error {
	tr.states = append(tr.states, s)
	return nil
}

// Len returns the number of recorded states.
func (tr *Trajectory) Len() int { return len(tr.states) }

// States returns a copy of the recorded states.
func (tr *Trajectory) States() []telemetry.State {
	out := make([]telemetry.State, len(tr.states))
	copy(out, tr.states)
	return out
}

// Last returns the final state, false when the trajectory is empty.
func (tr *Trajectory) Last() (telemetry.State, bool) {
	if len(tr.states) == 0 {
		return telemetry.State{}, false
	}
	return tr.states[len(tr.states)-1], true
}

// Column returns one named field across all states.
func (tr *Trajectory) Column(name string) ([]float64, error) {
	out := make([]float64, len(tr.states))
	for i, s := range tr.states {
		v, err := s.Field(name)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Summary condenses a trajectory.
type Summary struct {
	Samples     int     `json:"samples"`
	Duration    float64 `json:"duration"`
	FinalX      float64 `json:"final_x"`
	FinalY      float64 `json:"final_y"`
	FinalZ      float64 `json:"final_z"`
	MaxAbsPhi   float64 `json:"max_abs_phi"`
	MaxAbsTheta float64 `json:"max_abs_theta"`
	MaxAbsPsi   float64 `json:"max_abs_psi"`
	MaxZ        float64 `json:"max_z"`
	MinZ        float64 `json:"min_z"`
}

// Summary computes the Summary of the recorded states.
func (tr *Trajectory) Summary() Summary {
	var sum Summary
	sum.Samples = len(tr.states)
	if sum.Samples == 0 {
		return sum
	}
	sum.MaxZ, sum.MinZ = math.Inf(-1), math.Inf(1)
	for _, s := range tr.states {
		sum.MaxAbsPhi = math.Max(sum.MaxAbsPhi, math.Abs(s.Phi))
		sum.MaxAbsTheta = math.Max(sum.MaxAbsTheta, math.Abs(s.Theta))
		sum.MaxAbsPsi = math.Max(sum.MaxAbsPsi, math.Abs(s.Psi))
		sum.MaxZ = math.Max(sum.MaxZ, s.Z)
		sum.MinZ = math.Min(sum.MinZ, s.Z)
	}
	last := tr.states[len(tr.states)-1]
	sum.Duration = last.T - tr.states[0].T
	sum.FinalX, sum.FinalY, sum.FinalZ = last.X, last.Y, last.Z
	return sum
}
