// Package mixer maps the four motor speeds of an X-configuration quadrotor to
// total thrust and body-axis moments.
package mixer

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"quadsim/internal/telemetry"
)

const deg2rad = math.Pi / 180

// ErrInfeasible is returned by Unmix when the requested wrench needs a
// negative squared motor speed.
var ErrInfeasible = errors.New("mixer: wrench not achievable with non-negative motor speeds")

// Geometry holds the effective moment arms about the body x and y axes.
type Geometry struct {
	Lx float64 // pitch arm
	Ly float64 // roll arm
}

// NewGeometry derives the effective arms from the arm length and the angle
// between the front motors (1 and 2) in degrees.
func NewGeometry(armLength, motorAngleDeg float64) Geometry {
	rear := 180 - motorAngleDeg
	return Geometry{
		Lx: armLength * math.Sin(deg2rad*(rear/2)),
		Ly: armLength * math.Sin(deg2rad*(motorAngleDeg/2)),
	}
}

// Wrench is the total thrust (N) and the body moments (N·m).
type Wrench struct {
	Thrust float64
	Mx     float64
	My     float64
	Mz     float64
}

// Mixer converts motor speeds to a Wrench.
type Mixer struct {
	Geometry
	ThrustCoef float64
	DragCoef   float64
}

// New returns a Mixer for the given airframe.
func New(armLength, motorAngleDeg, thrustCoef, dragCoef float64) Mixer {
	return Mixer{
		Geometry:   NewGeometry(armLength, motorAngleDeg),
		ThrustCoef: thrustCoef,
		DragCoef:   dragCoef,
	}
}

// Mix applies the X-configuration mixing law. Motors 1&4 oppose 2&3 in
// roll, 1&2 oppose 3&4 in pitch and the diagonal pairs 1&3 / 2&4 in yaw.
func (m Mixer) Mix(w telemetry.Motors) Wrench {
	w1 := w[0] * w[0]
	w2 := w[1] * w[1]
	w3 := w[2] * w[2]
	w4 := w[3] * w[3]
	return Wrench{
		Thrust: m.ThrustCoef * (w1 + w2 + w3 + w4),
		Mx:     m.Ly * m.ThrustCoef * (-w1 + w2 + w3 - w4),
		My:     m.Lx * m.ThrustCoef * (-w1 - w2 + w3 + w4),
		Mz:     m.DragCoef * (w1 - w2 + w3 - w4),
	}
}

// allocation returns the matrix A with A·ω² = [F_T, M_x, M_y, M_z].
func (m Mixer) allocation() *mat.Dense {
	cT, lx, ly, cD := m.ThrustCoef, m.Lx, m.Ly, m.DragCoef
	return mat.NewDense(4, 4, []float64{
		cT, cT, cT, cT,
		-ly * cT, ly * cT, ly * cT, -ly * cT,
		-lx * cT, -lx * cT, lx * cT, lx * cT,
		cD, -cD, cD, -cD,
	})
}

// Unmix solves for the motor speeds producing wr.
func (m Mixer) Unmix(wr Wrench) (telemetry.Motors, error) {
	b := mat.NewVecDense(4, []float64{wr.Thrust, wr.Mx, wr.My, wr.Mz})
	var sq mat.VecDense
	if err := sq.SolveVec(m.allocation(), b); err != nil {
		return telemetry.Motors{}, fmt.Errorf("mixer: allocation matrix: %w", err)
	}
	var out telemetry.Motors
	for i := range out {
		v := sq.AtVec(i)
		if v < 0 {
			if v > -1e-9*math.Max(1, math.Abs(wr.Thrust/m.ThrustCoef)) {
				v = 0
			} else {
				return telemetry.Motors{}, fmt.Errorf("%w: motor %d needs ω²=%g", ErrInfeasible, i+1, v)
			}
		}
		out[i] = math.Sqrt(v)
	}
	return out, nil
}

// HoverSpeed is the uniform motor speed whose thrust balances m·g.
func HoverSpeed(mass, gravity, thrustCoef float64) float64 {
	return math.Sqrt((mass * gravity) / (4 * thrustCoef))
}

// HoverCommand returns HoverSpeed on all four motors.
func HoverCommand(mass, gravity, thrustCoef float64) telemetry.Motors {
	h := HoverSpeed(mass, gravity, thrustCoef)
	return telemetry.Motors{h, h, h, h}
}
