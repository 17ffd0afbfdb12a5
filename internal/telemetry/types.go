// Trajectory record with one field per logged quantity
package telemetry

import (
	"fmt"
	"os"
)

// Motors holds the four motor angular speeds in rad/s, indexed motor 1..4.
type Motors [4]float64

// Constants are the airframe values echoed into every record for traceability.
type Constants struct {
	Mass       float64 `json:"m"`
	Ix         float64 `json:"I_x"`
	Iy         float64 `json:"I_y"`
	Iz         float64 `json:"I_z"`
	ArmLength  float64 `json:"l"`
	MotorAngle float64 `json:"angle_motor1_2"`
	ThrustCoef float64 `json:"c_T"`
	DragCoef   float64 `json:"c_RD"`
}

// State is the complete vehicle state at one sample time.
type State struct {
	T float64 `json:"t"`

	// inertial position, velocity, acceleration
	X   float64 `json:"x"`
	Y   float64 `json:"y"`
	Z   float64 `json:"z"`
	DX  float64 `json:"dx"`
	DY  float64 `json:"dy"`
	DZ  float64 `json:"dz"`
	DDX float64 `json:"ddx"`
	DDY float64 `json:"ddy"`
	DDZ float64 `json:"ddz"`

	// body-frame velocity and acceleration, derived for logging only
	U  float64 `json:"u"`
	V  float64 `json:"v"`
	W  float64 `json:"w"`
	DU float64 `json:"du"`
	DV float64 `json:"dv"`
	DW float64 `json:"dw"`

	Phi      float64 `json:"phi"`
	Theta    float64 `json:"theta"`
	Psi      float64 `json:"psi"`
	DPhi     float64 `json:"dphi"`
	DTheta   float64 `json:"dtheta"`
	DPsi     float64 `json:"dpsi"`
	DDPhi    float64 `json:"ddphi"`
	DDTheta  float64 `json:"ddtheta"`
	DDPsi    float64 `json:"ddpsi"`
	P        float64 `json:"p"`
	Q        float64 `json:"q"`
	R        float64 `json:"r"`
	DP       float64 `json:"dp"`
	DQ       float64 `json:"dq"`
	DR       float64 `json:"dr"`
	Omega1   float64 `json:"omega_1"`
	Omega2   float64 `json:"omega_2"`
	Omega3   float64 `json:"omega_3"`
	Omega4   float64 `json:"omega_4"`
	Thrust   float64 `json:"F_T"`
	MomentX  float64 `json:"M_x"`
	MomentY  float64 `json:"M_y"`
	MomentZ  float64 `json:"M_z"`
	Constants
}

// Fields lists the record columns in output order. Values returns values in
// the same order.
var Fields = []string{
	"t",
	"x", "y", "z",
	"dx", "dy", "dz",
	"ddx", "ddy", "ddz",
	"u", "v", "w",
	"du", "dv", "dw",
	"phi", "theta", "psi",
	"dphi", "dtheta", "dpsi",
	"ddphi", "ddtheta", "ddpsi",
	"p", "q", "r",
	"dp", "dq", "dr",
	"omega_1", "omega_2", "omega_3", "omega_4",
	"F_T", "M_x", "M_y", "M_z",
	"m",
	"I_x", "I_y", "I_z",
	"l", "angle_motor1_2",
	"c_T", "c_RD",
}

var fieldIndex = func() map[string]int {
	idx := make(map[string]int, len(Fields))
	for i, f := range Fields {
		idx[f] = i
	}
	return idx
}()

// Values returns every field of s in the order of Fields.
func (s State) Values() []float64 {
	return []float64{
		s.T,
		s.X, s.Y, s.Z,
		s.DX, s.DY, s.DZ,
		s.DDX, s.DDY, s.DDZ,
		s.U, s.V, s.W,
		s.DU, s.DV, s.DW,
		s.Phi, s.Theta, s.Psi,
		s.DPhi, s.DTheta, s.DPsi,
		s.DDPhi, s.DDTheta, s.DDPsi,
		s.P, s.Q, s.R,
		s.DP, s.DQ, s.DR,
		s.Omega1, s.Omega2, s.Omega3, s.Omega4,
		s.Thrust, s.MomentX, s.MomentY, s.MomentZ,
		s.Mass,
		s.Ix, s.Iy, s.Iz,
		s.ArmLength, s.MotorAngle,
		s.ThrustCoef, s.DragCoef,
	}
}

// Field returns the named value of s.
func (s State) Field(name string) (float64, error) {
	i, ok := fieldIndex[name]
	if !ok {
		return 0, fmt.Errorf("unknown field %q", name)
	}
	return s.Values()[i], nil
}

// Motors returns the commanded motor speeds of s.
func (s State) Motors() Motors {
	return Motors{s.Omega1, s.Omega2, s.Omega3, s.Omega4}
}

// SetMotors stores m into the omega fields of s.
func (s *State) SetMotors(m Motors) {
	s.Omega1, s.Omega2, s.Omega3, s.Omega4 = m[0], m[1], m[2], m[3]
}

// TrajectoryTableName holds the table name used when writing to GreptimeDB.
// It defaults to "quad_trajectory" but can be overridden via the
// GREPTIMEDB_TABLE environment variable.
var TrajectoryTableName = func() string {
	if env := os.Getenv("GREPTIMEDB_TABLE"); env != "" {
		return env
	}
	return "quad_trajectory"
}()

func (State) TableName() string {
	return TrajectoryTableName
}
