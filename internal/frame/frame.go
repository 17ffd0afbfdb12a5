// Package frame converts vectors and rates between the inertial frame and the
// vehicle body frame using roll-pitch-yaw Euler angles.
package frame

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ErrKinematicSingularity is returned when the Euler-rate transform is
// evaluated at pitch = ±90°, where 1/cos(theta) is undefined.
var ErrKinematicSingularity = errors.New("frame: kinematic singularity (pitch at ±90°)")

// DefaultTolerance is the |cos(theta)| threshold below which the Euler-rate
// transform is treated as singular.
const DefaultTolerance = 1e-9

// Vec3 is a three component vector.
type Vec3 [3]float64

// R1 rotation about the 1st (roll) axis.
func R1(x float64) *mat.Dense {
	s, c := math.Sin(x), math.Cos(x)
	return mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, c, -s,
		0, s, c,
	})
}

// R2 rotation about the 2nd (pitch) axis.
func R2(x float64) *mat.Dense {
	s, c := math.Sin(x), math.Cos(x)
	return mat.NewDense(3, 3, []float64{
		c, 0, s,
		0, 1, 0,
		-s, 0, c,
	})
}

// R3 rotation about the 3rd (yaw) axis.
func R3(x float64) *mat.Dense {
	s, c := math.Sin(x), math.Cos(x)
	return mat.NewDense(3, 3, []float64{
		c, -s, 0,
		s, c, 0,
		0, 0, 1,
	})
}

// Rotation composes the elemental rotations as R3(psi)·R2(theta)·R1(phi).
// The product is evaluated left to right.
func Rotation(phi, theta, psi float64) *mat.Dense {
	var r32, r mat.Dense
	r32.Mul(R3(psi), R2(theta))
	r.Mul(&r32, R1(phi))
	return &r
}

// MxV multiplies a 3x3 matrix with v.
func MxV(m mat.Matrix, v Vec3) Vec3 {
	var out mat.VecDense
	out.MulVec(m, mat.NewVecDense(3, []float64{v[0], v[1], v[2]}))
	return Vec3{out.AtVec(0), out.AtVec(1), out.AtVec(2)}
}

// InertialToBody rotates an inertial-frame vector into the body frame.
func InertialToBody(phi, theta, psi float64, v Vec3) Vec3 {
	return MxV(Rotation(phi, theta, psi), v)
}

// BodyToInertial is the inverse of InertialToBody.
func BodyToInertial(phi, theta, psi float64, v Vec3) Vec3 {
	return MxV(Rotation(phi, theta, psi).T(), v)
}

// Transformer evaluates the kinematic rate transforms with a configurable
// singularity tolerance.
type Transformer struct {
	Tolerance float64
}

// NewTransformer returns a Transformer. A non-positive tolerance selects
// DefaultTolerance.
func NewTransformer(tolerance float64) Transformer {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return Transformer{Tolerance: tolerance}
}

// BodyRatesToEulerRates maps body angular rates (p, q, r) to Euler angle
// rates (dphi, dtheta, dpsi). It fails with ErrKinematicSingularity when
// |cos(theta)| is within the tolerance of zero.
func (tr Transformer) BodyRatesToEulerRates(phi, theta, p, q, r float64) (Vec3, error) {
	cosTheta := math.Cos(theta)
	if math.Abs(cosTheta) <= tr.Tolerance || math.IsNaN(cosTheta) {
		return Vec3{}, ErrKinematicSingularity
	}
	sinPhi, cosPhi := math.Sin(phi), math.Cos(phi)
	tanTheta := math.Tan(theta)
	return Vec3{
		p + sinPhi*tanTheta*q + cosPhi*tanTheta*r,
		cosPhi*q - sinPhi*r,
		sinPhi/cosTheta*q + cosPhi/cosTheta*r,
	}, nil
}

// BodyRatesToEulerRates uses DefaultTolerance.
func BodyRatesToEulerRates(phi, theta, p, q, r float64) (Vec3, error) {
	return Transformer{Tolerance: DefaultTolerance}.BodyRatesToEulerRates(phi, theta, p, q, r)
}

// EulerRatesToBodyRates is the inverse kinematic map. It is defined for every
// attitude.
func EulerRatesToBodyRates(phi, theta, dphi, dtheta, dpsi float64) Vec3 {
	sinPhi, cosPhi := math.Sin(phi), math.Cos(phi)
	sinTheta, cosTheta := math.Sin(theta), math.Cos(theta)
	return Vec3{
		dphi - sinTheta*dpsi,
		cosPhi*dtheta + sinPhi*cosTheta*dpsi,
		-sinPhi*dtheta + cosPhi*cosTheta*dpsi,
	}
}
