package frame

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

const eps = 1e-12

func vecEqual(a, b Vec3, tol float64) bool {
	for i := range a {
		if math.Abs(a[i]-b[i]) > tol {
			return false
		}
	}
	return true
}

func TestElementalRotations(t *testing.T) {
	x := math.Pi / 3.0
	s, c := math.Sin(x), math.Cos(x)
	r1, r2, r3 := R1(x), R2(x), R3(x)
	if r1.At(0, 0) != 1 || r2.At(1, 1) != 1 || r3.At(2, 2) != 1 {
		t.Fatal("expected unit entry on the rotation axis")
	}
	if r1.At(1, 2) != -s || r1.At(2, 1) != s || r1.At(1, 1) != c {
		t.Fatal("R1 entries misplaced")
	}
	if r2.At(0, 2) != s || r2.At(2, 0) != -s || r2.At(2, 2) != c {
		t.Fatal("R2 entries misplaced")
	}
	if r3.At(0, 1) != -s || r3.At(1, 0) != s || r3.At(0, 0) != c {
		t.Fatal("R3 entries misplaced")
	}
}

func TestRotationIsOrthonormal(t *testing.T) {
	r := Rotation(0.3, -0.7, 2.1)
	var rrt mat.Dense
	rrt.Mul(r, r.T())
	if !mat.EqualApprox(&rrt, eye3(), eps) {
		t.Fatalf("R·Rᵀ != I:\n%v", mat.Formatted(&rrt))
	}
	if d := mat.Det(r); math.Abs(d-1) > eps {
		t.Fatalf("det(R) = %v", d)
	}
}

func eye3() *mat.Dense {
	return mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
}

func TestInertialToBody(t *testing.T) {
	cases := []struct {
		name            string
		phi, theta, psi float64
		in, want        Vec3
	}{
		{"identity", 0, 0, 0, Vec3{1, 2, 3}, Vec3{1, 2, 3}},
		{"yaw 90", 0, 0, math.Pi / 2, Vec3{1, 0, 0}, Vec3{0, 1, 0}},
		{"pitch 90", 0, math.Pi / 2, 0, Vec3{0, 0, 1}, Vec3{1, 0, 0}},
		{"roll 90", math.Pi / 2, 0, 0, Vec3{0, 1, 0}, Vec3{0, 0, 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := InertialToBody(tc.phi, tc.theta, tc.psi, tc.in)
			if !vecEqual(got, tc.want, 1e-12) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestBodyToInertialInverts(t *testing.T) {
	v := Vec3{0.4, -1.2, 9.81}
	b := InertialToBody(0.2, 0.1, -1.4, v)
	back := BodyToInertial(0.2, 0.1, -1.4, b)
	if !vecEqual(back, v, 1e-12) {
		t.Fatalf("round trip %v -> %v", v, back)
	}
}

func TestBodyRatesRoundTrip(t *testing.T) {
	for _, theta := range []float64{-1.4, -0.5, 0, 0.3, 1.2, 1.5} {
		phi, p, q, r := 0.7, 0.11, -0.32, 0.05
		rates, err := BodyRatesToEulerRates(phi, theta, p, q, r)
		if err != nil {
			t.Fatalf("theta=%v: %v", theta, err)
		}
		back := EulerRatesToBodyRates(phi, theta, rates[0], rates[1], rates[2])
		if !vecEqual(back, Vec3{p, q, r}, 1e-9) {
			t.Fatalf("theta=%v: got %v, want %v", theta, back, Vec3{p, q, r})
		}
	}
}

func TestBodyRatesLevelIsIdentity(t *testing.T) {
	rates, err := BodyRatesToEulerRates(0, 0, 0.1, 0.2, 0.3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !vecEqual(rates, Vec3{0.1, 0.2, 0.3}, eps) {
		t.Fatalf("got %v", rates)
	}
}

func TestBodyRatesSingularity(t *testing.T) {
	for _, theta := range []float64{math.Pi / 2, -math.Pi / 2, 3 * math.Pi / 2} {
		if _, err := BodyRatesToEulerRates(0, theta, 0.1, 0.1, 0.1); !errors.Is(err, ErrKinematicSingularity) {
			t.Fatalf("theta=%v: expected ErrKinematicSingularity, got %v", theta, err)
		}
	}
	tr := NewTransformer(0.1)
	if _, err := tr.BodyRatesToEulerRates(0, 1.5, 0, 0, 0); !errors.Is(err, ErrKinematicSingularity) {
		t.Fatalf("expected singularity with wide tolerance, got %v", err)
	}
	if _, err := tr.BodyRatesToEulerRates(0, 1.4, 0, 0, 0); err != nil {
		t.Fatalf("unexpected error inside tolerance band: %v", err)
	}
}

func TestNewTransformerDefault(t *testing.T) {
	if tr := NewTransformer(0); tr.Tolerance != DefaultTolerance {
		t.Fatalf("tolerance = %v", tr.Tolerance)
	}
}
