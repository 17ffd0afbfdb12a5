package mixer

import (
	"errors"
	"math"
	"testing"

	"quadsim/internal/telemetry"
)

const (
	mass  = 0.369
	grav  = 9.81
	armL  = 0.225
	cT    = 2.98e-06
	cRD   = 1.14e-07
	angle = 90.0
)

func TestGeometry(t *testing.T) {
	g := NewGeometry(armL, angle)
	want := armL * math.Sin(math.Pi/4)
	if math.Abs(g.Lx-want) > 1e-15 || math.Abs(g.Ly-want) > 1e-15 {
		t.Fatalf("unexpected arms %+v, want %v", g, want)
	}
	wide := NewGeometry(1, 120)
	if math.Abs(wide.Ly-math.Sin(math.Pi/3)) > 1e-15 || math.Abs(wide.Lx-0.5) > 1e-15 {
		t.Fatalf("unexpected wide arms %+v", wide)
	}
}

func TestHoverBalancesWeight(t *testing.T) {
	m := New(armL, angle, cT, cRD)
	h := HoverSpeed(mass, grav, cT)
	if want := math.Sqrt(mass * grav / (4 * cT)); h != want {
		t.Fatalf("hover speed %v, want %v", h, want)
	}
	wr := m.Mix(HoverCommand(mass, grav, cT))
	if math.Abs(wr.Thrust-mass*grav) > 1e-12 {
		t.Fatalf("hover thrust %v, want %v", wr.Thrust, mass*grav)
	}
	if wr.Mx != 0 || wr.My != 0 || wr.Mz != 0 {
		t.Fatalf("hover moments should vanish: %+v", wr)
	}
}

func TestSignPattern(t *testing.T) {
	m := New(armL, angle, cT, cRD)
	base := HoverSpeed(mass, grav, cT)
	cases := []struct {
		motor      int
		sx, sy, sz float64
	}{
		{0, -1, -1, 1},
		{1, 1, -1, -1},
		{2, 1, 1, 1},
		{3, -1, 1, -1},
	}
	for _, tc := range cases {
		w := telemetry.Motors{base, base, base, base}
		w[tc.motor] += 10
		wr := m.Mix(w)
		if math.Signbit(wr.Mx) != (tc.sx < 0) || math.Signbit(wr.My) != (tc.sy < 0) || math.Signbit(wr.Mz) != (tc.sz < 0) {
			t.Fatalf("motor %d: unexpected signs %+v", tc.motor+1, wr)
		}
	}
}

func TestMixValues(t *testing.T) {
	m := New(armL, angle, cT, cRD)
	w := telemetry.Motors{100, 200, 300, 400}
	wr := m.Mix(w)
	sq := [4]float64{1e4, 4e4, 9e4, 16e4}
	if got, want := wr.Thrust, cT*(sq[0]+sq[1]+sq[2]+sq[3]); got != want {
		t.Fatalf("thrust %v, want %v", got, want)
	}
	if got, want := wr.Mx, m.Ly*cT*(-sq[0]+sq[1]+sq[2]-sq[3]); got != want {
		t.Fatalf("Mx %v, want %v", got, want)
	}
	if got, want := wr.My, m.Lx*cT*(-sq[0]-sq[1]+sq[2]+sq[3]); got != want {
		t.Fatalf("My %v, want %v", got, want)
	}
	if got, want := wr.Mz, cRD*(sq[0]-sq[1]+sq[2]-sq[3]); got != want {
		t.Fatalf("Mz %v, want %v", got, want)
	}
}

func TestUnmixRoundTrip(t *testing.T) {
	m := New(armL, angle, cT, cRD)
	w := telemetry.Motors{540, 560, 555, 545}
	got, err := m.Unmix(m.Mix(w))
	if err != nil {
		t.Fatalf("Unmix: %v", err)
	}
	for i := range w {
		if math.Abs(got[i]-w[i]) > 1e-6 {
			t.Fatalf("motor %d: got %v, want %v", i+1, got[i], w[i])
		}
	}
}

func TestUnmixInfeasible(t *testing.T) {
	m := New(armL, angle, cT, cRD)
	_, err := m.Unmix(Wrench{Thrust: 0.1, Mx: 5})
	if !errors.Is(err, ErrInfeasible) {
		t.Fatalf("expected ErrInfeasible, got %v", err)
	}
}
