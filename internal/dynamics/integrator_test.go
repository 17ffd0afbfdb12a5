package dynamics

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"

	"quadsim/internal/config"
	"quadsim/internal/frame"
	"quadsim/internal/maneuver"
	"quadsim/internal/mixer"
	"quadsim/internal/telemetry"
)

func shortConfig() config.Config {
	cfg := config.Default()
	cfg.Simulation.Duration = 1.25
	cfg.Simulation.Timestep = 0.05
	cfg.Command.Maneuver = "hover"
	return cfg
}

func run(t *testing.T, cfg config.Config, src CommandSource, opts ...Option) (*Trajectory, error) {
	t.Helper()
	in, err := New(cfg, src, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	tr := NewTrajectory(in.Steps())
	return tr, in.Run(context.Background(), tr)
}

func TestHoverHoldsPosition(t *testing.T) {
	cfg := shortConfig()
	src, err := SourceFromConfig(cfg)
	if err != nil {
		t.Fatalf("SourceFromConfig: %v", err)
	}
	tr, err := run(t, cfg, src)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if tr.Len() != 26 {
		t.Fatalf("expected 26 samples, got %d", tr.Len())
	}
	wh := math.Sqrt(0.369 * 9.81 / (4 * 2.98e-6))
	for i, s := range tr.States() {
		if math.Abs(s.T-float64(i)*0.05) > 1e-12 {
			t.Fatalf("sample %d: t=%v", i, s.T)
		}
		for _, v := range []float64{s.X, s.Y, s.Z, s.Phi, s.Theta, s.Psi, s.P, s.Q, s.R} {
			if math.Abs(v) > 1e-9 {
				t.Fatalf("sample %d drifted: %+v", i, s)
			}
		}
		if math.Abs(s.DDZ) > 1e-9 {
			t.Fatalf("sample %d: ddz=%v", i, s.DDZ)
		}
		for m, w := range s.Motors() {
			if math.Abs(w-wh) > 1e-9 {
				t.Fatalf("sample %d motor %d: %v want %v", i, m+1, w, wh)
			}
		}
		if math.Abs(s.Thrust-0.369*9.81) > 1e-9 {
			t.Fatalf("sample %d: F_T=%v", i, s.Thrust)
		}
		if s.Mass != 0.369 || s.Iz != 0.008801 || s.MotorAngle != 90 {
			t.Fatalf("constants not echoed: %+v", s.Constants)
		}
	}
	last, ok := tr.Last()
	if !ok || last.T != 1.25 {
		t.Fatalf("last sample should be at t=1.25, got %v", last.T)
	}
}

func TestFirstStepOrder(t *testing.T) {
	cfg := shortConfig()
	w := 400.0
	in, err := New(cfg, Fixed{w, w, w, w})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s, err := in.Step(telemetry.State{}, 0)
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	dt := cfg.Simulation.Timestep
	ddz := -9.81 + 4*2.98e-6*w*w/0.369
	if math.Abs(s.DDZ-ddz) > 1e-12 {
		t.Fatalf("ddz=%v want %v", s.DDZ, ddz)
	}
	if math.Abs(s.DZ-ddz*dt) > 1e-12 {
		t.Fatalf("dz=%v want %v", s.DZ, ddz*dt)
	}
	// position uses the updated velocity
	if math.Abs(s.Z-ddz*dt*dt) > 1e-12 {
		t.Fatalf("z=%v want %v", s.Z, ddz*dt*dt)
	}
	if math.Abs(s.W-s.DZ) > 1e-12 || math.Abs(s.DW-s.DDZ) > 1e-12 {
		t.Fatalf("level body frame should match inertial: w=%v dw=%v", s.W, s.DW)
	}
}

func TestRollTorqueFiniteDifference(t *testing.T) {
	cfg := shortConfig()
	h := mixer.HoverSpeed(0.369, 9.81, 2.98e-6)
	src := Fixed{h, h + 5, h + 5, h}
	in, err := New(cfg, src)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	dt := cfg.Simulation.Timestep

	s1, err := in.Step(telemetry.State{}, 0)
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if !(s1.DP > 0 && s1.P > 0 && s1.DPhi > 0) {
		t.Fatalf("expected positive roll response, got %+v", s1)
	}
	if math.Abs(s1.DDPhi-s1.DPhi/dt) > 1e-9 {
		t.Fatalf("first ddphi=%v want %v", s1.DDPhi, s1.DPhi/dt)
	}
	// angle is integrated with the rate computed from the updated p
	if math.Abs(s1.Phi-s1.DPhi*dt) > 1e-12 {
		t.Fatalf("phi=%v want %v", s1.Phi, s1.DPhi*dt)
	}

	s2, err := in.Step(s1, dt)
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if math.Abs(s2.DDPhi-(s2.DPhi-s1.DPhi)/dt) > 1e-9 {
		t.Fatalf("ddphi=%v want backward difference", s2.DDPhi)
	}
	if s1.T != 0 || s2.T != dt {
		t.Fatalf("unexpected times %v %v", s1.T, s2.T)
	}

	tr, err := run(t, cfg, src)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	last, _ := tr.Last()
	if !(last.Phi > 0 && last.Y < 0) {
		t.Fatalf("positive roll should push the vehicle towards -y: phi=%v y=%v", last.Phi, last.Y)
	}
}

func TestStepDoesNotMutatePrev(t *testing.T) {
	cfg := shortConfig()
	in, err := New(cfg, Fixed{300, 310, 310, 300})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	prev := telemetry.State{P: 0.1, DPhi: 0.2, Z: 1}
	saved := prev
	if _, err := in.Step(prev, 0.05); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if prev != saved {
		t.Fatalf("prev was modified")
	}
}

func TestSingularityAborts(t *testing.T) {
	cfg := shortConfig()
	in, err := New(cfg, Fixed{}, WithInitialState(telemetry.State{Theta: math.Pi / 2}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	tr := NewTrajectory(0)
	err = in.Run(context.Background(), tr)
	if !errors.Is(err, frame.ErrKinematicSingularity) {
		t.Fatalf("expected singularity, got %v", err)
	}
	var se *StepError
	if !errors.As(err, &se) || se.Step != 0 {
		t.Fatalf("expected StepError at step 0, got %v", err)
	}
	if tr.Len() != 0 {
		t.Fatalf("no state should be emitted, got %d", tr.Len())
	}
}

func TestMagnitudeLimit(t *testing.T) {
	cfg := shortConfig()
	cfg.Limits.MaxAbsValue = 0.5
	_, err := run(t, cfg, Fixed{1000, 1000, 1000, 1000})
	if !errors.Is(err, ErrUnstable) {
		t.Fatalf("expected ErrUnstable, got %v", err)
	}
}

func TestNaNCommandIsUnstable(t *testing.T) {
	cfg := shortConfig()
	_, err := run(t, cfg, Fixed{math.Inf(1), 0, 0, 0})
	if !errors.Is(err, ErrUnstable) {
		t.Fatalf("expected ErrUnstable, got %v", err)
	}
}

func TestCommandErrorStopsRun(t *testing.T) {
	boom := errors.New("boom")
	src := SourceFunc(func(t float64, _ telemetry.State) (telemetry.Motors, error) {
		if t > 0.49 {
			return telemetry.Motors{}, boom
		}
		return telemetry.Motors{300, 300, 300, 300}, nil
	})
	tr, err := run(t, shortConfig(), src)
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	var se *StepError
	if !errors.As(err, &se) || se.Step != 10 {
		t.Fatalf("expected failure at step 10, got %v", err)
	}
	if tr.Len() != 10 {
		t.Fatalf("expected 10 recorded states, got %d", tr.Len())
	}
}

func TestNegativeCommandsClamped(t *testing.T) {
	in, err := New(shortConfig(), Fixed{-5, 100, 100, 100})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s, err := in.Step(telemetry.State{}, 0)
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if s.Omega1 != 0 {
		t.Fatalf("expected clamp to 0, got %v", s.Omega1)
	}
}

func TestRunCanceled(t *testing.T) {
	in, err := New(shortConfig(), Fixed{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = in.Run(ctx, NewTrajectory(0))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := shortConfig()
	cfg.Vehicle.Mass = 0
	if _, err := New(cfg, Fixed{}); !errors.Is(err, config.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
	if _, err := New(shortConfig(), nil); !errors.Is(err, ErrNoCommandSource) {
		t.Fatalf("expected ErrNoCommandSource, got %v", err)
	}

	cfg = shortConfig()
	cfg.Simulation.Duration = 1e300
	cfg.Simulation.Timestep = 1e-10
	if _, err := New(cfg, Fixed{}); !errors.Is(err, config.ErrInvalidConfig) {
		t.Fatalf("overflowing grid: expected ErrInvalidConfig, got %v", err)
	}
}

func TestRunStopsWithinDuration(t *testing.T) {
	cfg := shortConfig()
	cfg.Simulation.Duration = 1
	cfg.Simulation.Timestep = 0.4
	src, err := SourceFromConfig(cfg)
	if err != nil {
		t.Fatalf("SourceFromConfig: %v", err)
	}
	in, err := New(cfg, src)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	tr := NewTrajectory(in.Steps())
	if err := in.Run(context.Background(), tr); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if tr.Len() != 3 || in.Steps() != 3 {
		t.Fatalf("expected 3 samples, got %d (Steps %d)", tr.Len(), in.Steps())
	}
	last, _ := tr.Last()
	if last.T > cfg.Simulation.Duration {
		t.Fatalf("last sample t=%v lies past duration %v", last.T, cfg.Simulation.Duration)
	}
}

func TestDeterministic(t *testing.T) {
	cfg := shortConfig()
	cfg.Command.Maneuver = "yaw-sweep"
	cfg.Simulation.Duration = 10
	src, err := SourceFromConfig(cfg)
	if err != nil {
		t.Fatalf("SourceFromConfig: %v", err)
	}
	a, err := run(t, cfg, src)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	b, err := run(t, cfg, src)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	as, bs := a.States(), b.States()
	for i := range as {
		if as[i] != bs[i] {
			t.Fatalf("sample %d differs", i)
		}
	}
	last, _ := a.Last()
	if last.Psi == 0 {
		t.Fatalf("yaw sweep should rotate the vehicle")
	}
}

func TestSourceFromConfig(t *testing.T) {
	cfg := shortConfig()
	cfg.Command.Mode = config.ModeFixed
	cfg.Command.FixedSpeeds = []float64{1, 2, 3, 4}
	src, err := SourceFromConfig(cfg)
	if err != nil {
		t.Fatalf("fixed: %v", err)
	}
	if m, _ := src.Command(0, telemetry.State{}); m != (telemetry.Motors{1, 2, 3, 4}) {
		t.Fatalf("unexpected fixed command %v", m)
	}

	cfg = shortConfig()
	cfg.Command.ManeuverFile = filepath.Join("..", "maneuver", "testdata", "simple.yaml")
	src, err = SourceFromConfig(cfg)
	if err != nil {
		t.Fatalf("file: %v", err)
	}
	ol, ok := src.(maneuver.OpenLoop)
	if !ok || ol.Sequence.Len() != 5 {
		t.Fatalf("unexpected source %#v", src)
	}

	cfg = shortConfig()
	cfg.Command.Maneuver = "loop-the-loop"
	if _, err := SourceFromConfig(cfg); err == nil {
		t.Fatalf("expected unknown maneuver error")
	}
}
