// Package dynamics advances the quadrotor rigid-body state over a uniform
// time grid with first-order semi-implicit Euler integration.
package dynamics

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"quadsim/internal/config"
	"quadsim/internal/frame"
	"quadsim/internal/mixer"
	"quadsim/internal/telemetry"
)

// Sink receives every state in sample order.
type Sink interface {
	Append(telemetry.State) error
}

// Option configures an Integrator.
type Option func(*Integrator)

// WithLogger sets the logger used for run start, end and abort messages.
func WithLogger(l *slog.Logger) Option {
	return func(in *Integrator) { in.log = l }
}

// WithInitialState replaces the rest/level initial state.
func WithInitialState(s telemetry.State) Option {
	return func(in *Integrator) { in.initial = s }
}

// Integrator owns the configuration and command source of one run.
type Integrator struct {
	cfg       config.Config
	source    CommandSource
	mix       mixer.Mixer
	kin       frame.Transformer
	constants telemetry.Constants
	initial   telemetry.State
	log       *slog.Logger
}

// New validates cfg and returns an Integrator driven by source.
func New(cfg config.Config, source CommandSource, opts ...Option) (*Integrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if source == nil {
		return nil, ErrNoCommandSource
	}
	v := cfg.Vehicle
	in := &Integrator{
		cfg:       cfg,
		source:    source,
		mix:       mixer.New(v.ArmLength, v.MotorAngleDeg, v.ThrustCoeff, v.DragCoeff),
		kin:       frame.NewTransformer(cfg.Limits.SingularityTolerance),
		constants: cfg.Constants(),
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in, nil
}

// Config returns the configuration the integrator was built with.
func (in *Integrator) Config() config.Config { return in.cfg }

// Steps is the number of samples Run emits, both endpoints included.
func (in *Integrator) Steps() int { return in.cfg.Steps() + 1 }

// Step computes the state at time t from prev. prev is not modified.
func (in *Integrator) Step(prev telemetry.State, t float64) (telemetry.State, error) {
	dt := in.cfg.Simulation.Timestep
	g := in.cfg.Simulation.Gravity
	v := in.cfg.Vehicle
	ix, iy, iz := v.Inertia.X, v.Inertia.Y, v.Inertia.Z

	// 1. command
	w, err := in.source.Command(t, prev)
	if err != nil {
		return prev, fmt.Errorf("command source: %w", err)
	}
	for i := range w {
		w[i] = math.Max(w[i], 0)
	}

	// 2. forces and moments
	wr := in.mix.Mix(w)

	s := prev
	s.T = t
	s.SetMotors(w)
	s.Thrust, s.MomentX, s.MomentY, s.MomentZ = wr.Thrust, wr.Mx, wr.My, wr.Mz
	s.Constants = in.constants

	// 3. translation, attitude from prev
	sphi, cphi := math.Sincos(prev.Phi)
	sth, cth := math.Sincos(prev.Theta)
	spsi, cpsi := math.Sincos(prev.Psi)
	a := wr.Thrust / v.Mass
	s.DDX = a * (cpsi*sth*cphi + spsi*sphi)
	s.DDY = a * (spsi*sth*cphi - cpsi*sphi)
	s.DDZ = -g + a*(cth*cphi)
	s.DX = prev.DX + s.DDX*dt
	s.DY = prev.DY + s.DDY*dt
	s.DZ = prev.DZ + s.DDZ*dt
	s.X = prev.X + s.DX*dt
	s.Y = prev.Y + s.DY*dt
	s.Z = prev.Z + s.DZ*dt

	// 4. body-frame view, logged only
	vel := frame.InertialToBody(prev.Phi, prev.Theta, prev.Psi, frame.Vec3{s.DX, s.DY, s.DZ})
	acc := frame.InertialToBody(prev.Phi, prev.Theta, prev.Psi, frame.Vec3{s.DDX, s.DDY, s.DDZ})
	s.U, s.V, s.W = vel[0], vel[1], vel[2]
	s.DU, s.DV, s.DW = acc[0], acc[1], acc[2]

	// 5. rotation
	p, q, r := prev.P, prev.Q, prev.R
	s.DP = ((iy-iz)*q*r)/ix + wr.Mx/ix
	s.DQ = ((iz-ix)*p*r)/iy + wr.My/iy
	s.DR = ((ix-iy)*p*q)/iz + wr.Mz/iz
	s.P = p + s.DP*dt
	s.Q = q + s.DQ*dt
	s.R = r + s.DR*dt

	// 6. Euler rates at the old angles, finite difference, angles
	rates, err := in.kin.BodyRatesToEulerRates(prev.Phi, prev.Theta, s.P, s.Q, s.R)
	if err != nil {
		return prev, err
	}
	s.DPhi, s.DTheta, s.DPsi = rates[0], rates[1], rates[2]
	s.DDPhi = (s.DPhi - prev.DPhi) / dt
	s.DDTheta = (s.DTheta - prev.DTheta) / dt
	s.DDPsi = (s.DPsi - prev.DPsi) / dt
	s.Phi = prev.Phi + s.DPhi*dt
	s.Theta = prev.Theta + s.DTheta*dt
	s.Psi = prev.Psi + s.DPsi*dt

	if err := in.checkBounds(s); err != nil {
		return prev, err
	}
	return s, nil
}

func (in *Integrator) checkBounds(s telemetry.State) error {
	for i, val := range s.Values() {
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return fmt.Errorf("%w: %s is %v", ErrUnstable, telemetry.Fields[i], val)
		}
	}
	limit := in.cfg.Limits.MaxAbsValue
	if limit <= 0 {
		return nil
	}
	watched := [...]struct {
		name string
		val  float64
	}{
		{"x", s.X}, {"y", s.Y}, {"z", s.Z},
		{"dx", s.DX}, {"dy", s.DY}, {"dz", s.DZ},
		{"p", s.P}, {"q", s.Q}, {"r", s.R},
		{"dphi", s.DPhi}, {"dtheta", s.DTheta}, {"dpsi", s.DPsi},
	}
	for _, f := range watched {
		if math.Abs(f.val) > limit {
			return fmt.Errorf("%w: |%s|=%g exceeds %g", ErrUnstable, f.name, math.Abs(f.val), limit)
		}
	}
	return nil
}

// Run integrates over t = i·dt for i = 0..N, appending every state to sink.
// It stops at the first failing step or when ctx is done.
func (in *Integrator) Run(ctx context.Context, sink Sink) error {
	dt := in.cfg.Simulation.Timestep
	n := in.cfg.Steps()
	in.log.Info("run started",
		"duration", in.cfg.Simulation.Duration,
		"timestep", dt,
		"samples", n+1,
	)

	prev := in.initial
	for i := 0; i <= n; i++ {
		t := float64(i) * dt
		if err := ctx.Err(); err != nil {
			in.log.Warn("run canceled", "step", i, "t", t)
			return &StepError{Step: i, Time: t, Err: err}
		}
		next, err := in.Step(prev, t)
		if err != nil {
			in.log.Error("run aborted", "step", i, "t", t, "err", err)
			return &StepError{Step: i, Time: t, Err: err}
		}
		if err := sink.Append(next); err != nil {
			return &StepError{Step: i, Time: t, Err: fmt.Errorf("sink: %w", err)}
		}
		prev = next
	}

	in.log.Info("run finished", "samples", n+1,
		"x", prev.X, "y", prev.Y, "z", prev.Z)
	return nil
}
