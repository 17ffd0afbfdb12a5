// YAML config loader with CUE validation integration
package config

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"quadsim/internal/telemetry"
)

// Command modes.
const (
	ModeOpenLoop = "open_loop"
	ModeFixed    = "fixed"
)

// Inertia holds the principal moments of inertia in kg·m².
type Inertia struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
	Z float64 `yaml:"z" json:"z"`
}

// Vehicle describes the airframe.
type Vehicle struct {
	Mass          float64 `yaml:"mass" json:"mass"`
	Inertia       Inertia `yaml:"inertia" json:"inertia"`
	ArmLength     float64 `yaml:"arm_length" json:"arm_length"`
	MotorAngleDeg float64 `yaml:"motor_angle_deg" json:"motor_angle_deg"`
	ThrustCoeff   float64 `yaml:"thrust_coeff" json:"thrust_coeff"`
	DragCoeff     float64 `yaml:"drag_coeff" json:"drag_coeff"`
}

// Simulation holds the environment and the integration grid.
type Simulation struct {
	Gravity  float64 `yaml:"gravity" json:"gravity"`
	Duration float64 `yaml:"duration" json:"duration"`
	Timestep float64 `yaml:"timestep" json:"timestep"`
}

// Command selects where motor commands come from.
type Command struct {
	Mode         string    `yaml:"mode" json:"mode"`
	Maneuver     string    `yaml:"maneuver" json:"maneuver"`
	ManeuverFile string    `yaml:"maneuver_file,omitempty" json:"maneuver_file,omitempty"`
	FixedSpeeds  []float64 `yaml:"fixed_speeds,omitempty" json:"fixed_speeds,omitempty"`
}

// Limits bound the numerical domain of a run.
type Limits struct {
	SingularityTolerance float64 `yaml:"singularity_tolerance" json:"singularity_tolerance"`
	MaxAbsValue          float64 `yaml:"max_abs_value" json:"max_abs_value"`
	MaxSamples           int     `yaml:"max_samples" json:"max_samples"`
}

// DefaultMaxSamples caps the grid when limits.max_samples is zero.
const DefaultMaxSamples = 1_000_000

// gridEpsilon absorbs rounding in duration/timestep so that a duration that
// is a multiple of the timestep keeps its end sample.
const gridEpsilon = 1e-9

// Config is the root configuration; it is treated as immutable once a run
// starts.
type Config struct {
	Vehicle    Vehicle    `yaml:"vehicle" json:"vehicle"`
	Simulation Simulation `yaml:"simulation" json:"simulation"`
	Command    Command    `yaml:"command" json:"command"`
	Limits     Limits     `yaml:"limits" json:"limits"`
}

// Default returns the reference airframe flying the reference maneuver.
func Default() Config {
	return Config{
		Vehicle: Vehicle{
			Mass:          0.369,
			Inertia:       Inertia{X: 0.004856, Y: 0.004856, Z: 0.008801},
			ArmLength:     0.225,
			MotorAngleDeg: 90,
			ThrustCoeff:   2.98e-06,
			DragCoeff:     1.14e-07,
		},
		Simulation: Simulation{
			Gravity:  9.81,
			Duration: 120,
			Timestep: 0.05,
		},
		Command: Command{
			Mode:     ModeOpenLoop,
			Maneuver: "reference",
		},
		Limits: Limits{
			SingularityTolerance: 1e-9,
			MaxSamples:           DefaultMaxSamples,
		},
	}
}

// Constants returns the airframe values echoed into trajectory records.
func (c Config) Constants() telemetry.Constants {
	v := c.Vehicle
	return telemetry.Constants{
		Mass:       v.Mass,
		Ix:         v.Inertia.X,
		Iy:         v.Inertia.Y,
		Iz:         v.Inertia.Z,
		ArmLength:  v.ArmLength,
		MotorAngle: v.MotorAngleDeg,
		ThrustCoef: v.ThrustCoeff,
		DragCoef:   v.DragCoeff,
	}
}

// Steps returns the number of intervals on the closed grid [0, duration].
// The last sample never lies past duration; a remainder shorter than one
// timestep is not simulated. Only meaningful on a validated Config.
func (c Config) Steps() int {
	return int(math.Floor(c.gridRatio() + gridEpsilon))
}

func (c Config) gridRatio() float64 {
	return c.Simulation.Duration / c.Simulation.Timestep
}

// SampleLimit is the largest number of samples a run may emit.
func (c Config) SampleLimit() int {
	if c.Limits.MaxSamples > 0 {
		return c.Limits.MaxSamples
	}
	return DefaultMaxSamples
}

// Load validates a YAML file against the CUE schema (the embedded schema when
// cueSchemaPath is empty), decodes it over Default and checks the result.
func Load(configPath, cueSchemaPath string) (*Config, error) {
	if err := ValidateWithCue(configPath, cueSchemaPath); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	slog.Debug("loaded configuration", "path", configPath, "config", fmt.Sprintf("%+v", *cfg))

	return cfg, nil
}

// Parse decodes YAML over Default and validates the result. Schema
// validation is not applied.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if len(bytes.TrimSpace(data)) > 0 {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("cannot unmarshal YAML config: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ErrInvalidConfig is wrapped by every semantic validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// ValidationError reports one offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidConfig }

// Validate checks the invariants that must hold before any step runs.
func (c Config) Validate() error {
	var errs []error
	positive := func(field string, v float64) {
		if !(v > 0) || math.IsInf(v, 0) {
			errs = append(errs, &ValidationError{Field: field, Reason: fmt.Sprintf("must be positive, got %v", v)})
		}
	}
	positive("vehicle.mass", c.Vehicle.Mass)
	positive("vehicle.inertia.x", c.Vehicle.Inertia.X)
	positive("vehicle.inertia.y", c.Vehicle.Inertia.Y)
	positive("vehicle.inertia.z", c.Vehicle.Inertia.Z)
	positive("vehicle.arm_length", c.Vehicle.ArmLength)
	positive("vehicle.thrust_coeff", c.Vehicle.ThrustCoeff)
	positive("simulation.duration", c.Simulation.Duration)
	positive("simulation.timestep", c.Simulation.Timestep)

	if a := c.Vehicle.MotorAngleDeg; !(a > 0 && a < 180) {
		errs = append(errs, &ValidationError{Field: "vehicle.motor_angle_deg", Reason: fmt.Sprintf("must be in (0, 180), got %v", a)})
	}
	if c.Vehicle.DragCoeff < 0 || math.IsNaN(c.Vehicle.DragCoeff) {
		errs = append(errs, &ValidationError{Field: "vehicle.drag_coeff", Reason: "must not be negative"})
	}
	if math.IsNaN(c.Simulation.Gravity) || math.IsInf(c.Simulation.Gravity, 0) {
		errs = append(errs, &ValidationError{Field: "simulation.gravity", Reason: "must be finite"})
	}
	if c.Simulation.Timestep > 0 && c.Simulation.Timestep > c.Simulation.Duration {
		errs = append(errs, &ValidationError{Field: "simulation.timestep", Reason: "must not exceed duration"})
	}

	switch c.Command.Mode {
	case ModeOpenLoop:
		if c.Command.Maneuver == "" && c.Command.ManeuverFile == "" {
			errs = append(errs, &ValidationError{Field: "command.maneuver", Reason: "or command.maneuver_file is required in open_loop mode"})
		}
	case ModeFixed:
		if len(c.Command.FixedSpeeds) != 4 {
			errs = append(errs, &ValidationError{Field: "command.fixed_speeds", Reason: fmt.Sprintf("needs 4 values, got %d", len(c.Command.FixedSpeeds))})
		}
		for i, w := range c.Command.FixedSpeeds {
			if w < 0 || math.IsNaN(w) {
				errs = append(errs, &ValidationError{Field: fmt.Sprintf("command.fixed_speeds[%d]", i), Reason: "must not be negative"})
			}
		}
	default:
		errs = append(errs, &ValidationError{Field: "command.mode", Reason: fmt.Sprintf("unknown mode %q", c.Command.Mode)})
	}

	if c.Limits.SingularityTolerance < 0 {
		errs = append(errs, &ValidationError{Field: "limits.singularity_tolerance", Reason: "must not be negative"})
	}
	if c.Limits.MaxAbsValue < 0 {
		errs = append(errs, &ValidationError{Field: "limits.max_abs_value", Reason: "must not be negative"})
	}
	if c.Limits.MaxSamples < 0 {
		errs = append(errs, &ValidationError{Field: "limits.max_samples", Reason: "must not be negative"})
	}
	if c.Simulation.Duration > 0 && c.Simulation.Timestep > 0 {
		r := c.gridRatio()
		if math.IsInf(r, 0) || math.IsNaN(r) || r+1 > float64(c.SampleLimit()) {
			errs = append(errs, &ValidationError{
				Field:  "simulation.timestep",
				Reason: fmt.Sprintf("gives %g samples over duration, limit is %d", r+1, c.SampleLimit()),
			})
		}
	}
	return errors.Join(errs...)
}
