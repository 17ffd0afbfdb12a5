package dynamics

import (
	"fmt"

	"quadsim/internal/config"
	"quadsim/internal/maneuver"
	"quadsim/internal/mixer"
	"quadsim/internal/telemetry"
)

// CommandSource produces the four motor speeds for time t. prev is the
// state emitted at the previous sample (the zero State before the first).
type CommandSource interface {
	Command(t float64, prev telemetry.State) (telemetry.Motors, error)
}

// Fixed holds the same motor speeds for the whole run.
type Fixed telemetry.Motors

// Command implements CommandSource.
func (f Fixed) Command(float64, telemetry.State) (telemetry.Motors, error) {
	return telemetry.Motors(f), nil
}

// SourceFunc adapts a plain function to CommandSource.
type SourceFunc func(t float64, prev telemetry.State) (telemetry.Motors, error)

// Command implements CommandSource.
func (f SourceFunc) Command(t float64, prev telemetry.State) (telemetry.Motors, error) {
	return f(t, prev)
}

// SourceFromConfig selects the command source named by cfg.Command.
func SourceFromConfig(cfg config.Config) (CommandSource, error) {
	switch cfg.Command.Mode {
	case config.ModeFixed:
		if len(cfg.Command.FixedSpeeds) != 4 {
			return nil, fmt.Errorf("fixed mode needs 4 speeds, got %d", len(cfg.Command.FixedSpeeds))
		}
		var f Fixed
		copy(f[:], cfg.Command.FixedSpeeds)
		return f, nil
	case config.ModeOpenLoop, "":
		var (
			seq *maneuver.Sequence
			err error
		)
		if cfg.Command.ManeuverFile != "" {
			var s *maneuver.Script
			if s, err = maneuver.Load(cfg.Command.ManeuverFile); err == nil {
				seq, err = s.Build()
			}
		} else {
			seq, err = maneuver.Named(cfg.Command.Maneuver)
		}
		if err != nil {
			return nil, fmt.Errorf("maneuver: %w", err)
		}
		v := cfg.Vehicle
		return maneuver.OpenLoop{
			Sequence: seq,
			Hover:    mixer.HoverSpeed(v.Mass, cfg.Simulation.Gravity, v.ThrustCoeff),
		}, nil
	default:
		return nil, fmt.Errorf("unknown command mode %q", cfg.Command.Mode)
	}
}
