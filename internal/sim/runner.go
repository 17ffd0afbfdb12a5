package sim

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"quadsim/internal/config"
	"quadsim/internal/dynamics"
	"quadsim/internal/logging"
	"quadsim/internal/telemetry"
)

// DefaultBatchSize is the number of states flushed per WriteBatch call.
const DefaultBatchSize = 500

// Runner executes a run and flushes its trajectory to a writer.
type Runner struct {
	Writer    TraceWriter
	BatchSize int
	Now       func() time.Time
}

// Result is the outcome of one run. Trajectory holds every state emitted
// before the run stopped.
type Result struct {
	RunID      string
	Trajectory *dynamics.Trajectory
	Run        telemetry.RunRow
}

// Run integrates in and writes the trajectory followed by the run row. A
// failed run still flushes its partial trajectory; the run error is
// returned together with the Result.
func (r *Runner) Run(ctx context.Context, in *dynamics.Integrator) (*Result, error) {
	log := logging.FromContext(ctx)
	now := r.Now
	if now == nil {
		now = time.Now
	}
	start := now().UTC()
	runID := uuid.NewString()
	if ra, ok := r.Writer.(runAware); ok {
		ra.BeginRun(runID, start)
	}

	cfg := in.Config()
	tr := dynamics.NewTrajectory(in.Steps())
	runErr := in.Run(ctx, tr)

	row := NewRunRow(runID, cfg, tr.Len(), runErr, start)
	res := &Result{RunID: runID, Trajectory: tr, Run: row}
	if runErr != nil {
		log.Error("simulation failed", "run_id", runID, "samples", tr.Len(), "err", runErr)
	}

	if r.Writer == nil {
		return res, runErr
	}
	if err := r.flush(tr.States()); err != nil {
		log.Error("trajectory flush failed", "run_id", runID, "err", err)
		return res, errors.Join(runErr, fmt.Errorf("write trajectory: %w", err))
	}
	if rw, ok := r.Writer.(RunWriter); ok {
		if err := rw.WriteRun(row); err != nil {
			return res, errors.Join(runErr, fmt.Errorf("write run: %w", err))
		}
	}
	log.Debug("trajectory flushed", "run_id", runID, "samples", tr.Len())
	return res, runErr
}

func (r *Runner) flush(states []telemetry.State) error {
	n := r.BatchSize
	if n <= 0 {
		n = DefaultBatchSize
	}
	for len(states) > 0 {
		k := min(n, len(states))
		if err := writeAll(r.Writer, states[:k]); err != nil {
			return err
		}
		states = states[k:]
	}
	return nil
}

// NewRunRow describes a run of cfg that produced samples states.
func NewRunRow(runID string, cfg config.Config, samples int, runErr error, ts time.Time) telemetry.RunRow {
	row := telemetry.RunRow{
		RunID:     runID,
		Maneuver:  ManeuverLabel(cfg),
		Mode:      cfg.Command.Mode,
		Duration:  cfg.Simulation.Duration,
		Timestep:  cfg.Simulation.Timestep,
		Gravity:   cfg.Simulation.Gravity,
		Samples:   samples,
		Status:    telemetry.RunCompleted,
		Timestamp: ts,
		Constants: cfg.Constants(),
	}
	if runErr != nil {
		row.Status = telemetry.RunAborted
		row.Error = runErr.Error()
	}
	return row
}

// ManeuverLabel names the command source selected by cfg.
func ManeuverLabel(cfg config.Config) string {
	switch {
	case cfg.Command.Mode == config.ModeFixed:
		return "fixed"
	case cfg.Command.ManeuverFile != "":
		return cfg.Command.ManeuverFile
	default:
		return cfg.Command.Maneuver
	}
}
