// Package sim moves finished trajectories out of the integrator: trace
// writers for files, stdout, GreptimeDB and the terminal viewer, JSONL
// replay, and the Runner tying a run to its writers.
package sim

import (
	"time"

	"quadsim/internal/telemetry"
)

// TraceWriter is an interface to support different output writers.
type TraceWriter interface {
	Write(telemetry.State) error
}

// Optional: writers may support batch mode.
type batchWriter interface {
	WriteBatch([]telemetry.State) error
}

// RunWriter receives the metadata row of a finished run.
type RunWriter interface {
	WriteRun(telemetry.RunRow) error
}

// runAware writers are told the run id and wall-clock start before any
// state arrives.
type runAware interface {
	BeginRun(runID string, start time.Time)
}

// writeAll sends states to w in batch mode when w supports it.
func writeAll(w TraceWriter, states []telemetry.State) error {
	if bw, ok := w.(batchWriter); ok {
		return bw.WriteBatch(states)
	}
	for _, s := range states {
		if err := w.Write(s); err != nil {
			return err
		}
	}
	return nil
}
