package sim

import (
	"errors"
	"io"
	"time"

	"quadsim/internal/telemetry"
)

// MultiWriter fan-outs states and run rows to multiple writers.
type MultiWriter struct {
	writers []TraceWriter
}

// NewMultiWriter creates a new MultiWriter.
func NewMultiWriter(ws ...TraceWriter) *MultiWriter {
	return &MultiWriter{writers: ws}
}

// Write sends a state to all writers.
func (mw *MultiWriter) Write(s telemetry.State) error {
	for _, w := range mw.writers {
		if err := w.Write(s); err != nil {
			return err
		}
	}
	return nil
}

// WriteBatch sends multiple states to all writers, using batch if supported.
func (mw *MultiWriter) WriteBatch(states []telemetry.State) error {
	for _, w := range mw.writers {
		if err := writeAll(w, states); err != nil {
			return err
		}
	}
	return nil
}

// WriteRun forwards the run row to every writer that accepts it.
func (mw *MultiWriter) WriteRun(row telemetry.RunRow) error {
	for _, w := range mw.writers {
		if rw, ok := w.(RunWriter); ok {
			if err := rw.WriteRun(row); err != nil {
				return err
			}
		}
	}
	return nil
}

// BeginRun forwards the run identity to every writer that wants it.
func (mw *MultiWriter) BeginRun(runID string, start time.Time) {
	for _, w := range mw.writers {
		if ra, ok := w.(runAware); ok {
			ra.BeginRun(runID, start)
		}
	}
}

// Close closes every writer implementing io.Closer.
func (mw *MultiWriter) Close() error {
	var errs []error
	for _, w := range mw.writers {
		if c, ok := w.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
