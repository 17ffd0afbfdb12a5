package sim

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"quadsim/internal/telemetry"
)

// JSONStdoutWriter prints states and run rows as JSON lines to STDOUT.
type JSONStdoutWriter struct {
	out io.Writer
}

// NewJSONStdoutWriter creates a JSONStdoutWriter writing to os.Stdout.
func NewJSONStdoutWriter() *JSONStdoutWriter {
	return &JSONStdoutWriter{out: os.Stdout}
}

// Write outputs a state in JSON format.
func (w *JSONStdoutWriter) Write(s telemetry.State) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w.out, string(data))
	return err
}

// WriteBatch outputs multiple states in JSON format.
func (w *JSONStdoutWriter) WriteBatch(states []telemetry.State) error {
	for _, s := range states {
		if err := w.Write(s); err != nil {
			return err
		}
	}
	return nil
}

// WriteRun outputs the run metadata row in JSON format.
func (w *JSONStdoutWriter) WriteRun(row telemetry.RunRow) error {
	data, err := json.Marshal(row)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w.out, string(data))
	return err
}
