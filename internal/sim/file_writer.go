package sim

import (
	"encoding/json"
	"os"

	"quadsim/internal/telemetry"
)

// FileWriter writes trajectory states and run rows to JSONL files.
type FileWriter struct {
	trajFile *os.File
	runFile  *os.File
	trajEnc  *json.Encoder
	runEnc   *json.Encoder
}

// NewFileWriter creates a FileWriter. runPath may be empty to skip run
// metadata.
func NewFileWriter(trajectoryPath, runPath string) (*FileWriter, error) {
	tf, err := os.Create(trajectoryPath)
	if err != nil {
		return nil, err
	}
	fw := &FileWriter{trajFile: tf, trajEnc: json.NewEncoder(tf)}
	if runPath != "" {
		rf, err := os.Create(runPath)
		if err != nil {
			tf.Close()
			return nil, err
		}
		fw.runFile = rf
		fw.runEnc = json.NewEncoder(rf)
	}
	return fw, nil
}

// Write logs a single state.
func (f *FileWriter) Write(s telemetry.State) error {
	return f.trajEnc.Encode(s)
}

// WriteBatch logs multiple states.
func (f *FileWriter) WriteBatch(states []telemetry.State) error {
	for _, s := range states {
		if err := f.Write(s); err != nil {
			return err
		}
	}
	return nil
}

// WriteRun logs a run metadata row, if enabled.
func (f *FileWriter) WriteRun(row telemetry.RunRow) error {
	if f.runEnc == nil {
		return nil
	}
	return f.runEnc.Encode(row)
}

// Close closes any underlying files.
func (f *FileWriter) Close() error {
	var err error
	if f.trajFile != nil {
		if e := f.trajFile.Close(); e != nil && err == nil {
			err = e
		}
	}
	if f.runFile != nil {
		if e := f.runFile.Close(); e != nil && err == nil {
			err = e
		}
	}
	return err
}
