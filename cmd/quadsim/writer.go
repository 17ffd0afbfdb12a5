package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"quadsim/internal/config"
	"quadsim/internal/sim"
)

// Output kinds accepted by --output.
const (
	outputStdout   = "stdout"
	outputJSON     = "json"
	outputFile     = "file"
	outputCSV      = "csv"
	outputGreptime = "greptime"
	outputTUI      = "tui"
)

type writerOptions struct {
	Output  string
	Path    string // target of file and csv outputs
	LogFile string // optional JSONL copy of the trajectory
}

// writers is the trace writer chosen from flags and env vars. TUI is set
// when the output is the interactive viewer.
type writers struct {
	Writer sim.TraceWriter
	TUI    *sim.TUIWriter
	close  func() error
}

func (w *writers) Close() error {
	if w.close == nil {
		return nil
	}
	return w.close()
}

// newWriters sets up the trace writer. A log file adds a FileWriter behind a
// MultiWriter.
func newWriters(cfg *config.Config, opts writerOptions) (*writers, error) {
	base, err := baseWriter(cfg, opts)
	if err != nil {
		return nil, err
	}
	ws := &writers{Writer: base}
	if tw, ok := base.(*sim.TUIWriter); ok {
		ws.TUI = tw
	}
	if c, ok := base.(io.Closer); ok {
		ws.close = c.Close
	}
	if opts.LogFile == "" {
		return ws, nil
	}

	fw, err := sim.NewFileWriter(opts.LogFile, opts.LogFile+".runs")
	if err != nil {
		ws.Close()
		return nil, err
	}
	mw := sim.NewMultiWriter(base, fw)
	ws.Writer = mw
	ws.close = mw.Close
	return ws, nil
}

// baseWriter chooses the underlying writer. GreptimeDB output falls back to
// STDOUT when GREPTIMEDB_ENDPOINT is unset.
func baseWriter(cfg *config.Config, opts writerOptions) (sim.TraceWriter, error) {
	switch opts.Output {
	case "", outputStdout:
		return sim.NewStdoutWriter(cfg, os.Stdout), nil
	case outputJSON:
		return sim.NewJSONStdoutWriter(), nil
	case outputFile:
		if opts.Path == "" {
			return nil, fmt.Errorf("--out is required for file output")
		}
		return sim.NewFileWriter(opts.Path, opts.Path+".runs")
	case outputCSV:
		if opts.Path == "" {
			return nil, fmt.Errorf("--out is required for csv output")
		}
		return sim.NewCSVFileWriter(opts.Path)
	case outputGreptime:
		endpoint := os.Getenv("GREPTIMEDB_ENDPOINT")
		if endpoint == "" {
			slog.Warn("GREPTIMEDB_ENDPOINT not set, printing to STDOUT")
			return sim.NewStdoutWriter(cfg, os.Stdout), nil
		}
		database := os.Getenv("GREPTIMEDB_DATABASE")
		if database == "" {
			database = "public"
		}
		return sim.NewGreptimeDBWriter(endpoint, database)
	case outputTUI:
		return sim.NewTUIWriter(cfg), nil
	default:
		return nil, fmt.Errorf("unknown output %q", opts.Output)
	}
}
