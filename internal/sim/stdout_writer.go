// Writer selection for STDOUT
package sim

import (
	"io"
	"os"

	"golang.org/x/term"

	"quadsim/internal/config"
)

// NewStdoutWriter returns a colorized writer when out is a terminal and a
// JSON line writer otherwise.
func NewStdoutWriter(cfg *config.Config, out io.Writer) TraceWriter {
	if isTerminal(out) {
		return &ColorStdoutWriter{cfg: cfg, out: out}
	}
	return &JSONStdoutWriter{out: out}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
