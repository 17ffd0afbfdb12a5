package sim

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"quadsim/internal/config"
	"quadsim/internal/telemetry"
)

func TestStdoutWriterJSONFallback(t *testing.T) {
	buf := &bytes.Buffer{}
	cfg := config.Default()
	w := NewStdoutWriter(&cfg, buf)
	if _, ok := w.(*JSONStdoutWriter); !ok {
		t.Fatalf("expected JSON writer for non-terminal output, got %T", w)
	}
	if err := w.Write(sampleStates(1)[0]); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	out := strings.TrimSpace(buf.String())
	if !strings.HasPrefix(out, "{") || !strings.Contains(out, `"omega_1":300`) {
		t.Fatalf("expected JSON output, got %q", out)
	}
}

func TestJSONStdoutWriterRun(t *testing.T) {
	buf := &bytes.Buffer{}
	w := &JSONStdoutWriter{out: buf}
	if err := w.WriteRun(telemetry.RunRow{RunID: "r", Status: telemetry.RunCompleted}); err != nil {
		t.Fatalf("WriteRun: %v", err)
	}
	if !strings.Contains(buf.String(), `"run_id":"r"`) {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestStdoutWriterColorized(t *testing.T) {
	cfg := config.Default()
	buf := &bytes.Buffer{}
	w := &ColorStdoutWriter{cfg: &cfg, out: buf}
	states := sampleStates(2)
	if err := w.Write(states[0]); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	output := buf.String()
	if !strings.Contains(output, "Vehicle:") || !strings.Contains(output, "Simulation:") || !strings.Contains(output, "reference") {
		t.Fatalf("overview not printed: %q", output)
	}
	if !strings.Contains(output, "\x1b[") {
		t.Fatalf("expected color codes in output: %q", output)
	}

	buf.Reset()
	if err := w.Write(states[1]); err != nil {
		t.Fatalf("second write failed: %v", err)
	}
	if strings.Contains(buf.String(), "Vehicle:") {
		t.Fatalf("overview printed more than once")
	}
	if !strings.Contains(buf.String(), "t=   0.05s") {
		t.Fatalf("expected time stamp, got %q", buf.String())
	}

	buf.Reset()
	_ = w.WriteRun(telemetry.RunRow{RunID: "r", Status: telemetry.RunAborted, Error: "singular", Timestamp: time.Unix(0, 0).UTC()})
	if !strings.Contains(buf.String(), colorRed) || !strings.Contains(buf.String(), "singular") {
		t.Fatalf("aborted run should be red with error, got %q", buf.String())
	}
}

func TestColorStdoutWriterEvery(t *testing.T) {
	buf := &bytes.Buffer{}
	w := &ColorStdoutWriter{out: buf, Every: 2}
	_ = w.WriteBatch(sampleStates(5))
	if got := strings.Count(buf.String(), "pos="); got != 3 {
		t.Fatalf("expected 3 printed states, got %d", got)
	}
}
