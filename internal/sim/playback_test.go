package sim

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestReplayLog(t *testing.T) {
	states := sampleStates(3)
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, s := range states {
		if err := enc.Encode(s); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	cw := &plainWriter{}
	n, err := ReplayLog(&buf, cw, 0)
	if err != nil {
		t.Fatalf("ReplayLog: %v", err)
	}
	if n != len(states) || len(cw.states) != len(states) {
		t.Fatalf("expected %d states, got %d/%d", len(states), n, len(cw.states))
	}
	for i, s := range states {
		if cw.states[i] != s {
			t.Fatalf("state %d mismatch: %+v vs %+v", i, cw.states[i], s)
		}
	}
}

func TestReplayLogPaced(t *testing.T) {
	states := sampleStates(3) // 0.1 s of record time
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, s := range states {
		_ = enc.Encode(s)
	}
	start := time.Now()
	if _, err := ReplayLog(&buf, &plainWriter{}, 2); err != nil {
		t.Fatalf("ReplayLog: %v", err)
	}
	if d := time.Since(start); d < 40*time.Millisecond {
		t.Fatalf("playback at 2x should take about 50ms, took %v", d)
	}
}

func TestReplayLogBadInput(t *testing.T) {
	n, err := ReplayLog(strings.NewReader(`{"t":0}`+"\n"+`{"t":`), &plainWriter{}, 0)
	if err == nil {
		t.Fatalf("expected decode error")
	}
	if n != 1 {
		t.Fatalf("expected 1 state before the error, got %d", n)
	}
}

func TestLoadTrajectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.jsonl")
	fw, err := NewFileWriter(path, "")
	if err != nil {
		t.Fatalf("NewFileWriter: %v", err)
	}
	_ = fw.WriteBatch(sampleStates(5))
	fw.Close()

	got, err := LoadTrajectory(path)
	if err != nil {
		t.Fatalf("LoadTrajectory: %v", err)
	}
	if len(got) != 5 || got[4].Z != 0.4 {
		t.Fatalf("unexpected trajectory %+v", got)
	}
	if _, err := LoadTrajectory(filepath.Join(t.TempDir(), "none.jsonl")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
