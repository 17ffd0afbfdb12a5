package sim

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"quadsim/internal/telemetry"
)

// ReplayLog replays JSONL states from r to writer. A speed > 0 paces
// playback by record time divided by speed; speed <= 0 inserts no delay.
func ReplayLog(r io.Reader, writer TraceWriter, speed float64) (int, error) {
	dec := json.NewDecoder(r)
	var (
		prev  float64
		count int
	)
	for {
		var s telemetry.State
		if err := dec.Decode(&s); err != nil {
			if err == io.EOF {
				return count, nil
			}
			return count, err
		}
		if count > 0 && speed > 0 {
			diff := time.Duration((s.T - prev) / speed * float64(time.Second))
			if diff > 0 {
				time.Sleep(diff)
			}
		}
		if err := writer.Write(s); err != nil {
			return count, err
		}
		prev = s.T
		count++
	}
}

// ReplayLogFile opens a file and replays its states.
func ReplayLogFile(path string, writer TraceWriter, speed float64) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return ReplayLog(f, writer, speed)
}

// LoadTrajectory reads every state of a JSONL trajectory file.
func LoadTrajectory(path string) ([]telemetry.State, error) {
	var c collector
	if _, err := ReplayLogFile(path, &c, 0); err != nil {
		return nil, err
	}
	return c.states, nil
}

type collector struct{ states []telemetry.State }

func (c *collector) Write(s telemetry.State) error {
	c.states = append(c.states, s)
	return nil
}
