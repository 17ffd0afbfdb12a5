package dynamics

import (
	"errors"
	"fmt"
)

var (
	// ErrUnstable indicates a state value became NaN, infinite or exceeded
	// the configured magnitude limit.
	ErrUnstable = errors.New("dynamics: simulation unstable (state diverged)")

	// ErrNoCommandSource is returned by New when source is nil.
	ErrNoCommandSource = errors.New("dynamics: no command source")
)

// StepError wraps an error with the sample at which the run stopped.
type StepError struct {
	Step int
	Time float64
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (t=%.4fs): %v", e.Step, e.Time, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
