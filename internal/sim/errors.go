package sim

import (
	"errors"
	"fmt"
)

var (
	// ErrUnstable indicates a position or velocity became NaN or Inf.
	ErrUnstable = errors.New("sim: simulation unstable (state diverged)")

	// ErrInvalidConfig indicates a non-positive timestep or step count.
	ErrInvalidConfig = errors.New("sim: invalid run configuration")
)

// SimulationError wraps an error with the step at which it happened.
type SimulationError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
