package physics

import (
	"errors"
	"fmt"
)

// Domain errors for system construction and stepping.
var (
	// ErrCoincident indicates two bodies at exactly the same position where a direction is required.
	ErrCoincident = errors.New("physics: coincident bodies (zero separation)")

	// ErrInvalidTimestep indicates a non-positive or non-finite timestep.
	ErrInvalidTimestep = errors.New("physics: timestep must be positive and finite")

	// ErrInvalidMass indicates a body mass that is not strictly positive.
	ErrInvalidMass = errors.New("physics: mass must be positive")

	// ErrInvalidSpring indicates a spring with bad length, stiffness, damping or endpoints.
	ErrInvalidSpring = errors.New("physics: invalid spring")

	// ErrSelfLoop indicates a spring whose two endpoints are the same body.
	ErrSelfLoop = errors.New("physics: spring endpoints must be distinct bodies")

	// ErrUnknownLabel indicates animation data for a label no body carries.
	ErrUnknownLabel = errors.New("physics: no body with label")

	// ErrInvalidDensity indicates a body density that is not strictly positive.
	ErrInvalidDensity = errors.New("physics: body density must be positive")

	// ErrTooFewBodies indicates a random system request that cannot place springs.
	ErrTooFewBodies = errors.New("physics: need at least two bodies")
)

// SingularityError reports the pair that made a step undefined. The system is
// left exactly as it was before the step.
type SingularityError struct {
	Phase  string // "spring" or "repulsion"
	Spring int    // spring index, -1 for repulsion
	A, B   BodyID
}

func (e *SingularityError) Error() string {
	if e.Spring >= 0 {
		return fmt.Sprintf("%s: spring %d between bodies %d and %d", ErrCoincident, e.Spring, e.A, e.B)
	}
	return fmt.Sprintf("%s: %s between bodies %d and %d", ErrCoincident, e.Phase, e.A, e.B)
}

func (e *SingularityError) Unwrap() error {
	return ErrCoincident
}
