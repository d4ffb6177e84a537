package physics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Spring is a damped Hookean link between two bodies of the same System.
type Spring struct {
	A, B    BodyID
	Length  float64
	K       float64
	Damping float64
}

func (s Spring) validate(n int) error {
	if s.A < 0 || int(s.A) >= n || s.B < 0 || int(s.B) >= n {
		return fmt.Errorf("%w: endpoints %d,%d outside %d bodies", ErrInvalidSpring, s.A, s.B, n)
	}
	if s.A == s.B {
		return fmt.Errorf("%w: body %d", ErrSelfLoop, s.A)
	}
	if !(s.Length > 0) || math.IsInf(s.Length, 0) {
		return fmt.Errorf("%w: length %v", ErrInvalidSpring, s.Length)
	}
	if !(s.K > 0) || math.IsInf(s.K, 0) {
		return fmt.Errorf("%w: stiffness %v", ErrInvalidSpring, s.K)
	}
	if !(s.Damping >= 0) || math.IsInf(s.Damping, 0) {
		return fmt.Errorf("%w: damping %v", ErrInvalidSpring, s.Damping)
	}
	return nil
}

// projection returns the component of v along d as a vector.
func projection(v, d r2.Vec) r2.Vec {
	return r2.Scale(r2.Dot(v, d)/r2.Norm2(d), d)
}

// springForce is the force on endpoint a; b receives its negation.
// The endpoints must not coincide.
func springForce(s Spring, a, b *Body) r2.Vec {
	disp := r2.Sub(b.Position, a.Position)
	stretch := r2.Norm(disp) - s.Length
	hookian := r2.Scale(stretch*s.K, r2.Unit(disp))
	damping := r2.Scale(s.Damping, r2.Sub(projection(a.Velocity, disp), projection(b.Velocity, disp)))
	return r2.Sub(hookian, damping)
}

// Stretch is the signed deviation of the current length from rest length.
func (s Spring) Stretch(a, b *Body) float64 {
	return r2.Norm(r2.Sub(b.Position, a.Position)) - s.Length
}

// Energy is the elastic potential ½·k·stretch².
func (s Spring) Energy(a, b *Body) float64 {
	x := s.Stretch(a, b)
	return 0.5 * s.K * x * x
}
