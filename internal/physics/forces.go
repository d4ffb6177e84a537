package physics

import "gonum.org/v1/gonum/spatial/r2"

// repulsionForce is the force on a from b; b receives its negation.
// Magnitude falls off as 1/distance, scaled by the product of charges.
func repulsionForce(a, b *Body, coefficient float64) r2.Vec {
	disp := r2.Sub(a.Position, b.Position)
	return r2.Scale(coefficient*a.Charge*b.Charge/r2.Norm2(disp), disp)
}

// frictionForce opposes velocity linearly, scaled by mass.
func frictionForce(b *Body, coefficient float64) r2.Vec {
	return r2.Scale(-coefficient*b.Mass, b.Velocity)
}
