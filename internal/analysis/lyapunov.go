package analysis

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/springnet/internal/physics"
)

var ErrMismatch = errors.New("analysis: systems differ in size")

// Divergence estimates the largest divergence exponent of the layout built by
// build, using trajectory separation with renormalization every step:
//
//	λ ≈ Σ ln(|δ(t)|/δ0) / (steps*dt)
//
// The second trajectory starts with every free body moved by perturbation
// along x. build must return identical systems on every call.
func Divergence(build func() (*physics.System, error), perturbation, dt float64, steps int) (float64, error) {
	a, err := build()
	if err != nil {
		return 0, err
	}
	b, err := build()
	if err != nil {
		return 0, err
	}
	if a.Len() != b.Len() {
		return 0, ErrMismatch
	}

	moved := 0
	for i := range b.Bodies() {
		body := b.Body(physics.BodyID(i))
		if !body.Locked {
			body.Position.X += perturbation
			moved++
		}
	}
	if moved == 0 || steps <= 0 {
		return 0, nil
	}
	d0 := separation(a, b)

	sumLog := 0.0
	for i := 0; i < steps; i++ {
		if err := a.Step(dt); err != nil {
			return 0, err
		}
		if err := b.Step(dt); err != nil {
			return 0, err
		}

		sep := separation(a, b)
		if sep == 0 {
			continue
		}
		sumLog += math.Log(sep / d0)
		renormalize(a, b, d0/sep)
	}

	return sumLog / (float64(steps) * dt), nil
}

// separation is the phase-space distance between two systems.
func separation(a, b *physics.System) float64 {
	sum := 0.0
	for i := range a.Bodies() {
		pa, pb := a.Body(physics.BodyID(i)), b.Body(physics.BodyID(i))
		sum += r2.Norm2(r2.Sub(pb.Position, pa.Position)) + r2.Norm2(r2.Sub(pb.Velocity, pa.Velocity))
	}
	return math.Sqrt(sum)
}

// renormalize pulls b toward a, scaling every difference by scale.
func renormalize(a, b *physics.System, scale float64) {
	for i := range a.Bodies() {
		pa, pb := a.Body(physics.BodyID(i)), b.Body(physics.BodyID(i))
		pb.Position = r2.Add(pa.Position, r2.Scale(scale, r2.Sub(pb.Position, pa.Position)))
		pb.Velocity = r2.Add(pa.Velocity, r2.Scale(scale, r2.Sub(pb.Velocity, pa.Velocity)))
	}
}
