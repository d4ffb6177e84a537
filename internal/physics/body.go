package physics

import (
	"math"
	"math/rand"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/spatial/r2"
)

// BodyID indexes a body inside its System.
type BodyID int

// Body is a point mass. Radius is only used for drawing and picking.
type Body struct {
	Position r2.Vec
	Velocity r2.Vec
	Mass     float64
	Radius   float64
	Charge   float64
	Color    colorful.Color
	Label    string
	Locked   bool
}

// NewBody derives radius and charge from mass. density must be positive.
func NewBody(pos r2.Vec, mass, density float64, label string) Body {
	return Body{
		Position: pos,
		Mass:     mass,
		Radius:   math.Sqrt(mass) / density,
		Charge:   math.Sqrt(mass),
		Color:    colorful.Color{R: 0.75, G: 0.75, B: 0.75},
		Label:    label,
	}
}

// ApplyImpulse changes velocity by force*duration/mass. Locked bodies ignore it.
func (b *Body) ApplyImpulse(force r2.Vec, duration float64) {
	if b.Locked {
		return
	}
	b.Velocity = r2.Add(b.Velocity, r2.Scale(duration/b.Mass, force))
}

func (b *Body) UpdatePosition(timestep float64) {
	b.Position = r2.Add(b.Position, r2.Scale(timestep, b.Velocity))
}

// ToggleLock flips the lock; locking zeroes velocity.
func (b *Body) ToggleLock() {
	if b.Locked {
		b.Locked = false
		return
	}
	b.Locked = true
	b.Velocity = r2.Vec{}
}

// SetPosition moves the body directly. Velocity is kept, so a body dropped
// after a drag resumes its previous motion.
func (b *Body) SetPosition(p r2.Vec) {
	b.Position = p
}

func (b *Body) Speed() float64 {
	return r2.Norm(b.Velocity)
}

// randomColor picks each channel in [127, 255].
func randomColor(rng *rand.Rand) colorful.Color {
	channel := func() float64 { return float64(127+rng.Intn(129)) / 255 }
	return colorful.Color{R: channel(), G: channel(), B: channel()}
}
