package physics

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r2"
)

const (
	DefaultRepulsion          = 0.1
	DefaultFriction           = 0.1
	DefaultAgitationMagnitude = 1.0
	DefaultBodyDensity        = 5.0
)

// Params are the tunables of a System. Repulsion and Friction may be changed
// between steps.
type Params struct {
	Repulsion          float64
	Friction           float64
	AgitationMagnitude float64
	BodyDensity        float64
}

func DefaultParams() Params {
	return Params{
		Repulsion:          DefaultRepulsion,
		Friction:           DefaultFriction,
		AgitationMagnitude: DefaultAgitationMagnitude,
		BodyDensity:        DefaultBodyDensity,
	}
}

// System owns every body and spring of one layout. Membership is fixed at
// construction.
type System struct {
	Params Params

	bodies  []Body
	springs []Spring
	rng     *rand.Rand

	tracks  map[BodyID][]Keyframe
	clock   float64
	playing bool
}

// NewSystem takes ownership of bodies and springs. seed drives Agitate.
func NewSystem(bodies []Body, springs []Spring, p Params, seed int64) (*System, error) {
	for i, b := range bodies {
		if !(b.Mass > 0) || math.IsInf(b.Mass, 0) {
			return nil, fmt.Errorf("body %d (%q): %w, got %v", i, b.Label, ErrInvalidMass, b.Mass)
		}
	}
	for i, s := range springs {
		if err := s.validate(len(bodies)); err != nil {
			return nil, fmt.Errorf("spring %d: %w", i, err)
		}
	}
	return &System{
		Params:  p,
		bodies:  bodies,
		springs: springs,
		rng:     rand.New(rand.NewSource(seed)),
	}, nil
}

// Bodies returns the body arena in construction order. Callers may modify
// elements but must not append.
func (s *System) Bodies() []Body { return s.bodies }

func (s *System) Springs() []Spring { return s.springs }

func (s *System) Len() int { return len(s.bodies) }

func (s *System) Body(id BodyID) *Body { return &s.bodies[id] }

func (s *System) ToggleLock(id BodyID) { s.bodies[id].ToggleLock() }

func (s *System) SetPosition(id BodyID, p r2.Vec) { s.bodies[id].SetPosition(p) }

// Step advances the system by one explicit Euler update: springs, then
// pairwise repulsion, then friction and integration per body, then animation.
// Every distance the step needs comes from start-of-step positions, so a
// coincident pair is detected up front and the system is left untouched.
func (s *System) Step(timestep float64) error {
	if !(timestep > 0) || math.IsInf(timestep, 0) {
		return fmt.Errorf("%w, got %v", ErrInvalidTimestep, timestep)
	}
	if err := s.checkSeparation(); err != nil {
		return err
	}

	for _, sp := range s.springs {
		a, b := &s.bodies[sp.A], &s.bodies[sp.B]
		force := springForce(sp, a, b)
		a.ApplyImpulse(force, timestep)
		b.ApplyImpulse(r2.Scale(-1, force), timestep)
	}

	if s.Params.Repulsion != 0 {
		for i := 0; i < len(s.bodies)-1; i++ {
			for j := i + 1; j < len(s.bodies); j++ {
				a, b := &s.bodies[i], &s.bodies[j]
				force := repulsionForce(a, b, s.Params.Repulsion)
				a.ApplyImpulse(force, timestep)
				b.ApplyImpulse(r2.Scale(-1, force), timestep)
			}
		}
	}

	for i := range s.bodies {
		b := &s.bodies[i]
		b.ApplyImpulse(frictionForce(b, s.Params.Friction), timestep)
		b.UpdatePosition(timestep)
	}

	if s.tracks != nil && s.playing {
		s.advanceAnimation(timestep)
	}
	return nil
}

func (s *System) checkSeparation() error {
	for i, sp := range s.springs {
		if s.bodies[sp.A].Position == s.bodies[sp.B].Position {
			return &SingularityError{Phase: "spring", Spring: i, A: sp.A, B: sp.B}
		}
	}
	if s.Params.Repulsion == 0 {
		return nil
	}
	for i := 0; i < len(s.bodies)-1; i++ {
		for j := i + 1; j < len(s.bodies); j++ {
			if r2.Norm2(r2.Sub(s.bodies[i].Position, s.bodies[j].Position)) == 0 {
				return &SingularityError{Phase: "repulsion", Spring: -1, A: BodyID(i), B: BodyID(j)}
			}
		}
	}
	return nil
}

// Agitate kicks every body with a random impulse, minus the mean impulse so
// the total injected momentum is zero. Locked bodies count toward the mean
// but reject their share. The applied impulses are returned in body order.
func (s *System) Agitate() []r2.Vec {
	n := len(s.bodies)
	if n == 0 {
		return nil
	}
	forces := make([]r2.Vec, n)
	var total r2.Vec
	for i := range forces {
		f := r2.Scale(s.Params.AgitationMagnitude, r2.Vec{X: s.rng.Float64()*2 - 1, Y: s.rng.Float64()*2 - 1})
		forces[i] = f
		total = r2.Add(total, f)
	}
	offset := r2.Scale(1/float64(n), total)
	for i := range forces {
		forces[i] = r2.Sub(forces[i], offset)
		s.bodies[i].ApplyImpulse(forces[i], 1)
	}
	return forces
}

// BodiesAt returns every body whose disc contains p, in system order.
func (s *System) BodiesAt(p r2.Vec) []BodyID {
	var hits []BodyID
	for i := range s.bodies {
		if r2.Norm(r2.Sub(p, s.bodies[i].Position)) <= s.bodies[i].Radius {
			hits = append(hits, BodyID(i))
		}
	}
	return hits
}

func (s *System) KineticEnergy() float64 {
	ke := 0.0
	for i := range s.bodies {
		b := &s.bodies[i]
		ke += 0.5 * b.Mass * r2.Norm2(b.Velocity)
	}
	return ke
}

// SpringEnergy is the total elastic potential stored in the springs.
func (s *System) SpringEnergy() float64 {
	pe := 0.0
	for _, sp := range s.springs {
		pe += sp.Energy(&s.bodies[sp.A], &s.bodies[sp.B])
	}
	return pe
}

func (s *System) Momentum() r2.Vec {
	var p r2.Vec
	for i := range s.bodies {
		p = r2.Add(p, r2.Scale(s.bodies[i].Mass, s.bodies[i].Velocity))
	}
	return p
}

// Centroid is the unweighted mean body position.
func (s *System) Centroid() r2.Vec {
	if len(s.bodies) == 0 {
		return r2.Vec{}
	}
	var c r2.Vec
	for i := range s.bodies {
		c = r2.Add(c, s.bodies[i].Position)
	}
	return r2.Scale(1/float64(len(s.bodies)), c)
}

// Valid reports whether every position and velocity is finite and the
// energies computed from them have not overflowed.
func (s *System) Valid() bool {
	for i := range s.bodies {
		b := &s.bodies[i]
		for _, v := range []float64{b.Position.X, b.Position.Y, b.Velocity.X, b.Velocity.Y} {
			if !finite(v) {
				return false
			}
		}
	}
	return finite(s.KineticEnergy()) && finite(s.SpringEnergy())
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// Snapshot copies the current positions.
func (s *System) Snapshot() []r2.Vec {
	out := make([]r2.Vec, len(s.bodies))
	for i := range s.bodies {
		out[i] = s.bodies[i].Position
	}
	return out
}

// Bounds returns the axis-aligned box around every body disc.
func (s *System) Bounds() r2.Box {
	if len(s.bodies) == 0 {
		return r2.Box{}
	}
	b0 := s.bodies[0]
	box := r2.Box{
		Min: r2.Vec{X: b0.Position.X - b0.Radius, Y: b0.Position.Y - b0.Radius},
		Max: r2.Vec{X: b0.Position.X + b0.Radius, Y: b0.Position.Y + b0.Radius},
	}
	for _, b := range s.bodies[1:] {
		box.Min.X = math.Min(box.Min.X, b.Position.X-b.Radius)
		box.Min.Y = math.Min(box.Min.Y, b.Position.Y-b.Radius)
		box.Max.X = math.Max(box.Max.X, b.Position.X+b.Radius)
		box.Max.Y = math.Max(box.Max.Y, b.Position.Y+b.Radius)
	}
	return box
}
