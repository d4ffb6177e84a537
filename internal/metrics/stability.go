package metrics

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/springnet/internal/physics"
)

// Stability is the fraction of observations where every body stayed within
// radius of the centroid and the state was finite.
type Stability struct {
	name       string
	radius     float64
	violations int
	samples    int
}

func NewStability(radius float64) *Stability {
	return &Stability{
		name:   "stability",
		radius: radius,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(sys *physics.System, t float64) {
	s.samples++
	if !sys.Valid() {
		s.violations++
		return
	}
	c := sys.Centroid()
	for _, b := range sys.Bodies() {
		if r2.Norm(r2.Sub(b.Position, c)) > s.radius {
			s.violations++
			break
		}
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}

// MaxSpeed is the largest body speed seen during the run.
type MaxSpeed struct {
	name string
	max  float64
}

func NewMaxSpeed() *MaxSpeed {
	return &MaxSpeed{name: "max_speed"}
}

func (m *MaxSpeed) Name() string { return m.name }

func (m *MaxSpeed) Observe(sys *physics.System, t float64) {
	for _, b := range sys.Bodies() {
		if v := b.Speed(); v > m.max {
			m.max = v
		}
	}
}

func (m *MaxSpeed) Value() float64 { return m.max }

func (m *MaxSpeed) Reset() { m.max = 0 }
