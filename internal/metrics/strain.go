package metrics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/springnet/internal/physics"
)

// Strain reports the mean relative spring deformation |stretch|/length at the
// last observation. A settled layout that honors its edge lengths scores near 0.
type Strain struct {
	name    string
	current float64
	buf     []float64
}

func NewStrain() *Strain {
	return &Strain{name: "strain"}
}

func (s *Strain) Name() string { return s.name }

func (s *Strain) Observe(sys *physics.System, t float64) {
	s.buf = strains(sys, s.buf[:0])
	s.current = 0
	if len(s.buf) > 0 {
		s.current = stat.Mean(s.buf, nil)
	}
}

func (s *Strain) Value() float64 { return s.current }

func (s *Strain) Reset() { s.current = 0 }

// MeanStrain computes the current strain of sys directly.
func MeanStrain(sys *physics.System) float64 {
	v := strains(sys, nil)
	if len(v) == 0 {
		return 0
	}
	return stat.Mean(v, nil)
}

func strains(sys *physics.System, buf []float64) []float64 {
	for _, sp := range sys.Springs() {
		buf = append(buf, math.Abs(sp.Stretch(sys.Body(sp.A), sys.Body(sp.B)))/sp.Length)
	}
	return buf
}

// MomentumDrift is the largest deviation of total momentum from its first
// observed value. Internal forces cancel, so only friction and agitation move it.
type MomentumDrift struct {
	name    string
	initial r2.Vec
	max     float64
	samples int
}

func NewMomentumDrift() *MomentumDrift {
	return &MomentumDrift{name: "momentum_drift"}
}

func (m *MomentumDrift) Name() string { return m.name }

func (m *MomentumDrift) Observe(sys *physics.System, t float64) {
	p := sys.Momentum()
	if m.samples == 0 {
		m.initial = p
	}
	m.samples++
	m.max = math.Max(m.max, r2.Norm(r2.Sub(p, m.initial)))
}

func (m *MomentumDrift) Value() float64 { return m.max }

func (m *MomentumDrift) Reset() {
	m.initial = r2.Vec{}
	m.max = 0
	m.samples = 0
}
