package metrics

import (
	"github.com/san-kum/springnet/internal/physics"
)

// Energy averages kinetic plus spring energy over the run.
type Energy struct {
	name        string
	samples     int
	totalEnergy float64
}

func NewEnergy() *Energy {
	return &Energy{name: "energy"}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(sys *physics.System, t float64) {
	e.totalEnergy += sys.KineticEnergy() + sys.SpringEnergy()
	e.samples++
}

func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.totalEnergy / float64(e.samples)
}

func (e *Energy) Reset() {
	e.totalEnergy = 0
	e.samples = 0
}

// KineticEnergy reports the kinetic energy at the last observation.
type KineticEnergy struct {
	name    string
	current float64
}

func NewKineticEnergy() *KineticEnergy {
	return &KineticEnergy{name: "kinetic_energy"}
}

func (k *KineticEnergy) Name() string { return k.name }

func (k *KineticEnergy) Observe(sys *physics.System, t float64) {
	k.current = sys.KineticEnergy()
}

func (k *KineticEnergy) Value() float64 { return k.current }

func (k *KineticEnergy) Reset() { k.current = 0 }

// SettleTime is the last observed time at which kinetic energy exceeded the
// threshold, i.e. how long the layout took to come to rest.
type SettleTime struct {
	name      string
	threshold float64
	last      float64
}

func NewSettleTime(threshold float64) *SettleTime {
	return &SettleTime{name: "settle_time", threshold: threshold}
}

func (s *SettleTime) Name() string { return s.name }

func (s *SettleTime) Observe(sys *physics.System, t float64) {
	if sys.KineticEnergy() > s.threshold {
		s.last = t
	}
}

func (s *SettleTime) Value() float64 { return s.last }

func (s *SettleTime) Reset() { s.last = 0 }
