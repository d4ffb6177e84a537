package sim

import (
	"github.com/san-kum/springnet/internal/physics"
	"gonum.org/v1/gonum/spatial/r2"
)

// DefaultDt is one rendered frame of the interactive viewer.
const DefaultDt = 0.05

// Metric accumulates a scalar over a run. Observe is called before every step.
type Metric interface {
	Name() string
	Observe(sys *physics.System, t float64)
	Value() float64
	Reset()
}

// Observer sees the system before every step.
type Observer interface {
	OnStep(sys *physics.System, step int, t float64)
}

type ObserverFunc func(sys *physics.System, step int, t float64)

func (f ObserverFunc) OnStep(sys *physics.System, step int, t float64) { f(sys, step, t) }

type Config struct {
	Dt    float64
	Steps int
	// SampleEvery records a frame every n steps; 0 records only the first and last.
	SampleEvery   int
	ValidateState bool
}

func DefaultConfig() Config {
	return Config{
		Dt:            DefaultDt,
		Steps:         1000,
		SampleEvery:   10,
		ValidateState: true,
	}
}

// Frame is a sampled moment of a run.
type Frame struct {
	Step          int
	Time          float64
	Positions     []r2.Vec
	KineticEnergy float64
	SpringEnergy  float64
}

type Result struct {
	Frames     []Frame
	Metrics    map[string]float64
	StepsTaken int
	Time       float64
	// Err is set only by a tolerant Ensemble for a member whose run failed.
	Err error
}

// Energies returns the total (kinetic + spring) energy of every frame.
func (r *Result) Energies() []float64 {
	out := make([]float64, len(r.Frames))
	for i, f := range r.Frames {
		out[i] = f.KineticEnergy + f.SpringEnergy
	}
	return out
}

// Final returns the last recorded frame.
func (r *Result) Final() (Frame, bool) {
	if len(r.Frames) == 0 {
		return Frame{}, false
	}
	return r.Frames[len(r.Frames)-1], true
}
