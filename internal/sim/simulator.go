package sim

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/san-kum/springnet/internal/physics"
)

// Simulator drives one System. It is not safe for concurrent use; see Ensemble.
type Simulator struct {
	sys       *physics.System
	metrics   []Metric
	observers []Observer
	log       zerolog.Logger
}

func New(sys *physics.System) *Simulator {
	return &Simulator{
		sys:       sys,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
		log:       zerolog.Nop(),
	}
}

func (s *Simulator) AddMetric(m Metric)         { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer)     { s.observers = append(s.observers, o) }
func (s *Simulator) SetLogger(l zerolog.Logger) { s.log = l }
func (s *Simulator) System() *physics.System    { return s.sys }

// Run steps the system cfg.Steps times. On error the partial result is
// returned alongside it; the system is left at the last good step.
func (s *Simulator) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	result := &Result{
		Frames:  make([]Frame, 0, expectedFrames(cfg)),
		Metrics: make(map[string]float64),
	}
	for _, m := range s.metrics {
		m.Reset()
	}

	s.log.Debug().
		Int("bodies", s.sys.Len()).
		Int("springs", len(s.sys.Springs())).
		Float64("dt", cfg.Dt).
		Int("steps", cfg.Steps).
		Msg("run started")

	t := 0.0
	result.Frames = append(result.Frames, s.frame(0, t))

	var runErr error
	for i := 0; i < cfg.Steps; i++ {
		select {
		case <-ctx.Done():
			runErr = ctx.Err()
		default:
		}
		if runErr != nil {
			break
		}

		for _, m := range s.metrics {
			m.Observe(s.sys, t)
		}
		for _, obs := range s.observers {
			obs.OnStep(s.sys, i, t)
		}

		if err := s.sys.Step(cfg.Dt); err != nil {
			runErr = &SimulationError{Step: i, Time: t, Wrapped: err}
			break
		}
		t += cfg.Dt
		result.StepsTaken++

		if cfg.ValidateState && !s.sys.Valid() {
			runErr = &SimulationError{Step: i, Time: t, Wrapped: ErrUnstable}
			break
		}

		last := i == cfg.Steps-1
		if last || (cfg.SampleEvery > 0 && (i+1)%cfg.SampleEvery == 0) {
			result.Frames = append(result.Frames, s.frame(i+1, t))
		}
	}
	result.Time = t

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	if runErr != nil {
		s.log.Warn().Err(runErr).Int("steps_taken", result.StepsTaken).Msg("run stopped")
		return result, runErr
	}
	s.log.Debug().
		Int("steps_taken", result.StepsTaken).
		Float64("kinetic_energy", s.sys.KineticEnergy()).
		Msg("run finished")
	return result, nil
}

// RunWithCallback steps until cfg.Steps is reached or callback returns false.
// No frames are recorded.
func (s *Simulator) RunWithCallback(ctx context.Context, cfg Config, callback func(sys *physics.System, step int, t float64) bool) error {
	if err := validateConfig(cfg); err != nil {
		return err
	}

	t := 0.0
	for i := 0; i < cfg.Steps; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if !callback(s.sys, i, t) {
			return nil
		}

		if err := s.sys.Step(cfg.Dt); err != nil {
			return &SimulationError{Step: i, Time: t, Wrapped: err}
		}
		t += cfg.Dt

		if cfg.ValidateState && !s.sys.Valid() {
			return &SimulationError{Step: i, Time: t, Wrapped: ErrUnstable}
		}
	}
	return nil
}

func (s *Simulator) frame(step int, t float64) Frame {
	return Frame{
		Step:          step,
		Time:          t,
		Positions:     s.sys.Snapshot(),
		KineticEnergy: s.sys.KineticEnergy(),
		SpringEnergy:  s.sys.SpringEnergy(),
	}
}

func validateConfig(cfg Config) error {
	if !(cfg.Dt > 0) {
		return fmt.Errorf("%w: dt must be positive, got %f", ErrInvalidConfig, cfg.Dt)
	}
	if cfg.Steps <= 0 {
		return fmt.Errorf("%w: steps must be positive, got %d", ErrInvalidConfig, cfg.Steps)
	}
	if cfg.SampleEvery < 0 {
		return fmt.Errorf("%w: sample_every must not be negative, got %d", ErrInvalidConfig, cfg.SampleEvery)
	}
	return nil
}

func expectedFrames(cfg Config) int {
	if cfg.SampleEvery <= 0 {
		return 2
	}
	return cfg.Steps/cfg.SampleEvery + 2
}
