package automation

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/san-kum/springnet/internal/config"
	"github.com/san-kum/springnet/internal/experiment"
)

// Setters are the config fields a sweep or grid search can vary.
var Setters = map[string]func(cfg *config.Config, v float64){
	"repulsion": func(c *config.Config, v float64) { c.Physics.Repulsion = v },
	"friction":  func(c *config.Config, v float64) { c.Physics.Friction = v },
	"agitation": func(c *config.Config, v float64) { c.Physics.Agitation = v },
	"density":   func(c *config.Config, v float64) { c.Physics.Density = v },
	"damping":   func(c *config.Config, v float64) { c.Mapping.Damping = v },
	"dt":        func(c *config.Config, v float64) { c.Dt = v },
}

func ParamNames() []string {
	names := make([]string, 0, len(Setters))
	for n := range Setters {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Apply returns a copy of base with param set to v.
func Apply(base *config.Config, param string, v float64) (*config.Config, error) {
	set, ok := Setters[param]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownParam, param)
	}
	cfg := base.Clone()
	set(cfg, v)
	return cfg, nil
}

// ParameterSweep varies one parameter linearly over [Min, Max].
type ParameterSweep struct {
	Base     *config.Config
	Param    string
	Min, Max float64
	NumSteps int
}

// SweepResult holds one point of a sweep. A run that failed keeps its partial
// metrics and the error.
type SweepResult struct {
	ParamValue    float64
	Metrics       map[string]float64
	KineticEnergy float64
	StepsTaken    int
	Err           error
}

// Values returns the sweep points; a single step yields Min.
func (s *ParameterSweep) Values() []float64 {
	if s.NumSteps <= 1 {
		return []float64{s.Min}
	}
	step := (s.Max - s.Min) / float64(s.NumSteps-1)
	vals := make([]float64, s.NumSteps)
	for i := range vals {
		vals[i] = s.Min + float64(i)*step
	}
	return vals
}

// RunSweep runs one experiment per sweep value. Diverging runs are recorded,
// not fatal; config and setup errors are.
func RunSweep(ctx context.Context, sweep *ParameterSweep, registry *experiment.Registry, log zerolog.Logger) ([]SweepResult, error) {
	if _, ok := Setters[sweep.Param]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownParam, sweep.Param)
	}
	values := sweep.Values()
	results := make([]SweepResult, 0, len(values))

	for i, v := range values {
		cfg, err := Apply(sweep.Base, sweep.Param, v)
		if err != nil {
			return nil, err
		}

		exp := experiment.New(cfg, registry)
		if err := exp.Setup(nil); err != nil {
			return nil, fmt.Errorf("sweep %s=%g: %w", sweep.Param, v, err)
		}

		result, err := exp.Run(ctx)
		if err != nil && (result == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
			return results, err
		}

		results = append(results, SweepResult{
			ParamValue:    v,
			Metrics:       result.Metrics,
			KineticEnergy: exp.System().KineticEnergy(),
			StepsTaken:    result.StepsTaken,
			Err:           err,
		})

		log.Info().
			Int("point", i+1).
			Int("of", len(values)).
			Str("param", sweep.Param).
			Float64("value", v).
			Msg("sweep point done")
	}

	return results, nil
}
