package experiment

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/san-kum/springnet/internal/graph"
	"github.com/san-kum/springnet/internal/metrics"
	"github.com/san-kum/springnet/internal/physics"
	"github.com/san-kum/springnet/internal/sim"
)

var (
	ErrUnknownSample   = errors.New("experiment: unknown graph sample")
	ErrUnknownStrategy = errors.New("experiment: unknown weight strategy")
	ErrUnknownMetric   = errors.New("experiment: unknown metric")
)

// strategy builds a WeightFunc from the numeric arguments after its name.
type strategy struct {
	minArgs, maxArgs int
	build            func(args []float64) physics.WeightFunc
}

type Registry struct {
	samples    map[string]func() *graph.Graph
	strategies map[string]strategy
	metrics    map[string]func() sim.Metric
}

func NewRegistry() *Registry {
	r := &Registry{
		samples:    make(map[string]func() *graph.Graph),
		strategies: make(map[string]strategy),
		metrics:    make(map[string]func() sim.Metric),
	}

	r.samples["pentagon"] = pentagonGraph
	r.samples["complete6"] = func() *graph.Graph { return graph.Complete(6) }
	r.samples["music"] = musicGraph
	r.samples["candidates"] = candidatesGraph
	r.samples["politics"] = politicsGraph

	r.strategies["identity"] = strategy{0, 0, func([]float64) physics.WeightFunc { return physics.Identity }}
	r.strategies["sqrt"] = strategy{0, 0, func([]float64) physics.WeightFunc { return math.Sqrt }}
	r.strategies["const"] = strategy{1, 1, func(a []float64) physics.WeightFunc { return physics.Constant(a[0]) }}
	r.strategies["scale"] = strategy{1, 1, func(a []float64) physics.WeightFunc {
		f := a[0]
		return func(w float64) float64 { return w * f }
	}}
	r.strategies["pow"] = strategy{1, 2, func(a []float64) physics.WeightFunc {
		e, div := a[0], 1.0
		if len(a) == 2 {
			div = a[1]
		}
		return func(w float64) float64 { return math.Pow(w, e) / div }
	}}
	r.strategies["exp2"] = strategy{1, 1, func(a []float64) physics.WeightFunc {
		f := a[0]
		return func(w float64) float64 { return math.Exp2(w * f) }
	}}

	r.metrics["energy"] = func() sim.Metric { return metrics.NewEnergy() }
	r.metrics["kinetic_energy"] = func() sim.Metric { return metrics.NewKineticEnergy() }
	r.metrics["settle_time"] = func() sim.Metric { return metrics.NewSettleTime(SettleThreshold) }
	r.metrics["stability"] = func() sim.Metric { return metrics.NewStability(StabilityRadius) }
	r.metrics["strain"] = func() sim.Metric { return metrics.NewStrain() }
	r.metrics["momentum_drift"] = func() sim.Metric { return metrics.NewMomentumDrift() }
	r.metrics["max_speed"] = func() sim.Metric { return metrics.NewMaxSpeed() }

	return r
}

const (
	SettleThreshold = 1e-3
	StabilityRadius = 100.0
)

func (r *Registry) GetSample(name string) (*graph.Graph, error) {
	fn, ok := r.samples[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSample, name)
	}
	return fn(), nil
}

// ParseWeightFunc turns "name[:arg[:arg]]" into a WeightFunc, e.g. "const:2",
// "pow:0.2:3" (w^0.2/3) or "exp2:50" (2^(50w)).
func (r *Registry) ParseWeightFunc(def string) (physics.WeightFunc, error) {
	parts := strings.Split(strings.TrimSpace(def), ":")
	st, ok := r.strategies[parts[0]]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, def)
	}

	args := make([]float64, 0, len(parts)-1)
	for _, p := range parts[1:] {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("weight strategy %q: bad argument %q: %w", def, p, err)
		}
		args = append(args, v)
	}
	if len(args) < st.minArgs || len(args) > st.maxArgs {
		return nil, fmt.Errorf("weight strategy %q: want %d to %d arguments, got %d", def, st.minArgs, st.maxArgs, len(args))
	}
	return st.build(args), nil
}

func (r *Registry) GetMetric(name string) (sim.Metric, error) {
	fn, ok := r.metrics[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMetric, name)
	}
	return fn(), nil
}

func (r *Registry) ListSamples() []string    { return sortedKeys(r.samples) }
func (r *Registry) ListStrategies() []string { return sortedKeys(r.strategies) }
func (r *Registry) ListMetrics() []string    { return sortedKeys(r.metrics) }

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) DefaultMetrics() []sim.Metric {
	return []sim.Metric{
		metrics.NewEnergy(),
		metrics.NewKineticEnergy(),
		metrics.NewStability(StabilityRadius),
		metrics.NewStrain(),
		metrics.NewSettleTime(SettleThreshold),
	}
}
