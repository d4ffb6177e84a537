package automation

import (
	"context"
	"sort"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/springnet/internal/config"
	"github.com/san-kum/springnet/internal/experiment"
	"github.com/san-kum/springnet/internal/sim"
)

// MonteCarloConfig runs the same layout from NumTrials random placements.
type MonteCarloConfig struct {
	Base      *config.Config
	NumTrials int
	SeedStart int64
	// Workers caps parallel trials; 0 uses every CPU.
	Workers int
}

// MonteCarloResult is one trial. A trial is stable when it ran to completion
// and its stability metric stayed at 1.
type MonteCarloResult struct {
	TrialID int
	Seed    int64
	Metrics map[string]float64
	Stable  bool
	Err     error
}

// Summary describes one metric across trials.
type Summary struct {
	Mean, StdDev float64
	Min, Max     float64
	N            int
}

// RunMonteCarlo places the layout with seeds SeedStart..SeedStart+NumTrials-1
// and runs the trials in parallel. Failing trials are kept as unstable.
func RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig, registry *experiment.Registry, log zerolog.Logger) ([]MonteCarloResult, error) {
	if registry == nil {
		registry = experiment.NewRegistry()
	}
	if err := cfg.Base.Validate(); err != nil {
		return nil, err
	}

	ens := sim.NewEnsemble(registry.Builder(cfg.Base), cfg.NumTrials, cfg.SeedStart).
		WithMetrics(registry.DefaultMetrics).
		WithLogger(log).
		Tolerant()
	if cfg.Workers > 0 {
		ens.WithLimit(cfg.Workers)
	}

	runs, err := ens.Run(ctx, experiment.SimConfig(cfg.Base))
	if err != nil {
		return nil, err
	}

	results := make([]MonteCarloResult, len(runs))
	for i, r := range runs {
		results[i] = MonteCarloResult{
			TrialID: i,
			Seed:    cfg.SeedStart + int64(i),
			Metrics: r.Metrics,
			Err:     r.Err,
			Stable:  r.Err == nil && r.Metrics["stability"] == 1,
		}
	}

	stable, unstable := MonteCarloStats(results)
	log.Info().Int("trials", len(results)).Int("stable", stable).Int("unstable", unstable).Msg("monte carlo done")
	return results, nil
}

// MonteCarloStats counts stable and unstable trials.
func MonteCarloStats(results []MonteCarloResult) (stableCount int, unstableCount int) {
	for _, r := range results {
		if r.Stable {
			stableCount++
		} else {
			unstableCount++
		}
	}
	return
}

// Summarize computes per-metric statistics over the trials that completed.
func Summarize(results []MonteCarloResult) map[string]Summary {
	values := make(map[string][]float64)
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		for name, v := range r.Metrics {
			values[name] = append(values[name], v)
		}
	}

	out := make(map[string]Summary, len(values))
	for name, xs := range values {
		mean, std := stat.MeanStdDev(xs, nil)
		if len(xs) < 2 {
			std = 0
		}
		out[name] = Summary{
			Mean:   mean,
			StdDev: std,
			Min:    floats.Min(xs),
			Max:    floats.Max(xs),
			N:      len(xs),
		}
	}
	return out
}

// SummaryNames returns the metric names of s in order.
func SummaryNames(s map[string]Summary) []string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
