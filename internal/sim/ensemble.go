package sim

import (
	"context"
	"fmt"
	"runtime"

	"github.com/rs/zerolog"
	"github.com/san-kum/springnet/internal/physics"
	"golang.org/x/sync/errgroup"
)

// BuildFunc makes a fresh System for one ensemble member.
type BuildFunc func(seed int64) (*physics.System, error)

// Ensemble runs independent Systems in parallel, one goroutine each. Metrics
// are stateful, so each run gets its own set from the factory.
type Ensemble struct {
	build     BuildFunc
	metrics   func() []Metric
	numRuns   int
	seedStart int64
	limit     int
	tolerant  bool
	log       zerolog.Logger
}

func NewEnsemble(build BuildFunc, numRuns int, seedStart int64) *Ensemble {
	return &Ensemble{
		build:     build,
		numRuns:   numRuns,
		seedStart: seedStart,
		limit:     runtime.NumCPU(),
		log:       zerolog.Nop(),
	}
}

func (e *Ensemble) WithMetrics(factory func() []Metric) *Ensemble {
	e.metrics = factory
	return e
}

// WithLimit caps concurrently running members; n <= 0 means no limit.
func (e *Ensemble) WithLimit(n int) *Ensemble {
	e.limit = n
	return e
}

// Tolerant keeps going when a member's run fails; the failure is stored in
// that member's Result.Err instead of aborting the ensemble. Build errors
// still abort.
func (e *Ensemble) Tolerant() *Ensemble {
	e.tolerant = true
	return e
}

func (e *Ensemble) WithLogger(l zerolog.Logger) *Ensemble {
	e.log = l
	return e
}

// Run returns results in seed order. A failing member cancels the rest; its
// error carries the seed.
func (e *Ensemble) Run(ctx context.Context, cfg Config) ([]*Result, error) {
	results := make([]*Result, e.numRuns)

	g, ctx := errgroup.WithContext(ctx)
	if e.limit > 0 {
		g.SetLimit(e.limit)
	}

	for i := 0; i < e.numRuns; i++ {
		idx := i
		seed := e.seedStart + int64(idx)
		g.Go(func() error {
			sys, err := e.build(seed)
			if err != nil {
				return fmt.Errorf("ensemble run %d (seed %d): build: %w", idx, seed, err)
			}

			s := New(sys)
			s.SetLogger(e.log.With().Int64("seed", seed).Logger())
			if e.metrics != nil {
				for _, m := range e.metrics() {
					s.AddMetric(m)
				}
			}

			res, err := s.Run(ctx, cfg)
			if err != nil && e.tolerant && res != nil && ctx.Err() == nil {
				res.Err = err
				results[idx] = res
				return nil
			}
			if err != nil {
				return fmt.Errorf("ensemble run %d (seed %d): %w", idx, seed, err)
			}
			results[idx] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
