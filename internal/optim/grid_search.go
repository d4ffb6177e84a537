package optim

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/san-kum/springnet/internal/automation"
	"github.com/san-kum/springnet/internal/config"
	"github.com/san-kum/springnet/internal/experiment"
	"github.com/san-kum/springnet/internal/sim"
)

var ErrNoFeasiblePoint = errors.New("optim: every grid point failed")

// Point is one evaluated grid point.
type Point struct {
	Params map[string]float64
	Value  float64
	Err    error
}

// GridSearch evaluates every combination of the given parameter values on a
// base config and keeps the one minimizing a metric.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	registry   *experiment.Registry
	log        zerolog.Logger
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges, log: zerolog.Nop()}
}

func (g *GridSearch) WithRegistry(r *experiment.Registry) *GridSearch {
	g.registry = r
	return g
}

func (g *GridSearch) WithLogger(l zerolog.Logger) *GridSearch {
	g.log = l
	return g
}

// Search returns the best parameters, their metric value and every evaluated
// point. Points whose run fails or whose metric is not finite are kept in the
// list but never chosen.
func (g *GridSearch) Search(ctx context.Context, base *config.Config, metricName string) (map[string]float64, float64, []Point, error) {
	if len(g.paramNames) != len(g.ranges) {
		return nil, 0, nil, fmt.Errorf("optim: %d parameters but %d ranges", len(g.paramNames), len(g.ranges))
	}
	for _, name := range g.paramNames {
		if _, ok := automation.Setters[name]; !ok {
			return nil, 0, nil, fmt.Errorf("%w: %q", automation.ErrUnknownParam, name)
		}
	}
	if g.registry == nil {
		g.registry = experiment.NewRegistry()
	}

	best := math.Inf(1)
	var bestParams map[string]float64
	var points []Point

	if err := g.searchRecursive(ctx, 0, make(map[string]float64), base, metricName, &best, &bestParams, &points); err != nil {
		return nil, 0, points, err
	}
	if bestParams == nil {
		return nil, 0, points, ErrNoFeasiblePoint
	}
	return bestParams, best, points, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	base *config.Config,
	metricName string,
	best *float64,
	bestParams *map[string]float64,
	points *[]Point,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if depth == len(g.paramNames) {
		val, err := g.evaluate(ctx, current, base, metricName)
		*points = append(*points, Point{Params: current, Value: val, Err: err})
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			g.log.Debug().Err(err).Interface("params", current).Msg("grid point failed")
			return nil
		}
		if val < *best {
			*best = val
			*bestParams = make(map[string]float64)
			for k, v := range current {
				(*bestParams)[k] = v
			}
		}
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, base, metricName, best, bestParams, points); err != nil {
			return err
		}
	}
	return nil
}

func (g *GridSearch) evaluate(ctx context.Context, params map[string]float64, base *config.Config, metricName string) (float64, error) {
	cfg := base.Clone()
	for name, v := range params {
		automation.Setters[name](cfg, v)
	}

	exp := experiment.New(cfg, g.registry)
	metric, err := g.registry.GetMetric(metricName)
	if err != nil {
		return 0, err
	}
	if err := exp.Setup([]sim.Metric{metric}); err != nil {
		return 0, err
	}

	result, err := exp.Run(ctx)
	if err != nil {
		return 0, err
	}
	val := result.Metrics[metricName]
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return val, fmt.Errorf("optim: metric %s is not finite", metricName)
	}
	return val, nil
}
