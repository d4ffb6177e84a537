package experiment

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/san-kum/springnet/internal/config"
	"github.com/san-kum/springnet/internal/graph"
	"github.com/san-kum/springnet/internal/physics"
	"github.com/san-kum/springnet/internal/sim"
)

// Experiment turns a config into a running layout.
type Experiment struct {
	cfg       *config.Config
	registry  *Registry
	system    *physics.System
	simulator *sim.Simulator
	log       zerolog.Logger
}

func New(cfg *config.Config, registry *Registry) *Experiment {
	if registry == nil {
		registry = NewRegistry()
	}
	return &Experiment{cfg: cfg, registry: registry, log: zerolog.Nop()}
}

func (e *Experiment) SetLogger(l zerolog.Logger) { e.log = l }

// Setup builds the system and the simulator with the given metrics. With no
// metrics the registry defaults are used.
func (e *Experiment) Setup(metrics []sim.Metric) error {
	if err := e.cfg.Validate(); err != nil {
		return err
	}
	sys, err := e.registry.BuildSystem(e.cfg, e.cfg.Seed)
	if err != nil {
		return err
	}
	if e.cfg.Animation.Path != "" {
		tracks, err := physics.LoadAnimation(e.cfg.Animation.Path)
		if err != nil {
			return fmt.Errorf("load animation: %w", err)
		}
		if err := sys.AddAnimationData(tracks, e.cfg.Animation.TimeScale); err != nil {
			return err
		}
		sys.SetAnimationPlaying(e.cfg.Animation.Autoplay)
	}

	if metrics == nil {
		metrics = e.registry.DefaultMetrics()
	}
	e.system = sys
	e.simulator = sim.New(sys)
	e.simulator.SetLogger(e.log)
	for _, m := range metrics {
		e.simulator.AddMetric(m)
	}

	e.log.Info().
		Str("name", e.cfg.Name).
		Str("source", e.cfg.Graph.Source).
		Int("bodies", sys.Len()).
		Int("springs", len(sys.Springs())).
		Msg("experiment ready")
	return nil
}

func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	return e.simulator.Run(ctx, SimConfig(e.cfg))
}

// GetSimulator returns the underlying simulator for adding observers
func (e *Experiment) GetSimulator() *sim.Simulator {
	return e.simulator
}

func (e *Experiment) System() *physics.System { return e.system }

// Params extracts the physics tunables from cfg.
func Params(cfg *config.Config) physics.Params {
	return physics.Params{
		Repulsion:          cfg.Physics.Repulsion,
		Friction:           cfg.Physics.Friction,
		AgitationMagnitude: cfg.Physics.Agitation,
		BodyDensity:        cfg.Physics.Density,
	}
}

func SimConfig(cfg *config.Config) sim.Config {
	return sim.Config{
		Dt:            cfg.Dt,
		Steps:         cfg.Steps,
		SampleEvery:   cfg.SampleEvery,
		ValidateState: true,
	}
}

// Mapping parses the weight strategies of cfg.
func (r *Registry) Mapping(cfg *config.Config) (physics.Mapping, error) {
	length, err := r.ParseWeightFunc(cfg.Mapping.SpringLength)
	if err != nil {
		return physics.Mapping{}, fmt.Errorf("mapping.spring_length: %w", err)
	}
	stiffness, err := r.ParseWeightFunc(cfg.Mapping.Stiffness)
	if err != nil {
		return physics.Mapping{}, fmt.Errorf("mapping.stiffness: %w", err)
	}
	mass, err := r.ParseWeightFunc(cfg.Mapping.Mass)
	if err != nil {
		return physics.Mapping{}, fmt.Errorf("mapping.mass: %w", err)
	}
	return physics.Mapping{
		SpringLength: length,
		Stiffness:    stiffness,
		Mass:         mass,
		Damping:      cfg.Mapping.Damping,
	}, nil
}

// Graph resolves the graph named by cfg. Random sources have no graph and
// return nil.
func (r *Registry) Graph(cfg *config.Config) (*graph.Graph, error) {
	switch cfg.Graph.Source {
	case config.SourceFile:
		return graph.Load(cfg.Graph.Path)
	case config.SourceComplete:
		return graph.Complete(cfg.Graph.N), nil
	case config.SourceSample:
		return r.GetSample(cfg.Graph.Sample)
	case config.SourceRandom:
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: unknown graph source %q", config.ErrInvalid, cfg.Graph.Source)
	}
}

// BuildSystem makes a fresh System for cfg, placing bodies with seed.
func (r *Registry) BuildSystem(cfg *config.Config, seed int64) (*physics.System, error) {
	params := Params(cfg)
	if cfg.Graph.Source == config.SourceRandom {
		return physics.Random(cfg.Graph.N, cfg.Graph.Springs, params, seed)
	}

	g, err := r.Graph(cfg)
	if err != nil {
		return nil, err
	}
	m, err := r.Mapping(cfg)
	if err != nil {
		return nil, err
	}
	return physics.FromGraph(g, m, params, seed)
}

// Builder adapts BuildSystem for sim.Ensemble.
func (r *Registry) Builder(cfg *config.Config) sim.BuildFunc {
	return func(seed int64) (*physics.System, error) {
		return r.BuildSystem(cfg, seed)
	}
}
