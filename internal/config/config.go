package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDt          = 0.05
	DefaultSteps       = 2000
	DefaultSampleEvery = 10
	DefaultSeed        = 1
	DefaultRandomN     = 20
	DefaultDamping     = 0.5
	DefaultRepulsion   = 0.1
	DefaultFriction    = 0.1
	DefaultAgitation   = 1.0
	DefaultDensity     = 5.0
	DefaultTimeScale   = 1.0

	// EnvPrefix namespaces environment overrides, e.g. SPRINGNET_PHYSICS_REPULSION.
	EnvPrefix = "SPRINGNET"
)

// Graph sources.
const (
	SourceFile     = "file"
	SourceComplete = "complete"
	SourceRandom   = "random"
	SourceSample   = "sample"
)

var ErrInvalid = errors.New("config: invalid configuration")

type Config struct {
	Name        string          `yaml:"name" mapstructure:"name"`
	Graph       GraphConfig     `yaml:"graph" mapstructure:"graph"`
	Mapping     MappingConfig   `yaml:"mapping" mapstructure:"mapping"`
	Physics     PhysicsConfig   `yaml:"physics" mapstructure:"physics"`
	Dt          float64         `yaml:"dt" mapstructure:"dt"`
	Steps       int             `yaml:"steps" mapstructure:"steps"`
	SampleEvery int             `yaml:"sample_every" mapstructure:"sample_every"`
	Seed        int64           `yaml:"seed" mapstructure:"seed"`
	Animation   AnimationConfig `yaml:"animation" mapstructure:"animation"`
}

// GraphConfig selects where the graph comes from. Path is used by "file",
// N by "complete" and "random", Springs by "random", Sample by "sample".
type GraphConfig struct {
	Source  string `yaml:"source" mapstructure:"source"`
	Path    string `yaml:"path" mapstructure:"path"`
	N       int    `yaml:"n" mapstructure:"n"`
	Springs int    `yaml:"springs" mapstructure:"springs"`
	Sample  string `yaml:"sample" mapstructure:"sample"`
}

// MappingConfig holds weight strategy strings such as "identity" or "const:2".
type MappingConfig struct {
	SpringLength string  `yaml:"spring_length" mapstructure:"spring_length"`
	Stiffness    string  `yaml:"stiffness" mapstructure:"stiffness"`
	Mass         string  `yaml:"mass" mapstructure:"mass"`
	Damping      float64 `yaml:"damping" mapstructure:"damping"`
}

type PhysicsConfig struct {
	Repulsion float64 `yaml:"repulsion" mapstructure:"repulsion"`
	Friction  float64 `yaml:"friction" mapstructure:"friction"`
	Agitation float64 `yaml:"agitation" mapstructure:"agitation"`
	Density   float64 `yaml:"density" mapstructure:"density"`
}

type AnimationConfig struct {
	Path      string  `yaml:"path" mapstructure:"path"`
	TimeScale float64 `yaml:"time_scale" mapstructure:"time_scale"`
	Autoplay  bool    `yaml:"autoplay" mapstructure:"autoplay"`
}

func DefaultConfig() *Config {
	return &Config{
		Name: "complete6",
		Graph: GraphConfig{
			Source: SourceComplete,
			N:      6,
		},
		Mapping: MappingConfig{
			SpringLength: "const:1",
			Stiffness:    "identity",
			Mass:         "identity",
			Damping:      DefaultDamping,
		},
		Physics: PhysicsConfig{
			Repulsion: DefaultRepulsion,
			Friction:  DefaultFriction,
			Agitation: DefaultAgitation,
			Density:   DefaultDensity,
		},
		Dt:          DefaultDt,
		Steps:       DefaultSteps,
		SampleEvery: DefaultSampleEvery,
		Seed:        DefaultSeed,
		Animation: AnimationConfig{
			TimeScale: DefaultTimeScale,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Resolve layers base (DefaultConfig when nil), then the YAML file at path
// (skipped when empty), then SPRINGNET_* environment variables. Nested keys
// join with underscores: SPRINGNET_PHYSICS_FRICTION, SPRINGNET_GRAPH_N.
func Resolve(base *Config, path string) (*Config, error) {
	if base == nil {
		base = DefaultConfig()
	}
	defaults, err := yaml.Marshal(base)
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return nil, fmt.Errorf("config: read defaults: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	return &cfg, nil
}

// LoadEnvFile exports the variables of a dotenv file so Resolve sees them.
// Variables already set in the environment win. A missing file is not an
// error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("config: load %s: %w", path, err)
	}
	return nil
}

func (c *Config) Validate() error {
	if !(c.Dt > 0) {
		return fmt.Errorf("%w: dt must be positive, got %v", ErrInvalid, c.Dt)
	}
	if c.Steps <= 0 {
		return fmt.Errorf("%w: steps must be positive, got %d", ErrInvalid, c.Steps)
	}
	if c.SampleEvery < 0 {
		return fmt.Errorf("%w: sample_every must not be negative", ErrInvalid)
	}
	if !(c.Physics.Density > 0) {
		return fmt.Errorf("%w: physics.density must be positive, got %v", ErrInvalid, c.Physics.Density)
	}
	if c.Mapping.Damping < 0 {
		return fmt.Errorf("%w: mapping.damping must not be negative", ErrInvalid)
	}

	switch c.Graph.Source {
	case SourceFile:
		if c.Graph.Path == "" {
			return fmt.Errorf("%w: graph.path is required for source %q", ErrInvalid, SourceFile)
		}
	case SourceComplete:
		if c.Graph.N < 1 {
			return fmt.Errorf("%w: graph.n must be at least 1", ErrInvalid)
		}
	case SourceRandom:
		if c.Graph.N < 2 {
			return fmt.Errorf("%w: graph.n must be at least 2 for random graphs", ErrInvalid)
		}
	case SourceSample:
		if c.Graph.Sample == "" {
			return fmt.Errorf("%w: graph.sample is required for source %q", ErrInvalid, SourceSample)
		}
	default:
		return fmt.Errorf("%w: unknown graph source %q", ErrInvalid, c.Graph.Source)
	}
	return nil
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}
