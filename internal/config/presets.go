package config

import "sort"

func preset(name string, g GraphConfig, edit func(*Config)) *Config {
	cfg := DefaultConfig()
	cfg.Name = name
	cfg.Graph = g
	if edit != nil {
		edit(cfg)
	}
	return cfg
}

// Presets are grouped by graph source.
var Presets = map[string]map[string]*Config{
	SourceComplete: {
		"k6": preset("k6", GraphConfig{Source: SourceComplete, N: 6}, func(c *Config) {
			c.Mapping.SpringLength = "const:2"
		}),
		"k12": preset("k12", GraphConfig{Source: SourceComplete, N: 12}, func(c *Config) {
			c.Mapping.SpringLength = "const:2"
		}),
	},
	SourceRandom: {
		"small": preset("random20", GraphConfig{Source: SourceRandom, N: 20, Springs: 25}, nil),
		"large": preset("random100", GraphConfig{Source: SourceRandom, N: 100, Springs: 130}, func(c *Config) {
			c.Steps = 4000
		}),
	},
	SourceSample: {
		"pentagon": preset("pentagon", GraphConfig{Source: SourceSample, Sample: "pentagon"}, nil),
		"music": preset("music", GraphConfig{Source: SourceSample, Sample: "music"}, func(c *Config) {
			c.Mapping.Stiffness = "exp2:50"
			c.Mapping.Mass = "scale:0.00005"
		}),
		"candidates": preset("candidates", GraphConfig{Source: SourceSample, Sample: "candidates"}, func(c *Config) {
			c.Mapping.Stiffness = "exp2:50"
			c.Mapping.Mass = "pow:0.5:100"
		}),
		"politics": preset("politics", GraphConfig{Source: SourceSample, Sample: "politics"}, func(c *Config) {
			c.Mapping.Stiffness = "exp2:50"
			c.Mapping.Mass = "pow:0.2:3"
			c.Steps = 4000
		}),
	},
}

func GetPreset(group, name string) *Config {
	groupPresets, ok := Presets[group]
	if !ok {
		return nil
	}
	cfg, ok := groupPresets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets(group string) []string {
	groupPresets, ok := Presets[group]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(groupPresets))
	for name := range groupPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Groups lists preset groups in sorted order.
func Groups() []string {
	groups := make([]string, 0, len(Presets))
	for g := range Presets {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	return groups
}
