// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	World     WorldConfig     `yaml:"world"`
	Polyp     PolypConfig     `yaml:"polyp"`
	Morphogen MorphogenConfig `yaml:"morphogen"`
	Flow      FlowConfig      `yaml:"flow"`
	Evolution EvolutionConfig `yaml:"evolution"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// WorldConfig holds the growth-run parameters.
type WorldConfig struct {
	MaxPolyps     int     `yaml:"max_polyps"`      // Hard polyp population ceiling
	MaxSteps      int     `yaml:"max_steps"`       // Growth steps per simulation run
	MaxFaceGrowth float64 `yaml:"max_face_growth"` // Division thresholds = initial mesh means * this
	LightAmount   float64 `yaml:"light_amount"`    // Energy weight: light vs collection, in [0,1]
}

// PolypConfig holds per-polyp parameters.
type PolypConfig struct {
	Memory    int     `yaml:"memory"`     // Heritable memory bits per polyp (max 32)
	MaxGrowth float64 `yaml:"max_growth"` // Max outward movement per step, in polyp sizes
	SizeRatio float64 `yaml:"size_ratio"` // Polyp radius = initial mean edge length * this
}

// MorphogenConfig holds reaction-diffusion parameters.
type MorphogenConfig struct {
	Count      int `yaml:"count"`      // Number of morphogen species
	Thresholds int `yaml:"thresholds"` // Concentration bins fed to the network
	Steps      int `yaml:"steps"`      // Solver sub-steps per growth step
}

// FlowConfig holds flow/collection field parameters.
type FlowConfig struct {
	VoxelRatio float64 `yaml:"voxel_ratio"` // Voxel length = initial mean edge length * this
	Decay      float64 `yaml:"decay"`       // Collection multiplier per upstream blocker
	NoiseScale float64 `yaml:"noise_scale"` // Opensimplex frequency for current perturbation
}

// EvolutionConfig holds outer-search parameters.
type EvolutionConfig struct {
	PopulationSize    int     `yaml:"population_size"`
	Generations       int     `yaml:"generations"`
	Elites            int     `yaml:"elites"`
	TournamentSize    int     `yaml:"tournament_size"`
	WeightMutPower    float64 `yaml:"weight_mut_power"`
	CrossoverProb     float64 `yaml:"crossover_prob"`
	NoveltyThreshold  float64 `yaml:"novelty_threshold"`
	NoveltyK          int     `yaml:"novelty_k"`
	ArchiveStagnation int     `yaml:"archive_stagnation"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	LogEverySteps int `yaml:"log_every_steps"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	NumInputs  int // 5 + memory + count*(thresholds-1)
	NumOutputs int // 1 + memory + count
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

// validate rejects configurations the simulation cannot run with.
func (c *Config) validate() error {
	if c.Polyp.Memory < 0 || c.Polyp.Memory > 32 {
		return fmt.Errorf("config: polyp.memory must be in [0, 32], got %d", c.Polyp.Memory)
	}
	if c.World.MaxPolyps <= 0 {
		return fmt.Errorf("config: world.max_polyps must be positive, got %d", c.World.MaxPolyps)
	}
	if c.World.LightAmount < 0 || c.World.LightAmount > 1 {
		return fmt.Errorf("config: world.light_amount must be in [0, 1], got %f", c.World.LightAmount)
	}
	if c.Morphogen.Count > 0 && c.Morphogen.Thresholds < 2 {
		return fmt.Errorf("config: morphogen.thresholds must be at least 2, got %d", c.Morphogen.Thresholds)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
// The decision network shape depends on how many memory bits and
// morphogen concentration bins each polyp reports.
func (c *Config) computeDerived() {
	// Base inputs: light, curvature, gravity, collection, bias
	c.Derived.NumInputs = 5 + c.Polyp.Memory + c.Morphogen.Count*(c.Morphogen.Thresholds-1)
	// Base outputs: growth
	c.Derived.NumOutputs = 1 + c.Polyp.Memory + c.Morphogen.Count
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
