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

// Config holds all simulation and controller configuration parameters.
type Config struct {
	Physics    PhysicsConfig    `yaml:"physics"`
	Terrain    TerrainConfig    `yaml:"terrain"`
	Control    ControlConfig    `yaml:"control"`
	Policy     PolicyConfig     `yaml:"policy"`
	Fitness    FitnessConfig    `yaml:"fitness"`
	Episode    EpisodeConfig    `yaml:"episode"`
	Training   TrainingConfig   `yaml:"training"`
	Experience ExperienceConfig `yaml:"experience"`
	Neural     NeuralConfig     `yaml:"neural"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// PhysicsConfig holds the built-in world's integration parameters.
type PhysicsConfig struct {
	DT             float64 `yaml:"dt"`              // seconds per physics step
	Gravity        float64 `yaml:"gravity"`         // m/s^2, positive down
	MaxTorque      float64 `yaml:"max_torque"`      // joint torque at action = ±1
	JointStiffness float64 `yaml:"joint_stiffness"` // restoring torque per radian
	JointDamping   float64 `yaml:"joint_damping"`   // joint angular velocity damping
	LinearDamping  float64 `yaml:"linear_damping"`  // body velocity damping per second
}

// TerrainConfig holds optional uneven-ground parameters.
type TerrainConfig struct {
	Enabled   bool    `yaml:"enabled"`
	Amplitude float64 `yaml:"amplitude"` // max ground height deviation
	Scale     float64 `yaml:"scale"`     // noise frequency
	Seed      int64   `yaml:"seed"`
}

// ControlConfig holds control-tick and action post-processing parameters.
type ControlConfig struct {
	Interval           float64 `yaml:"interval"`              // seconds between control ticks (0.05 = 20 Hz)
	MaxMotorChangeRate float64 `yaml:"max_motor_change_rate"` // per-motor delta clamp per tick
	Smoothing          float64 `yaml:"smoothing"`             // weight of the new value in the blend
}

// PolicyConfig holds exploration parameters.
type PolicyConfig struct {
	ExplorationInitial float64 `yaml:"exploration_initial"`
	ExplorationDecay   float64 `yaml:"exploration_decay"` // multiplicative, per control tick
	ExplorationFloor   float64 `yaml:"exploration_floor"`
}

// FitnessConfig holds the posture scoring targets.
type FitnessConfig struct {
	TargetHeadHeight  float64 `yaml:"target_head_height"`
	TargetTorsoHeight float64 `yaml:"target_torso_height"`
	ContactThreshold  float64 `yaml:"contact_threshold"` // contact fade band above ground
}

// EpisodeConfig holds episode timing and the world boundary region.
type EpisodeConfig struct {
	Duration float64 `yaml:"duration"` // seconds per attempt at 1x speed
	BoundsX  float64 `yaml:"bounds_x"` // |torso x| limit
	BoundsY  float64 `yaml:"bounds_y"` // torso y lower limit (negative = below ground)
	BoundsZ  float64 `yaml:"bounds_z"` // |torso z| limit
}

// TrainingConfig holds the retraining schedule and fit parameters.
type TrainingConfig struct {
	Interval     float64 `yaml:"interval"`    // seconds between fit attempts at 1x speed
	MinSamples   int     `yaml:"min_samples"` // buffered samples required to trigger a fit
	MinFitness   float64 `yaml:"min_fitness"` // samples at or below this are not trained on
	TopN         int     `yaml:"top_n"`       // best qualifying samples kept
	Epochs       int     `yaml:"epochs"`
	LearningRate float64 `yaml:"learning_rate"`
	Dropout      float64 `yaml:"dropout"`
}

// ExperienceConfig holds experience buffer sizing.
type ExperienceConfig struct {
	Capacity int `yaml:"capacity"` // eviction trigger
	EvictTo  int `yaml:"evict_to"` // samples kept after eviction
}

// NeuralConfig holds hidden layer sizes per capacity tier.
type NeuralConfig struct {
	TierSmall  []int `yaml:"tier_small"`
	TierMedium []int `yaml:"tier_medium"`
	TierLarge  []int `yaml:"tier_large"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow    float64 `yaml:"stats_window"`    // seconds per stats window
	SensorPreview  int     `yaml:"sensor_preview"`  // sensor values included in snapshots
	FitnessHistory int     `yaml:"fitness_history"` // bounded per-tick fitness history length
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	DT32               float32 // Physics.DT as float32
	ControlInterval32  float32
	ContactThreshold32 float32
	StepsPerControl    int // physics steps per control tick
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

	// Compute derived values
	cfg.computeDerived()

	return cfg, nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.DT32 = float32(c.Physics.DT)
	c.Derived.ControlInterval32 = float32(c.Control.Interval)
	c.Derived.ContactThreshold32 = float32(c.Fitness.ContactThreshold)

	steps := 1
	if c.Physics.DT > 0 {
		steps = int(c.Control.Interval/c.Physics.DT + 0.5)
	}
	if steps < 1 {
		steps = 1
	}
	c.Derived.StepsPerControl = steps
}

// HiddenLayers returns the hidden layer sizes for a capacity tier name.
// Unknown tiers fall back to the medium tier.
func (c *Config) HiddenLayers(tier string) []int {
	switch tier {
	case "small":
		return c.Neural.TierSmall
	case "large":
		return c.Neural.TierLarge
	default:
		return c.Neural.TierMedium
	}
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
