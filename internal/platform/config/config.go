// Package config provides configuration loading for a ward session.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all session configuration parameters.
type Config struct {
	Tick       TickConfig       `yaml:"tick"`
	Sanity     SanityConfig     `yaml:"sanity"`
	Battery    BatteryConfig    `yaml:"battery"`
	Generator  GeneratorConfig  `yaml:"generator"`
	Antagonist AntagonistConfig `yaml:"antagonist"`
	Patients   PatientConfig    `yaml:"patients"`
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
	Network    NetworkConfig    `yaml:"network"`
}

// TickConfig controls the fixed simulation step.
type TickConfig struct {
	Interval time.Duration `yaml:"interval"`
	Seed     int64         `yaml:"seed"` // Patrol and wander randomness; 0 seeds from the clock
}

// SanityConfig holds the primary resource meter tuning.
type SanityConfig struct {
	Max              int           `yaml:"max"`
	Start            int           `yaml:"start"`
	Threshold        int           `yaml:"threshold"`         // Lights default off below this
	DecreaseInterval time.Duration `yaml:"decrease_interval"` // Wait between decay steps
	DecreaseAmount   int           `yaml:"decrease_amount"`
}

// BatteryConfig holds the flashlight battery tuning.
type BatteryConfig struct {
	Max           float64       `yaml:"max"`
	Start         float64       `yaml:"start"`
	DrainInterval time.Duration `yaml:"drain_interval"`
	DrainAmount   float64       `yaml:"drain_amount"`
}

// GeneratorConfig holds the power source tuning.
type GeneratorConfig struct {
	ActivationDuration time.Duration `yaml:"activation_duration"`
	Cooldown           time.Duration `yaml:"cooldown"`
	Repeatable         bool          `yaml:"repeatable"` // false = single use per session
}

// AntagonistConfig holds the monster AI tuning.
// The three ranges are independent; no ordering between them is assumed.
type AntagonistConfig struct {
	Detection      string        `yaml:"detection"`     // "radius" or "sight"
	HearingRange   float64       `yaml:"hearing_range"` // Radius detector range
	SightRange     float64       `yaml:"sight_range"`   // Sight detector range
	FieldOfView    float64       `yaml:"field_of_view"` // Full cone, degrees
	LoseRange      float64       `yaml:"lose_range"`
	PatrolRadius   float64       `yaml:"patrol_radius"`
	PatrolSpeed    float64       `yaml:"patrol_speed"`
	ChaseSpeed     float64       `yaml:"chase_speed"`
	MinWait        time.Duration `yaml:"min_wait"`
	MaxWait        time.Duration `yaml:"max_wait"`
	GracePeriod    time.Duration `yaml:"grace_period"`
	SearchGrace    time.Duration `yaml:"search_grace"` // Sight loss before Searching, at least GracePeriod
	SearchTimeout  time.Duration `yaml:"search_timeout"`
	SearchWait     time.Duration `yaml:"search_wait"`
	ArriveDistance float64       `yaml:"arrive_distance"`
	MovingEpsilon  float64       `yaml:"moving_epsilon"`
}

// PatientConfig holds the wandering crowd tuning.
type PatientConfig struct {
	Count        int           `yaml:"count"`
	WanderRadius float64       `yaml:"wander_radius"`
	Speed        float64       `yaml:"speed"`
	MinWait      time.Duration `yaml:"min_wait"`
	MaxWait      time.Duration `yaml:"max_wait"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr    string `yaml:"addr"`
	Metrics bool   `yaml:"metrics"`
}

// StorageConfig holds the session journal settings.
type StorageConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// NetworkConfig holds websocket buffer sizes and rate limits.
type NetworkConfig struct {
	ClientSendBuffer int           `yaml:"client_send_buffer"`
	BroadcastBuffer  int           `yaml:"broadcast_buffer"`
	ActionCooldown   time.Duration `yaml:"action_cooldown"` // Minimum gap between actions per client
}

// Default returns the embedded defaults. Panics if the embedded file is malformed.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults invalid: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Only overwrites fields present in the file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the core cannot run with. Numeric tuning that merely
// looks odd (lose range below hearing range, etc.) is allowed.
func (c *Config) Validate() error {
	switch {
	case c.Sanity.Max <= 0:
		return fmt.Errorf("sanity.max must be positive, got %d", c.Sanity.Max)
	case c.Sanity.DecreaseInterval <= 0:
		return fmt.Errorf("sanity.decrease_interval must be positive")
	case c.Battery.Max <= 0:
		return fmt.Errorf("battery.max must be positive, got %v", c.Battery.Max)
	case c.Battery.DrainInterval <= 0:
		return fmt.Errorf("battery.drain_interval must be positive")
	case c.Tick.Interval <= 0:
		return fmt.Errorf("tick.interval must be positive")
	case c.Antagonist.MaxWait < c.Antagonist.MinWait:
		return fmt.Errorf("antagonist.max_wait below min_wait")
	case c.Patients.MaxWait < c.Patients.MinWait:
		return fmt.Errorf("patients.max_wait below min_wait")
	}
	switch c.Antagonist.Detection {
	case "radius", "sight":
	default:
		return fmt.Errorf("antagonist.detection must be radius or sight, got %q", c.Antagonist.Detection)
	}
	return nil
}

// WriteYAML saves the configuration to path.
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
