// Package config holds the simulation's immutable-after-init configuration,
// loaded with YAML and environment-variable expansion, falling back to sane
// defaults when no file is given.
package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the full set of simulation tunables. All fields have sane
// defaults; none of them change once a Simulator has been constructed from
// a Config.
type Config struct {
	RadioRangeR           float64 `yaml:"radio_range_r"`
	MaxClusterRadius      float64 `yaml:"max_cluster_radius"`
	MinClusterSize        int     `yaml:"min_cluster_size"`
	MaxClusterSize        int     `yaml:"max_cluster_size"`
	SpeedTol              float64 `yaml:"speed_tol"`
	HeadingTol            float64 `yaml:"heading_tol"`
	MergeInterval         uint64  `yaml:"merge_interval"`
	MergeDistance         float64 `yaml:"merge_distance"`
	PoAInterval           uint64  `yaml:"poa_interval"`
	PoAFlagFraction       float64 `yaml:"poa_flag_fraction"`
	BoundaryInterval      uint64  `yaml:"boundary_interval"`
	InterClusterDetection float64 `yaml:"inter_cluster_detection"`
	SleeperSpikeThreshold float64 `yaml:"sleeper_spike_threshold"`
	SleeperWindowTicks    uint64  `yaml:"sleeper_window_ticks"`
	BanDuration           uint64  `yaml:"ban_duration"`
	Seed                  int64   `yaml:"seed"`

	// RelayInterval governs the "every N ticks" relay re-election cadence,
	// on top of the on-leadership-change trigger; defaulted alongside the
	// boundary cadence family.
	RelayInterval uint64 `yaml:"relay_interval"`

	// LifetimeTolTicks is the staleness tolerance: a cluster whose
	// last_update_tick is stale beyond this many ticks dissolves.
	LifetimeTolTicks uint64 `yaml:"lifetime_tol_ticks"`

	// SocialTrustDecay is the configurable decay applied to neighbor
	// interaction weight when recomputing social trust.
	SocialTrustDecay float64 `yaml:"social_trust_decay"`

	// Message-trigger cadences/thresholds, expressed in ticks rather than
	// wall time (the core has no wall clock; Δt is the tick unit throughout).
	EmergencyBroadcastIntervalTicks uint64  `yaml:"emergency_broadcast_interval_ticks"`
	CollisionCheckIntervalTicks     uint64  `yaml:"collision_check_interval_ticks"`
	BrakeDropThreshold              float64 `yaml:"brake_drop_threshold"`
	TrafficJamRadius                float64 `yaml:"traffic_jam_radius"`
	TrafficJamMinCount              int     `yaml:"traffic_jam_min_count"`
	TrafficJamSpeedThreshold        float64 `yaml:"traffic_jam_speed_threshold"`
}

// DefaultConfig returns the simulator's numeric defaults.
func DefaultConfig() *Config {
	return &Config{
		RadioRangeR:           250,
		MaxClusterRadius:      450,
		MinClusterSize:        2,
		MaxClusterSize:        10,
		SpeedTol:              5,
		HeadingTol:            math.Pi / 6,
		MergeInterval:         50,
		MergeDistance:         450,
		PoAInterval:           100,
		PoAFlagFraction:       0.30,
		BoundaryInterval:      300,
		InterClusterDetection: 600,
		SleeperSpikeThreshold: 0.30,
		SleeperWindowTicks:    10,
		BanDuration:           300,
		Seed:                  1,
		RelayInterval:         50,

		LifetimeTolTicks: 100,
		SocialTrustDecay: 0.9,

		EmergencyBroadcastIntervalTicks: 20,
		CollisionCheckIntervalTicks:     5,
		BrakeDropThreshold:              10,
		TrafficJamRadius:                100,
		TrafficJamMinCount:              5,
		TrafficJamSpeedThreshold:        15,
	}
}

// Load reads a YAML config from path, expanding ${VAR}/$VAR environment
// references, and falling back to DefaultConfig() if the file does not
// exist.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the config back out as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks the config for InputInvariantViolation-class problems:
// values that would let a malformed config reach simulator internals.
func (c *Config) Validate() error {
	if c.RadioRangeR <= 0 {
		return fmt.Errorf("radio_range_r must be positive")
	}
	if c.MaxClusterRadius <= 0 {
		return fmt.Errorf("max_cluster_radius must be positive")
	}
	if c.MinClusterSize < 2 {
		return fmt.Errorf("min_cluster_size must be >= 2")
	}
	if c.MaxClusterSize < c.MinClusterSize {
		return fmt.Errorf("max_cluster_size must be >= min_cluster_size")
	}
	if c.PoAFlagFraction <= 0 || c.PoAFlagFraction > 1 {
		return fmt.Errorf("poa_flag_fraction must be in (0,1]")
	}
	if c.SleeperSpikeThreshold <= 0 || c.SleeperSpikeThreshold > 1 {
		return fmt.Errorf("sleeper_spike_threshold must be in (0,1]")
	}
	return nil
}
