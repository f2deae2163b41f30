// Package config loads the scheduler's runtime configuration the way
// internal/config does in the teacher repo: viper reads a YAML file (or
// environment variables under a fixed prefix) into a struct tagged with
// yaml keys, then Validate checks the result.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the scheduler's full runtime configuration.
type Config struct {
	Runtime RuntimeConfig `yaml:"runtime"`
	Policy  PolicyConfig  `yaml:"policy"`
	DVFS    DVFSConfig    `yaml:"dvfs"`
	Metrics MetricsConfig `yaml:"metrics"`
	Logging LoggingConfig `yaml:"logging"`
}

// RuntimeConfig tunes the work-stealing runtime (C6).
type RuntimeConfig struct {
	Workers        int `yaml:"workers"`
	StealThreshold int `yaml:"steal_threshold" mapstructure:"steal_threshold"`
}

// PolicyConfig tunes the policy scheduler (C8).
type PolicyConfig struct {
	EnergyBudgetJ    float64       `yaml:"energy_budget_joules" mapstructure:"energy_budget_joules"`
	FixedWatts       float64       `yaml:"fixed_watts" mapstructure:"fixed_watts"`
	Deadline         time.Duration `yaml:"deadline"`
	MaxDrainAttempts int           `yaml:"max_drain_attempts" mapstructure:"max_drain_attempts"`
}

// DVFSConfig tunes the frequency selector (C2).
type DVFSConfig struct {
	FrequenciesMHz []float64 `yaml:"frequencies_mhz" mapstructure:"frequencies_mhz"`
	PowerBudgetW   float64   `yaml:"power_budget_watts" mapstructure:"power_budget_watts"`
}

// MetricsConfig tunes the Prometheus exporter (C9).
type MetricsConfig struct {
	Enabled       bool   `yaml:"enabled"`
	ListenAddress string `yaml:"listen_address" mapstructure:"listen_address"`
}

// LoggingConfig tunes the logger.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	Console bool   `yaml:"console"`
}

// Default returns the baseline configuration used when no file or
// environment override is present.
func Default() *Config {
	return &Config{
		Runtime: RuntimeConfig{Workers: 4, StealThreshold: 5},
		Policy: PolicyConfig{
			EnergyBudgetJ:    1000,
			FixedWatts:       50,
			Deadline:         time.Minute,
			MaxDrainAttempts: 0, // resolved to 2x task count at call time
		},
		DVFS: DVFSConfig{
			FrequenciesMHz: []float64{800, 1200, 1600, 2000, 2400, 2800, 3200, 3600},
			PowerBudgetW:   65,
		},
		Metrics: MetricsConfig{Enabled: true, ListenAddress: ":9090"},
		Logging: LoggingConfig{Level: "info", Console: false},
	}
}

// Load reads configFile (or, if empty, searches standard locations) via
// viper, overlays environment variables under the HEFT_ prefix, and
// unmarshals into a Config seeded with Default's values. Returns an error
// wrapping any read or validation failure.
func Load(configFile string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("$HOME/.heft")
		v.AddConfigPath("/etc/heft")
	}

	v.SetEnvPrefix("HEFT")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("config: failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: invalid configuration: %w", err)
	}

	return cfg, nil
}

// Save marshals cfg to YAML and writes it to filename.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: failed to marshal config: %w", err)
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("config: failed to write config file: %w", err)
	}
	return nil
}
