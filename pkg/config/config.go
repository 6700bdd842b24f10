// Package config loads the YAML run configuration: archive settings, output
// locations, and the targets each pipeline should analyze. Command-line
// flags take precedence over file values.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration file.
type Config struct {
	Archive   Archive        `yaml:"archive"`
	PlotDir   string         `yaml:"plot_dir"`
	CacheDir  string         `yaml:"cache_dir"`
	ResultsDB string         `yaml:"results_db"`
	Trojan    []TrojanTarget `yaml:"trojan_targets"`
	HZ        []HZTarget     `yaml:"hz_targets"`
}

// Archive configures the light curve archive client.
type Archive struct {
	BaseURL        string `yaml:"base_url"`
	Author         string `yaml:"author"`
	Mission        string `yaml:"mission"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// TrojanTarget describes one known planet to search for co-orbitals.
type TrojanTarget struct {
	Name       string  `yaml:"name"`
	PeriodDays float64 `yaml:"period_days"`
	EpochBTJD  float64 `yaml:"epoch_btjd"`
	DepthPPM   float64 `yaml:"depth_ppm"`
}

// HZTarget describes one star to search for habitable-zone planets.
type HZTarget struct {
	Name            string    `yaml:"name"`
	KnownPeriods    []float64 `yaml:"known_periods_days"`
	HZPeriodMinDays float64   `yaml:"hz_period_min_days"`
	HZPeriodMaxDays float64   `yaml:"hz_period_max_days"`
}

// Load reads and validates a configuration file.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Archive.Author == "" {
		c.Archive.Author = "SPOC"
	}
	if c.Archive.Mission == "" {
		c.Archive.Mission = "TESS"
	}
	if c.ResultsDB == "" {
		c.ResultsDB = "transitscope.db"
	}
}

func (c *Config) validate() error {
	for _, t := range c.Trojan {
		if t.Name == "" {
			return fmt.Errorf("trojan target missing name")
		}
		if t.PeriodDays <= 0 {
			return fmt.Errorf("trojan target %q: period_days must be positive", t.Name)
		}
	}
	for _, t := range c.HZ {
		if t.Name == "" {
			return fmt.Errorf("hz target missing name")
		}
		if t.HZPeriodMinDays <= 0 || t.HZPeriodMaxDays <= t.HZPeriodMinDays {
			return fmt.Errorf("hz target %q: period range must satisfy 0 < min < max", t.Name)
		}
	}
	return nil
}
