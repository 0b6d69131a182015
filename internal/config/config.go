// Package config loads the jfrlens YAML configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration file.
type Config struct {
	Analysis Analysis `yaml:"analysis"`
	Cache    Cache    `yaml:"cache"`
	Log      Log      `yaml:"log"`
	Metrics  Metrics  `yaml:"metrics"`
}

type Analysis struct {
	// Dimensions computed when a command does not name any.
	Dimensions []string `yaml:"dimensions"`
	// AsyncProfilerInterval is the sampling interval assumed for external
	// profiler recordings that carry no interval setting, e.g. "10ms".
	AsyncProfilerInterval string `yaml:"async_profiler_interval"`
}

// Interval parses AsyncProfilerInterval.
func (a Analysis) Interval() (time.Duration, error) {
	d, err := time.ParseDuration(a.AsyncProfilerInterval)
	if err != nil {
		return 0, fmt.Errorf("async_profiler_interval: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("async_profiler_interval must be positive, got %s", a.AsyncProfilerInterval)
	}
	return d, nil
}

type Cache struct {
	Size int           `yaml:"size"`
	TTL  time.Duration `yaml:"ttl"`
}

type Log struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

type Metrics struct {
	Namespace string `yaml:"namespace"`
	// Listen, when set, serves /metrics from the mcp command.
	Listen string `yaml:"listen"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads and validates a configuration file. Unset values take their
// defaults.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if len(c.Analysis.Dimensions) == 0 {
		c.Analysis.Dimensions = []string{"cpu", "wall", "alloc", "mem", "lock-wait-time"}
	}
	if c.Analysis.AsyncProfilerInterval == "" {
		c.Analysis.AsyncProfilerInterval = "10ms"
	}
	if c.Cache.Size <= 0 {
		c.Cache.Size = 8
	}
	if c.Cache.TTL <= 0 {
		c.Cache.TTL = 10 * time.Minute
	}
	if c.Log.Level == "" {
		c.Log.Level = "warn"
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = "jfrlens"
	}
}

// Validate reports the first invalid value.
func (c *Config) Validate() error {
	if _, err := c.Analysis.Interval(); err != nil {
		return err
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level: unknown level %q", c.Log.Level)
	}
	return nil
}
