// Package config loads the roster engine configuration from YAML.
package config

import (
	"fmt"
	"os"
	"runtime"

	"github.com/dd0wney/cluso-roster/pkg/validation"
	"gopkg.in/yaml.v3"
)

// WorkerLimit is the highest sort.max_workers Validate accepts
func WorkerLimit() int {
	return 64 * runtime.GOMAXPROCS(0)
}

// SearchPaths are tried in order when Load is given an empty path
var SearchPaths = []string{"configs/roster.yaml", "roster.yaml"}

type Config struct {
	Sort     SortConfig     `yaml:"sort"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Generate GenerateConfig `yaml:"generate"`
}

type SortConfig struct {
	Workers    int `yaml:"workers"`     // Default worker count for a sort pass
	MaxWorkers int `yaml:"max_workers"` // Requests above this are clamped
}

type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
}

// GenerateConfig drives synthetic record generation for benchmarks
type GenerateConfig struct {
	Records int   `yaml:"records"`
	Seed    int64 `yaml:"seed"`
}

// Default returns the built-in configuration
func Default() *Config {
	cfg := &Config{
		Sort: SortConfig{
			Workers:    runtime.GOMAXPROCS(0),
			MaxWorkers: 4 * runtime.GOMAXPROCS(0),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "roster",
		},
		Generate: GenerateConfig{
			Records: 100000,
			Seed:    1,
		},
	}
	return cfg
}

// Load reads configPath over the defaults. With an empty path the
// SearchPaths are tried and a missing file falls back to defaults.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	if configPath == "" {
		for _, p := range SearchPaths {
			data, err := os.ReadFile(p)
			if err == nil {
				return parse(cfg, data, p)
			}
		}
		applyDefaults(cfg)
		return cfg, nil // no file found: use defaults
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return cfg, err
	}
	return parse(cfg, data, configPath)
}

func parse(cfg *Config, data []byte, source string) (*Config, error) {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", source, err)
	}
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", source, err)
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	cfg.Sort.MaxWorkers = validation.DefaultOrInt(cfg.Sort.MaxWorkers, 4*runtime.GOMAXPROCS(0))
	cfg.Sort.Workers = validation.DefaultOrInt(cfg.Sort.Workers, min(runtime.GOMAXPROCS(0), cfg.Sort.MaxWorkers))
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = "roster"
	}
	if cfg.Generate.Records < 0 {
		cfg.Generate.Records = 0
	}
}

// Validate checks the configuration for consistency
func (c *Config) Validate() error {
	return validation.NewConfigValidator("config").
		Positive("sort.workers", c.Sort.Workers).
		Positive("sort.max_workers", c.Sort.MaxWorkers).
		AtMost("sort.max_workers", c.Sort.MaxWorkers, "worker limit", WorkerLimit()).
		AtMost("sort.workers", c.Sort.Workers, "sort.max_workers", c.Sort.MaxWorkers).
		OneOf("logging.level", c.Logging.Level, []string{"debug", "info", "warn", "warning", "error"}).
		NonNegative("generate.records", c.Generate.Records).
		When(c.Metrics.Enabled, func(cv *validation.ConfigValidator) {
			cv.Custom("metrics.namespace", func() error {
				return validNamespace(c.Metrics.Namespace)
			})
		}).
		Validate()
}

// validNamespace accepts names usable as a prometheus metric prefix
func validNamespace(ns string) error {
	if ns == "" {
		return fmt.Errorf("namespace must not be empty")
	}
	for i, r := range ns {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return fmt.Errorf("invalid character %q in namespace %q", r, ns)
		}
	}
	return nil
}
