// Package config holds the engine configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all engine configuration.
type Config struct {
	// Apply settings
	Apply ApplyConfig `yaml:"apply"`

	// Advisor settings
	Advisor AdvisorConfig `yaml:"advisor"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// ApplyConfig bounds a single apply pass.
type ApplyConfig struct {
	// Per-file wall clock budget; parse plus all ops plus revalidation.
	TimeoutPerFile string `yaml:"timeout_per_file"`

	// Files larger than this are rejected before parsing.
	MaxFileBytes int `yaml:"max_file_bytes"`

	// Concurrent file applies within one change set.
	Parallelism int `yaml:"parallelism"`

	// Entries in the parse-validity cache.
	CacheSize int `yaml:"cache_size"`
}

// AdvisorConfig tunes the post-apply refactoring suggestions.
type AdvisorConfig struct {
	Enabled bool `yaml:"enabled"`

	// JSX elements spanning more lines than this are flagged for
	// extraction.
	OversizedJSXLines int `yaml:"oversized_jsx_lines"`

	// Minimum lines a repeated subtree must span before it is reported.
	DuplicateMinLines int `yaml:"duplicate_min_lines"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"` // debug, info, warn, error
	Format string `yaml:"format"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Apply: ApplyConfig{
			TimeoutPerFile: "10s",
			MaxFileBytes:   2 << 20,
			Parallelism:    4,
			CacheSize:      256,
		},
		Advisor: AdvisorConfig{
			Enabled:           true,
			OversizedJSXLines: 40,
			DuplicateMinLines: 5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads configuration from a YAML file, falling back to defaults
// when the file does not exist.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// TimeoutPerFile parses the per-file budget, falling back to the default
// on a malformed value.
func (c *Config) TimeoutPerFile() time.Duration {
	d, err := time.ParseDuration(c.Apply.TimeoutPerFile)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	if c.Apply.MaxFileBytes <= 0 {
		return fmt.Errorf("apply.max_file_bytes must be positive, got %d", c.Apply.MaxFileBytes)
	}
	if c.Apply.Parallelism <= 0 {
		return fmt.Errorf("apply.parallelism must be positive, got %d", c.Apply.Parallelism)
	}
	if c.Apply.CacheSize <= 0 {
		return fmt.Errorf("apply.cache_size must be positive, got %d", c.Apply.CacheSize)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
	return nil
}
