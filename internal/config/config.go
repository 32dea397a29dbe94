// Package config loads service configuration from a YAML file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the service settings.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen"`
	// DatabasePath locates the run-history SQLite file. Empty disables
	// persistence.
	DatabasePath string `yaml:"database_path"`
	// Workers sizes the simulation pool; 0 means GOMAXPROCS.
	Workers int `yaml:"workers"`
	// MaxTrials caps num_trials per request.
	MaxTrials int `yaml:"max_trials"`
	// RequestTimeoutMs bounds one request end to end.
	RequestTimeoutMs int `yaml:"request_timeout_ms"`
}

// Default returns settings suitable for local dashboard use.
func Default() Config {
	return Config{
		Listen:           "127.0.0.1:8090",
		DatabasePath:     "promo_runs.db",
		MaxTrials:        100000,
		RequestTimeoutMs: 60000,
	}
}

// Load reads the YAML file at path over the defaults. A missing path value
// returns plain defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate rejects settings the server cannot run with.
func (c Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("config: listen address is required")
	}
	if c.Workers < 0 {
		return fmt.Errorf("config: workers must be non-negative, got %d", c.Workers)
	}
	if c.MaxTrials <= 0 {
		return fmt.Errorf("config: max_trials must be positive, got %d", c.MaxTrials)
	}
	if c.RequestTimeoutMs <= 0 {
		return fmt.Errorf("config: request_timeout_ms must be positive, got %d", c.RequestTimeoutMs)
	}
	return nil
}

// RequestTimeout returns the request timeout as a duration.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMs) * time.Millisecond
}
