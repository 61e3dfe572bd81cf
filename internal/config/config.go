// Package config loads haulplan settings from an optional YAML file and the
// environment. Environment values win over the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment variables.
const (
	EnvCatalogPath  = "HAULPLAN_CATALOG_PATH"
	EnvRedisURL     = "HAULPLAN_REDIS_URL"
	EnvLogFormat    = "HAULPLAN_LOG_FORMAT"
	EnvDebug        = "HAULPLAN_DEBUG"
	EnvMetricsOut   = "HAULPLAN_METRICS_OUT"
	EnvBatchWorkers = "HAULPLAN_BATCH_WORKERS"
)

type Log struct {
	// Format is "console" or "json".
	Format string `yaml:"format"`
	Debug  bool   `yaml:"debug"`
}

type Config struct {
	// CatalogPath is a YAML fuel/rest catalog; empty uses the built-in one.
	CatalogPath string `yaml:"catalog_path"`
	// RedisURL enables the Redis event broker when set.
	RedisURL string `yaml:"redis_url"`
	// MetricsOut is a node_exporter textfile path written after each run.
	MetricsOut   string `yaml:"metrics_out"`
	BatchWorkers int    `yaml:"batch_workers"`
	Log          Log    `yaml:"log"`
}

func Default() Config {
	return Config{
		BatchWorkers: runtime.NumCPU(),
		Log:          Log{Format: "console"},
	}
}

// Load reads path (skipped when empty) over the defaults, then applies the
// environment.
func Load(path string) (Config, error) {
	c := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return c, fmt.Errorf("load config: %w", err)
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return c, fmt.Errorf("load config %s: %w", path, err)
		}
	}
	if err := c.ApplyEnv(os.Getenv); err != nil {
		return c, err
	}
	return c, c.Validate()
}

// ApplyEnv overrides fields from getenv. Unset or empty variables are ignored.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv(EnvCatalogPath); v != "" {
		c.CatalogPath = v
	}
	if v := getenv(EnvRedisURL); v != "" {
		c.RedisURL = v
	}
	if v := getenv(EnvMetricsOut); v != "" {
		c.MetricsOut = v
	}
	if v := getenv(EnvLogFormat); v != "" {
		c.Log.Format = strings.ToLower(v)
	}
	if v := getenv(EnvDebug); v != "" {
		c.Log.Debug = strings.EqualFold(v, "yes") || strings.EqualFold(v, "true") || v == "1"
	}
	if v := getenv(EnvBatchWorkers); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvBatchWorkers, err)
		}
		c.BatchWorkers = n
	}
	return nil
}

func (c Config) Validate() error {
	var errs []error
	if c.BatchWorkers < 1 {
		errs = append(errs, fmt.Errorf("batch_workers must be >= 1, got %d", c.BatchWorkers))
	}
	switch c.Log.Format {
	case "", "console", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be console or json, got %q", c.Log.Format))
	}
	return errors.Join(errs...)
}
