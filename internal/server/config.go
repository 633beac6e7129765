package server

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/thewizster/mysse/pkg/engine"
)

// Config holds the HTTP shell configuration, loadable from a YAML file.
type Config struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string `yaml:"addr"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	ANN struct {
		Enabled        *bool `yaml:"enabled"`
		Threshold      int   `yaml:"threshold"`
		M              int   `yaml:"m"`
		EfConstruction int   `yaml:"ef_construction"`
		EfSearch       int   `yaml:"ef_search"`
	} `yaml:"ann"`

	Hybrid struct {
		Enabled bool    `yaml:"enabled"`
		Alpha   float64 `yaml:"alpha"`
	} `yaml:"hybrid"`

	Cache struct {
		Enabled   bool `yaml:"enabled"`
		MaxSize   int  `yaml:"max_size"`
		TTLMillis int  `yaml:"ttl_ms"`
	} `yaml:"cache"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	var cfg Config
	cfg.Addr = ":8080"
	cfg.LogLevel = "info"
	return cfg
}

// LoadConfig reads a YAML config file, applying defaults for absent
// fields.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	return cfg, nil
}

// EngineOptions converts the ANN section into engine options.
func (c Config) EngineOptions() []engine.Option {
	var opts []engine.Option
	if c.ANN.Enabled != nil {
		opts = append(opts, engine.WithANN(*c.ANN.Enabled))
	}
	if c.ANN.Threshold > 0 {
		opts = append(opts, engine.WithANNThreshold(c.ANN.Threshold))
	}
	if c.ANN.M > 1 {
		opts = append(opts, engine.WithM(c.ANN.M))
	}
	if c.ANN.EfConstruction > 0 {
		opts = append(opts, engine.WithEfConstruction(c.ANN.EfConstruction))
	}
	if c.ANN.EfSearch > 0 {
		opts = append(opts, engine.WithEfSearch(c.ANN.EfSearch))
	}
	return opts
}

// Level parses the configured log level.
func (c Config) Level() engine.LogLevel {
	switch c.LogLevel {
	case "debug":
		return engine.LevelDebug
	case "warn":
		return engine.LevelWarn
	case "error":
		return engine.LevelError
	default:
		return engine.LevelInfo
	}
}
