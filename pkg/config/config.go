// Package config loads the service configuration from a YAML file, a .env
// file and the process environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/dd0wney/agrorisk/pkg/analysis"
	"github.com/dd0wney/agrorisk/pkg/logging"
	"github.com/dd0wney/agrorisk/pkg/network"
	"github.com/dd0wney/agrorisk/pkg/patterns"
	"github.com/dd0wney/agrorisk/pkg/source"
	"github.com/dd0wney/agrorisk/pkg/validation"
	"github.com/dd0wney/agrorisk/pkg/visualization"
)

// Source kinds.
const (
	SourceFile     = "file"
	SourcePostgres = "postgres"
)

// Config is the complete service configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Source   SourceConfig   `yaml:"source"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Logging  logging.Config `yaml:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr               string        `yaml:"addr"`
	ReadTimeout        time.Duration `yaml:"read_timeout"`
	WriteTimeout       time.Duration `yaml:"write_timeout"`
	ShutdownTimeout    time.Duration `yaml:"shutdown_timeout"`
	CORSAllowedOrigins []string      `yaml:"cors_allowed_origins"`
}

// SourceConfig selects where snapshots come from.
type SourceConfig struct {
	Kind         string        `yaml:"kind"`
	DataDir      string        `yaml:"data_dir"`
	DatabaseURL  string        `yaml:"database_url"`
	MaxConns     int32         `yaml:"max_conns"`
	MinConns     int32         `yaml:"min_conns"`
	ConnLifetime time.Duration `yaml:"conn_lifetime"`
	EnsureSchema bool          `yaml:"ensure_schema"`
}

// AnalysisConfig tunes the analyses.
type AnalysisConfig struct {
	Timeout        time.Duration `yaml:"timeout"`
	Workers        int           `yaml:"workers"`
	MaxCycles      int           `yaml:"max_cycles"`
	TopCentral     int           `yaml:"top_central"`
	TopKeyPlayers  int           `yaml:"top_key_players"`
	Layout         string        `yaml:"layout"`
	MaxForceLayout int           `yaml:"max_force_layout"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Source: SourceConfig{
			Kind:    SourceFile,
			DataDir: "./data",
		},
		Analysis: AnalysisConfig{
			Timeout:        analysis.DefaultTimeout,
			MaxCycles:      patterns.DefaultMaxCycles,
			TopCentral:     network.DefaultTopCentral,
			TopKeyPlayers:  network.DefaultTopKeyPlayers,
			Layout:         visualization.LayoutForce,
			MaxForceLayout: network.DefaultMaxForceLayout,
		},
		Logging: logging.Config{
			Level:   "info",
			Output:  "stdout",
			Service: "agrorisk",
		},
	}
}

// Load builds the configuration. path may be empty, in which case only the
// defaults and the environment apply. envFile names a .env file to load
// first; a missing .env file is not an error.
func Load(path, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration and reports every problem found.
func (c *Config) Validate() error {
	v := validation.NewConfigValidator("config").
		Required("server.addr", c.Server.Addr).
		OneOf("source.kind", c.Source.Kind, []string{SourceFile, SourcePostgres}).
		When(c.Source.Kind == SourceFile, func(v *validation.ConfigValidator) {
			v.Required("source.data_dir", c.Source.DataDir)
		}).
		When(c.Source.Kind == SourcePostgres, func(v *validation.ConfigValidator) {
			v.Required("source.database_url", c.Source.DatabaseURL)
		}).
		RangeDuration("analysis.timeout", c.Analysis.Timeout, time.Second, 10*time.Minute).
		RangeInt("analysis.workers", c.Analysis.Workers, 0, 256).
		Positive("analysis.top_central", c.Analysis.TopCentral).
		Positive("analysis.top_key_players", c.Analysis.TopKeyPlayers).
		Positive("analysis.max_force_layout", c.Analysis.MaxForceLayout).
		OneOf("analysis.layout", c.Analysis.Layout, []string{
			visualization.LayoutForce, visualization.LayoutCircular, visualization.LayoutHierarchical,
		}).
		OneOf("logging.level", c.Logging.Level, []string{"debug", "info", "warn", "error"})
	return v.Validate()
}

// ServiceConfig maps the analysis settings onto the service configuration.
func (c AnalysisConfig) ServiceConfig() analysis.Config {
	return analysis.Config{
		Timeout:  c.Timeout,
		Patterns: patterns.Options{MaxCycles: c.MaxCycles},
		Network: network.Options{
			Workers:        c.Workers,
			TopCentral:     c.TopCentral,
			TopKeyPlayers:  c.TopKeyPlayers,
			Layout:         c.Layout,
			MaxForceLayout: c.MaxForceLayout,
		},
	}
}

// PGConfig maps the source settings onto the Postgres pool configuration.
func (c SourceConfig) PGConfig() source.PGConfig {
	return source.PGConfig{
		DatabaseURL:     c.DatabaseURL,
		MaxConns:        c.MaxConns,
		MinConns:        c.MinConns,
		MaxConnLifetime: c.ConnLifetime,
	}
}
