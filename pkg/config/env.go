package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment variables that override the file configuration.
const (
	EnvAddr            = "AGRORISK_ADDR"
	EnvCORSOrigins     = "CORS_ALLOWED_ORIGINS"
	EnvSourceKind      = "AGRORISK_SOURCE"
	EnvDataDir         = "AGRORISK_DATA_DIR"
	EnvDatabaseURL     = "DATABASE_URL"
	EnvEnsureSchema    = "AGRORISK_ENSURE_SCHEMA"
	EnvAnalysisTimeout = "AGRORISK_ANALYSIS_TIMEOUT"
	EnvWorkers         = "AGRORISK_WORKERS"
	EnvMaxCycles       = "AGRORISK_MAX_CYCLES"
	EnvLogLevel        = "LOG_LEVEL"
)

func applyEnv(cfg *Config) error {
	envString(EnvAddr, &cfg.Server.Addr)
	envString(EnvSourceKind, &cfg.Source.Kind)
	envString(EnvDataDir, &cfg.Source.DataDir)
	envString(EnvDatabaseURL, &cfg.Source.DatabaseURL)
	envString(EnvLogLevel, &cfg.Logging.Level)
	cfg.Logging.Level = strings.ToLower(cfg.Logging.Level)

	if v, ok := os.LookupEnv(EnvCORSOrigins); ok {
		cfg.Server.CORSAllowedOrigins = nil
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.Server.CORSAllowedOrigins = append(cfg.Server.CORSAllowedOrigins, o)
			}
		}
	}

	if err := envBool(EnvEnsureSchema, &cfg.Source.EnsureSchema); err != nil {
		return err
	}
	if err := envDuration(EnvAnalysisTimeout, &cfg.Analysis.Timeout); err != nil {
		return err
	}
	if err := envInt(EnvWorkers, &cfg.Analysis.Workers); err != nil {
		return err
	}
	return envInt(EnvMaxCycles, &cfg.Analysis.MaxCycles)
}

func envString(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %q is not an integer", key, v)
	}
	*dst = n
	return nil
}

func envBool(key string, dst *bool) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s: %q is not a boolean", key, v)
	}
	*dst = b
	return nil
}

func envDuration(key string, dst *time.Duration) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %q is not a duration", key, v)
	}
	*dst = d
	return nil
}
