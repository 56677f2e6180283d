package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "agrorisk.yaml", `
server:
  addr: ":9090"
source:
  kind: postgres
  database_url: postgres://localhost/agro
  max_conns: 8
analysis:
  timeout: 30s
  max_cycles: 50
  layout: circular
logging:
  level: debug
`)

	cfg, err := Load(path, "")
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, SourcePostgres, cfg.Source.Kind)
	assert.Equal(t, int32(8), cfg.Source.PGConfig().MaxConns)
	assert.Equal(t, 30*time.Second, cfg.Analysis.Timeout)
	assert.Equal(t, "debug", cfg.Logging.Level)

	svc := cfg.Analysis.ServiceConfig()
	assert.Equal(t, 50, svc.Patterns.MaxCycles)
	assert.Equal(t, "circular", svc.Network.Layout)
	assert.Equal(t, 10, svc.Network.TopCentral, "unset keys keep their defaults")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "agrorisk.yaml", "analysis:\n  timeout: 30s\n")
	t.Setenv(EnvAnalysisTimeout, "5s")
	t.Setenv(EnvAddr, ":7000")
	t.Setenv(EnvLogLevel, "WARN")
	t.Setenv(EnvCORSOrigins, "https://a.example, https://b.example")

	cfg, err := Load(path, "")
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.Analysis.Timeout)
	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSAllowedOrigins)
}

func TestLoad_DotEnv(t *testing.T) {
	envFile := writeFile(t, ".env", "AGRORISK_MAX_CYCLES=7\n")
	t.Cleanup(func() { os.Unsetenv(EnvMaxCycles) })

	cfg, err := Load("", envFile)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Analysis.MaxCycles)
}

func TestLoad_MissingDotEnvIsIgnored(t *testing.T) {
	_, err := Load("", filepath.Join(t.TempDir(), ".env"))
	assert.NoError(t, err)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), "")
		assert.Error(t, err)
	})
	t.Run("bad yaml", func(t *testing.T) {
		_, err := Load(writeFile(t, "bad.yaml", "server: [\n"), "")
		assert.Error(t, err)
	})
	t.Run("bad env value", func(t *testing.T) {
		t.Setenv(EnvWorkers, "many")
		_, err := Load("", "")
		assert.ErrorContains(t, err, EnvWorkers)
	})
	t.Run("postgres without url", func(t *testing.T) {
		t.Setenv(EnvSourceKind, SourcePostgres)
		_, err := Load("", "")
		assert.ErrorContains(t, err, "source.database_url")
	})
	t.Run("unknown source", func(t *testing.T) {
		t.Setenv(EnvSourceKind, "s3")
		_, err := Load("", "")
		assert.ErrorContains(t, err, "source.kind")
	})
}

func TestValidate_TimeoutRange(t *testing.T) {
	cfg := Default()
	cfg.Analysis.Timeout = 10 * time.Millisecond
	assert.ErrorContains(t, cfg.Validate(), "analysis.timeout")
}
