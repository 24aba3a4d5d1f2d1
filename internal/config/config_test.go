package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/txengine/internal/engine"
)

func TestRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Output.Precision = 2
	cfg.Ledger.DuplicateDeposits = "ignore"
	cfg.Log.Level = "debug"

	path := filepath.Join(t.TempDir(), "txengine.yaml")
	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, int32(4), cfg.Output.Precision)
	assert.Equal(t, "overwrite", cfg.Ledger.DuplicateDeposits)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, engine.DuplicateOverwrite, cfg.DuplicatePolicy())
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "txengine.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ledger:\n  duplicate_deposits: ignore\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, int32(4), cfg.Output.Precision)
	assert.Equal(t, engine.DuplicateIgnore, cfg.DuplicatePolicy())
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "txengine.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output: [precision\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config")
}

func TestYAMLFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "txengine.yaml")
	require.NoError(t, Save(path, Default()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	contents := string(data)

	assert.Contains(t, contents, "precision: 4")
	assert.Contains(t, contents, "duplicate_deposits: overwrite")
	assert.Contains(t, contents, "level: warn")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"negative precision", func(c *Config) { c.Output.Precision = -1 }, "output.precision"},
		{"huge precision", func(c *Config) { c.Output.Precision = 40 }, "output.precision"},
		{"bad policy", func(c *Config) { c.Ledger.DuplicateDeposits = "reject" }, "duplicate_deposits"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvPrecision, "6")

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv())
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, int32(6), cfg.Output.Precision)
}

func TestApplyEnv_BadPrecision(t *testing.T) {
	t.Setenv(EnvPrecision, "four")
	err := Default().ApplyEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvPrecision)
}

func TestLoadEnv_File(t *testing.T) {
	// godotenv does not override variables already set; start from empty values.
	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvPrecision, "")
	os.Unsetenv(EnvLogLevel)
	os.Unsetenv(EnvPrecision)

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(EnvLogLevel+"=error\n"+EnvPrecision+"=3\n"), 0o644))

	cfg := Default()
	require.NoError(t, LoadEnv(cfg, path))
	assert.Equal(t, "error", cfg.Log.Level)
	assert.Equal(t, int32(3), cfg.Output.Precision)
}

func TestLoadEnv_MissingExplicitFile(t *testing.T) {
	err := LoadEnv(Default(), filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading env file")
}
