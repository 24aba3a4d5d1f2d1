package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/txengine/internal/engine"
	"github.com/cleared-dev/txengine/internal/money"
)

// Environment variables read by ApplyEnv.
const (
	EnvLogLevel  = "TXENGINE_LOG_LEVEL"
	EnvPrecision = "TXENGINE_PRECISION"
)

// MaxPrecision bounds output precision to the digits a balance can carry.
const MaxPrecision = 28

// Config represents a txengine.yaml run configuration.
type Config struct {
	Output OutputConfig `yaml:"output"`
	Ledger LedgerConfig `yaml:"ledger"`
	Log    LogConfig    `yaml:"log"`
}

// OutputConfig controls snapshot rendering.
type OutputConfig struct {
	Precision int32 `yaml:"precision"` // fractional digits, banker's rounding
}

// LedgerConfig controls engine policy.
type LedgerConfig struct {
	DuplicateDeposits string `yaml:"duplicate_deposits"` // "overwrite" or "ignore"
}

// LogConfig controls diagnostics on stderr.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Output: OutputConfig{Precision: money.DefaultPrecision},
		Ledger: LedgerConfig{DuplicateDeposits: string(engine.DuplicateOverwrite)},
		Log:    LogConfig{Level: "warn"},
	}
}

// Load reads a txengine.yaml file from disk. Fields absent from the file keep
// their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// LoadEnv loads an optional .env file into the process environment and then
// applies environment overrides to cfg. A missing default .env is not an error;
// a missing explicit envPath is.
func LoadEnv(cfg *Config, envPath string) error {
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil {
			return fmt.Errorf("loading env file: %w", err)
		}
	} else {
		_ = godotenv.Load()
	}
	return cfg.ApplyEnv()
}

// ApplyEnv overrides fields from TXENGINE_* environment variables.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvPrecision); v != "" {
		p, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvPrecision, v, err)
		}
		c.Output.Precision = int32(p)
	}
	return nil
}

// Validate checks field ranges and enumerations.
func (c *Config) Validate() error {
	if c.Output.Precision < 0 || c.Output.Precision > MaxPrecision {
		return fmt.Errorf("output.precision %d out of range [0, %d]", c.Output.Precision, MaxPrecision)
	}
	if _, err := engine.ParseDuplicatePolicy(c.Ledger.DuplicateDeposits); err != nil {
		return fmt.Errorf("ledger.duplicate_deposits: %w", err)
	}
	switch c.Log.Level {
	case "", "debug", "info", "warn", "error", "disabled":
	default:
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error, disabled", c.Log.Level)
	}
	return nil
}

// DuplicatePolicy returns the validated duplicate deposit policy.
func (c *Config) DuplicatePolicy() engine.DuplicatePolicy {
	p, err := engine.ParseDuplicatePolicy(c.Ledger.DuplicateDeposits)
	if err != nil {
		return engine.DuplicateOverwrite
	}
	return p
}
