package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"energy-backtest/internal/backtest"
	"energy-backtest/internal/data"
	"energy-backtest/internal/forecast"
	"energy-backtest/internal/ledger"
	"energy-backtest/internal/prep"
	"energy-backtest/internal/strategy"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration shape (YAML).
type Config struct {
	Data      DataConfig                `yaml:"data"`
	Forecast  ForecastConfig            `yaml:"forecast"`
	Arbitrage strategy.ArbitrageOptions `yaml:"arbitrage"`
	Ledger    LedgerConfig              `yaml:"ledger"`
	Server    ServerConfig              `yaml:"server"`
	LogLevel  string                    `yaml:"log_level"`
}

type DataConfig struct {
	// Path to a .csv or .xlsx file.
	Path  string `yaml:"path"`
	Sheet string `yaml:"sheet"`

	TimestampLayouts []string       `yaml:"timestamp_layouts"`
	Timezone         string         `yaml:"timezone"`
	Columns          data.ColumnMap `yaml:"columns"`

	// PeriodsPerHour: 0 infers it from the timestamp spacing.
	PeriodsPerHour int `yaml:"periods_per_hour"`
}

type ForecastConfig struct {
	// TargetShift in periods; 0 means one day at the data granularity.
	TargetShift int          `yaml:"target_shift"`
	Linear      LinearConfig `yaml:"linear"`
	Forest      ForestConfig `yaml:"forest"`
}

type LinearConfig struct {
	TrainFraction float64 `yaml:"train_fraction"`
}

type ForestConfig struct {
	forecast.ForestParams `yaml:",inline"`
	TrainFraction         float64 `yaml:"train_fraction"`
}

type LedgerConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
	Table  string `yaml:"table"`
}

type ServerConfig struct {
	Port           int      `yaml:"port"`
	Env            string   `yaml:"env"`
	RateLimitRPS   float64  `yaml:"rate_limit_rps"`
	RateLimitBurst int      `yaml:"rate_limit_burst"`
	CORSOrigins    []string `yaml:"cors_origins"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Data: DataConfig{
			Path:     "analysis_task_data.xlsx",
			Timezone: "Europe/Berlin",
			Columns:  data.DefaultColumns(),
		},
		Forecast: ForecastConfig{
			Linear: LinearConfig{TrainFraction: 1},
			Forest: ForestConfig{
				ForestParams:  forecast.DefaultForestParams(),
				TrainFraction: 0.8,
			},
		},
		Arbitrage: strategy.ArbitrageOptions{TopK: strategy.DefaultTopK},
		Ledger: LedgerConfig{
			Driver: ledger.DriverSQLite,
			DSN:    "trades.sqlite",
			Table:  ledger.DefaultTable,
		},
		Server: ServerConfig{
			Port:           8080,
			Env:            "development",
			RateLimitRPS:   10,
			RateLimitBurst: 20,
			CORSOrigins:    []string{"*"},
		},
		LogLevel: "info",
	}
}

// Load reads the file over the defaults, applies environment overrides and
// validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	c.ApplyEnv()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked reads the file over the defaults, but does not apply the
// environment or validate. Useful for debugging/printing partial configs.
func LoadUnchecked(path string) (*Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	c.Data.Columns = c.Data.Columns.WithDefaults()
	return c, nil
}

// ApplyEnv overlays environment variables onto the config. A .env file is
// loaded by the binaries before this runs.
func (c *Config) ApplyEnv() {
	c.Server.Port = getEnvIntWithDefault("API_PORT", c.Server.Port)
	c.Server.Env = getEnvWithDefault("API_ENV", c.Server.Env)
	c.LogLevel = getEnvWithDefault("LOG_LEVEL", c.LogLevel)
	c.Ledger.Driver = getEnvWithDefault("LEDGER_DRIVER", c.Ledger.Driver)
	c.Ledger.DSN = getEnvWithDefault("LEDGER_DSN", c.Ledger.DSN)
	c.Ledger.Table = getEnvWithDefault("LEDGER_TABLE", c.Ledger.Table)
	c.Data.Path = getEnvWithDefault("DATA_PATH", c.Data.Path)
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if _, err := c.Data.Location(); err != nil {
		return err
	}
	if c.Data.PeriodsPerHour < 0 || (c.Data.PeriodsPerHour > 0 && 60%c.Data.PeriodsPerHour != 0) {
		return fmt.Errorf("data.periods_per_hour must divide 60, got %d", c.Data.PeriodsPerHour)
	}
	if c.Forecast.TargetShift < 0 {
		return errors.New("forecast.target_shift must be >= 0")
	}
	if f := c.Forecast.Linear.TrainFraction; f <= 0 || f > 1 {
		return fmt.Errorf("forecast.linear.train_fraction must be in (0, 1], got %g", f)
	}
	fp := c.Forecast.Forest
	if f := fp.TrainFraction; f <= 0 || f > 1 {
		return fmt.Errorf("forecast.forest.train_fraction must be in (0, 1], got %g", f)
	}
	if fp.Trees < 0 || fp.MaxDepth < 0 || fp.MinSamplesLeaf < 0 || fp.MaxFeatures < 0 || fp.Workers < 0 {
		return errors.New("forecast.forest parameters must be >= 0")
	}
	if c.Arbitrage.TopK < 0 {
		return errors.New("arbitrage.top_k must be >= 0")
	}
	switch strings.ToLower(c.Ledger.Driver) {
	case "", ledger.DriverSQLite, "sqlite3", ledger.DriverPostgres, "postgresql", "pgx":
	default:
		return fmt.Errorf("ledger.driver %q is not supported", c.Ledger.Driver)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Server.RateLimitRPS < 0 || c.Server.RateLimitBurst < 0 {
		return errors.New("server rate limits must be >= 0")
	}
	return nil
}

// Location resolves the timezone of naive timestamps; empty means UTC.
func (d DataConfig) Location() (*time.Location, error) {
	if d.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(d.Timezone)
	if err != nil {
		return nil, fmt.Errorf("data.timezone: %w", err)
	}
	return loc, nil
}

// ParseOptions converts the data section into preparer options.
func (d DataConfig) ParseOptions() (prep.Options, error) {
	loc, err := d.Location()
	if err != nil {
		return prep.Options{}, err
	}
	return prep.Options{
		Columns:        d.Columns,
		Layouts:        d.TimestampLayouts,
		Location:       loc,
		PeriodsPerHour: d.PeriodsPerHour,
	}, nil
}

// RunConfig builds the backtest settings for one model. Only the forest uses
// its own train fraction; the linear model and the oracle share the linear one.
func (f ForecastConfig) RunConfig(model string) backtest.RunConfig {
	rc := backtest.RunConfig{
		Model:         model,
		TargetShift:   f.TargetShift,
		TrainFraction: f.Linear.TrainFraction,
		SplitSeed:     f.Forest.Seed,
		Forest:        f.Forest.ForestParams,
	}
	switch strings.ToLower(strings.TrimSpace(model)) {
	case forecast.ModelForest, "rf", "random_forest":
		rc.TrainFraction = f.Forest.TrainFraction
	}
	return rc
}

// MergeForest overlays non-zero fields from override onto base.
// This is used to apply per-request overrides on top of the file config.
func MergeForest(base, override forecast.ForestParams) forecast.ForestParams {
	out := base
	if override.Trees != 0 {
		out.Trees = override.Trees
	}
	// Note: 0 is a valid seed, but a zero override means "not set".
	if override.Seed != 0 {
		out.Seed = override.Seed
	}
	if override.MaxDepth != 0 {
		out.MaxDepth = override.MaxDepth
	}
	if override.MinSamplesLeaf != 0 {
		out.MinSamplesLeaf = override.MinSamplesLeaf
	}
	if override.MinSamplesSplit != 0 {
		out.MinSamplesSplit = override.MinSamplesSplit
	}
	if override.MaxFeatures != 0 {
		out.MaxFeatures = override.MaxFeatures
	}
	if override.Workers != 0 {
		out.Workers = override.Workers
	}
	return out
}
