package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"energy-backtest/internal/forecast"
	"energy-backtest/internal/strategy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, strategy.DefaultTopK, c.Arbitrage.TopK)
	assert.Equal(t, 1.0, c.Forecast.Linear.TrainFraction)
	assert.Equal(t, 0.8, c.Forecast.Forest.TrainFraction)
	assert.Equal(t, 100, c.Forecast.Forest.Trees)
}

func TestLoad_OverlaysFile(t *testing.T) {
	path := writeYAML(t, `
data:
  path: prices.csv
  timezone: UTC
  columns:
    timestamp: ts
forecast:
  target_shift: 24
  forest:
    trees: 10
    max_depth: 4
    train_fraction: 0.5
arbitrage:
  exhaustive: true
server:
  port: 9090
log_level: debug
`)
	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "prices.csv", c.Data.Path)
	assert.Equal(t, "ts", c.Data.Columns.Timestamp)
	// unset column names fall back to the workbook headers
	assert.Equal(t, "Day Ahead Price hourly [in EUR/MWh]", c.Data.Columns.DAPrice)
	assert.Equal(t, 24, c.Forecast.TargetShift)
	assert.Equal(t, 10, c.Forecast.Forest.Trees)
	assert.Equal(t, 4, c.Forecast.Forest.MaxDepth)
	assert.Equal(t, int64(42), c.Forecast.Forest.Seed)
	assert.Equal(t, 0.5, c.Forecast.Forest.TrainFraction)
	assert.True(t, c.Arbitrage.Exhaustive)
	assert.Equal(t, strategy.DefaultTopK, c.Arbitrage.TopK)
	assert.Equal(t, 9090, c.Server.Port)
	assert.Equal(t, "debug", c.LogLevel)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("API_PORT", "7070")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("LEDGER_DRIVER", "postgres")
	t.Setenv("LEDGER_DSN", "postgres://localhost/trades")
	t.Setenv("LEDGER_TABLE", "trades")
	t.Setenv("DATA_PATH", "other.xlsx")

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7070, c.Server.Port)
	assert.Equal(t, "warn", c.LogLevel)
	assert.Equal(t, "postgres", c.Ledger.Driver)
	assert.Equal(t, "postgres://localhost/trades", c.Ledger.DSN)
	assert.Equal(t, "trades", c.Ledger.Table)
	assert.Equal(t, "other.xlsx", c.Data.Path)
}

func TestLoad_BadEnvIntKeepsDefault(t *testing.T) {
	t.Setenv("API_PORT", "eighty")
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8080, c.Server.Port)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeYAML(t, "data: [unclosed"))
	assert.Error(t, err)

	cases := map[string]string{
		"timezone":       "data:\n  timezone: Mars/Olympus\n",
		"periods":        "data:\n  periods_per_hour: 7\n",
		"train_fraction": "forecast:\n  linear:\n    train_fraction: 1.5\n",
		"forest":         "forecast:\n  forest:\n    trees: -1\n",
		"top_k":          "arbitrage:\n  top_k: -3\n",
		"driver":         "ledger:\n  driver: mongodb\n",
		"port":           "server:\n  port: 70000\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeYAML(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoadUnchecked_SkipsValidation(t *testing.T) {
	c, err := LoadUnchecked(writeYAML(t, "server:\n  port: 0\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, c.Server.Port)
	assert.Error(t, c.Validate())
}

func TestParseOptions(t *testing.T) {
	d := Default().Data
	opts, err := d.ParseOptions()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", opts.Location.String())

	d.Timezone = ""
	opts, err = d.ParseOptions()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, opts.Location)
}

func TestRunConfig(t *testing.T) {
	f := Default().Forecast
	assert.Equal(t, 1.0, f.RunConfig("ols").TrainFraction)
	assert.Equal(t, 0.8, f.RunConfig("forest").TrainFraction)
	assert.Equal(t, 0.8, f.RunConfig("rf").TrainFraction)
	assert.Equal(t, int64(42), f.RunConfig("forest").SplitSeed)
	assert.Equal(t, "oracle", f.RunConfig("oracle").Model)
}

func TestMergeForest(t *testing.T) {
	base := forecast.DefaultForestParams()
	out := MergeForest(base, forecast.ForestParams{Trees: 5, MaxDepth: 3})
	assert.Equal(t, 5, out.Trees)
	assert.Equal(t, 3, out.MaxDepth)
	assert.Equal(t, base.Seed, out.Seed)
	assert.Equal(t, base.MinSamplesLeaf, out.MinSamplesLeaf)

	assert.Equal(t, base, MergeForest(base, forecast.ForestParams{}))
}
