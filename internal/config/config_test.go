package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultValidates(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero capital", func(c *Config) { c.Simulation.StartingCapital = 0 }},
		{"negative spread width", func(c *Config) { c.Simulation.SpreadWidth = -5 }},
		{"zero multiplier", func(c *Config) { c.Simulation.Multiplier = 0 }},
		{"zero concurrent spreads", func(c *Config) { c.Risk.MaxConcurrentSpreads = 0 }},
		{"per-trade pct too high", func(c *Config) { c.Risk.MaxRiskPerTradePct = 1.0 }},
		{"account risk pct zero", func(c *Config) { c.Risk.MaxAccountRiskPct = 0 }},
		{"reserve pct negative", func(c *Config) { c.Risk.MinReservePct = -0.1 }},
		{"inverted noise range", func(c *Config) { c.Slippage.NoiseLo = 1.2; c.Slippage.NoiseHi = 0.9 }},
		{"empty vix bands", func(c *Config) { c.Slippage.VIXBands = nil }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDailyRiskFree(t *testing.T) {
	cfg := Default()
	assert.InDelta(t, 0.053/252, cfg.DailyRiskFree(), 1e-12)

	// A zero day count falls back to 252 instead of dividing by zero.
	cfg.Simulation.TradingDaysYear = 0
	assert.InDelta(t, 0.053/252, cfg.DailyRiskFree(), 1e-12)
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 30_000.0, cfg.Simulation.StartingCapital)
	assert.Equal(t, 0.65, cfg.Commission.PerContract)
	assert.Len(t, cfg.Slippage.VIXBands, 5)
}

func TestLoadOverridesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `simulation:
  starting_capital: 50000
  sessions_per_run: 10
risk:
  max_concurrent_spreads: 2
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 50_000.0, cfg.Simulation.StartingCapital)
	assert.Equal(t, 10, cfg.Simulation.SessionsPerRun)
	assert.Equal(t, 2, cfg.Risk.MaxConcurrentSpreads)
	// Untouched keys keep their defaults.
	assert.Equal(t, 5.0, cfg.Simulation.SpreadWidth)
	assert.Equal(t, 0.05, cfg.Slippage.Base)
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("simulation:\n  starting_capital: -1\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFileErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
