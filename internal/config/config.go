// Package config provides configuration management for the simulation.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Simulation SimulationConfig `mapstructure:"simulation"`
	Risk       RiskConfig       `mapstructure:"risk"`
	Commission CommissionConfig `mapstructure:"commission"`
	Slippage   SlippageConfig   `mapstructure:"slippage"`
	Store      StoreConfig      `mapstructure:"store"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// SimulationConfig holds the core simulation parameters.
type SimulationConfig struct {
	StartingCapital  float64 `mapstructure:"starting_capital"`
	SpreadWidth      float64 `mapstructure:"spread_width"` // points between strikes
	Multiplier       float64 `mapstructure:"multiplier"`   // dollars per point
	Tick             float64 `mapstructure:"tick"`         // minimum price increment
	BaseSeed         int64   `mapstructure:"base_seed"`
	SessionsPerRun   int     `mapstructure:"sessions_per_run"`
	RiskFreeAnnual   float64 `mapstructure:"risk_free_annual"`
	TradingDaysYear  int     `mapstructure:"trading_days_year"`
	OrdersPerWindow  int     `mapstructure:"orders_per_window"`
	ParallelDecision bool    `mapstructure:"parallel_decision"`
}

// RiskConfig holds the risk-limit gates enforced before every fill.
type RiskConfig struct {
	MaxConcurrentSpreads int     `mapstructure:"max_concurrent_spreads"`
	MaxRiskPerTradePct   float64 `mapstructure:"max_risk_per_trade_pct"`
	MaxAccountRiskPct    float64 `mapstructure:"max_account_risk_pct"`
	MinReservePct        float64 `mapstructure:"min_reserve_pct"`
}

// CommissionConfig holds entry commission parameters. Cash settlement has
// no closing transaction, so commission is charged once.
type CommissionConfig struct {
	PerContract   float64 `mapstructure:"per_contract"`
	RegulatoryFee float64 `mapstructure:"regulatory_fee"`
}

// Band is a (threshold, multiplier) step in a slippage lookup table.
type Band struct {
	Threshold  float64 `mapstructure:"threshold"`
	Multiplier float64 `mapstructure:"multiplier"`
}

// SlippageConfig holds the stochastic slippage model parameters.
type SlippageConfig struct {
	Base        float64 `mapstructure:"base"`
	VIXBands    []Band  `mapstructure:"vix_bands"`
	MoveBands   []Band  `mapstructure:"move_bands"`
	NoiseLo     float64 `mapstructure:"noise_lo"`
	NoiseHi     float64 `mapstructure:"noise_hi"`
	WidenedProb float64 `mapstructure:"widened_prob"`
}

// StoreConfig holds persistence configuration.
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
	File    bool   `mapstructure:"file"`
	Path    string `mapstructure:"path"`
}

// Default returns the reference configuration.
func Default() *Config {
	return &Config{
		Simulation: SimulationConfig{
			StartingCapital:  30_000,
			SpreadWidth:      5,
			Multiplier:       100,
			Tick:             0.01,
			BaseSeed:         42,
			SessionsPerRun:   80,
			RiskFreeAnnual:   0.053,
			TradingDaysYear:  252,
			OrdersPerWindow:  1,
			ParallelDecision: true,
		},
		Risk: RiskConfig{
			MaxConcurrentSpreads: 3,
			MaxRiskPerTradePct:   0.05,
			MaxAccountRiskPct:    0.15,
			MinReservePct:        0.20,
		},
		Commission: CommissionConfig{
			PerContract:   0.65,
			RegulatoryFee: 0.04,
		},
		Slippage: SlippageConfig{
			Base: 0.05,
			VIXBands: []Band{
				{Threshold: 15, Multiplier: 1.0},
				{Threshold: 20, Multiplier: 1.2},
				{Threshold: 25, Multiplier: 1.5},
				{Threshold: 35, Multiplier: 2.0},
				{Threshold: 999, Multiplier: 3.0},
			},
			MoveBands: []Band{
				{Threshold: 5, Multiplier: 1.0},
				{Threshold: 15, Multiplier: 1.3},
				{Threshold: 25, Multiplier: 1.6},
				{Threshold: 999, Multiplier: 2.0},
			},
			NoiseLo:     0.85,
			NoiseHi:     1.15,
			WidenedProb: 0.05,
		},
		Store: StoreConfig{
			Path: defaultDBPath(),
		},
		Logging: LoggingConfig{
			Level:   "info",
			Console: true,
			File:    false,
		},
	}
}

// Load reads configuration from the given file (optional), environment
// variables prefixed with SPXSIM_, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("SPXSIM")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.Simulation.StartingCapital <= 0 {
		return fmt.Errorf("starting_capital must be positive, got %.2f", c.Simulation.StartingCapital)
	}
	if c.Simulation.SpreadWidth <= 0 {
		return fmt.Errorf("spread_width must be positive, got %.2f", c.Simulation.SpreadWidth)
	}
	if c.Simulation.Multiplier <= 0 {
		return fmt.Errorf("multiplier must be positive, got %.2f", c.Simulation.Multiplier)
	}
	if c.Risk.MaxConcurrentSpreads < 1 {
		return fmt.Errorf("max_concurrent_spreads must be at least 1, got %d", c.Risk.MaxConcurrentSpreads)
	}
	for name, pct := range map[string]float64{
		"max_risk_per_trade_pct": c.Risk.MaxRiskPerTradePct,
		"max_account_risk_pct":   c.Risk.MaxAccountRiskPct,
		"min_reserve_pct":        c.Risk.MinReservePct,
	} {
		if pct <= 0 || pct >= 1 {
			return fmt.Errorf("%s must be in (0, 1), got %.3f", name, pct)
		}
	}
	if c.Slippage.NoiseLo > c.Slippage.NoiseHi {
		return fmt.Errorf("slippage noise_lo %.2f exceeds noise_hi %.2f", c.Slippage.NoiseLo, c.Slippage.NoiseHi)
	}
	if len(c.Slippage.VIXBands) == 0 || len(c.Slippage.MoveBands) == 0 {
		return fmt.Errorf("slippage band tables must not be empty")
	}
	return nil
}

// DailyRiskFree returns the per-session risk-free accrual rate.
func (c *Config) DailyRiskFree() float64 {
	days := c.Simulation.TradingDaysYear
	if days <= 0 {
		days = 252
	}
	return c.Simulation.RiskFreeAnnual / float64(days)
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("simulation.starting_capital", d.Simulation.StartingCapital)
	v.SetDefault("simulation.spread_width", d.Simulation.SpreadWidth)
	v.SetDefault("simulation.multiplier", d.Simulation.Multiplier)
	v.SetDefault("simulation.tick", d.Simulation.Tick)
	v.SetDefault("simulation.base_seed", d.Simulation.BaseSeed)
	v.SetDefault("simulation.sessions_per_run", d.Simulation.SessionsPerRun)
	v.SetDefault("simulation.risk_free_annual", d.Simulation.RiskFreeAnnual)
	v.SetDefault("simulation.trading_days_year", d.Simulation.TradingDaysYear)
	v.SetDefault("simulation.orders_per_window", d.Simulation.OrdersPerWindow)
	v.SetDefault("simulation.parallel_decision", d.Simulation.ParallelDecision)
	v.SetDefault("risk.max_concurrent_spreads", d.Risk.MaxConcurrentSpreads)
	v.SetDefault("risk.max_risk_per_trade_pct", d.Risk.MaxRiskPerTradePct)
	v.SetDefault("risk.max_account_risk_pct", d.Risk.MaxAccountRiskPct)
	v.SetDefault("risk.min_reserve_pct", d.Risk.MinReservePct)
	v.SetDefault("commission.per_contract", d.Commission.PerContract)
	v.SetDefault("commission.regulatory_fee", d.Commission.RegulatoryFee)
	v.SetDefault("slippage.base", d.Slippage.Base)
	v.SetDefault("slippage.noise_lo", d.Slippage.NoiseLo)
	v.SetDefault("slippage.noise_hi", d.Slippage.NoiseHi)
	v.SetDefault("slippage.widened_prob", d.Slippage.WidenedProb)
	v.SetDefault("store.path", d.Store.Path)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.console", d.Logging.Console)
	v.SetDefault("logging.file", d.Logging.File)
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "simulation.db"
	}
	return filepath.Join(home, ".config", "spxsim", "simulation.db")
}
