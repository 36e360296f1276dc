package engine

import (
	"math/rand"

	"spxsim/internal/config"
	"spxsim/pkg/num"
)

// SlippageModel computes stochastic, regime-scaled execution cost.
// Slippage is applied once per spread, never per leg, so multi-leg
// structures are not penalized n times. It always worsens the fill:
// subtracted from a credit, added to a debit.
type SlippageModel struct {
	cfg config.SlippageConfig
}

// NewSlippageModel creates a model from configuration.
func NewSlippageModel(cfg config.SlippageConfig) SlippageModel {
	return SlippageModel{cfg: cfg}
}

// Compute returns dollars of slippage per spread for a single fill.
// Deterministic given rng: base × VIX band × move band × uniform noise,
// with a fixed probability of a doubled "widened spread" event.
func (m SlippageModel) Compute(vix, intradayMovePts float64, rng *rand.Rand) float64 {
	vixMult := bandMultiplier(vix, m.cfg.VIXBands)
	moveMult := bandMultiplier(abs(intradayMovePts), m.cfg.MoveBands)
	noise := m.cfg.NoiseLo + rng.Float64()*(m.cfg.NoiseHi-m.cfg.NoiseLo)

	slip := m.cfg.Base * vixMult * moveMult * noise

	if rng.Float64() < m.cfg.WidenedProb {
		slip *= 2
	}
	return num.Round2(slip)
}

func bandMultiplier(value float64, bands []config.Band) float64 {
	for _, b := range bands {
		if value < b.Threshold {
			return b.Multiplier
		}
	}
	return bands[len(bands)-1].Multiplier
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
