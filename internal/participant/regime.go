package participant

import (
	"fmt"

	"spxsim/internal/engine"
	"spxsim/internal/market"
	"spxsim/internal/models"
)

// RegimeBot is a VIX + gap decision tree:
//
//	VIX < 15            → iron fly at ATM (max premium in calm markets)
//	15 ≤ VIX < 25       → 10-delta iron condor
//	VIX ≥ 25, gap down  → bull put vertical (mean reversion)
//	VIX ≥ 25, gap up    → bear call vertical (mean reversion)
//	VIX ≥ 25, no gap    → hold cash (no edge)
//
// The gap is (underlying − prior close) / prior close; without a prior
// close the high-vol branch holds cash.
type RegimeBot struct {
	id          string
	spreadWidth float64
}

// NewRegimeBot creates the regime-tree baseline.
func NewRegimeBot(spreadWidth float64) *RegimeBot {
	return &RegimeBot{id: "bot-regime", spreadWidth: spreadWidth}
}

// ID implements Participant.
func (r *RegimeBot) ID() string { return r.id }

// Decide implements Participant.
func (r *RegimeBot) Decide(chain *market.Snapshot, acct *engine.Account, ctx DecideContext) *models.Order {
	switch {
	case chain.VIX < 15:
		return r.ironFly(chain)
	case chain.VIX < 25:
		return r.ironCondor(chain)
	default:
		return r.highVol(chain, ctx.PriorClose)
	}
}

func (r *RegimeBot) ironFly(chain *market.Snapshot) *models.Order {
	atm := chain.ATMStrike()
	if atm == 0 {
		return nil
	}
	return models.NewIronFly(r.id, atm, r.spreadWidth, 1, nil,
		fmt.Sprintf("Regime: low VIX (%.1f), ATM iron fly for max premium.", chain.VIX))
}

func (r *RegimeBot) ironCondor(chain *market.Snapshot) *models.Order {
	putShort, okP := chain.NearestDeltaStrike(-0.10, models.Put)
	callShort, okC := chain.NearestDeltaStrike(0.10, models.Call)
	if !okP || !okC {
		return nil
	}
	putLong := putShort - r.spreadWidth
	callLong := callShort + r.spreadWidth
	if chain.Contract(putLong, models.Put) == nil || chain.Contract(callLong, models.Call) == nil {
		return nil
	}
	return models.NewIronCondor(r.id, putLong, putShort, callShort, callLong, 1, nil,
		fmt.Sprintf("Regime: normal VIX (%.1f), 10-delta IC.", chain.VIX))
}

func (r *RegimeBot) highVol(chain *market.Snapshot, priorClose float64) *models.Order {
	if priorClose == 0 {
		return nil
	}
	gap := (chain.UnderlyingPrice - priorClose) / priorClose

	switch {
	case gap < -0.005:
		short, ok := chain.NearestDeltaStrike(-0.15, models.Put)
		if !ok {
			return nil
		}
		long := short - r.spreadWidth
		if chain.Contract(long, models.Put) == nil {
			return nil
		}
		return models.NewBullPutVertical(r.id, short, long, 1, nil,
			fmt.Sprintf("Regime: high VIX (%.1f), gap down %.1f%%, bull put for mean reversion.", chain.VIX, gap*100))
	case gap > 0.005:
		short, ok := chain.NearestDeltaStrike(0.15, models.Call)
		if !ok {
			return nil
		}
		long := short + r.spreadWidth
		if chain.Contract(long, models.Call) == nil {
			return nil
		}
		return models.NewBearCallVertical(r.id, short, long, 1, nil,
			fmt.Sprintf("Regime: high VIX (%.1f), gap up %.1f%%, bear call for mean reversion.", chain.VIX, gap*100))
	default:
		return nil
	}
}
