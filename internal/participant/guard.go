package participant

import (
	"github.com/rs/zerolog"

	"spxsim/internal/engine"
	"spxsim/internal/market"
	"spxsim/internal/models"
)

// RiskGuard wraps a delegate participant and clamps oversized orders
// down to the largest size the risk limits can absorb before the broker
// sees them. An order that cannot afford even size 1 becomes a hold.
//
// The clamp estimates the fill at the natural NBBO side (bid for
// credits, ask for debits); the broker still validates at the actual
// slippage-adjusted price.
type RiskGuard struct {
	delegate  Participant
	validator *engine.RiskValidator
	logger    zerolog.Logger
}

// NewRiskGuard wraps a participant with order-size clamping.
func NewRiskGuard(delegate Participant, validator *engine.RiskValidator, logger zerolog.Logger) *RiskGuard {
	return &RiskGuard{
		delegate:  delegate,
		validator: validator,
		logger:    logger.With().Str("component", "risk_guard").Str("participant", delegate.ID()).Logger(),
	}
}

// ID implements Participant, delegating to the wrapped strategy.
func (g *RiskGuard) ID() string { return g.delegate.ID() }

// Decide implements Participant.
func (g *RiskGuard) Decide(chain *market.Snapshot, acct *engine.Account, ctx DecideContext) *models.Order {
	order := g.delegate.Decide(chain, acct, ctx)
	if order == nil {
		return nil
	}

	bid, ask, _, ok := engine.SpreadNBBO(order.Legs, chain)
	if !ok {
		// No quotes to estimate against; let the broker reject it.
		return order
	}
	estimate := bid
	if order.Side() == models.Debit {
		estimate = ask
	}
	if estimate < 0.01 {
		estimate = 0.01
	}

	clamped := g.validator.ClampQuantity(order, estimate, acct)
	switch {
	case clamped == 0:
		g.logger.Info().
			Str("structure", string(order.Structure)).
			Int("requested", order.Quantity).
			Msg("order unaffordable at size 1, holding")
		return nil
	case clamped < order.Quantity:
		g.logger.Info().
			Str("structure", string(order.Structure)).
			Int("requested", order.Quantity).
			Int("clamped", clamped).
			Msg("order size clamped to risk budget")
		order.Quantity = clamped
	}
	return order
}
