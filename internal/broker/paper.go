// Package broker provides the simulated fill engine that turns orders
// into positions against chain snapshots.
package broker

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math/rand"

	"github.com/rs/zerolog"

	"spxsim/internal/config"
	"spxsim/internal/engine"
	"spxsim/internal/market"
	"spxsim/internal/models"
	"spxsim/pkg/num"
)

// RunContext identifies where in a run a fill attempt happens. The
// (session, window, participant) triple also keys the deterministic
// slippage stream.
type RunContext struct {
	SessionID       int64
	Window          models.Window
	IntradayMovePts float64
}

// PaperBroker fills spread orders against chain data, enforcing the
// window cap and risk limits, and applying deterministic slippage.
type PaperBroker struct {
	baseSeed        int64
	tick            float64
	multiplier      float64
	ordersPerWindow int

	slippage   engine.SlippageModel
	commission engine.CommissionCalc
	validator  *engine.RiskValidator
	logger     zerolog.Logger
}

// PaperBrokerConfig holds construction parameters for the paper broker.
type PaperBrokerConfig struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewPaperBroker creates a paper broker from configuration.
func NewPaperBroker(cfg PaperBrokerConfig) *PaperBroker {
	c := cfg.Config
	return &PaperBroker{
		baseSeed:        c.Simulation.BaseSeed,
		tick:            c.Simulation.Tick,
		multiplier:      c.Simulation.Multiplier,
		ordersPerWindow: c.Simulation.OrdersPerWindow,
		slippage:        engine.NewSlippageModel(c.Slippage),
		commission:      engine.NewCommissionCalc(c.Commission),
		validator:       engine.NewRiskValidator(c.Risk, c.Simulation.Multiplier),
		logger:          cfg.Logger.With().Str("component", "paper_broker").Logger(),
	}
}

// Validator exposes the risk validator for external sizing guards.
func (b *PaperBroker) Validator() *engine.RiskValidator {
	return b.validator
}

// SubmitOrder attempts to fill an order. Each step can short-circuit to
// a rejection with a specific reason; side effects are limited to the
// returned FillResult and a single account mutation on success.
func (b *PaperBroker) SubmitOrder(o *models.Order, acct *engine.Account,
	chain *market.Snapshot, run RunContext) *models.FillResult {

	// 0. Shape validation, before any pricing.
	if err := o.Validate(); err != nil {
		return b.reject(o, run, err.Error())
	}

	// 1. Window cap: at most one filled order per participant per
	// (session, window) pair.
	fills := 0
	for _, p := range acct.Positions {
		if p.Window == run.Window && p.SessionOpened == run.SessionID {
			fills++
		}
	}
	if fills >= b.ordersPerWindow {
		return b.reject(o, run, fmt.Sprintf(
			"already filled %d order(s) in %s window (max %d)", fills, run.Window, b.ordersPerWindow))
	}

	// 2. Composite spread NBBO from leg quotes.
	bid, ask, _, ok := engine.SpreadNBBO(o.Legs, chain)
	if !ok {
		return b.reject(o, run, "missing quotes for one or more legs")
	}

	// 3. Deterministic slippage for this (session, window, participant).
	rng := b.windowRNG(run.SessionID, run.Window, o.ParticipantID)
	slip := b.slippage.Compute(chain.VIX, run.IntradayMovePts, rng)

	// 4. Fill price, tick-rounded. Slippage always worsens the fill.
	var fillPrice float64
	if o.Side() == models.Credit {
		fillPrice = bid - slip
		if fillPrice < 0.01 {
			fillPrice = 0.01
		}
	} else {
		fillPrice = ask + slip
	}
	fillPrice = num.RoundTick(fillPrice, b.tick)

	// 5. Limit check. This is a single-shot simulation with no resting
	// book, so an unachievable limit is a rejection, not an open order.
	if o.LimitPrice != nil {
		limit := *o.LimitPrice
		if o.Side() == models.Credit && fillPrice < limit {
			return b.reject(o, run, fmt.Sprintf(
				"limit %.2f not achievable, best fill %.2f (bid=%.2f, slippage=%.2f)", limit, fillPrice, bid, slip))
		}
		if o.Side() == models.Debit && fillPrice > limit {
			return b.reject(o, run, fmt.Sprintf(
				"limit %.2f not achievable, best fill %.2f (ask=%.2f, slippage=%.2f)", limit, fillPrice, ask, slip))
		}
	}

	// 6. Risk limits against the prospective fill price.
	if rej := b.validator.ValidateOrder(o, fillPrice, acct); rej != nil {
		return b.reject(o, run, rej.Message)
	}

	// 7. Commission, position, single account mutation.
	commission := b.commission.Commission(o)
	position := models.NewPositionFromOrder(o, run.SessionID, fillPrice, commission)
	acct.AddPosition(position)

	o.Status = models.OrderFilled
	o.FillPrice = fillPrice
	o.Commission = commission

	b.logger.Info().
		Str("participant", o.ParticipantID).
		Int64("session", run.SessionID).
		Str("window", string(run.Window)).
		Str("structure", string(o.Structure)).
		Float64("fill_price", fillPrice).
		Float64("slippage", slip).
		Float64("commission", commission).
		Msg("order filled")

	return &models.FillResult{
		Order:           o,
		Filled:          true,
		FillPrice:       fillPrice,
		Commission:      commission,
		SlippageApplied: slip,
		Position:        position,
	}
}

func (b *PaperBroker) reject(o *models.Order, run RunContext, reason string) *models.FillResult {
	b.logger.Info().
		Str("participant", o.ParticipantID).
		Int64("session", run.SessionID).
		Str("window", string(run.Window)).
		Str("structure", string(o.Structure)).
		Str("reason", reason).
		Msg("order rejected")
	return models.Rejection(o, reason)
}

// windowRNG derives a fresh deterministic RNG for one fill attempt.
// Hashing the (base seed, session, window, participant) key means
// re-running a session reproduces identical fills regardless of process
// scheduling, and no generator state is shared between participants.
func (b *PaperBroker) windowRNG(sessionID int64, window models.Window, participantID string) *rand.Rand {
	key := fmt.Sprintf("%d:%d:%s:%s", b.baseSeed, sessionID, window, participantID)
	sum := sha256.Sum256([]byte(key))
	seed := int64(binary.BigEndian.Uint64(sum[:8]) &^ (1 << 63))
	return rand.New(rand.NewSource(seed))
}
