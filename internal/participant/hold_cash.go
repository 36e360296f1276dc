package participant

import (
	"spxsim/internal/engine"
	"spxsim/internal/market"
	"spxsim/internal/models"
)

// HoldCash never trades and earns the risk-free rate on its full
// balance. The zero-skill benchmark: a participant who cannot beat it
// is destroying value through costs and bad selection.
type HoldCash struct {
	id string
}

// NewHoldCash creates the hold-cash baseline.
func NewHoldCash() *HoldCash {
	return &HoldCash{id: "bot-hold-cash"}
}

// ID implements Participant.
func (h *HoldCash) ID() string { return h.id }

// Decide implements Participant. Interest accrual happens in the
// orchestrator's END phase; this bot simply holds.
func (h *HoldCash) Decide(chain *market.Snapshot, acct *engine.Account, ctx DecideContext) *models.Order {
	return nil
}
