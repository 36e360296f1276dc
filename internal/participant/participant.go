// Package participant defines the decision-making seam of the
// simulation. Concrete strategies — mechanical baselines here, LLM
// agents elsewhere — implement Participant; the engine never depends on
// a concrete implementation.
package participant

import (
	"spxsim/internal/engine"
	"spxsim/internal/market"
	"spxsim/internal/models"
)

// DecideContext carries the session coordinates of one decision window.
type DecideContext struct {
	SessionID  int64
	Window     models.Window
	DTE        int
	PriorClose float64 // prior session's index close, 0 when unknown
}

// Participant produces at most one order per decision window. A nil
// order means hold cash.
type Participant interface {
	// ID returns the unique participant identifier.
	ID() string
	// Decide inspects the chain and account view and returns an order
	// to submit, or nil to hold.
	Decide(chain *market.Snapshot, acct *engine.Account, ctx DecideContext) *models.Order
}
