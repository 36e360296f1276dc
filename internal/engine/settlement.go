package engine

import (
	"spxsim/internal/models"
)

// Settlement cash-settles expiring positions at the index close.
// Both entry points are idempotent: a position settles exactly once and
// re-invoking settlement after a crash is a harmless no-op.
type Settlement struct {
	multiplier float64
}

// NewSettlement creates a settlement engine.
func NewSettlement(multiplier float64) *Settlement {
	return &Settlement{multiplier: multiplier}
}

// SettleZeroDTE settles 0DTE positions opened this session at today's
// close. Called during the CLOSE phase of the same session. Returns the
// positions settled by this call.
func (s *Settlement) SettleZeroDTE(acct *Account, sessionID int64, indexClose float64) []*models.Position {
	var settled []*models.Position
	for _, p := range acct.OpenPositions() {
		if p.DTEAtEntry == 0 && p.SessionOpened == sessionID {
			s.settle(acct, p, sessionID, indexClose)
			settled = append(settled, p)
		}
	}
	return settled
}

// SettleOneDTE settles 1DTE positions carried from a prior session at
// the prior close. Called during PRE-MARKET of the following session.
func (s *Settlement) SettleOneDTE(acct *Account, sessionID int64, priorClose float64) []*models.Position {
	var settled []*models.Position
	for _, p := range acct.OpenPositions() {
		if p.DTEAtEntry == 1 && p.SessionOpened < sessionID {
			s.settle(acct, p, sessionID, priorClose)
			settled = append(settled, p)
		}
	}
	return settled
}

// settle writes the settlement fields exactly once and books the gross
// P&L into the account. OpenPositions filtering upstream guarantees the
// position has not settled before.
//
// The position records P&L net of its entry commission; the balance
// receives the gross figure because the commission was already deducted
// when the position was opened.
func (s *Settlement) settle(acct *Account, p *models.Position, sessionID int64, indexClose float64) {
	value := SpreadSettlementValue(p.Legs, indexClose)
	gross := SettlementPnL(p.EntryPrice, p.Side, p.Legs, indexClose, p.Quantity, s.multiplier)
	net := gross - p.Commission

	p.SessionSettled = &sessionID
	p.SettlementPrice = &indexClose
	p.SettlementValue = &value
	p.SettlementSource = models.SettlementOfficialClose
	p.RealizedPnL = &net

	acct.BookSettlement(gross)
}
