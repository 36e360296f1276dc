// Package engine implements the paper-trading core: margin, slippage,
// payoff, risk limits, the account ledger, and cash settlement.
package engine

import (
	"spxsim/internal/models"
)

// MaxLoss returns the worst-case dollar loss for an order at the given
// fill price. This is the single source of truth for collateral: the
// account ledger, the risk validator, and external sizing guards all go
// through it.
//
// Only one side of a cash-settled index spread can finish in the money,
// so condor and fly max loss uses a single wing's width, not the sum.
func MaxLoss(o *models.Order, fillPrice, multiplier float64) float64 {
	width := o.Width()
	qty := float64(o.Quantity)

	switch o.Side() {
	case models.Credit:
		return (width - fillPrice) * multiplier * qty
	case models.Debit:
		// Worst case for a debit butterfly is a total loss of the debit.
		return fillPrice * multiplier * qty
	}
	panic("unreachable structure side")
}

// BuyingPowerRequired is the collateral held for an order: its max loss.
func BuyingPowerRequired(o *models.Order, fillPrice, multiplier float64) float64 {
	return MaxLoss(o, fillPrice, multiplier)
}

// PositionMaxLoss computes the collateral held by an open position.
func PositionMaxLoss(p *models.Position, multiplier float64) float64 {
	return MaxLoss(p.PseudoOrder(), p.EntryPrice, multiplier)
}
