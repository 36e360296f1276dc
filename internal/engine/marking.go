package engine

import (
	"spxsim/internal/market"
	"spxsim/internal/models"
	"spxsim/pkg/num"
)

// SpreadNBBO derives the composite spread bid/ask/mid from individual
// leg quotes. Bid is what the spread could be sold for, ask what it
// could be bought for. ok is false when any leg quote is missing.
func SpreadNBBO(legs []models.Leg, chain *market.Snapshot) (bid, ask, mid float64, ok bool) {
	var sellBid, sellAsk, buyBid, buyAsk float64

	for _, leg := range legs {
		c := chain.Contract(leg.Strike, leg.Type)
		if c == nil {
			return 0, 0, 0, false
		}
		qty := float64(leg.Quantity)
		if leg.Action == models.Sell {
			sellBid += c.Bid * qty
			sellAsk += c.Ask * qty
		} else {
			buyBid += c.Bid * qty
			buyAsk += c.Ask * qty
		}
	}

	bid = num.Round2(sellBid - buyAsk)
	ask = num.Round2(sellAsk - buyBid)
	mid = num.Round2((bid + ask) / 2)
	return bid, ask, mid, true
}

// MarkPosition is the unrealized P&L of a position at the current mark
// (mid of the spread NBBO). Used for observation only, never for fills
// or settlement.
func MarkPosition(entryPrice, currentMark float64, side models.Side, quantity int, multiplier float64) float64 {
	if side == models.Credit {
		return (entryPrice - currentMark) * multiplier * float64(quantity)
	}
	return (currentMark - entryPrice) * multiplier * float64(quantity)
}
