package engine

import (
	"spxsim/internal/models"
)

// IntrinsicValue is the expiry value of one option: max(0, S-K) for
// calls, max(0, K-S) for puts. European, cash-settled — no early
// exercise.
func IntrinsicValue(strike float64, t models.OptionType, settlementPrice float64) float64 {
	if t == models.Call {
		return max0(settlementPrice - strike)
	}
	return max0(strike - settlementPrice)
}

// SpreadSettlementValue is the net expiry value of a spread from the
// opener's perspective: positive favors debit buyers and costs credit
// sellers. Sold legs pay out intrinsic; bought legs receive it.
func SpreadSettlementValue(legs []models.Leg, settlementPrice float64) float64 {
	net := 0.0
	for _, leg := range legs {
		iv := IntrinsicValue(leg.Strike, leg.Type, settlementPrice)
		if leg.Action == models.Sell {
			net -= iv * float64(leg.Quantity)
		} else {
			net += iv * float64(leg.Quantity)
		}
	}
	return net
}

// SettlementPnL is the realized P&L of a spread at cash settlement,
// gross of commission (commission is charged once, at entry).
func SettlementPnL(entryPrice float64, side models.Side, legs []models.Leg,
	settlementPrice float64, quantity int, multiplier float64) float64 {
	settleValue := SpreadSettlementValue(legs, settlementPrice)

	var perSpread float64
	if side == models.Credit {
		// Credit received up front; settleValue is what we owe (negative
		// when a short side lands in the money).
		perSpread = entryPrice + settleValue
	} else {
		perSpread = settleValue - entryPrice
	}
	return perSpread * multiplier * float64(quantity)
}

// MaxProfit is the best-case dollar outcome for a structure.
func MaxProfit(entryPrice float64, side models.Side, width float64, quantity int, multiplier float64) float64 {
	if side == models.Credit {
		return entryPrice * multiplier * float64(quantity)
	}
	return (width - entryPrice) * multiplier * float64(quantity)
}

func max0(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
