package engine

import (
	"fmt"

	"spxsim/internal/config"
	"spxsim/internal/models"
)

// Rejection reason codes, one per risk gate, so callers can tell "too
// many open positions" apart from "insufficient buying power".
const (
	ReasonMaxConcurrent = "max_concurrent_spreads"
	ReasonPerTradeRisk  = "per_trade_risk"
	ReasonAccountRisk   = "account_risk"
	ReasonReserve       = "buying_power_reserve"
)

// RiskRejection describes which gate failed and why.
type RiskRejection struct {
	Code    string
	Message string
}

func (r *RiskRejection) String() string {
	return r.Message
}

// RiskValidator enforces the per-trade, per-account and buying-power
// gates before every fill. It is reusable standalone by external risk
// guards that size orders down before submission.
type RiskValidator struct {
	limits     config.RiskConfig
	multiplier float64
}

// NewRiskValidator creates a validator from configuration.
func NewRiskValidator(limits config.RiskConfig, multiplier float64) *RiskValidator {
	return &RiskValidator{limits: limits, multiplier: multiplier}
}

// ValidateOrder checks the gate chain in order; the first failure wins.
// A nil rejection means the order passed every gate.
func (v *RiskValidator) ValidateOrder(o *models.Order, fillPrice float64, acct *Account) *RiskRejection {
	// 1. Concurrent open-position cap.
	openCount := acct.OpenPositionCount()
	if openCount >= v.limits.MaxConcurrentSpreads {
		return &RiskRejection{
			Code:    ReasonMaxConcurrent,
			Message: fmt.Sprintf("max concurrent spreads (%d) reached", v.limits.MaxConcurrentSpreads),
		}
	}

	// 2. Per-trade risk.
	tradeRisk := MaxLoss(o, fillPrice, v.multiplier)
	maxPerTrade := acct.Balance * v.limits.MaxRiskPerTradePct
	if tradeRisk > maxPerTrade {
		return &RiskRejection{
			Code: ReasonPerTradeRisk,
			Message: fmt.Sprintf("trade risk $%.0f exceeds %.0f%% limit $%.0f",
				tradeRisk, v.limits.MaxRiskPerTradePct*100, maxPerTrade),
		}
	}

	// 3. Aggregate account risk.
	currentRisk := acct.BuyingPowerUsed()
	newTotal := currentRisk + tradeRisk
	maxAccountRisk := acct.Balance * v.limits.MaxAccountRiskPct
	if newTotal > maxAccountRisk {
		return &RiskRejection{
			Code: ReasonAccountRisk,
			Message: fmt.Sprintf("total risk $%.0f would exceed %.0f%% limit $%.0f",
				newTotal, v.limits.MaxAccountRiskPct*100, maxAccountRisk),
		}
	}

	// 4. Buying-power reserve after this trade.
	afterTrade := acct.Balance - currentRisk - tradeRisk
	minReserve := acct.Balance * v.limits.MinReservePct
	if afterTrade < minReserve {
		return &RiskRejection{
			Code: ReasonReserve,
			Message: fmt.Sprintf("insufficient buying power reserve: $%.0f after trade, minimum $%.0f",
				afterTrade, minReserve),
		}
	}

	return nil
}

// ClampQuantity finds the largest order size that passes every risk
// gate at the given per-spread price, or 0 when even size 1 exceeds the
// budget. The order itself is not modified.
func (v *RiskValidator) ClampQuantity(o *models.Order, fillPrice float64, acct *Account) int {
	trial := *o
	for qty := o.Quantity; qty >= 1; qty-- {
		trial.Quantity = qty
		if v.ValidateOrder(&trial, fillPrice, acct) == nil {
			return qty
		}
	}
	return 0
}
