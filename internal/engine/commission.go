package engine

import (
	"spxsim/internal/config"
	"spxsim/internal/models"
	"spxsim/pkg/num"
)

// CommissionCalc prices entry commissions. Cash-settled index spreads
// have no closing transaction, so commission is charged exactly once.
type CommissionCalc struct {
	PerContract   float64
	RegulatoryFee float64
}

// NewCommissionCalc creates a calculator from configuration.
func NewCommissionCalc(cfg config.CommissionConfig) CommissionCalc {
	return CommissionCalc{
		PerContract:   cfg.PerContract,
		RegulatoryFee: cfg.RegulatoryFee,
	}
}

// Commission returns the entry commission for an order. Butterfly
// centers carry quantity 2 and are charged per contract.
func (c CommissionCalc) Commission(o *models.Order) float64 {
	contracts := float64(o.TotalContracts())
	return num.Round2((c.PerContract + c.RegulatoryFee) * contracts)
}
