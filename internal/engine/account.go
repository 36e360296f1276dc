package engine

import (
	"spxsim/internal/models"
	"spxsim/pkg/num"
)

// Account is the simulated ledger for one participant. Each account is
// exclusively owned by one orchestrator call site; the balance only
// changes through AddPosition, BookSettlement and AccrueRiskFree.
type Account struct {
	ParticipantID    string
	Balance          float64
	RealizedPnL      float64
	TotalCommissions float64
	Positions        []*models.Position

	StartingCapital float64
	multiplier      float64
}

// NewAccount creates an account with the starting capital.
func NewAccount(participantID string, startingCapital, multiplier float64) *Account {
	return &Account{
		ParticipantID:   participantID,
		Balance:         startingCapital,
		StartingCapital: startingCapital,
		multiplier:      multiplier,
	}
}

// OpenPositions returns positions that have not settled.
func (a *Account) OpenPositions() []*models.Position {
	var out []*models.Position
	for _, p := range a.Positions {
		if p.IsOpen() {
			out = append(out, p)
		}
	}
	return out
}

// SettledPositions returns positions that have been cash-settled.
func (a *Account) SettledPositions() []*models.Position {
	var out []*models.Position
	for _, p := range a.Positions {
		if p.IsSettled() {
			out = append(out, p)
		}
	}
	return out
}

// OpenPositionCount is the number of open positions.
func (a *Account) OpenPositionCount() int {
	return len(a.OpenPositions())
}

// BuyingPowerUsed is the total collateral held by open positions,
// derived from max loss and never stored.
func (a *Account) BuyingPowerUsed() float64 {
	total := 0.0
	for _, p := range a.OpenPositions() {
		total += PositionMaxLoss(p, a.multiplier)
	}
	return total
}

// BuyingPowerAvailable is balance minus collateral in use.
func (a *Account) BuyingPowerAvailable() float64 {
	avail := a.Balance - a.BuyingPowerUsed()
	if avail < 0 {
		return 0
	}
	return avail
}

// NetLiquidation equals balance; realized P&L is already reflected.
func (a *Account) NetLiquidation() float64 {
	return a.Balance
}

// AddPosition records a filled position and deducts its entry commission
// from the balance. The credit or debit itself is not realized until
// settlement.
func (a *Account) AddPosition(p *models.Position) {
	a.Positions = append(a.Positions, p)
	a.TotalCommissions += p.Commission
	a.Balance -= p.Commission
}

// BookSettlement adds a settled position's gross P&L to the balance.
// Commission was already deducted at entry, so only the gross figure
// moves the ledger.
func (a *Account) BookSettlement(grossPnL float64) {
	a.Balance += grossPnL
	a.RealizedPnL += grossPnL
}

// AccrueRiskFree adds one session of interest on buying power not tied
// up in positions. Returns the interest earned.
func (a *Account) AccrueRiskFree(dailyRate float64) float64 {
	interest := a.BuyingPowerAvailable() * dailyRate
	a.Balance += interest
	return interest
}

// Snapshot is a plain-value view of the account for participants,
// reports and persistence.
type AccountSnapshot struct {
	ParticipantID        string
	Balance              float64
	BuyingPowerUsed      float64
	BuyingPowerAvailable float64
	OpenPositions        int
	RealizedPnL          float64
	TotalCommissions     float64
	NetLiquidation       float64
	StartingCapital      float64
	ReturnPct            float64
}

// Snapshot captures the current account state as a plain value.
func (a *Account) Snapshot() AccountSnapshot {
	return AccountSnapshot{
		ParticipantID:        a.ParticipantID,
		Balance:              num.Round2(a.Balance),
		BuyingPowerUsed:      num.Round2(a.BuyingPowerUsed()),
		BuyingPowerAvailable: num.Round2(a.BuyingPowerAvailable()),
		OpenPositions:        a.OpenPositionCount(),
		RealizedPnL:          num.Round2(a.RealizedPnL),
		TotalCommissions:     num.Round2(a.TotalCommissions),
		NetLiquidation:       num.Round2(a.Balance),
		StartingCapital:      a.StartingCapital,
		ReturnPct:            num.Round2((a.Balance - a.StartingCapital) / a.StartingCapital * 100),
	}
}
