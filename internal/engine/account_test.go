package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"spxsim/internal/models"
)

// Balance-after-fill law: opening a position moves the balance only by
// the commission. The credit or debit is not realized until settlement.
func TestAddPositionDeductsOnlyCommission(t *testing.T) {
	acct := NewAccount("p", 30_000, 100)
	o := models.NewBullPutVertical("p", 6000, 5995, 1, nil, "")
	p := models.NewPositionFromOrder(o, 1, 2.00, 1.38)

	acct.AddPosition(p)
	assert.InDelta(t, 30_000-1.38, acct.Balance, 1e-9)
	assert.InDelta(t, 1.38, acct.TotalCommissions, 1e-9)
	assert.Equal(t, 0.0, acct.RealizedPnL)
	assert.Equal(t, 1, acct.OpenPositionCount())
}

func TestBuyingPowerTracksOpenCollateral(t *testing.T) {
	acct := NewAccount("p", 30_000, 100)
	o := models.NewBullPutVertical("p", 6000, 5995, 1, nil, "")
	p := models.NewPositionFromOrder(o, 1, 2.00, 1.38)
	acct.AddPosition(p)

	assert.InDelta(t, 300.0, acct.BuyingPowerUsed(), 1e-9)
	assert.InDelta(t, acct.Balance-300.0, acct.BuyingPowerAvailable(), 1e-9)

	NewSettlement(100).SettleZeroDTE(acct, 1, 6010)
	assert.Equal(t, 0.0, acct.BuyingPowerUsed())
}

func TestAccrueRiskFree(t *testing.T) {
	acct := NewAccount("p", 30_000, 100)
	daily := 0.053 / 252
	interest := acct.AccrueRiskFree(daily)
	assert.InDelta(t, 30_000*daily, interest, 1e-9)
	assert.InDelta(t, 30_000+interest, acct.Balance, 1e-9)
}

func TestAccrueRiskFreeExcludesCollateral(t *testing.T) {
	acct := NewAccount("p", 30_000, 100)
	o := models.NewBullPutVertical("p", 6000, 5995, 1, nil, "")
	acct.AddPosition(models.NewPositionFromOrder(o, 1, 2.00, 0))

	daily := 0.053 / 252
	interest := acct.AccrueRiskFree(daily)
	assert.InDelta(t, (30_000-300)*daily, interest, 1e-9)
}

func TestSnapshotRoundsValues(t *testing.T) {
	acct := NewAccount("p", 30_000, 100)
	acct.Balance = 30_123.456789
	snap := acct.Snapshot()
	assert.Equal(t, 30_123.46, snap.Balance)
	assert.Equal(t, "p", snap.ParticipantID)
	assert.Equal(t, 30_000.0, snap.StartingCapital)
}
