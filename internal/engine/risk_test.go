package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spxsim/internal/config"
	"spxsim/internal/models"
)

func testValidator() *RiskValidator {
	return NewRiskValidator(config.Default().Risk, 100)
}

func TestValidateOrderPasses(t *testing.T) {
	acct := NewAccount("p", 30_000, 100)
	o := models.NewBullPutVertical("p", 6000, 5995, 1, nil, "")
	assert.Nil(t, testValidator().ValidateOrder(o, 2.00, acct))
}

func TestValidateOrderMaxConcurrent(t *testing.T) {
	acct := NewAccount("p", 30_000, 100)
	for i := int64(0); i < 3; i++ {
		o := models.NewBullPutVertical("p", 6000, 5995, 1, nil, "")
		acct.AddPosition(models.NewPositionFromOrder(o, i, 2.00, 0))
	}

	o := models.NewBullPutVertical("p", 6000, 5995, 1, nil, "")
	rej := testValidator().ValidateOrder(o, 2.00, acct)
	require.NotNil(t, rej)
	assert.Equal(t, ReasonMaxConcurrent, rej.Code)
}

func TestValidateOrderPerTradeRisk(t *testing.T) {
	acct := NewAccount("p", 30_000, 100)
	// 6 × $300 = $1800 risk against a $1500 (5%) per-trade cap.
	o := models.NewBullPutVertical("p", 6000, 5995, 6, nil, "")
	rej := testValidator().ValidateOrder(o, 2.00, acct)
	require.NotNil(t, rej)
	assert.Equal(t, ReasonPerTradeRisk, rej.Code)
}

func TestValidateOrderAccountRisk(t *testing.T) {
	acct := NewAccount("p", 30_000, 100)
	// Two open 20-wide verticals hold $1980 collateral each. Adding a
	// $1500 trade pushes the total past the $4500 (15%) aggregate cap
	// while still fitting the per-trade budget.
	for i := int64(0); i < 2; i++ {
		o := models.NewBullPutVertical("p", 6000, 5980, 1, nil, "")
		acct.AddPosition(models.NewPositionFromOrder(o, i, 0.20, 0))
	}

	o := models.NewBullPutVertical("p", 6000, 5995, 5, nil, "")
	rej := testValidator().ValidateOrder(o, 2.00, acct)
	require.NotNil(t, rej)
	assert.Equal(t, ReasonAccountRisk, rej.Code)
}

func TestValidateOrderReserve(t *testing.T) {
	// A small account where the reserve gate binds before the others.
	limits := config.RiskConfig{
		MaxConcurrentSpreads: 3,
		MaxRiskPerTradePct:   0.50,
		MaxAccountRiskPct:    0.90,
		MinReservePct:        0.90,
	}
	v := NewRiskValidator(limits, 100)
	acct := NewAccount("p", 2_000, 100)

	o := models.NewBullPutVertical("p", 6000, 5995, 1, nil, "")
	rej := v.ValidateOrder(o, 2.00, acct)
	require.NotNil(t, rej)
	assert.Equal(t, ReasonReserve, rej.Code)
}

// Invariant: once the validator approves, the trade's risk fits the
// per-trade budget.
func TestApprovedOrderWithinBudget(t *testing.T) {
	acct := NewAccount("p", 30_000, 100)
	o := models.NewIronCondor("p", 5995, 6000, 6050, 6055, 2, nil, "")
	require.Nil(t, testValidator().ValidateOrder(o, 2.10, acct))
	assert.LessOrEqual(t, MaxLoss(o, 2.10, 100), acct.Balance*0.05)
}

// An oversized order is rejected as-is; the clamp finds the largest
// affordable size instead.
func TestClampQuantity(t *testing.T) {
	acct := NewAccount("p", 30_000, 100)
	v := testValidator()

	o := models.NewBullPutVertical("p", 6000, 5995, 6, nil, "")
	require.NotNil(t, v.ValidateOrder(o, 2.00, acct))

	clamped := v.ClampQuantity(o, 2.00, acct)
	assert.Equal(t, 5, clamped)
	assert.Equal(t, 6, o.Quantity) // original untouched

	o.Quantity = clamped
	assert.Nil(t, v.ValidateOrder(o, 2.00, acct))
}

func TestClampQuantityZeroWhenNothingFits(t *testing.T) {
	acct := NewAccount("p", 1_000, 100)
	v := testValidator()
	o := models.NewBullPutVertical("p", 6000, 5995, 3, nil, "")
	assert.Equal(t, 0, v.ClampQuantity(o, 2.00, acct))
}
