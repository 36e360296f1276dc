package broker

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spxsim/internal/config"
	"spxsim/internal/engine"
	"spxsim/internal/market"
	"spxsim/internal/models"
)

func testBroker() *PaperBroker {
	return NewPaperBroker(PaperBrokerConfig{
		Config: config.Default(),
		Logger: zerolog.Nop(),
	})
}

// flatChain quotes every strike identically, so any two-leg spread has
// a negative composite bid.
func flatChain() *market.Snapshot {
	snap := &market.Snapshot{
		Phase:           market.PhaseOpen,
		UnderlyingPrice: 6000,
		Symbol:          "SPX",
		VIX:             14,
		Contracts:       make(map[market.ChainKey]*market.Contract),
		SessionOpen:     6000,
	}
	for k := 5900.0; k <= 6100; k += 5 {
		snap.Strikes = append(snap.Strikes, k)
		for _, t := range []models.OptionType{models.Call, models.Put} {
			snap.Contracts[market.ChainKey{Strike: k, Type: t}] = &market.Contract{
				Strike:   k,
				Type:     t,
				Bid:      1.20,
				Ask:      1.40,
				HasQuote: true,
			}
		}
	}
	return snap
}

func run(session int64) RunContext {
	return RunContext{SessionID: session, Window: models.WindowOpen}
}

func TestSubmitOrderFillsCreditSpread(t *testing.T) {
	b := testBroker()
	acct := engine.NewAccount("p", 30_000, 100)
	o := models.NewBullPutVertical("p", 5980, 5975, 1, nil, "")

	fill := b.SubmitOrder(o, acct, skewedChain(), run(1))
	require.True(t, fill.Filled)
	assert.Greater(t, fill.FillPrice, 0.0)
	assert.Equal(t, models.OrderFilled, o.Status)
	require.NotNil(t, fill.Position)
	assert.Equal(t, fill.FillPrice, fill.Position.EntryPrice)
}

func TestCreditFillFloorsAtOneCent(t *testing.T) {
	b := testBroker()
	acct := engine.NewAccount("p", 30_000, 100)
	// A flat chain gives this spread a negative NBBO bid; the fill is
	// floored at the minimum tick instead of going negative.
	o := models.NewBullPutVertical("p", 6000, 5995, 1, nil, "")

	fill := b.SubmitOrder(o, acct, flatChain(), run(1))
	require.True(t, fill.Filled)
	assert.Equal(t, 0.01, fill.FillPrice)
}

func TestWindowCapSecondOrderRejected(t *testing.T) {
	b := testBroker()
	acct := engine.NewAccount("p", 30_000, 100)
	chain := skewedChain()

	first := b.SubmitOrder(models.NewBullPutVertical("p", 5980, 5975, 1, nil, ""), acct, chain, run(1))
	require.True(t, first.Filled)

	second := b.SubmitOrder(models.NewBearCallVertical("p", 6020, 6025, 1, nil, ""), acct, chain, run(1))
	assert.False(t, second.Filled)
	assert.Contains(t, second.RejectionReason, "already filled")
	assert.Equal(t, 1, acct.OpenPositionCount())
}

func TestWindowCapIsPerWindow(t *testing.T) {
	b := testBroker()
	acct := engine.NewAccount("p", 30_000, 100)
	chain := skewedChain()

	open := b.SubmitOrder(models.NewBullPutVertical("p", 5980, 5975, 1, nil, ""), acct, chain, run(1))
	require.True(t, open.Filled)

	close5 := b.SubmitOrder(models.NewBullPutVertical("p", 5980, 5975, 1, nil, ""), acct, chain,
		RunContext{SessionID: 1, Window: models.WindowClose5})
	assert.True(t, close5.Filled)
	assert.Equal(t, 2, acct.OpenPositionCount())
}

func TestDeterministicFills(t *testing.T) {
	chain := skewedChain()
	var prices [2]float64
	for i := 0; i < 2; i++ {
		b := testBroker()
		acct := engine.NewAccount("p", 30_000, 100)
		fill := b.SubmitOrder(models.NewBullPutVertical("p", 5980, 5975, 1, nil, ""), acct, chain, run(3))
		require.True(t, fill.Filled)
		prices[i] = fill.FillPrice
	}
	assert.Equal(t, prices[0], prices[1])
}

// A participant's slippage stream depends only on the (seed, session,
// window, participant) key, never on who else traded first.
func TestSlippageIndependentOfSubmissionOrder(t *testing.T) {
	chain := skewedChain()

	b1 := testBroker()
	alone := b1.SubmitOrder(models.NewBullPutVertical("p1", 5980, 5975, 1, nil, ""),
		engine.NewAccount("p1", 30_000, 100), chain, run(3))
	require.True(t, alone.Filled)

	b2 := testBroker()
	_ = b2.SubmitOrder(models.NewBullPutVertical("p2", 5980, 5975, 1, nil, ""),
		engine.NewAccount("p2", 30_000, 100), chain, run(3))
	after := b2.SubmitOrder(models.NewBullPutVertical("p1", 5980, 5975, 1, nil, ""),
		engine.NewAccount("p1", 30_000, 100), chain, run(3))
	require.True(t, after.Filled)

	assert.Equal(t, alone.FillPrice, after.FillPrice)
	assert.Equal(t, alone.SlippageApplied, after.SlippageApplied)
}

func TestLimitNotAchievableRejected(t *testing.T) {
	b := testBroker()
	acct := engine.NewAccount("p", 30_000, 100)
	limit := 99.0 // no credit spread fills this
	o := models.NewBullPutVertical("p", 5980, 5975, 1, &limit, "")

	fill := b.SubmitOrder(o, acct, skewedChain(), run(1))
	assert.False(t, fill.Filled)
	assert.Contains(t, fill.RejectionReason, "limit")
	assert.Equal(t, models.OrderRejected, o.Status)
	assert.Equal(t, 0, acct.OpenPositionCount())
}

func TestMissingQuoteRejected(t *testing.T) {
	b := testBroker()
	acct := engine.NewAccount("p", 30_000, 100)
	// 5002.5 is not on the chain grid.
	o := models.NewBullPutVertical("p", 5002.5, 4997.5, 1, nil, "")

	fill := b.SubmitOrder(o, acct, skewedChain(), run(1))
	assert.False(t, fill.Filled)
	assert.Contains(t, fill.RejectionReason, "missing quotes")
}

func TestShapeValidationBeforePricing(t *testing.T) {
	b := testBroker()
	acct := engine.NewAccount("p", 30_000, 100)
	// Zero-width vertical never reaches pricing.
	o := models.NewBullPutVertical("p", 6000, 6000, 1, nil, "")

	fill := b.SubmitOrder(o, acct, skewedChain(), run(1))
	assert.False(t, fill.Filled)
	assert.NotEmpty(t, fill.RejectionReason)
}

func TestRiskRejectionLeavesAccountUntouched(t *testing.T) {
	b := testBroker()
	acct := engine.NewAccount("p", 30_000, 100)
	balance := acct.Balance

	// 20 lots of a 5-wide credit spread blows through the per-trade cap.
	o := models.NewBullPutVertical("p", 5980, 5975, 20, nil, "")
	fill := b.SubmitOrder(o, acct, skewedChain(), run(1))
	assert.False(t, fill.Filled)
	assert.Equal(t, balance, acct.Balance)
	assert.Equal(t, 0, acct.OpenPositionCount())
}

func TestFillDeductsCommissionOnly(t *testing.T) {
	b := testBroker()
	acct := engine.NewAccount("p", 30_000, 100)

	fill := b.SubmitOrder(models.NewBullPutVertical("p", 5980, 5975, 1, nil, ""), acct, skewedChain(), run(1))
	require.True(t, fill.Filled)
	assert.InDelta(t, 30_000-fill.Commission, acct.Balance, 1e-9)
	assert.InDelta(t, 1.38, fill.Commission, 1e-9)
}

// skewedChain prices OTM strikes cheaper than ATM so that real credit
// spreads have a positive NBBO bid.
func skewedChain() *market.Snapshot {
	snap := &market.Snapshot{
		Phase:           market.PhaseOpen,
		UnderlyingPrice: 6000,
		Symbol:          "SPX",
		VIX:             14,
		Contracts:       make(map[market.ChainKey]*market.Contract),
		SessionOpen:     6000,
	}
	for k := 5900.0; k <= 6100; k += 5 {
		snap.Strikes = append(snap.Strikes, k)
		for _, typ := range []models.OptionType{models.Call, models.Put} {
			// Positive dist means out of the money.
			dist := k - snap.UnderlyingPrice
			if typ == models.Put {
				dist = -dist
			}
			mid := 3.0
			if dist > 0 {
				// Decay 40 cents per 5 points OTM, floored.
				mid -= dist * 0.08
				if mid < 0.15 {
					mid = 0.15
				}
			} else {
				mid += -dist // ITM carries intrinsic
			}
			snap.Contracts[market.ChainKey{Strike: k, Type: typ}] = &market.Contract{
				Strike:   k,
				Type:     typ,
				Bid:      mid - 0.05,
				Ask:      mid + 0.05,
				HasQuote: true,
			}
		}
	}
	return snap
}
