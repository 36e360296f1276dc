package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spxsim/internal/models"
)

func openPosition(t *testing.T, acct *Account, session int64, dte int, entry float64) *models.Position {
	t.Helper()
	o := models.NewBullPutVertical(acct.ParticipantID, 6000, 5995, 1, nil, "")
	o.Window = models.WindowOpen
	o.DTEAtEntry = dte
	p := models.NewPositionFromOrder(o, session, entry, 1.38)
	acct.AddPosition(p)
	return p
}

func TestSettleZeroDTE(t *testing.T) {
	acct := NewAccount("p", 30_000, 100)
	pos := openPosition(t, acct, 5, 0, 2.00)
	balanceBefore := acct.Balance

	s := NewSettlement(100)
	settled := s.SettleZeroDTE(acct, 5, 6010)
	require.Len(t, settled, 1)
	require.True(t, pos.IsSettled())

	// Position books net of entry commission; the balance receives only
	// the gross figure because the commission came out at entry.
	assert.InDelta(t, 200.0-1.38, *pos.RealizedPnL, 1e-9)
	assert.InDelta(t, balanceBefore+200.0, acct.Balance, 1e-9)
	assert.Equal(t, int64(5), *pos.SessionSettled)
	assert.Equal(t, 6010.0, *pos.SettlementPrice)
	assert.Equal(t, models.SettlementOfficialClose, pos.SettlementSource)
}

func TestSettleZeroDTESkipsPriorSessions(t *testing.T) {
	acct := NewAccount("p", 30_000, 100)
	pos := openPosition(t, acct, 4, 0, 2.00)

	s := NewSettlement(100)
	settled := s.SettleZeroDTE(acct, 5, 6010)
	assert.Empty(t, settled)
	assert.True(t, pos.IsOpen())
}

func TestSettleOneDTE(t *testing.T) {
	acct := NewAccount("p", 30_000, 100)
	carried := openPosition(t, acct, 4, 1, 2.00)
	today := openPosition(t, acct, 5, 1, 1.50)

	s := NewSettlement(100)
	settled := s.SettleOneDTE(acct, 5, 6010)
	require.Len(t, settled, 1)
	assert.True(t, carried.IsSettled())
	// A 1DTE position opened this session is not yet expired.
	assert.True(t, today.IsOpen())
}

func TestSettlementIdempotent(t *testing.T) {
	acct := NewAccount("p", 30_000, 100)
	openPosition(t, acct, 5, 0, 2.00)

	s := NewSettlement(100)
	first := s.SettleZeroDTE(acct, 5, 6010)
	require.Len(t, first, 1)

	balance := acct.Balance
	realized := acct.RealizedPnL

	// Re-invoking after a crash must be a harmless no-op.
	second := s.SettleZeroDTE(acct, 5, 6010)
	assert.Empty(t, second)
	assert.Equal(t, balance, acct.Balance)
	assert.Equal(t, realized, acct.RealizedPnL)
}

// Round-trip law: the stored realized P&L can always be recomputed from
// the position's immutable entry fields.
func TestSettlementRoundTrip(t *testing.T) {
	acct := NewAccount("p", 30_000, 100)
	o := models.NewIronCondor("p", 5995, 6000, 6050, 6055, 2, nil, "")
	o.DTEAtEntry = 0
	p := models.NewPositionFromOrder(o, 5, 2.10, 5.52)
	acct.AddPosition(p)

	s := NewSettlement(100)
	require.Len(t, s.SettleZeroDTE(acct, 5, 5997), 1)

	gross := SettlementPnL(p.EntryPrice, p.Side, p.Legs, *p.SettlementPrice, p.Quantity, 100)
	assert.InDelta(t, gross-p.Commission, *p.RealizedPnL, 1e-9)
}
