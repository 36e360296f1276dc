package orchestrator

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spxsim/internal/config"
	"spxsim/internal/market"
	"spxsim/internal/models"
	"spxsim/internal/participant"
	"spxsim/internal/store"
)

// stubProvider serves canned chains keyed by (date, phase). Missing
// entries come back as (nil, nil), the not-captured signal.
type stubProvider struct {
	chains map[string]map[string]*market.Snapshot
}

func (p *stubProvider) Snapshot(_ context.Context, date, phase string) (*market.Snapshot, error) {
	return p.chains[date][phase], nil
}

func (p *stubProvider) add(date string, openPx, closePx float64) {
	if p.chains == nil {
		p.chains = make(map[string]map[string]*market.Snapshot)
	}
	p.chains[date] = map[string]*market.Snapshot{
		market.PhaseOpen:   testChain(openPx, 14, market.PhaseOpen),
		market.PhaseMid:    testChain((openPx+closePx)/2, 14, market.PhaseMid),
		market.PhaseClose:  testChain(closePx, 14, market.PhaseClose),
		market.PhaseClose5: testChain(closePx, 14, market.PhaseClose5),
	}
}

func newScheduler(db store.Store, provider ChainProvider, sessionsPerRun int,
	participants ...participant.Participant) *Scheduler {
	cfg := config.Default()
	cfg.Simulation.SessionsPerRun = sessionsPerRun
	return NewScheduler(SchedulerConfig{
		Config:       cfg,
		Store:        db,
		Provider:     provider,
		Participants: participants,
		Logger:       zerolog.Nop(),
	})
}

func TestSchedulerRunAndResume(t *testing.T) {
	ctx := context.Background()
	db := store.NewMemoryStore()
	provider := &stubProvider{}
	dates := []string{"2026-03-02", "2026-03-03", "2026-03-04", "2026-03-05"}
	provider.add(dates[0], 6000, 6010)
	provider.add(dates[1], 6010, 6004)
	provider.add(dates[2], 6004, 6020)
	provider.add(dates[3], 6020, 6018)

	s1 := newScheduler(db, provider, 2, &scripted{id: "bot-trader", window: models.WindowOpen})
	sum1, err := s1.Run(ctx, dates)
	require.NoError(t, err)
	assert.Equal(t, 2, sum1.SessionsCompleted)
	assert.Equal(t, int64(2), sum1.TotalCompleted)
	require.Len(t, sum1.Reports, 2)
	assert.Equal(t, int64(1), sum1.Reports[0].SessionID)
	assert.Equal(t, int64(2), sum1.Reports[1].SessionID)

	balanceAfter2 := s1.Runner().Account("bot-trader").Balance

	// A fresh scheduler on the same store picks up at session 3 with the
	// account rebuilt from its latest snapshot.
	s2 := newScheduler(db, provider, 4, &scripted{id: "bot-trader", window: models.WindowOpen})
	sum2, err := s2.Run(ctx, dates)
	require.NoError(t, err)
	assert.Equal(t, 2, sum2.SessionsCompleted)
	assert.Equal(t, int64(4), sum2.TotalCompleted)
	require.Len(t, sum2.Reports, 2)
	assert.Equal(t, int64(3), sum2.Reports[0].SessionID)
	assert.Equal(t, dates[2], sum2.Reports[0].TradingDate)
	assert.NotEqual(t, balanceAfter2, 30_000.0)

	n, err := db.CountSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}

func TestSchedulerRestoresBalance(t *testing.T) {
	ctx := context.Background()
	db := store.NewMemoryStore()
	provider := &stubProvider{}
	provider.add("2026-03-02", 6000, 6010)
	provider.add("2026-03-03", 6010, 6004)

	s1 := newScheduler(db, provider, 1, participant.NewHoldCash())
	_, err := s1.Run(ctx, []string{"2026-03-02", "2026-03-03"})
	require.NoError(t, err)
	want := s1.Runner().Account("bot-hold-cash").Balance

	s2 := newScheduler(db, provider, 2, participant.NewHoldCash())
	sum, err := s2.Run(ctx, []string{"2026-03-02", "2026-03-03"})
	require.NoError(t, err)
	require.Equal(t, 1, sum.SessionsCompleted)

	// Session 2 accrued one more day of interest on top of the restored
	// balance.
	got := s2.Runner().Account("bot-hold-cash").Balance
	daily := config.Default().DailyRiskFree()
	assert.InDelta(t, want*(1+daily), got, 0.01)
}

func TestSchedulerAlreadyComplete(t *testing.T) {
	ctx := context.Background()
	db := store.NewMemoryStore()
	provider := &stubProvider{}
	provider.add("2026-03-02", 6000, 6010)

	s1 := newScheduler(db, provider, 1, participant.NewHoldCash())
	_, err := s1.Run(ctx, []string{"2026-03-02"})
	require.NoError(t, err)

	sum, err := s1.Run(ctx, []string{"2026-03-02"})
	require.NoError(t, err)
	assert.Equal(t, 0, sum.SessionsCompleted)
	assert.Equal(t, int64(1), sum.TotalCompleted)
}

func TestSchedulerSkipsDateWithMissingChain(t *testing.T) {
	ctx := context.Background()
	db := store.NewMemoryStore()
	provider := &stubProvider{}
	provider.add("2026-03-02", 6000, 6010)
	// 2026-03-03 was never captured.
	provider.add("2026-03-04", 6010, 6004)

	s := newScheduler(db, provider, 3, participant.NewHoldCash())
	sum, err := s.Run(ctx, []string{"2026-03-02", "2026-03-03", "2026-03-04"})
	require.NoError(t, err)

	// The gap date is skipped and session numbering stays contiguous.
	require.Equal(t, 2, sum.SessionsCompleted)
	assert.Equal(t, int64(1), sum.Reports[0].SessionID)
	assert.Equal(t, int64(2), sum.Reports[1].SessionID)
	assert.Equal(t, "2026-03-04", sum.Reports[1].TradingDate)
}

func TestSchedulerNoDates(t *testing.T) {
	db := store.NewMemoryStore()
	s := newScheduler(db, &stubProvider{}, 1, participant.NewHoldCash())
	_, err := s.Run(context.Background(), nil)
	assert.Error(t, err)
}
