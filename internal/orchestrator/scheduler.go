package orchestrator

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"spxsim/internal/config"
	"spxsim/internal/market"
	"spxsim/internal/participant"
	"spxsim/internal/report"
	"spxsim/internal/store"
)

// ChainProvider supplies chain snapshots for a trading date and phase.
// A (nil, nil) return means the snapshot was not captured; the scheduler
// skips what it can and errors only when a required chain is missing.
type ChainProvider interface {
	Snapshot(ctx context.Context, tradingDate, phase string) (*market.Snapshot, error)
}

// RunSummary reports what one scheduler invocation accomplished.
type RunSummary struct {
	SessionsCompleted int
	TotalCompleted    int64
	Reports           []*report.SessionReport
}

// Scheduler runs sessions across a sequence of trading dates with
// pause/resume. All progress state lives in the store: on start the
// scheduler counts completed sessions, restores accounts from their
// latest snapshots, and picks up from the next date.
type Scheduler struct {
	cfg         *config.Config
	db          store.Store
	provider    ChainProvider
	runner      *SessionRunner
	maxSessions int
	logger      zerolog.Logger
}

// SchedulerConfig holds construction parameters for a Scheduler.
type SchedulerConfig struct {
	Config       *config.Config
	Store        store.Store
	Provider     ChainProvider
	Participants []participant.Participant
	Scorer       Scorer // optional
	Logger       zerolog.Logger
}

// NewScheduler creates a scheduler and its session runner.
func NewScheduler(cfg SchedulerConfig) *Scheduler {
	return &Scheduler{
		cfg:      cfg.Config,
		db:       cfg.Store,
		provider: cfg.Provider,
		runner: NewSessionRunner(SessionRunnerConfig{
			Config:       cfg.Config,
			Store:        cfg.Store,
			Participants: cfg.Participants,
			Scorer:       cfg.Scorer,
			Logger:       cfg.Logger,
		}),
		maxSessions: cfg.Config.Simulation.SessionsPerRun,
		logger:      cfg.Logger.With().Str("component", "scheduler").Logger(),
	}
}

// Runner exposes the underlying session runner, mainly for inspection
// after a run.
func (s *Scheduler) Runner() *SessionRunner {
	return s.runner
}

// Run executes sessions over the trading dates until either the date
// list or the session budget is exhausted. Dates already consumed by
// completed sessions are skipped, so re-invoking after a crash resumes
// instead of replaying.
func (s *Scheduler) Run(ctx context.Context, tradingDates []string) (*RunSummary, error) {
	if len(tradingDates) == 0 {
		return nil, fmt.Errorf("no trading dates provided")
	}

	completed, err := s.db.CountSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("count sessions: %w", err)
	}
	remaining := int64(s.maxSessions) - completed
	if remaining <= 0 {
		s.logger.Info().
			Int64("completed", completed).
			Int("max_sessions", s.maxSessions).
			Msg("run already complete")
		return &RunSummary{TotalCompleted: completed}, nil
	}

	if err := s.runner.RestoreAccounts(ctx); err != nil {
		return nil, err
	}

	// The prior close seeds the first session's 1DTE settlement. On a
	// fresh run there is none and PRE-MARKET is a no-op.
	priorClose := 0.0
	if last, err := s.db.LastSession(ctx); err != nil {
		return nil, fmt.Errorf("last session: %w", err)
	} else if last != nil {
		priorClose = last.IndexClose
	}

	s.logger.Info().
		Int64("completed", completed).
		Int64("starting_session", completed+1).
		Int64("remaining", remaining).
		Msg("scheduler starting")

	summary := &RunSummary{}
	dateIdx := int(completed)

	for int64(summary.SessionsCompleted) < remaining && dateIdx < len(tradingDates) {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		tradingDate := tradingDates[dateIdx]
		dateIdx++

		in, err := s.loadSession(ctx, tradingDate)
		if err != nil {
			return summary, err
		}
		if in == nil {
			s.logger.Error().Str("date", tradingDate).Msg("missing open or close chain, date skipped")
			continue
		}
		in.SessionID = completed + int64(summary.SessionsCompleted) + 1
		in.PriorClose = priorClose

		rep, err := s.runner.RunSession(ctx, *in)
		if err != nil {
			return summary, fmt.Errorf("session %d (%s): %w", in.SessionID, tradingDate, err)
		}

		summary.SessionsCompleted++
		summary.Reports = append(summary.Reports, rep)
		priorClose = rep.IndexClose

		s.logger.Info().
			Int64("session", in.SessionID).
			Str("date", tradingDate).
			Float64("index_open", rep.IndexOpen).
			Float64("index_close", rep.IndexClose).
			Msg("session finished")
	}

	summary.TotalCompleted = completed + int64(summary.SessionsCompleted)
	return summary, nil
}

// loadSession fetches the four phase chains for one date. Returns nil
// when a required chain (open or close) is unavailable.
func (s *Scheduler) loadSession(ctx context.Context, tradingDate string) (*SessionInput, error) {
	open, err := s.provider.Snapshot(ctx, tradingDate, market.PhaseOpen)
	if err != nil {
		return nil, fmt.Errorf("load %s open chain: %w", tradingDate, err)
	}
	closeChain, err := s.provider.Snapshot(ctx, tradingDate, market.PhaseClose)
	if err != nil {
		return nil, fmt.Errorf("load %s close chain: %w", tradingDate, err)
	}
	if open == nil || closeChain == nil {
		return nil, nil
	}

	mid, err := s.provider.Snapshot(ctx, tradingDate, market.PhaseMid)
	if err != nil {
		return nil, fmt.Errorf("load %s mid chain: %w", tradingDate, err)
	}
	close5, err := s.provider.Snapshot(ctx, tradingDate, market.PhaseClose5)
	if err != nil {
		return nil, fmt.Errorf("load %s close5 chain: %w", tradingDate, err)
	}

	return &SessionInput{
		TradingDate: tradingDate,
		OpenChain:   open,
		MidChain:    mid,
		CloseChain:  closeChain,
		Close5Chain: close5,
	}, nil
}
