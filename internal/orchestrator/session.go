// Package orchestrator drives the per-session state machine and the
// multi-session scheduler. Phases run strictly in order; participants
// inside a decision phase run in parallel on disjoint accounts.
package orchestrator

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"spxsim/internal/broker"
	"spxsim/internal/config"
	"spxsim/internal/engine"
	"spxsim/internal/market"
	"spxsim/internal/models"
	"spxsim/internal/participant"
	"spxsim/internal/report"
	"spxsim/internal/store"
)

// Scorer is the optional scoring collaborator. When nil the SCORING
// phase is skipped; the session report is produced either way.
type Scorer interface {
	ScoreSession(ctx context.Context, rep *report.SessionReport) error
}

// SessionInput carries everything one session needs. MidChain and
// Close5Chain are optional; a nil Close5Chain skips the CLOSE+5 window.
type SessionInput struct {
	SessionID   int64
	TradingDate string
	OpenChain   *market.Snapshot
	MidChain    *market.Snapshot
	CloseChain  *market.Snapshot
	Close5Chain *market.Snapshot
	PriorClose  float64 // 0 means unknown (first session)
}

// SessionRunner executes one complete dual-window session:
//
//	PRE-MARKET → settle 1DTE positions from the prior session
//	OPEN       → 0DTE decision window
//	MID        → mark open positions, observation only
//	CLOSE      → settle 0DTE positions, final marks, close the session row
//	CLOSE+5    → 1DTE decision window (skipped without a chain)
//	SCORING    → optional external scorer
//	END        → risk-free accrual, account snapshots
type SessionRunner struct {
	cfg          *config.Config
	broker       *broker.PaperBroker
	settlement   *engine.Settlement
	db           store.Store
	scorer       Scorer
	participants []participant.Participant
	accounts     map[string]*engine.Account
	logger       zerolog.Logger
}

// SessionRunnerConfig holds construction parameters for a SessionRunner.
type SessionRunnerConfig struct {
	Config       *config.Config
	Store        store.Store
	Participants []participant.Participant
	Scorer       Scorer // optional
	Logger       zerolog.Logger
}

// NewSessionRunner creates a runner with fresh accounts for every
// participant. Use RestoreAccounts before the first session to resume
// from persisted state.
func NewSessionRunner(cfg SessionRunnerConfig) *SessionRunner {
	r := &SessionRunner{
		cfg:          cfg.Config,
		broker:       broker.NewPaperBroker(broker.PaperBrokerConfig{Config: cfg.Config, Logger: cfg.Logger}),
		settlement:   engine.NewSettlement(cfg.Config.Simulation.Multiplier),
		db:           cfg.Store,
		scorer:       cfg.Scorer,
		participants: cfg.Participants,
		accounts:     make(map[string]*engine.Account),
		logger:       cfg.Logger.With().Str("component", "session_runner").Logger(),
	}
	for _, p := range cfg.Participants {
		r.accounts[p.ID()] = engine.NewAccount(p.ID(),
			cfg.Config.Simulation.StartingCapital, cfg.Config.Simulation.Multiplier)
	}
	return r
}

// Account returns the ledger for one participant, or nil if unknown.
func (r *SessionRunner) Account(participantID string) *engine.Account {
	return r.accounts[participantID]
}

// RestoreAccounts rebuilds every participant's ledger from the latest
// persisted snapshot and the still-open positions. Participants without
// a snapshot keep their fresh starting-capital account.
func (r *SessionRunner) RestoreAccounts(ctx context.Context) error {
	for _, p := range r.participants {
		id := p.ID()
		snap, err := r.db.LatestAccountSnapshot(ctx, id)
		if err != nil {
			return fmt.Errorf("restore %s: %w", id, err)
		}
		if snap == nil {
			continue
		}
		acct := r.accounts[id]
		acct.Balance = snap.Balance
		acct.RealizedPnL = snap.RealizedPnL
		acct.TotalCommissions = snap.TotalCommissions

		open, err := r.db.OpenPositions(ctx, id)
		if err != nil {
			return fmt.Errorf("restore %s positions: %w", id, err)
		}
		acct.Positions = open

		r.logger.Info().
			Str("participant", id).
			Float64("balance", snap.Balance).
			Int("open_positions", len(open)).
			Msg("account restored")
	}
	return nil
}

// RunSession executes the full phase machine for one trading date and
// returns the session report. Participant-level failures are isolated;
// only store failures abort the session.
//
// The close row stamped at CLOSE is the recovery boundary: a resumed
// run treats this session as done from that point, so a crash during
// CLOSE+5, scoring or END skips those phases for this session and the
// next snapshot simply carries forward.
func (r *SessionRunner) RunSession(ctx context.Context, in SessionInput) (*report.SessionReport, error) {
	if in.OpenChain == nil || in.CloseChain == nil {
		return nil, fmt.Errorf("session %d: open and close chains are required", in.SessionID)
	}

	rep := &report.SessionReport{
		SessionID:    in.SessionID,
		TradingDate:  in.TradingDate,
		IndexOpen:    in.OpenChain.UnderlyingPrice,
		VIXOpen:      in.OpenChain.VIX,
		Participants: make(map[string]*report.ParticipantSummary),
	}
	for _, p := range r.participants {
		rep.Participants[p.ID()] = &report.ParticipantSummary{ParticipantID: p.ID()}
	}

	r.logger.Info().
		Int64("session", in.SessionID).
		Str("date", in.TradingDate).
		Float64("index_open", in.OpenChain.UnderlyingPrice).
		Float64("vix_open", in.OpenChain.VIX).
		Msg("session starting")

	// PRE-MARKET: 1DTE settlement must complete before any OPEN fill,
	// because it changes the buying power the risk gates consult.
	if in.PriorClose > 0 {
		if err := r.settlePhase(ctx, in.SessionID, in.PriorClose, rep, r.settlement.SettleOneDTE); err != nil {
			return nil, err
		}
	}

	if err := r.db.InsertSession(ctx, store.SessionRecord{
		ID:          in.SessionID,
		TradingDate: in.TradingDate,
		IndexOpen:   in.OpenChain.UnderlyingPrice,
		VIXOpen:     in.OpenChain.VIX,
	}); err != nil {
		return nil, fmt.Errorf("insert session %d: %w", in.SessionID, err)
	}

	// OPEN: 0DTE decisions.
	if err := r.decisionWindow(ctx, in, in.OpenChain, models.WindowOpen, 0, rep); err != nil {
		return nil, err
	}

	// MID: observation-only marks.
	if in.MidChain != nil {
		if err := r.markPhase(ctx, in.SessionID, in.MidChain, "mid"); err != nil {
			return nil, err
		}
	}

	// CLOSE: settle today's 0DTE positions at the official close, then
	// final marks and the session close row.
	indexClose := in.CloseChain.UnderlyingPrice
	if err := r.settlePhase(ctx, in.SessionID, indexClose, rep, r.settlement.SettleZeroDTE); err != nil {
		return nil, err
	}
	if err := r.markPhase(ctx, in.SessionID, in.CloseChain, "close"); err != nil {
		return nil, err
	}
	intradayRange := indexClose - in.OpenChain.UnderlyingPrice
	if intradayRange < 0 {
		intradayRange = -intradayRange
	}
	if err := r.db.UpdateSessionClose(ctx, in.SessionID, indexClose, in.CloseChain.VIX, intradayRange); err != nil {
		return nil, fmt.Errorf("close session %d: %w", in.SessionID, err)
	}
	rep.IndexClose = indexClose
	rep.VIXClose = in.CloseChain.VIX

	// CLOSE+5: 1DTE decisions, skipped when no chain was captured.
	if in.Close5Chain != nil {
		if err := r.decisionWindow(ctx, in, in.Close5Chain, models.WindowClose5, 1, rep); err != nil {
			return nil, err
		}
	} else {
		r.logger.Warn().Int64("session", in.SessionID).Msg("no close+5 chain, 1DTE window skipped")
	}

	// SCORING: the report exists whether or not a scorer does. A scorer
	// failure is logged, never fatal.
	if r.scorer != nil {
		if err := r.scorer.ScoreSession(ctx, rep); err != nil {
			r.logger.Error().Err(err).Int64("session", in.SessionID).Msg("scoring failed")
		}
	}

	// END: interest on idle buying power, then durable snapshots.
	daily := r.cfg.DailyRiskFree()
	for _, p := range r.participants {
		acct := r.accounts[p.ID()]
		acct.AccrueRiskFree(daily)
		snap := acct.Snapshot()
		if err := r.db.SaveAccountSnapshot(ctx, in.SessionID, snap); err != nil {
			return nil, fmt.Errorf("snapshot %s: %w", p.ID(), err)
		}
		rep.Participants[p.ID()].Account = snap
	}

	r.logger.Info().Int64("session", in.SessionID).Msg("session complete")
	return rep, nil
}

// settleFn is either SettleZeroDTE or SettleOneDTE.
type settleFn func(acct *engine.Account, sessionID int64, settlePrice float64) []*models.Position

func (r *SessionRunner) settlePhase(ctx context.Context, sessionID int64,
	settlePrice float64, rep *report.SessionReport, settle settleFn) error {

	for _, p := range r.participants {
		acct := r.accounts[p.ID()]
		for _, pos := range settle(acct, sessionID, settlePrice) {
			if err := r.db.UpdatePositionSettlement(ctx, pos); err != nil {
				return fmt.Errorf("settle %s: %w", pos.ID, err)
			}
			r.logger.Info().
				Str("participant", p.ID()).
				Str("position", pos.ID).
				Str("structure", string(pos.Structure)).
				Int("dte", pos.DTEAtEntry).
				Float64("realized_pnl", *pos.RealizedPnL).
				Msg("position settled")
			rep.Participants[p.ID()].Settlements = append(rep.Participants[p.ID()].Settlements,
				report.SettlementResult{
					PositionID:      pos.ID,
					Structure:       pos.Structure,
					Window:          pos.Window,
					SettlementPrice: settlePrice,
					RealizedPnL:     *pos.RealizedPnL,
				})
		}
	}
	return nil
}

// decisionWindow runs every participant's decide→submit→persist
// sequence for one window. Participants run in parallel when configured;
// each owns a disjoint account and a derived RNG stream, so ordering
// between them is irrelevant. A panic inside one participant's Decide is
// contained and recorded as a hold.
func (r *SessionRunner) decisionWindow(ctx context.Context, in SessionInput,
	chain *market.Snapshot, window models.Window, dte int, rep *report.SessionReport) error {

	var mu sync.Mutex // guards rep writes across participants
	g, gctx := errgroup.WithContext(ctx)
	if !r.cfg.Simulation.ParallelDecision {
		g.SetLimit(1)
	}

	for _, p := range r.participants {
		p := p
		g.Go(func() error {
			res, err := r.runParticipant(gctx, p, in, chain, window, dte)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			if window == models.WindowOpen {
				rep.Participants[p.ID()].Open = res
			} else {
				rep.Participants[p.ID()].Close5 = res
			}
			return nil
		})
	}
	return g.Wait()
}

func (r *SessionRunner) runParticipant(ctx context.Context, p participant.Participant,
	in SessionInput, chain *market.Snapshot, window models.Window, dte int) (*report.WindowResult, error) {

	acct := r.accounts[p.ID()]
	res := &report.WindowResult{
		ParticipantID: p.ID(),
		Window:        window,
		DTE:           dte,
		Action:        "hold",
	}

	order := r.safeDecide(p, chain, acct, participant.DecideContext{
		SessionID:  in.SessionID,
		Window:     window,
		DTE:        dte,
		PriorClose: in.PriorClose,
	})
	if order == nil {
		r.logger.Info().
			Str("participant", p.ID()).
			Str("window", string(window)).
			Msg("hold")
		return res, nil
	}

	// Stamp window coordinates before submission.
	order.Window = window
	order.DTEAtEntry = dte
	if exp := chain.FrontExpiration(); !exp.IsZero() {
		order.Expiration = exp.Format("2006-01-02")
	}

	res.Action = "trade"
	res.Structure = order.Structure
	res.Quantity = order.Quantity
	res.Thesis = order.Thesis
	for _, leg := range order.Legs {
		res.Strikes = append(res.Strikes, leg.Strike)
	}

	fill := r.broker.SubmitOrder(order, acct, chain, broker.RunContext{
		SessionID:       in.SessionID,
		Window:          window,
		IntradayMovePts: chain.IntradayMove(),
	})

	if err := r.db.InsertOrder(ctx, order, in.SessionID, fill.SlippageApplied); err != nil {
		return nil, fmt.Errorf("insert order %s: %w", order.ID, err)
	}
	if fill.Filled && fill.Position != nil {
		if err := r.db.InsertPosition(ctx, fill.Position); err != nil {
			return nil, fmt.Errorf("insert position %s: %w", fill.Position.ID, err)
		}
	}

	res.Filled = fill.Filled
	res.FillPrice = fill.FillPrice
	res.Commission = fill.Commission
	res.Slippage = fill.SlippageApplied
	res.RejectionReason = fill.RejectionReason
	return res, nil
}

// safeDecide contains panics from participant code so one misbehaving
// strategy cannot take down the session for everyone else.
func (r *SessionRunner) safeDecide(p participant.Participant, chain *market.Snapshot,
	acct *engine.Account, dctx participant.DecideContext) (order *models.Order) {

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error().
				Str("participant", p.ID()).
				Str("window", string(dctx.Window)).
				Interface("panic", rec).
				Msg("participant decide panicked, treating as hold")
			order = nil
		}
	}()
	return p.Decide(chain, acct, dctx)
}

// markPhase writes an observation mark for every open position that has
// a complete spread NBBO. Positions with missing leg quotes are skipped.
func (r *SessionRunner) markPhase(ctx context.Context, sessionID int64,
	chain *market.Snapshot, phase string) error {

	mult := r.cfg.Simulation.Multiplier
	for _, p := range r.participants {
		acct := r.accounts[p.ID()]
		for _, pos := range acct.OpenPositions() {
			_, _, mid, ok := engine.SpreadNBBO(pos.Legs, chain)
			if !ok {
				continue
			}
			unrealized := engine.MarkPosition(pos.EntryPrice, mid, pos.Side, pos.Quantity, mult)
			if err := r.db.InsertPositionMark(ctx, pos.ID, sessionID, phase, mid, unrealized); err != nil {
				return fmt.Errorf("mark %s: %w", pos.ID, err)
			}
		}
	}
	return nil
}
