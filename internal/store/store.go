// Package store provides persistence interfaces and implementations for
// the simulation. Every write is an idempotent upsert so a resumed run
// can safely replay the tail of an interrupted session.
package store

import (
	"context"

	"spxsim/internal/engine"
	"spxsim/internal/models"
)

// SessionRecord is one trading session's row.
type SessionRecord struct {
	ID            int64
	TradingDate   string // ISO date
	IndexOpen     float64
	VIXOpen       float64
	IndexClose    float64
	VIXClose      float64
	IntradayRange float64
}

// LeaderboardRow summarizes one participant's standing.
type LeaderboardRow struct {
	ParticipantID string
	Balance       float64
	RealizedPnL   float64
	ReturnPct     float64
	Sessions      int64
}

// Store defines the persistence boundary of the orchestrator.
type Store interface {
	// Sessions. A session counts as completed once its close row is
	// stamped; that is the resume boundary, so a crash between CLOSE and
	// END leaves the CLOSE+5/scoring/snapshot tail of that session
	// unreplayed.
	InsertSession(ctx context.Context, rec SessionRecord) error
	UpdateSessionClose(ctx context.Context, sessionID int64, indexClose, vixClose, intradayRange float64) error
	CountSessions(ctx context.Context) (int64, error)
	LastSession(ctx context.Context) (*SessionRecord, error)

	// Orders and positions
	InsertOrder(ctx context.Context, o *models.Order, sessionID int64, slippage float64) error
	InsertPosition(ctx context.Context, p *models.Position) error
	UpdatePositionSettlement(ctx context.Context, p *models.Position) error
	InsertPositionMark(ctx context.Context, positionID string, sessionID int64, phase string, mark, unrealizedPnL float64) error
	OpenPositions(ctx context.Context, participantID string) ([]*models.Position, error)

	// Account snapshots
	SaveAccountSnapshot(ctx context.Context, sessionID int64, snap engine.AccountSnapshot) error
	LatestAccountSnapshot(ctx context.Context, participantID string) (*engine.AccountSnapshot, error)

	// Reporting
	Leaderboard(ctx context.Context) ([]LeaderboardRow, error)

	// Lifecycle
	Close() error
}
