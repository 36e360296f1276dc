// Package report builds plain-value session summaries. These are the
// structured outputs handed to the optional scoring collaborator and
// the leaderboard view; nothing here depends on a scorer existing.
package report

import (
	"fmt"
	"strings"

	"spxsim/internal/engine"
	"spxsim/internal/models"
	"spxsim/internal/store"
)

// WindowResult summarizes one participant's action in one decision
// window.
type WindowResult struct {
	ParticipantID   string
	Window          models.Window
	DTE             int
	Action          string // "hold" or "trade"
	Structure       models.StructureType
	Strikes         []float64
	Quantity        int
	Thesis          string
	Filled          bool
	FillPrice       float64
	Commission      float64
	Slippage        float64
	RejectionReason string
}

// SettlementResult summarizes one settled position.
type SettlementResult struct {
	PositionID      string
	Structure       models.StructureType
	Window          models.Window
	SettlementPrice float64
	RealizedPnL     float64
}

// ParticipantSummary is everything a scorer needs about one participant
// in one session.
type ParticipantSummary struct {
	ParticipantID string
	Open          *WindowResult
	Close5        *WindowResult
	Settlements   []SettlementResult
	Account       engine.AccountSnapshot
}

// SessionReport is the full per-session output value.
type SessionReport struct {
	SessionID    int64
	TradingDate  string
	IndexOpen    float64
	IndexClose   float64
	VIXOpen      float64
	VIXClose     float64
	Participants map[string]*ParticipantSummary
}

// DecisionText renders the participant's two-window decision summary as
// one line of text.
func (p *ParticipantSummary) DecisionText() string {
	var parts []string
	windows := []struct {
		label string
		r     *WindowResult
	}{{"OPEN/0DTE", p.Open}, {"CLOSE+5/1DTE", p.Close5}}
	for _, w := range windows {
		r := w.r
		label := w.label
		if r == nil {
			continue
		}
		switch {
		case r.Action == "trade" && r.Filled:
			parts = append(parts, fmt.Sprintf("%s: %s @ $%.2f", label, r.Structure, r.FillPrice))
		case r.Action == "trade":
			parts = append(parts, fmt.Sprintf("%s: REJECTED (%s)", label, r.RejectionReason))
		default:
			parts = append(parts, fmt.Sprintf("%s: HOLD", label))
		}
	}
	if len(parts) == 0 {
		return "HOLD both windows"
	}
	return strings.Join(parts, " | ")
}

// SettlementText renders the participant's settlements as one line.
func (p *ParticipantSummary) SettlementText() string {
	if len(p.Settlements) == 0 {
		return "No settlements this session."
	}
	var parts []string
	for _, s := range p.Settlements {
		parts = append(parts, fmt.Sprintf("%s(%s): P&L=%+.2f", s.Structure, s.Window, s.RealizedPnL))
	}
	return strings.Join(parts, ", ")
}

// FormatLeaderboard renders leaderboard rows as a text table.
func FormatLeaderboard(rows []store.LeaderboardRow) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%-24s %12s %12s %9s %9s\n",
		"PARTICIPANT", "BALANCE", "REALIZED", "RETURN", "SESSIONS"))
	for _, r := range rows {
		b.WriteString(fmt.Sprintf("%-24s %12.2f %12.2f %8.2f%% %9d\n",
			r.ParticipantID, r.Balance, r.RealizedPnL, r.ReturnPct, r.Sessions))
	}
	return b.String()
}
