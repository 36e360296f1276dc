package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"spxsim/internal/models"
	"spxsim/internal/store"
)

func TestDecisionTextFilledAndHold(t *testing.T) {
	p := &ParticipantSummary{
		ParticipantID: "bot-x",
		Open: &WindowResult{
			Action:    "trade",
			Filled:    true,
			Structure: models.IronCondor,
			FillPrice: 2.10,
		},
		Close5: &WindowResult{Action: "hold"},
	}
	assert.Equal(t, "OPEN/0DTE: iron_condor @ $2.10 | CLOSE+5/1DTE: HOLD", p.DecisionText())
}

func TestDecisionTextRejection(t *testing.T) {
	p := &ParticipantSummary{
		Open: &WindowResult{
			Action:          "trade",
			Filled:          false,
			RejectionReason: "limit price not achievable",
		},
	}
	assert.Equal(t, "OPEN/0DTE: REJECTED (limit price not achievable)", p.DecisionText())
}

func TestDecisionTextNoWindows(t *testing.T) {
	p := &ParticipantSummary{}
	assert.Equal(t, "HOLD both windows", p.DecisionText())
}

func TestSettlementText(t *testing.T) {
	p := &ParticipantSummary{}
	assert.Equal(t, "No settlements this session.", p.SettlementText())

	p.Settlements = []SettlementResult{
		{Structure: models.BullPutVertical, Window: models.WindowOpen, RealizedPnL: 198.62},
		{Structure: models.IronCondor, Window: models.WindowClose5, RealizedPnL: -92.76},
	}
	assert.Equal(t,
		"bull_put_vertical(open): P&L=+198.62, iron_condor(close5): P&L=-92.76",
		p.SettlementText())
}

func TestFormatLeaderboard(t *testing.T) {
	out := FormatLeaderboard([]store.LeaderboardRow{
		{ParticipantID: "bot-a", Balance: 31_204.55, RealizedPnL: 1_204.55, ReturnPct: 4.02, Sessions: 12},
		{ParticipantID: "bot-b", Balance: 29_800.00, RealizedPnL: -200.00, ReturnPct: -0.67, Sessions: 12},
	})

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.Len(t, lines, 3)
	assert.Contains(t, lines[0], "PARTICIPANT")
	assert.Contains(t, lines[1], "bot-a")
	assert.Contains(t, lines[1], "31204.55")
	assert.Contains(t, lines[1], "4.02%")
	assert.Contains(t, lines[2], "-0.67%")
}
