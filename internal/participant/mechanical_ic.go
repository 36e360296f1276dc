package participant

import (
	"spxsim/internal/engine"
	"spxsim/internal/market"
	"spxsim/internal/models"
)

// MechanicalIC sells a 10-delta iron condor every window, no exceptions.
// Wings sit one spread width beyond the short strikes, always one lot.
// No market view — pure premium collection.
type MechanicalIC struct {
	id          string
	spreadWidth float64
}

// NewMechanicalIC creates the mechanical iron condor baseline.
func NewMechanicalIC(spreadWidth float64) *MechanicalIC {
	return &MechanicalIC{id: "bot-mechanical-ic", spreadWidth: spreadWidth}
}

// ID implements Participant.
func (m *MechanicalIC) ID() string { return m.id }

// Decide implements Participant.
func (m *MechanicalIC) Decide(chain *market.Snapshot, acct *engine.Account, ctx DecideContext) *models.Order {
	putShort, okP := chain.NearestDeltaStrike(-0.10, models.Put)
	callShort, okC := chain.NearestDeltaStrike(0.10, models.Call)
	if !okP || !okC {
		return nil
	}

	putLong := putShort - m.spreadWidth
	callLong := callShort + m.spreadWidth

	// Skip when the wing strikes are not quoted.
	if chain.Contract(putLong, models.Put) == nil || chain.Contract(callLong, models.Call) == nil {
		return nil
	}

	return models.NewIronCondor(m.id, putLong, putShort, callShort, callLong, 1, nil,
		"Mechanical 10-delta IC: no market view, pure premium collection.")
}
