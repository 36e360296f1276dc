package models

import "github.com/google/uuid"

// SettlementSource records how a settlement price was obtained.
const (
	SettlementOfficialClose = "official_close"
)

// Position is a filled spread tracked from open to cash settlement.
// Entry fields are immutable; settlement fields are written exactly once
// by the settlement engine.
type Position struct {
	ID            string
	ParticipantID string
	SessionOpened int64
	Structure     StructureType
	Side          Side
	Legs          []Leg
	Quantity      int
	EntryPrice    float64 // credit received or debit paid, always positive
	Commission    float64 // entry commission, deducted from balance at open
	Width         float64
	Window        Window
	DTEAtEntry    int
	Expiration    string

	// Settlement fields, unset while the position is open.
	SessionSettled   *int64
	SettlementPrice  *float64 // index close at expiration
	SettlementValue  *float64 // intrinsic value of the spread
	SettlementSource string
	RealizedPnL      *float64
}

// NewPositionFromOrder creates a position from a filled order.
func NewPositionFromOrder(o *Order, sessionID int64, fillPrice, commission float64) *Position {
	legs := make([]Leg, len(o.Legs))
	copy(legs, o.Legs)
	return &Position{
		ID:            uuid.NewString()[:8],
		ParticipantID: o.ParticipantID,
		SessionOpened: sessionID,
		Structure:     o.Structure,
		Side:          o.Side(),
		Legs:          legs,
		Quantity:      o.Quantity,
		EntryPrice:    fillPrice,
		Commission:    commission,
		Width:         o.Width(),
		Window:        o.Window,
		DTEAtEntry:    o.DTEAtEntry,
		Expiration:    o.Expiration,
	}
}

// IsOpen reports whether the position has not yet been settled.
func (p *Position) IsOpen() bool {
	return p.SessionSettled == nil
}

// IsSettled reports whether the position has been cash-settled.
func (p *Position) IsSettled() bool {
	return p.SessionSettled != nil
}

// PseudoOrder rebuilds a minimal order view of the position for the
// margin calculator.
func (p *Position) PseudoOrder() *Order {
	return &Order{
		ParticipantID: p.ParticipantID,
		Structure:     p.Structure,
		Legs:          p.Legs,
		Quantity:      p.Quantity,
	}
}
