package models

// Structure constructors. Each produces a canonical ordered leg list from
// semantic strikes; side and width are derived, never stored.

// NewBullPutVertical sells the higher put and buys the lower put.
func NewBullPutVertical(participantID string, shortStrike, longStrike float64, qty int, limit *float64, thesis string) *Order {
	return newOrder(participantID, BullPutVertical, []Leg{
		{Strike: shortStrike, Type: Put, Action: Sell, Quantity: 1},
		{Strike: longStrike, Type: Put, Action: Buy, Quantity: 1},
	}, qty, limit, thesis)
}

// NewBearCallVertical sells the lower call and buys the higher call.
func NewBearCallVertical(participantID string, shortStrike, longStrike float64, qty int, limit *float64, thesis string) *Order {
	return newOrder(participantID, BearCallVertical, []Leg{
		{Strike: shortStrike, Type: Call, Action: Sell, Quantity: 1},
		{Strike: longStrike, Type: Call, Action: Buy, Quantity: 1},
	}, qty, limit, thesis)
}

// NewIronCondor sells both sides with protective wings.
func NewIronCondor(participantID string, putLong, putShort, callShort, callLong float64, qty int, limit *float64, thesis string) *Order {
	return newOrder(participantID, IronCondor, []Leg{
		{Strike: putLong, Type: Put, Action: Buy, Quantity: 1},
		{Strike: putShort, Type: Put, Action: Sell, Quantity: 1},
		{Strike: callShort, Type: Call, Action: Sell, Quantity: 1},
		{Strike: callLong, Type: Call, Action: Buy, Quantity: 1},
	}, qty, limit, thesis)
}

// NewIronFly sells the at-the-money straddle and buys wings on both sides.
func NewIronFly(participantID string, centerStrike, wingWidth float64, qty int, limit *float64, thesis string) *Order {
	return newOrder(participantID, IronFly, []Leg{
		{Strike: centerStrike - wingWidth, Type: Put, Action: Buy, Quantity: 1},
		{Strike: centerStrike, Type: Put, Action: Sell, Quantity: 1},
		{Strike: centerStrike, Type: Call, Action: Sell, Quantity: 1},
		{Strike: centerStrike + wingWidth, Type: Call, Action: Buy, Quantity: 1},
	}, qty, limit, thesis)
}

// NewCallButterfly buys the wings and sells two center calls.
func NewCallButterfly(participantID string, lower, center, upper float64, qty int, limit *float64, thesis string) *Order {
	return newOrder(participantID, CallButterfly, []Leg{
		{Strike: lower, Type: Call, Action: Buy, Quantity: 1},
		{Strike: center, Type: Call, Action: Sell, Quantity: 2},
		{Strike: upper, Type: Call, Action: Buy, Quantity: 1},
	}, qty, limit, thesis)
}

// NewPutButterfly buys the wings and sells two center puts.
func NewPutButterfly(participantID string, lower, center, upper float64, qty int, limit *float64, thesis string) *Order {
	return newOrder(participantID, PutButterfly, []Leg{
		{Strike: lower, Type: Put, Action: Buy, Quantity: 1},
		{Strike: center, Type: Put, Action: Sell, Quantity: 2},
		{Strike: upper, Type: Put, Action: Buy, Quantity: 1},
	}, qty, limit, thesis)
}

func newOrder(participantID string, structure StructureType, legs []Leg, qty int, limit *float64, thesis string) *Order {
	return &Order{
		ID:            NewOrderID(),
		ParticipantID: participantID,
		Structure:     structure,
		Legs:          legs,
		Quantity:      qty,
		LimitPrice:    limit,
		Thesis:        thesis,
		Status:        OrderPending,
	}
}
