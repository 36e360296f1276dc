// Package models defines the spread order and position types used across
// the simulation engine.
package models

import (
	"sort"
	"time"

	"github.com/google/uuid"

	apperrors "spxsim/internal/errors"
)

// StructureType identifies a risk-defined spread structure.
type StructureType string

const (
	BullPutVertical  StructureType = "bull_put_vertical"
	BearCallVertical StructureType = "bear_call_vertical"
	IronCondor       StructureType = "iron_condor"
	IronFly          StructureType = "iron_fly"
	CallButterfly    StructureType = "call_butterfly"
	PutButterfly     StructureType = "put_butterfly"
)

// Side indicates whether a structure is opened for a credit or a debit.
type Side string

const (
	Credit Side = "credit"
	Debit  Side = "debit"
)

// Action is the direction of a single leg.
type Action string

const (
	Buy  Action = "buy"
	Sell Action = "sell"
)

// OptionType is the contract type of a leg.
type OptionType string

const (
	Call OptionType = "C"
	Put  OptionType = "P"
)

// OrderStatus tracks the single-shot lifecycle of an order.
type OrderStatus string

const (
	OrderPending  OrderStatus = "pending"
	OrderFilled   OrderStatus = "filled"
	OrderRejected OrderStatus = "rejected"
)

// Window identifies which decision window an order belongs to.
type Window string

const (
	// WindowOpen is the 0DTE decision window at the market open.
	WindowOpen Window = "open"
	// WindowClose5 is the 1DTE decision window five minutes after the close.
	WindowClose5 Window = "close5"
)

// Leg is a single option leg in a spread. Immutable once created.
type Leg struct {
	Strike   float64
	Type     OptionType
	Action   Action
	Quantity int // per-spread contract count, 2 for butterfly centers
}

// Order is a spread order submitted by a participant. An order exists
// only for the duration of one fill attempt.
type Order struct {
	ID            string
	ParticipantID string
	Structure     StructureType
	Legs          []Leg
	Quantity      int
	LimitPrice    *float64
	Thesis        string
	Window        Window
	DTEAtEntry    int    // 0 for 0DTE, 1 for 1DTE
	Expiration    string // ISO date of the expiration being traded

	Status          OrderStatus
	FillPrice       float64
	Commission      float64
	RejectionReason string
	PlacedAt        time.Time
}

// NewOrderID returns a short unique order identifier.
func NewOrderID() string {
	return uuid.NewString()[:8]
}

// Side derives credit/debit from the structure. Butterflies are the only
// debit structures in this system.
func (o *Order) Side() Side {
	return StructureSide(o.Structure)
}

// StructureSide returns the side implied by a structure type.
func StructureSide(s StructureType) Side {
	switch s {
	case CallButterfly, PutButterfly:
		return Debit
	case BullPutVertical, BearCallVertical, IronCondor, IronFly:
		return Credit
	}
	panic(apperrors.ErrUnknownStructure)
}

// Width returns the spread width in points. For iron condors and flies
// this is the width of one wing; for butterflies the full lower→upper span.
func (o *Order) Width() float64 {
	return LegsWidth(o.Structure, o.Legs)
}

// LegsWidth computes the structure width from a leg list.
func LegsWidth(structure StructureType, legs []Leg) float64 {
	strikes := uniqueSortedStrikes(legs)
	if len(strikes) < 2 {
		return 0
	}
	if structure == IronCondor || structure == IronFly {
		if w, ok := sideWidth(legs, Put); ok {
			return w
		}
		if w, ok := sideWidth(legs, Call); ok {
			return w
		}
	}
	return strikes[len(strikes)-1] - strikes[0]
}

// SellLegs returns the legs sold to open.
func (o *Order) SellLegs() []Leg {
	var out []Leg
	for _, l := range o.Legs {
		if l.Action == Sell {
			out = append(out, l)
		}
	}
	return out
}

// BuyLegs returns the legs bought to open.
func (o *Order) BuyLegs() []Leg {
	var out []Leg
	for _, l := range o.Legs {
		if l.Action == Buy {
			out = append(out, l)
		}
	}
	return out
}

// TotalContracts is the number of contracts across all legs for one
// spread times the order quantity. Butterfly centers count double.
func (o *Order) TotalContracts() int {
	perSpread := 0
	for _, l := range o.Legs {
		perSpread += l.Quantity
	}
	return perSpread * o.Quantity
}

// Validate rejects malformed orders before any pricing is attempted.
// Returns a ValidationError describing the first problem found.
func (o *Order) Validate() error {
	if o.Quantity < 1 {
		return apperrors.NewValidationError("quantity", o.Quantity, "must be at least 1")
	}
	if len(o.Legs) < 2 || len(o.Legs) > 4 {
		return apperrors.NewValidationError("legs", len(o.Legs), "spread must have 2-4 legs")
	}
	for _, l := range o.Legs {
		if l.Quantity < 1 {
			return apperrors.NewValidationError("leg.quantity", l.Quantity, "must be at least 1")
		}
		if l.Strike <= 0 {
			return apperrors.NewValidationError("leg.strike", l.Strike, "must be positive")
		}
		if l.Type != Call && l.Type != Put {
			return apperrors.NewValidationError("leg.type", string(l.Type), "must be C or P")
		}
		if l.Action != Buy && l.Action != Sell {
			return apperrors.NewValidationError("leg.action", string(l.Action), "must be buy or sell")
		}
	}

	switch o.Structure {
	case BullPutVertical, BearCallVertical:
		return o.validateVertical()
	case IronCondor, IronFly:
		return o.validateIron()
	case CallButterfly, PutButterfly:
		return o.validateButterfly()
	default:
		return apperrors.NewValidationError("structure", string(o.Structure), "unknown structure type")
	}
}

func (o *Order) validateVertical() error {
	if len(o.Legs) != 2 {
		return apperrors.NewValidationError("legs", len(o.Legs), "vertical must have exactly 2 legs")
	}
	short, long := findShortLong(o.Legs)
	if short == nil || long == nil {
		return apperrors.NewValidationError("legs", len(o.Legs), "vertical must have one sell and one buy leg")
	}
	if short.Type != long.Type {
		return apperrors.NewValidationError("legs", string(short.Type), "vertical legs must share option type")
	}
	if short.Strike == long.Strike {
		return apperrors.NewValidationError("width", 0.0, "short and long strikes must differ")
	}
	// Short leg sits closer to at-the-money for credit verticals: above
	// the long strike for puts, below it for calls.
	if o.Structure == BullPutVertical && (short.Type != Put || short.Strike < long.Strike) {
		return apperrors.NewValidationError("legs", short.Strike, "bull put must sell the higher put strike")
	}
	if o.Structure == BearCallVertical && (short.Type != Call || short.Strike > long.Strike) {
		return apperrors.NewValidationError("legs", short.Strike, "bear call must sell the lower call strike")
	}
	return nil
}

func (o *Order) validateIron() error {
	if len(o.Legs) != 4 {
		return apperrors.NewValidationError("legs", len(o.Legs), "iron structure must have exactly 4 legs")
	}
	putWidth, okP := sideWidth(o.Legs, Put)
	callWidth, okC := sideWidth(o.Legs, Call)
	if !okP || !okC {
		return apperrors.NewValidationError("legs", len(o.Legs), "iron structure needs a put side and a call side")
	}
	if putWidth <= 0 || callWidth <= 0 {
		return apperrors.NewValidationError("width", putWidth, "wing width must be positive")
	}
	if putWidth != callWidth {
		return apperrors.NewValidationError("width", callWidth, "put and call wings must have equal width")
	}
	shortPut, longPut := sideShortLong(o.Legs, Put)
	shortCall, longCall := sideShortLong(o.Legs, Call)
	if shortPut == nil || longPut == nil || shortCall == nil || longCall == nil {
		return apperrors.NewValidationError("legs", len(o.Legs), "each side needs one sell and one buy leg")
	}
	if shortPut.Strike < longPut.Strike {
		return apperrors.NewValidationError("legs", shortPut.Strike, "short put must sit above the long put")
	}
	if shortCall.Strike > longCall.Strike {
		return apperrors.NewValidationError("legs", shortCall.Strike, "short call must sit below the long call")
	}
	if o.Structure == IronFly && shortPut.Strike != shortCall.Strike {
		return apperrors.NewValidationError("legs", shortCall.Strike, "iron fly short strikes must match")
	}
	if o.Structure == IronCondor && shortPut.Strike >= shortCall.Strike {
		return apperrors.NewValidationError("legs", shortPut.Strike, "condor short put must sit below the short call")
	}
	return nil
}

func (o *Order) validateButterfly() error {
	if len(o.Legs) != 3 {
		return apperrors.NewValidationError("legs", len(o.Legs), "butterfly must have exactly 3 legs")
	}
	want := Call
	if o.Structure == PutButterfly {
		want = Put
	}
	var center *Leg
	var wings []*Leg
	for i := range o.Legs {
		l := &o.Legs[i]
		if l.Type != want {
			return apperrors.NewValidationError("leg.type", string(l.Type), "butterfly legs must share option type")
		}
		switch l.Action {
		case Sell:
			if center != nil {
				return apperrors.NewValidationError("legs", l.Strike, "butterfly has exactly one short center")
			}
			center = l
		case Buy:
			wings = append(wings, l)
		}
	}
	if center == nil || len(wings) != 2 {
		return apperrors.NewValidationError("legs", len(wings), "butterfly is 1 long / 2 short / 1 long")
	}
	if center.Quantity != 2 {
		return apperrors.NewValidationError("leg.quantity", center.Quantity, "butterfly center must have quantity 2")
	}
	lo, hi := wings[0].Strike, wings[1].Strike
	if lo > hi {
		lo, hi = hi, lo
	}
	if !(lo < center.Strike && center.Strike < hi) {
		return apperrors.NewValidationError("legs", center.Strike, "center strike must sit between the wings")
	}
	if center.Strike-lo != hi-center.Strike {
		return apperrors.NewValidationError("width", hi-center.Strike, "butterfly wings must be symmetric")
	}
	return nil
}

func findShortLong(legs []Leg) (short, long *Leg) {
	for i := range legs {
		switch legs[i].Action {
		case Sell:
			short = &legs[i]
		case Buy:
			long = &legs[i]
		}
	}
	return short, long
}

func sideShortLong(legs []Leg, t OptionType) (short, long *Leg) {
	for i := range legs {
		if legs[i].Type != t {
			continue
		}
		switch legs[i].Action {
		case Sell:
			short = &legs[i]
		case Buy:
			long = &legs[i]
		}
	}
	return short, long
}

func sideWidth(legs []Leg, t OptionType) (float64, bool) {
	var strikes []float64
	for _, l := range legs {
		if l.Type == t {
			strikes = append(strikes, l.Strike)
		}
	}
	if len(strikes) < 2 {
		return 0, false
	}
	sort.Float64s(strikes)
	return strikes[len(strikes)-1] - strikes[0], true
}

func uniqueSortedStrikes(legs []Leg) []float64 {
	seen := make(map[float64]bool, len(legs))
	var out []float64
	for _, l := range legs {
		if !seen[l.Strike] {
			seen[l.Strike] = true
			out = append(out, l.Strike)
		}
	}
	sort.Float64s(out)
	return out
}
