// Package market defines the read-only option chain value objects
// consumed by the engine. Snapshots are produced by an external
// market-data collaborator and never mutated here.
package market

import (
	"time"

	"spxsim/internal/models"
)

// Capture phases within a trading session.
const (
	PhaseOpen   = "open"   // 9:31 AM, 0DTE chain
	PhaseMid    = "mid"    // midday observation chain
	PhaseClose  = "close"  // 4:00 PM chain
	PhaseClose5 = "close5" // 4:05 PM, 1DTE chain
)

// Contract is a single option contract with pricing and greeks.
type Contract struct {
	Symbol       string
	Strike       float64
	Expiration   time.Time
	Type         models.OptionType
	Bid          float64
	Ask          float64
	Last         float64
	Delta        float64
	Gamma        float64
	Theta        float64
	Vega         float64
	ImpliedVol   float64
	Volume       int64
	OpenInterest int64
	HasQuote     bool // false when bid/ask were missing upstream
}

// Mid returns the contract mid price.
func (c *Contract) Mid() float64 {
	return (c.Bid + c.Ask) / 2
}

// ChainKey addresses one contract within a snapshot.
type ChainKey struct {
	Strike float64
	Type   models.OptionType
}

// Snapshot is a complete option chain at a point in time.
type Snapshot struct {
	Timestamp       time.Time
	Phase           string // "open", "mid", "close", "close5"
	UnderlyingPrice float64
	Symbol          string
	VIX             float64
	Expirations     []time.Time
	Strikes         []float64
	Contracts       map[ChainKey]*Contract
	PrevClose       float64
	SessionOpen     float64
}

// Contract finds a contract by strike and option type. Returns nil when
// the chain has no usable quote for it.
func (s *Snapshot) Contract(strike float64, t models.OptionType) *Contract {
	c, ok := s.Contracts[ChainKey{Strike: strike, Type: t}]
	if !ok || !c.HasQuote {
		return nil
	}
	return c
}

// FrontExpiration returns the nearest expiration, or zero time when the
// chain is empty.
func (s *Snapshot) FrontExpiration() time.Time {
	if len(s.Expirations) == 0 {
		return time.Time{}
	}
	return s.Expirations[0]
}

// ATMStrike returns the strike nearest the underlying. Ties go to the
// lower strike.
func (s *Snapshot) ATMStrike() float64 {
	if len(s.Strikes) == 0 {
		return 0
	}
	best := s.Strikes[0]
	for _, k := range s.Strikes[1:] {
		d, bd := abs(k-s.UnderlyingPrice), abs(best-s.UnderlyingPrice)
		if d < bd || (d == bd && k < best) {
			best = k
		}
	}
	return best
}

// NearestDeltaStrike finds the strike whose delta is closest to target.
// Put targets are negative (e.g. -0.10). Ties go to the lower strike so
// the result never depends on iteration order. Returns 0, false when the
// chain has no contracts of the requested type.
func (s *Snapshot) NearestDeltaStrike(target float64, t models.OptionType) (float64, bool) {
	found := false
	var bestStrike float64
	var bestDist float64
	for _, k := range s.Strikes {
		c := s.Contract(k, t)
		if c == nil {
			continue
		}
		d := abs(c.Delta - target)
		if !found || d < bestDist || (d == bestDist && k < bestStrike) {
			found = true
			bestDist = d
			bestStrike = k
		}
	}
	return bestStrike, found
}

// ExpectedMove is the ±1σ move implied by the at-the-money straddle.
func (s *Snapshot) ExpectedMove() float64 {
	atm := s.ATMStrike()
	call := s.Contract(atm, models.Call)
	put := s.Contract(atm, models.Put)
	if call == nil || put == nil {
		return 0
	}
	return call.Mid() + put.Mid()
}

// IntradayMove is the absolute point move since the session open.
func (s *Snapshot) IntradayMove() float64 {
	if s.SessionOpen == 0 {
		return 0
	}
	return abs(s.UnderlyingPrice - s.SessionOpen)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
