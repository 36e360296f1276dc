package market

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"
	"math/rand"
	"time"

	"spxsim/internal/models"
	"spxsim/pkg/num"
)

// SyntheticProvider generates deterministic chain snapshots for offline
// runs and tests. The same (seed, date, phase) always yields the same
// chain, so full runs are reproducible without any captured data.
type SyntheticProvider struct {
	seed      int64
	symbol    string
	baseLevel float64
}

// NewSyntheticProvider creates a provider generating chains around the
// base index level.
func NewSyntheticProvider(seed int64, baseLevel float64) *SyntheticProvider {
	if baseLevel <= 0 {
		baseLevel = 6000
	}
	return &SyntheticProvider{seed: seed, symbol: "SPX", baseLevel: baseLevel}
}

// dayShape is the fixed intraday path for one trading date.
type dayShape struct {
	open  float64
	close float64
	vix   float64
}

func (p *SyntheticProvider) shape(tradingDate string) dayShape {
	rng := p.rng(tradingDate, "day")
	vix := 11 + rng.ExpFloat64()*6
	if vix > 45 {
		vix = 45
	}
	// One-day sigma in points at the generated VIX level.
	sigma := p.baseLevel * vix / 100 / math.Sqrt(252)
	open := p.baseLevel + rng.NormFloat64()*sigma
	return dayShape{
		open:  num.Round2(open),
		close: num.Round2(open + rng.NormFloat64()*sigma),
		vix:   num.Round2(vix),
	}
}

// Snapshot implements the chain provider interface. It never returns
// (nil, nil): synthetic data exists for every phase.
func (p *SyntheticProvider) Snapshot(_ context.Context, tradingDate, phase string) (*Snapshot, error) {
	day := p.shape(tradingDate)

	var spot float64
	switch phase {
	case PhaseOpen:
		spot = day.open
	case PhaseMid:
		spot = day.open + (day.close-day.open)*0.5
	case PhaseClose, PhaseClose5:
		spot = day.close
	default:
		return nil, fmt.Errorf("unknown phase %q", phase)
	}
	spot = num.Round2(spot)

	date, err := time.Parse("2006-01-02", tradingDate)
	if err != nil {
		return nil, fmt.Errorf("bad trading date %q: %w", tradingDate, err)
	}
	expiration := date
	if phase == PhaseClose5 {
		expiration = NextTradingDay(date)
	}

	snap := &Snapshot{
		Timestamp:       date,
		Phase:           phase,
		UnderlyingPrice: spot,
		Symbol:          p.symbol,
		VIX:             day.vix,
		Expirations:     []time.Time{expiration},
		Contracts:       make(map[ChainKey]*Contract),
		SessionOpen:     day.open,
	}

	sigma := spot * day.vix / 100 / math.Sqrt(252)
	rng := p.rng(tradingDate, phase)
	center := math.Round(spot/5) * 5
	for k := center - 150; k <= center+150; k += 5 {
		snap.Strikes = append(snap.Strikes, k)
		for _, t := range []models.OptionType{models.Call, models.Put} {
			snap.Contracts[ChainKey{Strike: k, Type: t}] = p.contract(k, t, spot, sigma, day.vix, expiration, rng)
		}
	}
	return snap, nil
}

// contract prices one strike with a gaussian time-value hump and
// erf-based deltas. Crude, but arbitrage-free enough for spread NBBOs
// and delta-targeted strike selection.
func (p *SyntheticProvider) contract(strike float64, t models.OptionType,
	spot, sigma, vix float64, expiration time.Time, rng *rand.Rand) *Contract {

	dist := strike - spot
	var intrinsic float64
	if t == models.Call {
		intrinsic = math.Max(0, spot-strike)
	} else {
		intrinsic = math.Max(0, strike-spot)
	}
	timeValue := 0.4 * sigma * math.Exp(-dist*dist/(2*sigma*sigma))
	mid := intrinsic + timeValue

	half := 0.03 + mid*0.015 + rng.Float64()*0.02
	bid := num.Round2(math.Max(0, mid-half))
	ask := num.Round2(mid + half)

	callDelta := 0.5 * math.Erfc(dist/(sigma*math.Sqrt2))
	delta := callDelta
	if t == models.Put {
		delta = callDelta - 1
	}

	return &Contract{
		Symbol:       p.symbol,
		Strike:       strike,
		Expiration:   expiration,
		Type:         t,
		Bid:          bid,
		Ask:          ask,
		Last:         num.Round2(mid),
		Delta:        math.Round(delta*10000) / 10000,
		ImpliedVol:   vix / 100,
		Volume:       rng.Int63n(5000),
		OpenInterest: rng.Int63n(20000),
		HasQuote:     ask >= 0.01,
	}
}

func (p *SyntheticProvider) rng(tradingDate, key string) *rand.Rand {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d:%s:%s", p.seed, tradingDate, key)))
	seed := int64(binary.BigEndian.Uint64(sum[:8]) &^ (1 << 63))
	return rand.New(rand.NewSource(seed))
}
