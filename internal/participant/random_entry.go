package participant

import (
	"math/rand"
	"sort"

	"spxsim/internal/engine"
	"spxsim/internal/market"
	"spxsim/internal/models"
)

// RandomEntry picks a random structure and random strikes every window,
// always one lot. The RNG is seeded so runs stay reproducible.
type RandomEntry struct {
	id          string
	spreadWidth float64
	rng         *rand.Rand
}

// NewRandomEntry creates the random-entry baseline.
func NewRandomEntry(spreadWidth float64, seed int64) *RandomEntry {
	return &RandomEntry{
		id:          "bot-random-entry",
		spreadWidth: spreadWidth,
		rng:         rand.New(rand.NewSource(seed)),
	}
}

// ID implements Participant.
func (r *RandomEntry) ID() string { return r.id }

// Decide implements Participant.
func (r *RandomEntry) Decide(chain *market.Snapshot, acct *engine.Account, ctx DecideContext) *models.Order {
	atm := chain.ATMStrike()
	if atm == 0 {
		return nil
	}

	var otmPuts, otmCalls []float64
	for _, k := range chain.Strikes {
		if k < atm && chain.Contract(k, models.Put) != nil {
			otmPuts = append(otmPuts, k)
		}
		if k > atm && chain.Contract(k, models.Call) != nil {
			otmCalls = append(otmCalls, k)
		}
	}
	sort.Float64s(otmPuts)
	sort.Float64s(otmCalls)

	if len(otmPuts) < 3 || len(otmCalls) < 3 {
		return nil
	}

	switch r.rng.Intn(6) {
	case 0:
		return r.bullPut(otmPuts)
	case 1:
		return r.bearCall(otmCalls)
	case 2:
		return r.ironCondor(otmPuts, otmCalls)
	case 3:
		return models.NewIronFly(r.id, atm, r.spreadWidth, 1, nil, "Random entry: iron fly at ATM.")
	case 4:
		return models.NewCallButterfly(r.id, atm-r.spreadWidth, atm, atm+r.spreadWidth, 1, nil,
			"Random entry: call butterfly.")
	default:
		return models.NewPutButterfly(r.id, atm-r.spreadWidth, atm, atm+r.spreadWidth, 1, nil,
			"Random entry: put butterfly.")
	}
}

func (r *RandomEntry) bullPut(putStrikes []float64) *models.Order {
	idx := r.rng.Intn(len(putStrikes) - 1)
	long := putStrikes[idx]
	short := long + r.spreadWidth
	if short > putStrikes[len(putStrikes)-1] {
		short = putStrikes[idx+1]
		long = short - r.spreadWidth
	}
	return models.NewBullPutVertical(r.id, short, long, 1, nil, "Random entry: bull put vertical.")
}

func (r *RandomEntry) bearCall(callStrikes []float64) *models.Order {
	idx := r.rng.Intn(len(callStrikes) - 1)
	short := callStrikes[idx]
	long := short + r.spreadWidth
	return models.NewBearCallVertical(r.id, short, long, 1, nil, "Random entry: bear call vertical.")
}

func (r *RandomEntry) ironCondor(putStrikes, callStrikes []float64) *models.Order {
	putIdx := r.rng.Intn(len(putStrikes) - 1)
	callIdx := r.rng.Intn(len(callStrikes) - 1)

	putShort := putStrikes[putIdx+1]
	putLong := putShort - r.spreadWidth
	callShort := callStrikes[callIdx]
	callLong := callShort + r.spreadWidth

	return models.NewIronCondor(r.id, putLong, putShort, callShort, callLong, 1, nil,
		"Random entry: iron condor.")
}
