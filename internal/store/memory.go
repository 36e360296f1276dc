package store

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"spxsim/internal/engine"
	"spxsim/internal/models"
)

// MemoryStore is an in-memory Store used by tests and dry runs.
type MemoryStore struct {
	mu        sync.RWMutex
	sessions  map[int64]*SessionRecord
	orders    map[string]*models.Order
	positions map[string]*models.Position
	marks     map[string]markRecord
	snapshots map[string]map[int64]engine.AccountSnapshot // participant -> session -> snap
}

type markRecord struct {
	Mark          float64
	UnrealizedPnL float64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions:  make(map[int64]*SessionRecord),
		orders:    make(map[string]*models.Order),
		positions: make(map[string]*models.Position),
		marks:     make(map[string]markRecord),
		snapshots: make(map[string]map[int64]engine.AccountSnapshot),
	}
}

// InsertSession implements Store.
func (m *MemoryStore) InsertSession(_ context.Context, rec SessionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.sessions[rec.ID]; ok {
		existing.TradingDate = rec.TradingDate
		existing.IndexOpen = rec.IndexOpen
		existing.VIXOpen = rec.VIXOpen
		return nil
	}
	r := rec
	m.sessions[rec.ID] = &r
	return nil
}

// UpdateSessionClose implements Store.
func (m *MemoryStore) UpdateSessionClose(_ context.Context, sessionID int64, indexClose, vixClose, intradayRange float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, ok := m.sessions[sessionID]; ok {
		rec.IndexClose = indexClose
		rec.VIXClose = vixClose
		rec.IntradayRange = intradayRange
	}
	return nil
}

// CountSessions implements Store.
func (m *MemoryStore) CountSessions(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var n int64
	for _, rec := range m.sessions {
		if rec.IndexClose != 0 {
			n++
		}
	}
	return n, nil
}

// LastSession implements Store.
func (m *MemoryStore) LastSession(_ context.Context) (*SessionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var last *SessionRecord
	for _, rec := range m.sessions {
		if rec.IndexClose == 0 {
			continue
		}
		if last == nil || rec.ID > last.ID {
			last = rec
		}
	}
	if last == nil {
		return nil, nil
	}
	out := *last
	return &out, nil
}

// InsertOrder implements Store.
func (m *MemoryStore) InsertOrder(_ context.Context, o *models.Order, _ int64, _ float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[o.ID] = o
	return nil
}

// InsertPosition implements Store.
func (m *MemoryStore) InsertPosition(_ context.Context, p *models.Position) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.positions[p.ID] = p
	return nil
}

// UpdatePositionSettlement implements Store.
func (m *MemoryStore) UpdatePositionSettlement(_ context.Context, p *models.Position) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.positions[p.ID] = p
	return nil
}

// InsertPositionMark implements Store.
func (m *MemoryStore) InsertPositionMark(_ context.Context, positionID string, sessionID int64, phase string, mark, unrealizedPnL float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := positionID + ":" + phase + ":" + strconv.FormatInt(sessionID, 10)
	m.marks[key] = markRecord{Mark: mark, UnrealizedPnL: unrealizedPnL}
	return nil
}

// OpenPositions implements Store.
func (m *MemoryStore) OpenPositions(_ context.Context, participantID string) ([]*models.Position, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*models.Position
	for _, p := range m.positions {
		if p.ParticipantID == participantID && p.IsOpen() {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SessionOpened < out[j].SessionOpened })
	return out, nil
}

// SaveAccountSnapshot implements Store.
func (m *MemoryStore) SaveAccountSnapshot(_ context.Context, sessionID int64, snap engine.AccountSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snapshots[snap.ParticipantID] == nil {
		m.snapshots[snap.ParticipantID] = make(map[int64]engine.AccountSnapshot)
	}
	m.snapshots[snap.ParticipantID][sessionID] = snap
	return nil
}

// LatestAccountSnapshot implements Store.
func (m *MemoryStore) LatestAccountSnapshot(_ context.Context, participantID string) (*engine.AccountSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	bySession, ok := m.snapshots[participantID]
	if !ok || len(bySession) == 0 {
		return nil, nil
	}
	var maxID int64 = -1
	for id := range bySession {
		if id > maxID {
			maxID = id
		}
	}
	snap := bySession[maxID]
	return &snap, nil
}

// Leaderboard implements Store.
func (m *MemoryStore) Leaderboard(_ context.Context) ([]LeaderboardRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []LeaderboardRow
	for pid, bySession := range m.snapshots {
		var maxID int64 = -1
		for id := range bySession {
			if id > maxID {
				maxID = id
			}
		}
		snap := bySession[maxID]
		out = append(out, LeaderboardRow{
			ParticipantID: pid,
			Balance:       snap.Balance,
			RealizedPnL:   snap.RealizedPnL,
			ReturnPct:     snap.ReturnPct,
			Sessions:      int64(len(bySession)),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Balance > out[j].Balance })
	return out, nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	return nil
}
