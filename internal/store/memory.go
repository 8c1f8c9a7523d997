// internal/store/memory.go
//
// In-memory implementation of Store.
// Used for tests and for STORE=memory, when durability is not required.
//
// Characteristics:
//   - Records keyed by id in a map, guarded by an RWMutex.
//   - Snapshots are deep-copied in and out so callers never share slices.
//   - State is lost when the process restarts.

package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/robalobadob/marbles/internal/game"
)

type memory struct {
	mu    sync.RWMutex
	games map[string]Record
	now   func() time.Time
}

// NewMemoryStore constructs an empty in-memory Store.
func NewMemoryStore() Store {
	return &memory{games: make(map[string]Record), now: time.Now}
}

func (m *memory) Create(ctx context.Context, s game.Snapshot) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := NewID()
	for {
		if _, taken := m.games[id]; !taken {
			break
		}
		id = NewID()
	}
	now := m.now().UTC()
	status, winner := statusOf(s)
	m.games[id] = Record{
		ID:        id,
		State:     cloneSnapshot(s),
		Status:    status,
		Winner:    winner,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return id, nil
}

func (m *memory) Get(ctx context.Context, id string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.games[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	r.State = cloneSnapshot(r.State)
	if r.Winner != nil {
		w := *r.Winner
		r.Winner = &w
	}
	return r, nil
}

func (m *memory) Update(ctx context.Context, id string, s game.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.games[id]
	if !ok {
		return ErrNotFound
	}
	r.State = cloneSnapshot(s)
	r.Status, r.Winner = statusOf(s)
	r.UpdatedAt = m.now().UTC()
	m.games[id] = r
	return nil
}

func (m *memory) Delete(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.games[id]; !ok {
		return false, nil
	}
	delete(m.games, id)
	return true, nil
}

func (m *memory) Recent(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	m.mu.RLock()
	out := make([]Summary, 0, len(m.games))
	for _, r := range m.games {
		out = append(out, r.summary())
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func cloneSnapshot(s game.Snapshot) game.Snapshot {
	s.Players = append([]game.PlayerState(nil), s.Players...)
	s.Marbles = append([]game.Marble(nil), s.Marbles...)
	if s.DiceValue != nil {
		d := *s.DiceValue
		s.DiceValue = &d
	}
	if s.Winner != nil {
		w := *s.Winner
		s.Winner = &w
	}
	return s
}
