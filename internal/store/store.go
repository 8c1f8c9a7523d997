// internal/store/store.go
//
// Persistence interface for game sessions.
// Responsibilities:
//   - Store contract shared by the memory and SQLite backends.
//   - Short game ids.
//   - Deriving the row status/winner from an engine snapshot.

package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/robalobadob/marbles/internal/game"
)

// ErrNotFound is returned when no game exists under an id.
var ErrNotFound = errors.New("game not found")

// Row statuses.
const (
	StatusActive   = "active"
	StatusFinished = "finished"
)

// DefaultRecentLimit is used by Recent when limit <= 0.
const DefaultRecentLimit = 10

// Record is one persisted game.
type Record struct {
	ID        string        `json:"id"`
	State     game.Snapshot `json:"state"`
	Status    string        `json:"status"`
	Winner    *int          `json:"winner"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Summary is a Record without its state, as listed by Recent.
type Summary struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	Winner    *int      `json:"winner"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store persists game snapshots.
type Store interface {
	// Create stores a new game and returns its id.
	Create(ctx context.Context, s game.Snapshot) (string, error)

	// Get returns the game stored under id, or ErrNotFound.
	Get(ctx context.Context, id string) (Record, error)

	// Update replaces the stored state of id. Status and winner follow the snapshot.
	Update(ctx context.Context, id string, s game.Snapshot) error

	// Delete removes id and reports whether it existed.
	Delete(ctx context.Context, id string) (bool, error)

	// Recent lists games, most recently updated first.
	Recent(ctx context.Context, limit int) ([]Summary, error)
}

// NewID returns an 8-character game id.
func NewID() string { return uuid.NewString()[:8] }

// statusOf derives the row status and winner from a snapshot.
func statusOf(s game.Snapshot) (string, *int) {
	if s.Status != game.StatusFinished {
		return StatusActive, nil
	}
	if s.Winner == nil {
		return StatusFinished, nil
	}
	w := *s.Winner
	return StatusFinished, &w
}

func (r Record) summary() Summary {
	return Summary{ID: r.ID, Status: r.Status, Winner: r.Winner, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt}
}
