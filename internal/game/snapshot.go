// internal/game/snapshot.go
//
// Snapshot export/import.
// The snapshot is the only persisted artifact of a game: it holds every
// player, every marble and the turn bookkeeping, and fully determines future
// behavior. JSON field names match the public API payloads.

package game

import "fmt"

// PlayerState is the serialized form of a Player. MarblesHome and
// MarblesInStart are derived on export and ignored on import.
type PlayerState struct {
	ID             int    `json:"id"`
	Name           string `json:"name"`
	Color          Color  `json:"color"`
	IsAI           bool   `json:"is_ai"`
	AIDifficulty   string `json:"ai_difficulty"`
	MarblesHome    int    `json:"marbles_home"`
	MarblesInStart int    `json:"marbles_in_start"`
}

// Snapshot is the full reconstructable game state.
type Snapshot struct {
	Players       []PlayerState `json:"players"`
	Marbles       []Marble      `json:"marbles"`
	CurrentPlayer int           `json:"current_player"`
	DiceValue     *int          `json:"dice_value"`
	Status        Status        `json:"status"`
	Winner        *int          `json:"winner"`
	TurnCount     int           `json:"turn_count"`
}

// Snapshot exports the engine state.
func (e *Engine) Snapshot() Snapshot {
	s := Snapshot{
		Players:       make([]PlayerState, 0, len(e.players)),
		Marbles:       e.Marbles(),
		CurrentPlayer: e.current,
		Status:        e.status,
		TurnCount:     e.turns,
	}
	for _, p := range e.players {
		s.Players = append(s.Players, PlayerState{
			ID:             p.ID,
			Name:           p.Name,
			Color:          p.Color,
			IsAI:           p.AI,
			AIDifficulty:   p.Difficulty.String(),
			MarblesHome:    e.MarblesHome(p.ID),
			MarblesInStart: e.MarblesInStart(p.ID),
		})
	}
	if d, ok := e.Dice(); ok {
		s.DiceValue = &d
	}
	if w, ok := e.Winner(); ok {
		s.Winner = &w
	}
	return s
}

// Load rebuilds an engine from a snapshot. Marbles are attached to players
// by matching player ids; the snapshot is validated before anything is
// accepted.
func Load(s Snapshot, opts ...Option) (*Engine, error) {
	e := New(opts...)
	if err := e.load(s); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Engine) load(s Snapshot) error {
	n := len(s.Players)
	if n < MinPlayers || n > MaxPlayers {
		return fmt.Errorf("%w: %d players", ErrInvalidSnapshot, n)
	}

	players := make([]Player, n)
	for i, ps := range s.Players {
		if ps.ID != i {
			return fmt.Errorf("%w: player at seat %d has id %d", ErrInvalidSnapshot, i, ps.ID)
		}
		diff, err := ParseDifficulty(ps.AIDifficulty)
		if err != nil {
			return fmt.Errorf("%w: player %d: %v", ErrInvalidSnapshot, i, err)
		}
		players[i] = Player{ID: ps.ID, Name: ps.Name, Color: ps.Color, AI: ps.IsAI, Difficulty: diff}
	}

	marbles := make([]Marble, 0, len(s.Marbles))
	index := make(map[string]int, len(s.Marbles))
	slots := make([]int, n)
	for _, m := range s.Marbles {
		if _, dup := index[m.ID]; dup {
			return fmt.Errorf("%w: duplicate marble %q", ErrInvalidSnapshot, m.ID)
		}
		if m.PlayerID < 0 || m.PlayerID >= n {
			return fmt.Errorf("%w: marble %q has unknown player %d", ErrInvalidSnapshot, m.ID, m.PlayerID)
		}
		p := &players[m.PlayerID]
		if m.Color != p.Color {
			return fmt.Errorf("%w: marble %q is %s, owner is %s", ErrInvalidSnapshot, m.ID, m.Color, p.Color)
		}
		if !m.InStart() && !m.OnTrack() && !m.InHome() {
			return fmt.Errorf("%w: marble %q at invalid position %d", ErrInvalidSnapshot, m.ID, m.Position)
		}
		if slots[m.PlayerID] == MarblesPerPlayer {
			return fmt.Errorf("%w: player %d has too many marbles", ErrInvalidSnapshot, m.PlayerID)
		}
		p.marbles[slots[m.PlayerID]] = len(marbles)
		slots[m.PlayerID]++
		index[m.ID] = len(marbles)
		marbles = append(marbles, m)
	}
	for i, c := range slots {
		if c != MarblesPerPlayer {
			return fmt.Errorf("%w: player %d has %d marbles", ErrInvalidSnapshot, i, c)
		}
	}

	if s.CurrentPlayer < 0 || s.CurrentPlayer >= n {
		return fmt.Errorf("%w: current player %d", ErrInvalidSnapshot, s.CurrentPlayer)
	}
	dice := 0
	if s.DiceValue != nil {
		dice = *s.DiceValue
		if dice < 1 || dice > 6 {
			return fmt.Errorf("%w: dice value %d", ErrInvalidSnapshot, dice)
		}
	}
	if s.Status == StatusMoving && dice == 0 {
		return fmt.Errorf("%w: moving without a dice value", ErrInvalidSnapshot)
	}
	winner := -1
	if s.Winner != nil {
		winner = *s.Winner
		if winner < 0 || winner >= n {
			return fmt.Errorf("%w: winner %d", ErrInvalidSnapshot, winner)
		}
	}

	e.players = players
	e.marbles = marbles
	e.index = index
	e.current = s.CurrentPlayer
	e.dice = dice
	e.status = s.Status
	e.winner = winner
	e.turns = s.TurnCount
	return nil
}
