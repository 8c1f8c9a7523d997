// internal/game/engine.go
//
// Turn/state machine for a single marbles game.
// Responsibilities:
//   - Build players and marbles for 2-4 seats.
//   - Roll dice from an injected random source and expose legal moves.
//   - Validate and apply moves (captures, win detection).
//   - Advance turns, granting an extra roll on a six.
//
// State transitions:
//   rolling → moving            dice rolled and at least one legal move
//   rolling → rolling           dice rolled with no legal move (turn passes)
//   moving  → rolling           move applied, same seat on a six, next seat otherwise
//   moving  → finished          move completed the mover's fourth marble
//
// The engine is not safe for concurrent use; callers serialize access per game.

package game

import (
	"fmt"
	"time"

	"golang.org/x/exp/rand"
)

// Rand is the randomness the engine needs. *rand.Rand from golang.org/x/exp/rand
// satisfies it; tests may script it.
type Rand interface {
	Intn(n int) int
}

// Option configures an Engine.
type Option func(*Engine)

// WithRand injects the dice source.
func WithRand(r Rand) Option {
	return func(e *Engine) {
		if r != nil {
			e.rng = r
		}
	}
}

// WithSeed seeds a fresh x/exp/rand source for the dice.
func WithSeed(seed uint64) Option {
	return func(e *Engine) { e.rng = rand.New(rand.NewSource(seed)) }
}

// Engine owns every entity of one game.
type Engine struct {
	players []Player
	marbles []Marble       // arena, ordered by seat then slot
	index   map[string]int // marble id → arena index

	current int
	dice    int // last roll, 0 when none
	status  Status
	winner  int // -1 when none
	turns   int

	rng Rand
}

// New returns an empty engine in the waiting state. Use NewGame or Load to
// populate it.
func New(opts ...Option) *Engine {
	e := &Engine{
		index:  make(map[string]int),
		status: StatusWaiting,
		winner: -1,
	}
	for _, o := range opts {
		o(e)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(uint64(time.Now().UnixNano())))
	}
	return e
}

// NewGame creates a game for numPlayers seats. Seats listed in aiSeats are
// computer controlled at the given difficulty. Missing names default to
// "Player N".
func NewGame(numPlayers int, names []string, aiSeats []int, difficulty Difficulty, opts ...Option) (*Engine, error) {
	e := New(opts...)
	if err := e.reset(numPlayers, names, aiSeats, difficulty); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Engine) reset(numPlayers int, names []string, aiSeats []int, difficulty Difficulty) error {
	if numPlayers < MinPlayers || numPlayers > MaxPlayers {
		return fmt.Errorf("%w: got %d", ErrInvalidPlayerCount, numPlayers)
	}
	if int(difficulty) >= len(difficultyNames) {
		return fmt.Errorf("%w: %d", ErrInvalidDifficulty, difficulty)
	}
	ai := make(map[int]bool, len(aiSeats))
	for _, s := range aiSeats {
		ai[s] = true
	}

	e.players = make([]Player, 0, numPlayers)
	e.marbles = make([]Marble, 0, numPlayers*MarblesPerPlayer)
	e.index = make(map[string]int, numPlayers*MarblesPerPlayer)

	for i := 0; i < numPlayers; i++ {
		color := Colors[i]
		name := fmt.Sprintf("Player %d", i+1)
		if i < len(names) && names[i] != "" {
			name = names[i]
		}
		p := Player{ID: i, Name: name, Color: color, AI: ai[i], Difficulty: difficulty}
		for j := 0; j < MarblesPerPlayer; j++ {
			id := fmt.Sprintf("%s%d", color.Initial(), j) // r0, r1, b0, ...
			p.marbles[j] = len(e.marbles)
			e.index[id] = len(e.marbles)
			e.marbles = append(e.marbles, Marble{ID: id, PlayerID: i, Color: color, Position: StartArea})
		}
		e.players = append(e.players, p)
	}

	e.current = 0
	e.dice = 0
	e.status = StatusRolling
	e.winner = -1
	e.turns = 0
	return nil
}

// RollDice draws 1-6 for the current player and returns the legal moves for
// it. With no legal move the turn passes immediately and the engine stays in
// the rolling state.
func (e *Engine) RollDice() (int, []Move, error) {
	if !e.status.CanRoll() {
		return 0, nil, fmt.Errorf("%w: cannot roll dice in state %s", ErrIllegalStateTransition, e.status)
	}
	e.dice = e.rng.Intn(6) + 1
	dice := e.dice
	moves := e.movesFor(&e.players[e.current], dice)
	if len(moves) == 0 {
		e.advanceTurn(false)
	} else {
		e.status = StatusMoving
	}
	return dice, moves, nil
}

// ValidMoves lists the legal moves of playerID for a dice value without
// touching engine state.
func (e *Engine) ValidMoves(playerID, dice int) ([]Move, error) {
	if playerID < 0 || playerID >= len(e.players) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPlayer, playerID)
	}
	if dice < 1 || dice > 6 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidDice, dice)
	}
	return e.movesFor(&e.players[playerID], dice), nil
}

// MakeMove moves marbleID to the given position for the current player.
// The pair must be one of the moves legal for the stored dice value.
func (e *Engine) MakeMove(marbleID string, to int) (MoveResult, error) {
	if !e.status.CanMove() {
		return MoveResult{}, fmt.Errorf("%w: cannot make move in state %s", ErrIllegalStateTransition, e.status)
	}
	idx, ok := e.index[marbleID]
	if !ok {
		return MoveResult{}, fmt.Errorf("%w: %s", ErrUnknownMarble, marbleID)
	}
	if e.marbles[idx].PlayerID != e.current {
		return MoveResult{}, fmt.Errorf("%w: %s belongs to player %d", ErrNotOwner, marbleID, e.marbles[idx].PlayerID)
	}

	var chosen *Move
	for _, mv := range e.movesFor(&e.players[e.current], e.dice) {
		if mv.MarbleID == marbleID && mv.To == to {
			mv := mv
			chosen = &mv
			break
		}
	}
	if chosen == nil {
		return MoveResult{}, fmt.Errorf("%w: %s to %d with dice %d", ErrIllegalMove, marbleID, to, e.dice)
	}

	e.marbles[idx].Position = to
	res := MoveResult{Move: *chosen}
	if chosen.Captures() {
		ci := e.index[chosen.Captured]
		e.marbles[ci].Position = StartArea
		captured := e.marbles[ci]
		res.Captured = &captured
	}

	if e.HasWon(e.current) {
		e.status = StatusFinished
		e.winner = e.current
		w := e.winner
		res.GameOver = true
		res.Winner = &w
		return res, nil
	}

	six := e.dice == 6
	e.advanceTurn(six)
	res.ExtraTurn = six
	return res, nil
}

// advanceTurn clears the dice and hands the roll to the next seat, or back
// to the same seat when extra is set.
func (e *Engine) advanceTurn(extra bool) {
	e.turns++
	e.dice = 0
	e.status = StatusRolling
	if !extra {
		e.current = (e.current + 1) % len(e.players)
	}
}

// Status returns the engine state.
func (e *Engine) Status() Status { return e.status }

// Dice returns the last roll still awaiting a move.
func (e *Engine) Dice() (int, bool) { return e.dice, e.dice != 0 }

// Winner returns the winning seat once the game is finished.
func (e *Engine) Winner() (int, bool) { return e.winner, e.winner >= 0 }

// TurnCount is the number of completed turn advances.
func (e *Engine) TurnCount() int { return e.turns }

// CurrentPlayer returns the seat to act. The zero Player is returned for an
// engine that has no game yet.
func (e *Engine) CurrentPlayer() Player {
	if len(e.players) == 0 {
		return Player{}
	}
	return e.players[e.current]
}

// IsAITurn reports whether the current seat is computer controlled.
func (e *Engine) IsAITurn() bool {
	return len(e.players) > 0 && e.players[e.current].AI
}

// Players returns the seats in turn order.
func (e *Engine) Players() []Player {
	out := make([]Player, len(e.players))
	copy(out, e.players)
	return out
}

// Marble looks up a marble by id.
func (e *Engine) Marble(id string) (Marble, bool) {
	i, ok := e.index[id]
	if !ok {
		return Marble{}, false
	}
	return e.marbles[i], true
}

// Marbles returns every marble in arena order.
func (e *Engine) Marbles() []Marble {
	out := make([]Marble, len(e.marbles))
	copy(out, e.marbles)
	return out
}

// PlayerMarbles returns the marbles owned by playerID in slot order.
func (e *Engine) PlayerMarbles(playerID int) []Marble {
	if playerID < 0 || playerID >= len(e.players) {
		return nil
	}
	p := &e.players[playerID]
	out := make([]Marble, 0, MarblesPerPlayer)
	for _, i := range p.marbles {
		out = append(out, e.marbles[i])
	}
	return out
}

// MarblesHome counts the player's marbles inside its home lane.
func (e *Engine) MarblesHome(playerID int) int {
	n := 0
	for _, m := range e.PlayerMarbles(playerID) {
		if m.InHome() {
			n++
		}
	}
	return n
}

// MarblesInStart counts the player's marbles still in the start area.
func (e *Engine) MarblesInStart(playerID int) int {
	n := 0
	for _, m := range e.PlayerMarbles(playerID) {
		if m.InStart() {
			n++
		}
	}
	return n
}

// HasWon reports whether all of the player's marbles reached the home lane.
func (e *Engine) HasWon(playerID int) bool {
	return e.MarblesHome(playerID) == MarblesPerPlayer
}
