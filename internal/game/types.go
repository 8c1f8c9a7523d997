// internal/game/types.go
//
// Core type definitions for the marbles engine.
// Defines:
//   - Color: one of the four seats' colors.
//   - Status: closed set of engine states and the operations each allows.
//   - Difficulty: AI tier stored on a player.
//   - Marble, Player, Move, MoveResult.

package game

import (
	"encoding/json"
	"fmt"
)

// Color identifies a seat. It fixes the start cell, the home lane and the
// marble id prefix.
type Color uint8

const (
	Red Color = iota
	Blue
	Green
	Yellow
)

// Colors lists the seat colors in seating order.
var Colors = [...]Color{Red, Blue, Green, Yellow}

var colorNames = [...]string{
	Red:    "red",
	Blue:   "blue",
	Green:  "green",
	Yellow: "yellow",
}

func (c Color) String() string {
	if int(c) < len(colorNames) {
		return colorNames[c]
	}
	return fmt.Sprintf("color(%d)", uint8(c))
}

// Initial is the marble id prefix for the color ("r", "b", "g", "y").
func (c Color) Initial() string { return c.String()[:1] }

// ParseColor maps a color name to its Color.
func ParseColor(s string) (Color, error) {
	for i, n := range colorNames {
		if n == s {
			return Color(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown color %q", ErrInvalidSnapshot, s)
}

func (c Color) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Color) UnmarshalText(b []byte) error {
	v, err := ParseColor(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Status is the engine state. Only rolling and moving accept operations.
type Status uint8

const (
	StatusWaiting Status = iota
	StatusRolling
	StatusMoving
	StatusFinished
)

var statusNames = [...]string{
	StatusWaiting:  "waiting",
	StatusRolling:  "rolling",
	StatusMoving:   "moving",
	StatusFinished: "finished",
}

type operation uint8

const (
	opRoll operation = iota
	opMove
)

// legalOps is the state → permitted-operation table.
var legalOps = [...][2]bool{
	StatusWaiting:  {opRoll: false, opMove: false},
	StatusRolling:  {opRoll: true, opMove: false},
	StatusMoving:   {opRoll: false, opMove: true},
	StatusFinished: {opRoll: false, opMove: false},
}

func (s Status) allows(op operation) bool {
	return int(s) < len(legalOps) && legalOps[s][op]
}

// CanRoll reports whether RollDice is legal in this state.
func (s Status) CanRoll() bool { return s.allows(opRoll) }

// CanMove reports whether MakeMove is legal in this state.
func (s Status) CanMove() bool { return s.allows(opMove) }

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("status(%d)", uint8(s))
}

func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Status) UnmarshalText(b []byte) error {
	for i, n := range statusNames {
		if n == string(b) {
			*s = Status(i)
			return nil
		}
	}
	return fmt.Errorf("%w: unknown status %q", ErrInvalidSnapshot, string(b))
}

// Difficulty selects the AI heuristic tier.
type Difficulty uint8

const (
	Easy Difficulty = iota
	Medium
	Hard
)

var difficultyNames = [...]string{
	Easy:   "easy",
	Medium: "medium",
	Hard:   "hard",
}

func (d Difficulty) String() string {
	if int(d) < len(difficultyNames) {
		return difficultyNames[d]
	}
	return fmt.Sprintf("difficulty(%d)", uint8(d))
}

// ParseDifficulty maps "easy", "medium" or "hard" to a Difficulty.
// The empty string yields Medium.
func ParseDifficulty(s string) (Difficulty, error) {
	if s == "" {
		return Medium, nil
	}
	for i, n := range difficultyNames {
		if n == s {
			return Difficulty(i), nil
		}
	}
	return Medium, fmt.Errorf("%w: %q", ErrInvalidDifficulty, s)
}

func (d Difficulty) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Difficulty) UnmarshalText(b []byte) error {
	v, err := ParseDifficulty(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// Marble is a single playing piece.
type Marble struct {
	ID       string `json:"id"`
	PlayerID int    `json:"player_id"`
	Color    Color  `json:"color"`
	Position int    `json:"position"` // -1 start, 0..55 track, HomeEntry.. home lane
}

func (m Marble) InStart() bool { return m.Position == StartArea }
func (m Marble) OnTrack() bool { return IsTrackCell(m.Position) }

// InHome is also true for a finished marble.
func (m Marble) InHome() bool { return InHomeLane(m.Color, m.Position) }

func (m Marble) Finished() bool { return m.Position == FinishPosition(m.Color) }

// HomeOffset is the 0-based cell index inside the home lane. Only meaningful
// when InHome is true.
func (m Marble) HomeOffset() int { return m.Position - HomeEntry(m.Color) }

// Player is one seat at the table. Its marbles live in the engine's arena;
// the player only holds their arena indices.
type Player struct {
	ID         int
	Name       string
	Color      Color
	AI         bool
	Difficulty Difficulty

	marbles [MarblesPerPlayer]int
}

// Move is a proposed transition for one marble. Moves are produced by the
// generator and consumed by MakeMove; they are never stored in the engine.
type Move struct {
	MarbleID      string `json:"marble_id"`
	From          int    `json:"from_position"`
	To            int    `json:"to_position"`
	EnteringTrack bool   `json:"is_entering_track"`
	Captured      string `json:"captured_marble_id"`
}

// Captures reports whether the move sends an opponent marble back to start.
func (mv Move) Captures() bool { return mv.Captured != "" }

// MarshalJSON writes captured_marble_id as null when nothing is captured.
func (mv Move) MarshalJSON() ([]byte, error) {
	type plain Move
	out := struct {
		plain
		Captured *string `json:"captured_marble_id"`
	}{plain: plain(mv)}
	if mv.Captures() {
		out.Captured = &mv.Captured
	}
	return json.Marshal(out)
}

// MoveResult reports what MakeMove did.
type MoveResult struct {
	Move      Move    `json:"move"`
	Captured  *Marble `json:"captured"`  // captured marble after reset, if any
	GameOver  bool    `json:"game_over"`
	Winner    *int    `json:"winner"`
	ExtraTurn bool    `json:"extra_turn"`
}
