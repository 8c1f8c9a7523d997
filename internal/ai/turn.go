package ai

import (
	"errors"
	"fmt"

	"github.com/robalobadob/marbles/internal/game"
)

// ErrNotAITurn is returned by PlayTurn when a human seat is to act.
var ErrNotAITurn = errors.New("not ai's turn")

// Engine is the part of *game.Engine that PlayTurn drives.
type Engine interface {
	View
	CurrentPlayer() game.Player
	IsAITurn() bool
	RollDice() (int, []game.Move, error)
	MakeMove(marbleID string, to int) (game.MoveResult, error)
}

// Turn reports one computer turn.
type Turn struct {
	Dice    int              `json:"dice_value"`
	Move    *game.Move       `json:"move"`
	Skipped bool             `json:"skipped"`
	Result  *game.MoveResult `json:"result,omitempty"`
}

// PlayTurn rolls for the current AI seat, picks a move at that seat's
// difficulty and plays it. A roll without legal moves is reported as skipped.
func PlayTurn(e Engine, rng game.Rand) (Turn, error) {
	if !e.IsAITurn() {
		return Turn{}, ErrNotAITurn
	}
	player := e.CurrentPlayer()

	dice, moves, err := e.RollDice()
	if err != nil {
		return Turn{}, err
	}
	if len(moves) == 0 {
		return Turn{Dice: dice, Skipped: true}, nil
	}

	mv, _ := New(player.Difficulty, rng).ChooseMove(e, moves)
	res, err := e.MakeMove(mv.MarbleID, mv.To)
	if err != nil {
		return Turn{}, fmt.Errorf("ai move %s→%d: %w", mv.MarbleID, mv.To, err)
	}
	return Turn{Dice: dice, Move: &mv, Result: &res}, nil
}
