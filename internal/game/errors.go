package game

import "errors"

// Errors returned by engine operations. They are wrapped with detail, so
// compare with errors.Is.
var (
	ErrInvalidPlayerCount     = errors.New("must have 2-4 players")
	ErrIllegalStateTransition = errors.New("operation not allowed in current state")
	ErrUnknownMarble          = errors.New("marble not found")
	ErrNotOwner               = errors.New("not your marble")
	ErrIllegalMove            = errors.New("invalid move")
	ErrInvalidDice            = errors.New("dice value must be 1-6")
	ErrUnknownPlayer          = errors.New("unknown player")
	ErrInvalidDifficulty      = errors.New("unknown ai difficulty")
	ErrInvalidSnapshot        = errors.New("invalid snapshot")
)
