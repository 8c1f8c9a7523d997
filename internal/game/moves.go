// internal/game/moves.go
//
// Legal-move generation.
// Rules, evaluated independently per marble:
//   - Start area: exits only on a 1 or a 6, onto the color's start cell. Every
//     waiting marble gets its own exit move.
//   - Track: walks dice cells forward; reaching the color's own start cell
//     turns the remaining pips into home-lane progress (exact count only).
//   - Home lane: advances linearly, never past the last cell.
//   - Finished: never moves.
// A destination held by one of the mover's own marbles is illegal. An
// opponent marble on a non-safe track cell is captured.
//
// Nothing here mutates the engine.

package game

func (e *Engine) movesFor(p *Player, dice int) []Move {
	var moves []Move
	for _, i := range p.marbles {
		if mv, ok := e.moveFor(e.marbles[i], p, dice); ok {
			moves = append(moves, mv)
		}
	}
	return moves
}

// moveFor returns the single legal move of m for dice, if any.
func (e *Engine) moveFor(m Marble, p *Player, dice int) (Move, bool) {
	switch {
	case m.InStart():
		if dice != 1 && dice != 6 {
			return Move{}, false
		}
		start := StartPosition(p.Color)
		if e.ownMarbleAt(start, p.ID) {
			return Move{}, false
		}
		return Move{
			MarbleID:      m.ID,
			From:          StartArea,
			To:            start,
			EnteringTrack: true,
			Captured:      e.captureAt(start, p.ID),
		}, true

	case m.OnTrack():
		to, ok := trackTarget(m.Position, p.Color, dice)
		if !ok || e.ownMarbleAt(to, p.ID) {
			return Move{}, false
		}
		mv := Move{MarbleID: m.ID, From: m.Position, To: to}
		if to < TrackSize {
			mv.Captured = e.captureAt(to, p.ID)
		}
		return mv, true

	case m.InHome() && !m.Finished():
		off := m.HomeOffset() + dice
		if off >= HomeSize {
			return Move{}, false
		}
		to := HomeEntry(p.Color) + off
		if e.ownMarbleAt(to, p.ID) {
			return Move{}, false
		}
		return Move{MarbleID: m.ID, From: m.Position, To: to}, true
	}
	return Move{}, false
}

// trackTarget walks dice cells forward from a track cell. Landing on the
// color's start cell diverts the rest of the roll into the home lane.
func trackTarget(from int, c Color, dice int) (int, bool) {
	start := StartPosition(c)
	pos := from
	for step := 1; step <= dice; step++ {
		pos = Advance(pos, 1)
		if pos != start {
			continue
		}
		rem := dice - step
		switch {
		case rem == 0:
			return pos, true
		case rem <= HomeSize:
			return HomeEntry(c) + rem - 1, true
		default:
			return 0, false // overshoots the home lane
		}
	}
	return pos, true
}

func (e *Engine) ownMarbleAt(pos, playerID int) bool {
	for _, m := range e.marbles {
		if m.PlayerID == playerID && m.Position == pos {
			return true
		}
	}
	return false
}

// captureAt returns the id of the opponent marble a landing on pos would
// capture, or "" when none.
func (e *Engine) captureAt(pos, playerID int) string {
	if IsSafe(pos) {
		return ""
	}
	for _, m := range e.marbles {
		if m.PlayerID != playerID && m.Position == pos {
			return m.ID
		}
	}
	return ""
}
