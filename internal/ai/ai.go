// internal/ai/ai.go
//
// Computer opponents.
// Responsibilities:
//   - Easy: uniform random choice among legal moves.
//   - Medium: weighted score per move, random pick among near-ties.
//   - Hard: medium score adjusted for danger, blocking and spread; best move wins.
//
// Scoring weights (medium):
//   home lane            100 + 25 × lane offset
//   capture              50 + 0.5 × captured track cell (50 if not on track)
//   leaving start        40
//   track advancement    cells advanced, wrap corrected
//   safe landing         15
//
// Hard adjustments:
//   danger   −10/6 per opponent track marble 1-6 cells behind a plain track cell
//   blocking +5 per opponent track marble within 14 cells of its own start cell
//            whose remaining path crosses the destination
//   spread   +10 for leaving start while more than 2 marbles wait there
//
// The chooser only reads state through View and never mutates it.

package ai

import "github.com/robalobadob/marbles/internal/game"

const (
	nearTieMargin = 10.0
	blockWindow   = 14
)

// View is the read-only engine state the heuristics need.
type View interface {
	Players() []game.Player
	Marble(id string) (game.Marble, bool)
	PlayerMarbles(playerID int) []game.Marble
}

// Chooser picks moves at a fixed difficulty.
type Chooser struct {
	difficulty game.Difficulty
	rng        game.Rand
}

// New returns a Chooser. rng drives the easy and medium tiers.
func New(d game.Difficulty, rng game.Rand) *Chooser {
	return &Chooser{difficulty: d, rng: rng}
}

// ChooseMove selects one of moves. It reports false when moves is empty.
func (c *Chooser) ChooseMove(v View, moves []game.Move) (game.Move, bool) {
	if len(moves) == 0 {
		return game.Move{}, false
	}
	switch c.difficulty {
	case game.Easy:
		return moves[c.rng.Intn(len(moves))], true
	case game.Medium:
		return c.medium(v, moves), true
	default:
		return hard(v, moves), true
	}
}

// medium draws among near-ties; a lone legal move is taken without a draw.
func (c *Chooser) medium(v View, moves []game.Move) game.Move {
	if len(moves) == 1 {
		return moves[0]
	}
	scores := make([]float64, len(moves))
	top := 0.0
	for i, mv := range moves {
		scores[i] = score(v, mv)
		if i == 0 || scores[i] > top {
			top = scores[i]
		}
	}
	var near []game.Move
	for i, mv := range moves {
		if scores[i] >= top-nearTieMargin {
			near = append(near, mv)
		}
	}
	return near[c.rng.Intn(len(near))]
}

// hard returns the first move with the highest advanced score.
func hard(v View, moves []game.Move) game.Move {
	best, bestScore := moves[0], scoreAdvanced(v, moves[0])
	for _, mv := range moves[1:] {
		if s := scoreAdvanced(v, mv); s > bestScore {
			best, bestScore = mv, s
		}
	}
	return best
}

// score is the medium-tier evaluation of a move.
func score(v View, mv game.Move) float64 {
	m, ok := v.Marble(mv.MarbleID)
	if !ok {
		return 0
	}
	home := game.HomeEntry(m.Color)
	s := 0.0

	if mv.To >= home {
		s += 100 + 25*float64(mv.To-home)
	}
	if mv.Captures() {
		if captured, ok := v.Marble(mv.Captured); ok && captured.OnTrack() {
			s += 50 + 0.5*float64(captured.Position)
		} else {
			s += 50
		}
	}
	if mv.EnteringTrack {
		s += 40
	}
	if mv.From >= 0 && mv.To < home {
		s += float64(game.TrackDistance(mv.From, mv.To))
	}
	if game.IsSafe(mv.To) {
		s += 15
	}
	return s
}

// scoreAdvanced is the hard-tier evaluation of a move.
func scoreAdvanced(v View, mv game.Move) float64 {
	m, ok := v.Marble(mv.MarbleID)
	if !ok {
		return 0
	}
	s := score(v, mv)
	if game.IsTrackCell(mv.To) && !game.IsSafe(mv.To) {
		s -= danger(v, mv.To, m.PlayerID)
	}
	s += blocking(v, mv.To, m.PlayerID)
	s += spread(v, mv, m.PlayerID)
	return s
}

// danger approximates the chance that an opponent lands on pos next roll.
func danger(v View, pos, playerID int) float64 {
	d := 0.0
	forEachOpponentOnTrack(v, playerID, func(m game.Marble) {
		if dist := game.TrackDistance(m.Position, pos); dist >= 1 && dist <= 6 {
			d += 10.0 / 6
		}
	})
	return d
}

// blocking rewards sitting on the last stretch opponents must cover before
// turning into their home lane.
func blocking(v View, pos, playerID int) float64 {
	if !game.IsTrackCell(pos) {
		return 0
	}
	b := 0.0
	forEachOpponentOnTrack(v, playerID, func(m game.Marble) {
		toHome := game.TrackDistance(m.Position, game.StartPosition(m.Color))
		if toHome <= 0 || toHome >= blockWindow {
			return
		}
		if d := game.TrackDistance(m.Position, pos); d >= 1 && d <= toHome {
			b += 5
		}
	})
	return b
}

func spread(v View, mv game.Move, playerID int) float64 {
	if !mv.EnteringTrack {
		return 0
	}
	inStart := 0
	for _, m := range v.PlayerMarbles(playerID) {
		if m.InStart() {
			inStart++
		}
	}
	if inStart > 2 {
		return 10
	}
	return 0
}

func forEachOpponentOnTrack(v View, playerID int, fn func(game.Marble)) {
	for _, p := range v.Players() {
		if p.ID == playerID {
			continue
		}
		for _, m := range v.PlayerMarbles(p.ID) {
			if m.OnTrack() {
				fn(m)
			}
		}
	}
}
