package game

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

// scriptedRand replays fixed dice values (1-6) in order.
type scriptedRand struct {
	rolls []int
	i     int
}

func (s *scriptedRand) Intn(n int) int {
	v := s.rolls[s.i%len(s.rolls)] - 1
	s.i++
	return v
}

func newTestGame(t *testing.T, players int, rolls ...int) *Engine {
	t.Helper()
	if len(rolls) == 0 {
		rolls = []int{1}
	}
	e, err := NewGame(players, nil, nil, Medium, WithRand(&scriptedRand{rolls: rolls}))
	require.NoError(t, err)
	return e
}

func findMove(moves []Move, marbleID string) (Move, bool) {
	for _, mv := range moves {
		if mv.MarbleID == marbleID {
			return mv, true
		}
	}
	return Move{}, false
}

// place puts marble id at pos, bypassing the rules.
func place(t *testing.T, e *Engine, id string, pos int) {
	t.Helper()
	i, ok := e.index[id]
	require.True(t, ok, "unknown marble %s", id)
	e.marbles[i].Position = pos
}

func TestNewGame(t *testing.T) {
	t.Run("rejects player counts outside 2-4", func(t *testing.T) {
		for _, n := range []int{-1, 0, 1, 5} {
			_, err := NewGame(n, nil, nil, Medium)
			require.ErrorIs(t, err, ErrInvalidPlayerCount, "n=%d", n)
		}
	})

	t.Run("builds seats and marbles", func(t *testing.T) {
		e, err := NewGame(3, []string{"Ann", ""}, []int{2}, Hard)
		require.NoError(t, err)

		players := e.Players()
		require.Len(t, players, 3)
		require.Equal(t, "Ann", players[0].Name)
		require.Equal(t, "Player 2", players[1].Name)
		require.Equal(t, "Player 3", players[2].Name)
		require.Equal(t, []Color{Red, Blue, Green}, []Color{players[0].Color, players[1].Color, players[2].Color})
		require.False(t, players[0].AI)
		require.True(t, players[2].AI)
		require.Equal(t, Hard, players[2].Difficulty)

		ids := []string{}
		for _, m := range e.Marbles() {
			require.Equal(t, StartArea, m.Position)
			ids = append(ids, m.ID)
		}
		require.Equal(t, []string{"r0", "r1", "r2", "r3", "b0", "b1", "b2", "b3", "g0", "g1", "g2", "g3"}, ids)

		require.Equal(t, StatusRolling, e.Status())
		require.Equal(t, 0, e.CurrentPlayer().ID)
		require.Equal(t, 0, e.TurnCount())
		_, rolled := e.Dice()
		require.False(t, rolled)
		_, won := e.Winner()
		require.False(t, won)
		require.Equal(t, 4, e.MarblesInStart(0))
		require.Equal(t, 0, e.MarblesHome(0))
	})
}

func TestValidMovesArguments(t *testing.T) {
	e := newTestGame(t, 2)
	for _, d := range []int{0, 7, -3} {
		_, err := e.ValidMoves(0, d)
		require.ErrorIs(t, err, ErrInvalidDice)
	}
	_, err := e.ValidMoves(2, 3)
	require.ErrorIs(t, err, ErrUnknownPlayer)
}

func TestStartExitOnlyOnOneOrSix(t *testing.T) {
	e := newTestGame(t, 4)
	for _, p := range e.Players() {
		for dice := 1; dice <= 6; dice++ {
			moves, err := e.ValidMoves(p.ID, dice)
			require.NoError(t, err)
			if dice != 1 && dice != 6 {
				require.Empty(t, moves, "player %d dice %d", p.ID, dice)
				continue
			}
			require.Len(t, moves, MarblesPerPlayer, "player %d dice %d", p.ID, dice)
			for i, mv := range moves {
				require.Equal(t, fmt.Sprintf("%s%d", p.Color.Initial(), i), mv.MarbleID)
				require.True(t, mv.EnteringTrack)
				require.Equal(t, StartArea, mv.From)
				require.Equal(t, StartPosition(p.Color), mv.To)
			}
		}
	}
}

func TestStartExitBlockedByOwnMarble(t *testing.T) {
	e := newTestGame(t, 2)
	place(t, e, "r0", 0)
	moves, err := e.ValidMoves(0, 6)
	require.NoError(t, err)
	require.Len(t, moves, 1)
	require.Equal(t, "r0", moves[0].MarbleID, "only the marble on the start cell may move")
	require.Equal(t, 6, moves[0].To)
}

func TestMoveJSONCapturedIsNull(t *testing.T) {
	raw, err := json.Marshal(Move{MarbleID: "r0", From: StartArea, To: 0, EnteringTrack: true})
	require.NoError(t, err)
	require.JSONEq(t, `{"marble_id":"r0","from_position":-1,"to_position":0,"is_entering_track":true,"captured_marble_id":null}`, string(raw))

	raw, err = json.Marshal(Move{MarbleID: "r0", From: 17, To: 20, Captured: "b0"})
	require.NoError(t, err)
	require.JSONEq(t, `{"marble_id":"r0","from_position":17,"to_position":20,"is_entering_track":false,"captured_marble_id":"b0"}`, string(raw))

	var back Move
	require.NoError(t, json.Unmarshal(raw, &back))
	require.Equal(t, Move{MarbleID: "r0", From: 17, To: 20, Captured: "b0"}, back)
}

func TestTrackAdvance(t *testing.T) {
	e := newTestGame(t, 2)
	for _, from := range []int{1, 5, 20, 40, 49} {
		place(t, e, "r0", from)
		for dice := 1; dice <= 6; dice++ {
			moves, err := e.ValidMoves(0, dice)
			require.NoError(t, err)
			got, ok := findMove(moves, "r0")
			require.True(t, ok, "from %d dice %d", from, dice)
			require.Equal(t, (from+dice)%TrackSize, got.To)
			require.False(t, got.EnteringTrack)
		}
	}
}

func TestTrackWrapsForOtherColors(t *testing.T) {
	e := newTestGame(t, 2)
	place(t, e, "b0", 53)
	moves, err := e.ValidMoves(1, 5)
	require.NoError(t, err)
	require.Len(t, moves, 1)
	require.Equal(t, 2, moves[0].To)
}

func TestHomeEntry(t *testing.T) {
	cases := []struct {
		name   string
		marble string
		player int
		from   int
		dice   int
		want   int
		legal  bool
	}{
		{"red lands exactly on start cell", "r0", 0, 54, 2, 0, true},
		{"red enters home with remainder 2", "r0", 0, 54, 4, 57, true},
		{"red fills last home cell", "r0", 0, 54, 6, 59, true},
		{"red short of start", "r0", 0, 54, 1, 55, true},
		{"red overshoots home lane", "r0", 0, 55, 6, 0, false},
		{"blue lands on start cell", "b0", 1, 12, 2, 14, true},
		{"blue enters home", "b0", 1, 12, 3, 60, true},
		{"blue passes other start cells freely", "b0", 1, 54, 3, 1, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newTestGame(t, 2)
			place(t, e, tc.marble, tc.from)
			moves, err := e.ValidMoves(tc.player, tc.dice)
			require.NoError(t, err)
			if !tc.legal {
				for _, mv := range moves {
					require.NotEqual(t, tc.marble, mv.MarbleID)
				}
				return
			}
			mv, ok := findMove(moves, tc.marble)
			require.True(t, ok)
			require.Equal(t, tc.want, mv.To)
			require.Empty(t, mv.Captured)
		})
	}
}

func TestHomeLaneMoves(t *testing.T) {
	e := newTestGame(t, 2)
	place(t, e, "r0", 57)

	moves, err := e.ValidMoves(0, 2)
	require.NoError(t, err)
	require.Equal(t, []Move{{MarbleID: "r0", From: 57, To: 59}}, moves)

	moves, err = e.ValidMoves(0, 3)
	require.NoError(t, err)
	require.Empty(t, moves, "no overshoot past the finished cell")

	place(t, e, "r1", 58)
	moves, err = e.ValidMoves(0, 1)
	require.NoError(t, err)
	require.Len(t, moves, 2)
	for _, mv := range moves {
		require.NotEqual(t, "r0", mv.MarbleID, "r0 is blocked by r1")
	}

	place(t, e, "r0", 59)
	m, _ := e.Marble("r0")
	require.True(t, m.Finished())
	require.True(t, m.InHome())
	for dice := 1; dice <= 6; dice++ {
		moves, err := e.ValidMoves(0, dice)
		require.NoError(t, err)
		for _, mv := range moves {
			require.NotEqual(t, "r0", mv.MarbleID)
		}
	}
}

func TestOwnMarbleBlocksTrackMove(t *testing.T) {
	e := newTestGame(t, 2)
	place(t, e, "r0", 10)
	place(t, e, "r1", 13)
	moves, err := e.ValidMoves(0, 3)
	require.NoError(t, err)
	require.Equal(t, []Move{{MarbleID: "r1", From: 13, To: 16}}, moves)
}

func TestCapture(t *testing.T) {
	t.Run("opponent on a plain cell is captured", func(t *testing.T) {
		e := newTestGame(t, 2, 3)
		place(t, e, "r0", 17)
		place(t, e, "b0", 20)

		dice, moves, err := e.RollDice()
		require.NoError(t, err)
		require.Equal(t, 3, dice)
		require.Equal(t, []Move{{MarbleID: "r0", From: 17, To: 20, Captured: "b0"}}, moves)

		res, err := e.MakeMove("r0", 20)
		require.NoError(t, err)
		require.NotNil(t, res.Captured)
		require.Equal(t, "b0", res.Captured.ID)
		require.Equal(t, StartArea, res.Captured.Position)

		b0, _ := e.Marble("b0")
		require.Equal(t, StartArea, b0.Position)
		r0, _ := e.Marble("r0")
		require.Equal(t, 20, r0.Position)
	})

	t.Run("safe spots are never captured", func(t *testing.T) {
		for _, safe := range SafeSpots() {
			for dice := 1; dice <= 6; dice++ {
				if safe == StartPosition(Red) {
					continue // red's own start cell diverts into home
				}
				e := newTestGame(t, 4)
				place(t, e, "r0", Advance(safe, -dice))
				place(t, e, "g0", safe)
				moves, err := e.ValidMoves(0, dice)
				require.NoError(t, err)
				mv, ok := findMove(moves, "r0")
				require.True(t, ok)
				require.Equal(t, safe, mv.To)
				require.Empty(t, mv.Captured, "safe %d dice %d", safe, dice)
			}
		}
	})
}

func TestRedStartCellIsSafeFromOpponents(t *testing.T) {
	e := newTestGame(t, 2)
	place(t, e, "r0", 0)
	place(t, e, "b0", 55)
	moves, err := e.ValidMoves(1, 1)
	require.NoError(t, err)
	mv, ok := findMove(moves, "b0")
	require.True(t, ok)
	require.Equal(t, 0, mv.To)
	require.Empty(t, mv.Captured)
}

func TestValidMovesIsIdempotent(t *testing.T) {
	e := newTestGame(t, 3)
	place(t, e, "r0", 12)
	place(t, e, "r1", 57)
	place(t, e, "b0", 15)
	before := e.Snapshot()
	for dice := 1; dice <= 6; dice++ {
		a, err := e.ValidMoves(0, dice)
		require.NoError(t, err)
		b, err := e.ValidMoves(0, dice)
		require.NoError(t, err)
		require.Equal(t, a, b)
	}
	require.Equal(t, before, e.Snapshot())
}

func TestRollSixEntersAndKeepsTurn(t *testing.T) {
	e := newTestGame(t, 2, 6)

	dice, moves, err := e.RollDice()
	require.NoError(t, err)
	require.Equal(t, 6, dice)
	require.Len(t, moves, MarblesPerPlayer)
	require.Equal(t, StatusMoving, e.Status())

	// any waiting marble may take the exit
	res, err := e.MakeMove("r2", 0)
	require.NoError(t, err)
	require.True(t, res.ExtraTurn)
	r2, _ := e.Marble("r2")
	require.Equal(t, 0, r2.Position)
	require.Equal(t, 3, e.MarblesInStart(0))
	require.False(t, res.GameOver)
	require.Equal(t, 0, e.CurrentPlayer().ID)
	require.Equal(t, StatusRolling, e.Status())
	require.Equal(t, 1, e.TurnCount())
	_, rolled := e.Dice()
	require.False(t, rolled)
}

func TestOnlySixGrantsExtraTurn(t *testing.T) {
	for dice := 1; dice <= 5; dice++ {
		e := newTestGame(t, 2, dice)
		place(t, e, "r0", 20)
		_, moves, err := e.RollDice()
		require.NoError(t, err)
		require.NotEmpty(t, moves)
		res, err := e.MakeMove(moves[0].MarbleID, moves[0].To)
		require.NoError(t, err)
		require.False(t, res.ExtraTurn, "dice %d", dice)
		require.Equal(t, 1, e.CurrentPlayer().ID, "dice %d", dice)
		require.Equal(t, 1, e.TurnCount())
	}
}

func TestRollWithoutMovesPassesTurn(t *testing.T) {
	e := newTestGame(t, 3, 3, 6)

	dice, moves, err := e.RollDice()
	require.NoError(t, err)
	require.Equal(t, 3, dice)
	require.Empty(t, moves)
	require.Equal(t, StatusRolling, e.Status())
	require.Equal(t, 1, e.CurrentPlayer().ID)
	require.Equal(t, 1, e.TurnCount())

	// a six with nothing to move still passes the turn
	for i, id := range []string{"b0", "b1", "b2", "b3"} {
		place(t, e, id, HomeEntry(Blue)+i)
	}
	dice, moves, err = e.RollDice()
	require.NoError(t, err)
	require.Equal(t, 6, dice)
	require.Empty(t, moves)
	require.Equal(t, 2, e.CurrentPlayer().ID)
	require.Equal(t, 2, e.TurnCount())
}

func TestOperationsRejectedInWrongState(t *testing.T) {
	e := newTestGame(t, 2, 6)

	_, err := e.MakeMove("r0", 0)
	require.ErrorIs(t, err, ErrIllegalStateTransition)

	_, _, err = e.RollDice()
	require.NoError(t, err)
	_, _, err = e.RollDice()
	require.ErrorIs(t, err, ErrIllegalStateTransition)

	var empty Engine
	_, _, err = empty.RollDice()
	require.ErrorIs(t, err, ErrIllegalStateTransition)
}

func TestMakeMoveValidation(t *testing.T) {
	e := newTestGame(t, 2, 6)
	place(t, e, "r0", 20)
	_, _, err := e.RollDice()
	require.NoError(t, err)

	_, err = e.MakeMove("x9", 0)
	require.ErrorIs(t, err, ErrUnknownMarble)

	_, err = e.MakeMove("b0", 14)
	require.ErrorIs(t, err, ErrNotOwner)

	_, err = e.MakeMove("r0", 25)
	require.ErrorIs(t, err, ErrIllegalMove)

	_, err = e.MakeMove("r2", 6)
	require.ErrorIs(t, err, ErrIllegalMove, "start marbles exit onto the start cell only")

	// failed attempts leave the engine untouched
	require.Equal(t, StatusMoving, e.Status())
	r0, _ := e.Marble("r0")
	require.Equal(t, 20, r0.Position)

	_, err = e.MakeMove("r0", 26)
	require.NoError(t, err)
}

func TestWinDetection(t *testing.T) {
	e := newTestGame(t, 2, 6)
	place(t, e, "r0", 56)
	place(t, e, "r1", 57)
	place(t, e, "r2", 58)
	place(t, e, "r3", 54)
	require.False(t, e.HasWon(0))

	_, moves, err := e.RollDice()
	require.NoError(t, err)
	require.Equal(t, []Move{{MarbleID: "r3", From: 54, To: 59}}, moves)

	res, err := e.MakeMove("r3", 59)
	require.NoError(t, err)
	require.True(t, res.GameOver)
	require.NotNil(t, res.Winner)
	require.Equal(t, 0, *res.Winner)
	require.False(t, res.ExtraTurn, "a finished game grants no extra turn")

	require.True(t, e.HasWon(0))
	require.Equal(t, StatusFinished, e.Status())
	w, ok := e.Winner()
	require.True(t, ok)
	require.Equal(t, 0, w)
	require.Equal(t, 0, e.TurnCount())

	_, _, err = e.RollDice()
	require.ErrorIs(t, err, ErrIllegalStateTransition)
}

func TestSnapshotRoundTrip(t *testing.T) {
	e, err := NewGame(4, []string{"a", "b", "c", "d"}, []int{1, 3}, Hard, WithSeed(7))
	require.NoError(t, err)
	place(t, e, "r0", 12)
	place(t, e, "r1", 58)
	place(t, e, "b0", 15)
	place(t, e, "g2", 30)
	place(t, e, "y3", 70)
	e.turns = 9
	e.current = 2

	raw, err := json.Marshal(e.Snapshot())
	require.NoError(t, err)
	var snap Snapshot
	require.NoError(t, json.Unmarshal(raw, &snap))

	loaded, err := Load(snap)
	require.NoError(t, err)
	require.Equal(t, e.Snapshot(), loaded.Snapshot())

	for _, p := range e.Players() {
		for dice := 1; dice <= 6; dice++ {
			want, err := e.ValidMoves(p.ID, dice)
			require.NoError(t, err)
			got, err := loaded.ValidMoves(p.ID, dice)
			require.NoError(t, err)
			require.Equal(t, want, got, "player %d dice %d", p.ID, dice)
		}
	}
	require.Equal(t, e.Players(), loaded.Players())
	require.Equal(t, e.IsAITurn(), loaded.IsAITurn())
}

func TestSnapshotJSONShape(t *testing.T) {
	e := newTestGame(t, 2, 6)
	_, _, err := e.RollDice()
	require.NoError(t, err)

	raw, err := json.Marshal(e.Snapshot())
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	require.Equal(t, "moving", m["status"])
	require.EqualValues(t, 6, m["dice_value"])
	require.Nil(t, m["winner"])
	players := m["players"].([]any)
	require.Equal(t, "red", players[0].(map[string]any)["color"])
	require.Equal(t, "medium", players[0].(map[string]any)["ai_difficulty"])
	marbles := m["marbles"].([]any)
	require.Equal(t, "r0", marbles[0].(map[string]any)["id"])
}

func TestLoadRejectsInvalidSnapshots(t *testing.T) {
	valid := func() Snapshot {
		e := newTestGame(t, 2)
		return e.Snapshot()
	}
	cases := map[string]func(s *Snapshot){
		"too few players":  func(s *Snapshot) { s.Players = s.Players[:1] },
		"seat id mismatch": func(s *Snapshot) { s.Players[1].ID = 5 },
		"bad difficulty":   func(s *Snapshot) { s.Players[0].AIDifficulty = "brutal" },
		"duplicate marble": func(s *Snapshot) { s.Marbles[1].ID = s.Marbles[0].ID },
		"unknown owner":    func(s *Snapshot) { s.Marbles[0].PlayerID = 3 },
		"color mismatch":   func(s *Snapshot) { s.Marbles[0].Color = Blue },
		"bad position":     func(s *Snapshot) { s.Marbles[0].Position = 61 },
		"missing marble":   func(s *Snapshot) { s.Marbles = s.Marbles[1:] },
		"current out of range": func(s *Snapshot) {
			s.CurrentPlayer = 2
		},
		"moving without dice": func(s *Snapshot) { s.Status = StatusMoving },
		"bad dice": func(s *Snapshot) {
			d := 9
			s.DiceValue = &d
		},
		"bad winner": func(s *Snapshot) {
			w := 4
			s.Winner = &w
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			s := valid()
			mutate(&s)
			_, err := Load(s)
			require.ErrorIs(t, err, ErrInvalidSnapshot)
		})
	}
}

func TestParseDifficulty(t *testing.T) {
	d, err := ParseDifficulty("")
	require.NoError(t, err)
	require.Equal(t, Medium, d)
	d, err = ParseDifficulty("hard")
	require.NoError(t, err)
	require.Equal(t, Hard, d)
	_, err = ParseDifficulty("nightmare")
	require.ErrorIs(t, err, ErrInvalidDifficulty)
}
