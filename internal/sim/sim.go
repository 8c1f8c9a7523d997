// internal/sim/sim.go
//
// AI-vs-AI batch simulation.
// Every seat is computer controlled; games are played through the engine and
// ai.PlayTurn exactly as the server does for AI seats. Game i uses
// seed+i for its dice and a derived seed for AI choices, so a whole run is
// reproducible from one seed.

package sim

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat"

	"github.com/robalobadob/marbles/internal/ai"
	"github.com/robalobadob/marbles/internal/game"
)

// ErrBadConfig reports an unusable simulation setup.
var ErrBadConfig = errors.New("bad simulation config")

// Config describes a batch. Difficulties has one entry per seat, or a single
// entry for all seats. Games still running after MaxTurns turns are abandoned.
type Config struct {
	Games        int
	Players      int
	Difficulties []game.Difficulty
	Seed         uint64
	MaxTurns     int
}

// Report summarizes a batch.
type Report struct {
	Games      int       `json:"games"`
	Finished   int       `json:"finished"`
	Abandoned  int       `json:"abandoned"`
	Wins       []int     `json:"wins"`
	WinRate    []float64 `json:"win_rate"`
	TurnsMean  float64   `json:"turns_mean"`
	TurnsStd   float64   `json:"turns_stddev"`
	TurnsP50   float64   `json:"turns_p50"`
	TurnsP90   float64   `json:"turns_p90"`
	Difficulty []string  `json:"difficulty"`
}

func (c Config) seatDifficulties() ([]game.Difficulty, error) {
	switch len(c.Difficulties) {
	case 0:
		return repeat(game.Medium, c.Players), nil
	case 1:
		return repeat(c.Difficulties[0], c.Players), nil
	case c.Players:
		return c.Difficulties, nil
	}
	return nil, fmt.Errorf("%w: %d difficulties for %d players", ErrBadConfig, len(c.Difficulties), c.Players)
}

// Run plays cfg.Games games and aggregates the outcome. It stops early,
// returning ctx.Err(), when ctx is cancelled.
func Run(ctx context.Context, cfg Config) (Report, error) {
	if cfg.Games < 1 {
		return Report{}, fmt.Errorf("%w: games must be positive", ErrBadConfig)
	}
	if cfg.MaxTurns < 1 {
		return Report{}, fmt.Errorf("%w: max turns must be positive", ErrBadConfig)
	}
	if cfg.Players < game.MinPlayers || cfg.Players > game.MaxPlayers {
		return Report{}, fmt.Errorf("%w: %d players", game.ErrInvalidPlayerCount, cfg.Players)
	}
	diffs, err := cfg.seatDifficulties()
	if err != nil {
		return Report{}, err
	}

	rep := Report{Games: cfg.Games, Wins: make([]int, cfg.Players)}
	for _, d := range diffs {
		rep.Difficulty = append(rep.Difficulty, d.String())
	}

	var turns []float64
	for i := 0; i < cfg.Games; i++ {
		if err := ctx.Err(); err != nil {
			return Report{}, err
		}
		winner, n, err := playOne(cfg.Seed+uint64(i), diffs, cfg.MaxTurns)
		if err != nil {
			return Report{}, fmt.Errorf("game %d: %w", i, err)
		}
		if winner < 0 {
			rep.Abandoned++
			log.Debug().Int("game", i).Int("turns", n).Msg("abandoned")
			continue
		}
		rep.Finished++
		rep.Wins[winner]++
		turns = append(turns, float64(n))
		log.Debug().Int("game", i).Int("winner", winner).Int("turns", n).Msg("finished")
	}

	rep.WinRate = make([]float64, cfg.Players)
	for seat, w := range rep.Wins {
		rep.WinRate[seat] = float64(w) / float64(cfg.Games)
	}
	if len(turns) > 0 {
		sort.Float64s(turns)
		rep.TurnsMean, rep.TurnsStd = stat.MeanStdDev(turns, nil)
		rep.TurnsP50 = stat.Quantile(0.5, stat.Empirical, turns, nil)
		rep.TurnsP90 = stat.Quantile(0.9, stat.Empirical, turns, nil)
	}
	return rep, nil
}

// playOne plays a single game and returns the winning seat (-1 when
// abandoned) and the number of turns played.
func playOne(seed uint64, diffs []game.Difficulty, maxTurns int) (int, int, error) {
	e, err := newGame(seed, diffs)
	if err != nil {
		return 0, 0, err
	}
	choices := rand.New(rand.NewSource(seed ^ 0x9e3779b97f4a7c15))
	for e.TurnCount() < maxTurns {
		if _, err := ai.PlayTurn(e, choices); err != nil {
			return 0, 0, err
		}
		if w, ok := e.Winner(); ok {
			return w, e.TurnCount(), nil
		}
	}
	return -1, e.TurnCount(), nil
}

// newGame seats one AI per difficulty.
func newGame(seed uint64, diffs []game.Difficulty) (*game.Engine, error) {
	seats := make([]int, len(diffs))
	for i := range seats {
		seats[i] = i
	}
	e, err := game.NewGame(len(diffs), nil, seats, diffs[0])
	if err != nil {
		return nil, err
	}
	s := e.Snapshot()
	for i, d := range diffs {
		s.Players[i].AIDifficulty = d.String()
	}
	return game.Load(s, game.WithSeed(seed))
}

func repeat(d game.Difficulty, n int) []game.Difficulty {
	out := make([]game.Difficulty, n)
	for i := range out {
		out[i] = d
	}
	return out
}
