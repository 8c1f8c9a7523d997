// Command marblesim plays AI-only games and reports win rates and game
// length, to compare difficulty tiers against each other.
//
//	marblesim -games 2000 -players 4 -difficulty easy,medium,hard,hard -seed 7
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/marbles/internal/game"
	"github.com/robalobadob/marbles/internal/sim"
)

var (
	games      = flag.Int("games", 1000, "number of games to simulate")
	players    = flag.Int("players", 4, "seats per game (2-4)")
	difficulty = flag.String("difficulty", "medium", "comma-separated difficulty per seat, or one for all")
	seed       = flag.Uint64("seed", 1, "base seed; game i uses seed+i")
	maxTurns   = flag.Int("max-turns", 5000, "abandon games longer than this")
	verbose    = flag.Bool("verbose", false, "log every game")
)

func main() {
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	diffs, err := parseDifficulties(*difficulty)
	if err != nil {
		log.Fatal().Err(err).Msg("bad -difficulty")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	rep, err := sim.Run(ctx, sim.Config{
		Games:        *games,
		Players:      *players,
		Difficulties: diffs,
		Seed:         *seed,
		MaxTurns:     *maxTurns,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("simulation failed")
	}
	log.Info().Int("games", rep.Games).Dur("took", time.Since(start)).Msg("done")

	fmt.Printf("games: %d  finished: %d  abandoned: %d\n", rep.Games, rep.Finished, rep.Abandoned)
	for seat, w := range rep.Wins {
		color := game.Colors[seat]
		fmt.Printf("  seat %d %-6s %-6s wins %5d  (%5.1f%%)\n", seat, color, rep.Difficulty[seat], w, 100*rep.WinRate[seat])
	}
	fmt.Printf("turns: mean %.1f  stddev %.1f  p50 %.0f  p90 %.0f\n", rep.TurnsMean, rep.TurnsStd, rep.TurnsP50, rep.TurnsP90)
}

func parseDifficulties(s string) ([]game.Difficulty, error) {
	var out []game.Difficulty
	for _, part := range strings.Split(s, ",") {
		d, err := game.ParseDifficulty(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}
