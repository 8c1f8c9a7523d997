// main.go
//
// Entry point for the marbles game server.
// Loads .env, configures zerolog, opens the configured store and serves the
// HTTP API until the process is stopped.

package main

import (
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/marbles/internal/config"
	"github.com/robalobadob/marbles/internal/httpserver"
	"github.com/robalobadob/marbles/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	var st store.Store
	switch cfg.Store {
	case "memory":
		st = store.NewMemoryStore()
		log.Warn().Msg("using in-memory store; games are lost on restart")
	default:
		sq, err := store.OpenSQLite(cfg.DBPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("failed to open database")
		}
		defer sq.Close()
		st = sq
	}

	srv := httpserver.New(st, cfg)
	log.Info().Str("port", cfg.Port).Str("store", cfg.Store).Bool("seatAuth", cfg.SeatAuth).Msg("starting marbles server")
	if err := srv.Start(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
