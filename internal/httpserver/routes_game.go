// internal/httpserver/routes_game.go
//
// HTTP routes for games, mounted under /api:
//   - POST   /api/game/new          → create a game, issue seat tokens
//   - GET    /api/games?limit=      → recently updated games
//   - GET    /api/game/{id}         → current state
//   - GET    /api/game/{id}/moves   → legal moves of the current player (?dice= optional)
//   - POST   /api/game/{id}/roll    → roll for the current player
//   - POST   /api/game/{id}/move    → play one of the rolled moves
//   - POST   /api/game/{id}/ai-turn → play a whole turn for the current AI seat
//   - DELETE /api/game/{id}         → delete a game
//
// Every handler that changes a game saves it before answering.

package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/marbles/internal/ai"
	"github.com/robalobadob/marbles/internal/game"
)

var errBadRequest = errors.New("bad request")

// mountGame registers all game routes on r.
func (s *Server) mountGame(r chi.Router) {
	r.Post("/game/new", s.handleNewGame)
	r.Get("/games", s.handleRecent)
	r.Route("/game/{id}", func(r chi.Router) {
		r.Get("/", s.handleGet)
		r.Delete("/", s.handleDelete)
		r.Get("/moves", s.handleMoves)
		r.Post("/roll", s.handleRoll)
		r.Post("/move", s.handleMove)
		r.Post("/ai-turn", s.handleAITurn)
	})
}

// withSession runs fn on the locked session named by the {id} URL param
// and writes its result as JSON.
func (s *Server) withSession(w http.ResponseWriter, r *http.Request, fn func(*session) (any, error)) {
	sess, err := s.sessions.acquire(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	defer s.sessions.release(sess)

	out, err := fn(sess)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// decodeJSON reads a JSON body into v. An empty body leaves v untouched.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: invalid json", errBadRequest)
	}
	return nil
}

// -----------------------------------------------------------------------------
// POST /api/game/new

type newGameReq struct {
	NumPlayers   int      `json:"num_players"`
	PlayerNames  []string `json:"player_names"`
	AIPlayers    []int    `json:"ai_players"`
	AIDifficulty string   `json:"ai_difficulty"`
	Mode         string   `json:"mode"` // "local" (default) | "ai"
}

type newGameRes struct {
	GameID     string            `json:"game_id"`
	State      game.Snapshot     `json:"state"`
	SeatTokens map[string]string `json:"seat_tokens"`
}

func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	req := newGameReq{NumPlayers: 2}
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}

	difficulty, err := game.ParseDifficulty(req.AIDifficulty)
	if err != nil {
		writeErr(w, err)
		return
	}

	switch req.Mode {
	case "", "local":
		for _, seat := range req.AIPlayers {
			if seat < 0 || seat >= req.NumPlayers {
				writeErr(w, fmt.Errorf("%w: ai seat %d out of range", errBadRequest, seat))
				return
			}
		}
	case "ai":
		// everyone but the first seat
		req.AIPlayers = req.AIPlayers[:0]
		for seat := 1; seat < req.NumPlayers; seat++ {
			req.AIPlayers = append(req.AIPlayers, seat)
		}
	default:
		writeErr(w, fmt.Errorf("%w: unknown mode %q", errBadRequest, req.Mode))
		return
	}

	e, err := game.NewGame(req.NumPlayers, req.PlayerNames, req.AIPlayers, difficulty)
	if err != nil {
		writeErr(w, err)
		return
	}

	id, err := s.sessions.create(r.Context(), e)
	if err != nil {
		writeErr(w, err)
		return
	}

	var humans []int
	for _, p := range e.Players() {
		if !p.AI {
			humans = append(humans, p.ID)
		}
	}
	tokens, err := s.seats.issueAll(id, humans)
	if err != nil {
		writeErr(w, err)
		return
	}

	log.Info().Str("gameId", id).Int("players", req.NumPlayers).Ints("aiSeats", req.AIPlayers).
		Str("difficulty", difficulty.String()).Msg("game created")
	writeJSON(w, http.StatusOK, newGameRes{GameID: id, State: e.Snapshot(), SeatTokens: tokens})
}

// -----------------------------------------------------------------------------
// GET /api/games

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			writeError(w, http.StatusBadRequest, "limit must be 1-100")
			return
		}
		limit = n
	}
	games, err := s.store.Recent(r.Context(), limit)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"games": games})
}

// -----------------------------------------------------------------------------
// GET /api/game/{id}, DELETE /api/game/{id}

type stateRes struct {
	GameID string        `json:"game_id"`
	State  game.Snapshot `json:"state"`
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *session) (any, error) {
		return stateRes{GameID: sess.id, State: sess.engine.Snapshot()}, nil
	})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ok, err := s.sessions.remove(r.Context(), id)
	if err != nil {
		writeErr(w, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "Game not found")
		return
	}
	log.Info().Str("gameId", id).Msg("game deleted")
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// -----------------------------------------------------------------------------
// GET /api/game/{id}/moves

type movesRes struct {
	PlayerID   int         `json:"player_id"`
	Dice       int         `json:"dice_value"`
	ValidMoves []game.Move `json:"valid_moves"`
}

func (s *Server) handleMoves(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *session) (any, error) {
		e := sess.engine
		dice, rolled := e.Dice()
		if v := r.URL.Query().Get("dice"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("%w: dice must be a number", errBadRequest)
			}
			dice = n
		} else if !rolled {
			return nil, fmt.Errorf("%w: dice required before a roll", errBadRequest)
		}

		player := e.CurrentPlayer()
		moves, err := e.ValidMoves(player.ID, dice)
		if err != nil {
			return nil, err
		}
		return movesRes{PlayerID: player.ID, Dice: dice, ValidMoves: nonNil(moves)}, nil
	})
}

// -----------------------------------------------------------------------------
// POST /api/game/{id}/roll

type rollRes struct {
	Dice       int           `json:"dice_value"`
	ValidMoves []game.Move   `json:"valid_moves"`
	State      game.Snapshot `json:"state"`
}

func (s *Server) handleRoll(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *session) (any, error) {
		e := sess.engine
		if err := s.seats.authorize(r, sess.id, e.CurrentPlayer().ID); err != nil {
			return nil, err
		}
		dice, moves, err := e.RollDice()
		if err != nil {
			return nil, err
		}
		if err := s.sessions.save(r.Context(), sess); err != nil {
			return nil, err
		}
		return rollRes{Dice: dice, ValidMoves: nonNil(moves), State: e.Snapshot()}, nil
	})
}

// -----------------------------------------------------------------------------
// POST /api/game/{id}/move

type moveReq struct {
	MarbleID   *string `json:"marble_id"`
	ToPosition *int    `json:"to_position"`
}

type moveRes struct {
	game.MoveResult
	State game.Snapshot `json:"state"`
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req moveReq
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	if req.MarbleID == nil || req.ToPosition == nil {
		writeError(w, http.StatusBadRequest, "Missing marble_id or to_position")
		return
	}

	s.withSession(w, r, func(sess *session) (any, error) {
		e := sess.engine
		if err := s.seats.authorize(r, sess.id, e.CurrentPlayer().ID); err != nil {
			return nil, err
		}
		res, err := e.MakeMove(*req.MarbleID, *req.ToPosition)
		if err != nil {
			return nil, err
		}
		if err := s.sessions.save(r.Context(), sess); err != nil {
			return nil, err
		}
		logFinished(sess.id, res)
		return moveRes{MoveResult: res, State: e.Snapshot()}, nil
	})
}

// -----------------------------------------------------------------------------
// POST /api/game/{id}/ai-turn

type aiTurnRes struct {
	ai.Turn
	State game.Snapshot `json:"state"`
}

func (s *Server) handleAITurn(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *session) (any, error) {
		turn, err := ai.PlayTurn(sess.engine, sess.aiRand)
		if errors.Is(err, ai.ErrNotAITurn) {
			return nil, err
		}
		if err != nil {
			// the roll may already have happened; reload the stored state
			sess.engine = nil
			return nil, err
		}
		if err := s.sessions.save(r.Context(), sess); err != nil {
			return nil, err
		}
		if turn.Result != nil {
			logFinished(sess.id, *turn.Result)
		}
		return aiTurnRes{Turn: turn, State: sess.engine.Snapshot()}, nil
	})
}

func logFinished(id string, res game.MoveResult) {
	if res.GameOver && res.Winner != nil {
		log.Info().Str("gameId", id).Int("winner", *res.Winner).Msg("game finished")
	}
}

func nonNil(moves []game.Move) []game.Move {
	if moves == nil {
		return []game.Move{}
	}
	return moves
}
