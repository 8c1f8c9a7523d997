// internal/store/sqlite.go
//
// SQLite implementation of Store.
// Responsibilities:
//   - Opening the database with safe defaults (WAL, busy timeout, foreign keys).
//   - Applying embedded migrations (idempotent, recorded in _migrations).
//   - games table CRUD; the engine snapshot is kept as JSON in games.state.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/marbles/assets"
	"github.com/robalobadob/marbles/internal/game"
)

// Fixed-width so that text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLite is a Store backed by a SQLite database file.
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens (creating if missing) the database at path and migrates it.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLite{db: db, now: time.Now}, nil
}

// Close releases the database handle.
func (s *SQLite) Close() error { return s.db.Close() }

// openDB opens a SQLite file, creating its parent directory for relative
// paths such as ./instance/marbles.db.
func openDB(dsn string) (*sql.DB, error) {
	dir := filepath.Dir(dsn)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", dsn+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON; PRAGMA journal_mode = WAL;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set pragmas: %w", err)
	}
	return db, nil
}

// migrate applies every embedded migration not yet listed in _migrations,
// each inside its own transaction.
func migrate(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS _migrations (name TEXT PRIMARY KEY);`); err != nil {
		return fmt.Errorf("create _migrations: %w", err)
	}

	files, err := assets.Migrations()
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}

	for _, f := range files {
		var done int
		err := db.QueryRow(`SELECT 1 FROM _migrations WHERE name=?`, f).Scan(&done)
		if err == nil {
			log.Debug().Str("migration", f).Msg("already applied")
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("query _migrations: %w", err)
		}

		body, err := assets.FS.ReadFile(f)
		if err != nil {
			return fmt.Errorf("read %s: %w", f, err)
		}

		tx, err := db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(string(body)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply %s: %w", f, err)
		}
		if _, err := tx.Exec(`INSERT INTO _migrations(name) VALUES (?)`, f); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record %s: %w", f, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit %s: %w", f, err)
		}
		log.Info().Str("migration", f).Msg("applied")
	}
	return nil
}

func (s *SQLite) Create(ctx context.Context, snap game.Snapshot) (string, error) {
	state, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("encode state: %w", err)
	}
	status, winner := statusOf(snap)
	now := s.now().UTC().Format(timeLayout)

	// Retry on the rare short-id collision.
	for attempt := 0; attempt < 3; attempt++ {
		id := NewID()
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO games (id, state, status, winner, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			id, string(state), status, winner, now, now,
		)
		if err == nil {
			return id, nil
		}
		if !strings.Contains(err.Error(), "UNIQUE constraint failed") {
			break
		}
	}
	return "", fmt.Errorf("insert game: %w", err)
}

func (s *SQLite) Get(ctx context.Context, id string) (Record, error) {
	var (
		r                Record
		state            string
		winner           sql.NullInt64
		created, updated string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, state, status, winner, created_at, updated_at
		FROM games WHERE id=?`, id,
	).Scan(&r.ID, &state, &r.Status, &winner, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}
	if err := json.Unmarshal([]byte(state), &r.State); err != nil {
		return Record{}, fmt.Errorf("decode state of %s: %w", id, err)
	}
	r.Winner = nullInt(winner)
	r.CreatedAt = parseTime(created)
	r.UpdatedAt = parseTime(updated)
	return r, nil
}

func (s *SQLite) Update(ctx context.Context, id string, snap game.Snapshot) error {
	state, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	status, winner := statusOf(snap)
	res, err := s.db.ExecContext(ctx, `
		UPDATE games SET state=?, status=?, winner=?, updated_at=?
		WHERE id=?`,
		string(state), status, winner, s.now().UTC().Format(timeLayout), id,
	)
	if err != nil {
		return fmt.Errorf("update game %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLite) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM games WHERE id=?`, id)
	if err != nil {
		return false, fmt.Errorf("delete game %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLite) Recent(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, status, winner, created_at, updated_at
		FROM games
		ORDER BY updated_at DESC, id ASC
		LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Summary, 0, limit)
	for rows.Next() {
		var (
			sm               Summary
			winner           sql.NullInt64
			created, updated string
		)
		if err := rows.Scan(&sm.ID, &sm.Status, &winner, &created, &updated); err != nil {
			return nil, err
		}
		sm.Winner = nullInt(winner)
		sm.CreatedAt = parseTime(created)
		sm.UpdatedAt = parseTime(updated)
		out = append(out, sm)
	}
	return out, rows.Err()
}

func nullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

// parseTime parses stored timestamps; on error returns zero time.
func parseTime(s string) time.Time {
	t, _ := time.Parse(timeLayout, s)
	return t
}
