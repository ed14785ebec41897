// Package sqlitestore keeps game snapshots in a SQLite database.
//
// Store implements session.SessionPersistence. Each game is one row keyed
// by its id, with the JSON encoded game in the data column.
package sqlitestore

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/wricardo/codenames-server/game/engine"
	"github.com/wricardo/codenames-server/game/session"
)

const schema = `
CREATE TABLE IF NOT EXISTS games (
	id            TEXT PRIMARY KEY,
	chain_prev    TEXT NOT NULL DEFAULT '',
	chain_next    TEXT NOT NULL DEFAULT '',
	last_modified INTEGER NOT NULL,
	saved_at      INTEGER NOT NULL,
	data          TEXT NOT NULL
);`

// Store is a SQLite backed session.SessionPersistence
type Store struct {
	db *sql.DB
}

var _ session.SessionPersistence = (*Store)(nil)

// Open opens (and creates if missing) the database file at path
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create games table: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// Save inserts or replaces the snapshot of a game
func (s *Store) Save(game *engine.Game) error {
	if game == nil || game.ID == "" {
		return fmt.Errorf("%w: game must have an id", session.ErrInvalidSession)
	}

	data, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("marshal game %s: %w", game.ID, err)
	}

	_, err = s.db.Exec(
		`INSERT INTO games (id, chain_prev, chain_next, last_modified, saved_at, data)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			chain_prev = excluded.chain_prev,
			chain_next = excluded.chain_next,
			last_modified = excluded.last_modified,
			saved_at = excluded.saved_at,
			data = excluded.data`,
		game.ID, game.ChainPrev, game.ChainNext,
		game.LastModified.UnixMilli(), time.Now().UnixMilli(), string(data),
	)
	if err != nil {
		return fmt.Errorf("save game %s: %w", game.ID, err)
	}
	return nil
}

// Load reads the snapshot of a game
func (s *Store) Load(id string) (*engine.Game, error) {
	var data string
	err := s.db.QueryRow(`SELECT data FROM games WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, session.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load game %s: %w", id, err)
	}

	var game engine.Game
	if err := json.Unmarshal([]byte(data), &game); err != nil {
		return nil, fmt.Errorf("unmarshal game %s: %w", id, err)
	}
	return &game, nil
}

// Delete removes a game snapshot
func (s *Store) Delete(id string) error {
	res, err := s.db.Exec(`DELETE FROM games WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete game %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return session.ErrSessionNotFound
	}
	return nil
}

// ListAll returns the ids of all stored games, oldest first
func (s *Store) ListAll() ([]string, error) {
	rows, err := s.db.Query(`SELECT id FROM games ORDER BY last_modified`)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Exists reports whether a snapshot of the game is stored
func (s *Store) Exists(id string) bool {
	var one int
	err := s.db.QueryRow(`SELECT 1 FROM games WHERE id = ?`, id).Scan(&one)
	return err == nil
}
