package session

import (
	"time"

	"github.com/wricardo/codenames-server/game/engine"
)

// SessionPersistence defines the interface for persisting games
type SessionPersistence interface {
	// Save persists a game to storage
	Save(game *engine.Game) error

	// Load retrieves a game from storage by ID
	Load(id string) (*engine.Game, error)

	// Delete removes a game from storage
	Delete(id string) error

	// ListAll returns all persisted game IDs
	ListAll() ([]string, error)

	// Exists checks if a game exists in storage
	Exists(id string) bool
}

// PersistedSessionData represents the JSON structure for persisted games
type PersistedSessionData struct {
	ID      string       `json:"id"`
	SavedAt time.Time    `json:"saved_at"`
	Game    *engine.Game `json:"game"`
}
