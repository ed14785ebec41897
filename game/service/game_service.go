package service

import (
	"context"
	"errors"

	"github.com/wricardo/codenames-server/game/dictionary"
	"github.com/wricardo/codenames-server/game/engine"
)

// Version is reported by the stats endpoint. Overridden at build time.
var Version = "dev"

// ErrUncoverNotAllowed is returned when the card is already uncovered, no
// hint has been given, or the move or game is finished.
var ErrUncoverNotAllowed = errors.New("agent is already uncovered or game or move is finished or not yet inited")

// GameService defines all game-related operations
type GameService interface {
	// Games
	CreateGame(ctx context.Context, dictID int, fromID string) (string, error)
	GetGameStatus(ctx context.Context, gameID string, role engine.ViewerRole) (*engine.Status, error)
	UncoverAgent(ctx context.Context, gameID string, index int) (*engine.Card, error)
	CommitHint(ctx context.Context, gameID, message string) (*engine.Move, error)

	// Server
	ListDictionaries(ctx context.Context) ([]dictionary.Info, error)
	Stats(ctx context.Context) (*Stats, error)
}

// SessionManager defines game registry operations
type SessionManager interface {
	Create(words []string) (string, error)
	CreateLinked(prevID string, words []string) (string, error)
	Status(id string, role engine.ViewerRole) (*engine.Status, error)
	Uncover(id string, index int) (engine.Card, bool, error)
	CommitHint(id, message string) (engine.Move, error)
	Count() int
	GamesPlayed() int
}

// DictionaryManager supplies words for new boards
type DictionaryManager interface {
	RandomWords(id, n int) ([]string, error)
	List() []dictionary.Info
}

// ClientCounter reports the number of connected realtime clients
type ClientCounter interface {
	ClientsCount() int
}

// Stats describes the running server
type Stats struct {
	ClientsConnected int    `json:"clientsConnected"`
	TotalGamesPlayed int    `json:"totalGamesPlayed"`
	ActiveGames      int    `json:"activeGames"`
	UpTime           string `json:"upTime"`
	Version          string `json:"version"`
}
