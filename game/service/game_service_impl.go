package service

import (
	"context"
	"fmt"
	"time"

	"github.com/wricardo/codenames-server/game/dictionary"
	"github.com/wricardo/codenames-server/game/engine"
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions     SessionManager
	dictionaries DictionaryManager
	clients      ClientCounter
	startedAt    time.Time
}

// NewGameService creates a new game service instance. clients may be nil.
func NewGameService(sessions SessionManager, dictionaries DictionaryManager, clients ClientCounter) GameService {
	return &gameServiceImpl{
		sessions:     sessions,
		dictionaries: dictionaries,
		clients:      clients,
		startedAt:    time.Now(),
	}
}

// CreateGame deals a new game from the given dictionary. With a non-empty
// fromID the game continues that game's chain.
func (s *gameServiceImpl) CreateGame(ctx context.Context, dictID int, fromID string) (string, error) {
	words, err := s.dictionaries.RandomWords(dictID, engine.DefaultBoardSize)
	if err != nil {
		return "", err
	}

	if fromID == "" {
		return s.sessions.Create(words)
	}
	return s.sessions.CreateLinked(fromID, words)
}

// GetGameStatus returns the active game of gameID's chain as seen by role
func (s *gameServiceImpl) GetGameStatus(ctx context.Context, gameID string, role engine.ViewerRole) (*engine.Status, error) {
	return s.sessions.Status(gameID, role)
}

// UncoverAgent reveals a card. A denied uncover maps to ErrUncoverNotAllowed.
func (s *gameServiceImpl) UncoverAgent(ctx context.Context, gameID string, index int) (*engine.Card, error) {
	card, ok, err := s.sessions.Uncover(gameID, index)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: agent %d of game %s", ErrUncoverNotAllowed, index, gameID)
	}
	return &card, nil
}

// CommitHint opens a new move from a "<word> <count>" message
func (s *gameServiceImpl) CommitHint(ctx context.Context, gameID, message string) (*engine.Move, error) {
	move, err := s.sessions.CommitHint(gameID, message)
	if err != nil {
		return nil, err
	}
	return &move, nil
}

// ListDictionaries describes every loaded dictionary
func (s *gameServiceImpl) ListDictionaries(ctx context.Context) ([]dictionary.Info, error) {
	return s.dictionaries.List(), nil
}

// Stats reports connection and game counters
func (s *gameServiceImpl) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		TotalGamesPlayed: s.sessions.GamesPlayed(),
		ActiveGames:      s.sessions.Count(),
		UpTime:           time.Since(s.startedAt).Round(time.Second).String(),
		Version:          Version,
	}
	if s.clients != nil {
		stats.ClientsConnected = s.clients.ClientsCount()
	}
	return stats, nil
}
