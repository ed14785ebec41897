package session

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	mrand "math/rand/v2"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/wricardo/codenames-server/game/engine"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidSession  = errors.New("invalid session")
)

const (
	idAlphabet = "023456789abcdefghijkmnopqrstuvwxyzABCDEFGHIJKLMNPQRSTUVWXYZ"
	idLength   = 8
)

// Manager is the registry of live games. Games that were started from one
// another form a chain; lookups by any id of the chain can be resolved to
// its last game.
type Manager struct {
	sessions    map[string]*engine.Game
	persistence SessionPersistence
	listeners   []Listener
	boardSize   int
	rng         *mrand.Rand
	now         func() time.Time
	logger      zerolog.Logger
	gamesPlayed int
	mu          sync.Mutex
}

// NewManager creates a new session manager
func NewManager(logger zerolog.Logger) *Manager {
	return &Manager{
		sessions:  make(map[string]*engine.Game),
		boardSize: engine.DefaultBoardSize,
		now:       time.Now,
		logger:    logger.With().Str("component", "session").Logger(),
	}
}

// NewManagerWithPersistence creates a new session manager with persistence
func NewManagerWithPersistence(persistence SessionPersistence, logger zerolog.Logger) *Manager {
	m := NewManager(logger)
	m.persistence = persistence
	return m
}

// Subscribe registers a listener for game events. Listeners are called
// while the registry lock is held, in mutation order, and must not call
// back into the manager.
func (m *Manager) Subscribe(listener Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, listener)
}

// Create deals a new game from words and registers it under a fresh id
func (m *Manager) Create(words []string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	game, err := m.createLocked(words)
	if err != nil {
		return "", err
	}
	return game.ID, nil
}

// CreateLinked starts the next game of the chain that prevID belongs to.
// If prevID already has a successor no game is created and the id of the
// chain's last game is returned, so concurrent "next game" requests from
// the same finished game all land in one place. An unknown prevID starts
// a new, unlinked game.
func (m *Manager) CreateLinked(prevID string, words []string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev, ok := m.sessions[prevID]
	if !ok {
		m.logger.Debug().Str("prev", prevID).Msg("previous game not found, creating unlinked game")
		game, err := m.createLocked(words)
		if err != nil {
			return "", err
		}
		return game.ID, nil
	}

	if prev.ChainNext != "" {
		return m.resolveLocked(prev).ID, nil
	}

	game, err := m.createLocked(words)
	if err != nil {
		return "", err
	}
	game.ChainPrev = prev.ID
	game.GameInChain = prev.GameInChain + 1
	prev.ChainNext = game.ID

	m.publishLocked(Event{
		Kind:          EventChainAdvanced,
		SessionID:     prev.ID,
		NextSessionID: game.ID,
	})
	return game.ID, nil
}

// ResolveActive returns the id of the last game in the chain containing id
func (m *Manager) ResolveActive(id string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	game, ok := m.sessions[id]
	if !ok {
		return "", ErrSessionNotFound
	}
	return m.resolveLocked(game).ID, nil
}

// Status returns the viewer projection of the active game of id's chain
func (m *Manager) Status(id string, role engine.ViewerRole) (*engine.Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	game, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return m.resolveLocked(game).View(role), nil
}

// Uncover reveals a card of the game with the given id. A denied uncover
// returns false and no error.
func (m *Manager) Uncover(id string, index int) (engine.Card, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	game, ok := m.sessions[id]
	if !ok {
		return engine.Card{}, false, ErrSessionNotFound
	}
	if index < 0 || index >= len(game.Board) {
		return engine.Card{}, false, fmt.Errorf("%w: index %d", engine.ErrAgentNotFound, index)
	}

	seen := len(game.Events)
	card, ok := game.UncoverAgent(index, m.now())
	if !ok {
		return card, false, nil
	}

	if game.IsFinished {
		m.gamesPlayed++
		m.logger.Info().Str("id", id).Str("winner", string(game.Winner())).Msg("game finished")
	}
	m.publishGameEventsLocked(game, seen, card)
	return card, true, nil
}

// CommitHint parses a "<word> <count>" message and opens a new move
func (m *Manager) CommitHint(id, message string) (engine.Move, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	game, ok := m.sessions[id]
	if !ok {
		return engine.Move{}, ErrSessionNotFound
	}

	hint, count, err := engine.ParseHint(message, game.BoardSize)
	if err != nil {
		return engine.Move{}, err
	}

	seen := len(game.Events)
	move, err := game.CommitHint(hint, count, m.now())
	if err != nil {
		return engine.Move{}, err
	}

	m.publishGameEventsLocked(game, seen, engine.Card{})
	return move, nil
}

// Sweep evicts every chain whose games have all been idle for longer than
// ttl. A chain with a single recently touched game is kept whole. It
// returns the number of evicted games.
func (m *Manager) Sweep(ttl time.Duration) int {
	start := time.Now()

	m.mu.Lock()
	now := m.now()
	active := make(map[string]bool, len(m.sessions))
	for id := range m.sessions {
		if _, classified := active[id]; classified {
			continue
		}

		chain := m.chainLocked(id)
		alive := false
		for _, game := range chain {
			if now.Sub(game.LastModified) <= ttl {
				alive = true
				break
			}
		}
		for _, game := range chain {
			active[game.ID] = alive
		}
	}

	var evicted []string
	for id, alive := range active {
		if !alive {
			delete(m.sessions, id)
			evicted = append(evicted, id)
		}
	}
	m.mu.Unlock()

	if m.persistence != nil {
		for _, id := range evicted {
			if !m.persistence.Exists(id) {
				continue
			}
			if err := m.persistence.Delete(id); err != nil {
				m.logger.Warn().Err(err).Str("id", id).Msg("failed to delete persisted game")
			}
		}
	}

	m.logger.Info().
		Int("removed", len(evicted)).
		Dur("took", time.Since(start)).
		Msg("session sweep finished")
	return len(evicted)
}

// RunSweeper sweeps every interval until ctx is cancelled
func (m *Manager) RunSweeper(ctx context.Context, interval, ttl time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Sweep(ttl)
		case <-ctx.Done():
			return
		}
	}
}

// Count returns the number of registered games
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// GamesPlayed returns the number of games finished since startup
func (m *Manager) GamesPlayed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gamesPlayed
}

// LoadPersistedSessions loads all persisted games into memory. Chain links
// pointing at games that were not restored are dropped.
func (m *Manager) LoadPersistedSessions() error {
	if m.persistence == nil {
		return nil
	}

	ids, err := m.persistence.ListAll()
	if err != nil {
		return fmt.Errorf("failed to list persisted sessions: %w", err)
	}

	loaded := make([]*engine.Game, 0, len(ids))
	for _, id := range ids {
		game, err := m.persistence.Load(id)
		if err != nil {
			m.logger.Warn().Err(err).Str("id", id).Msg("failed to load persisted game")
			continue
		}
		loaded = append(loaded, game)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, game := range loaded {
		if _, exists := m.sessions[game.ID]; exists {
			continue
		}
		m.sessions[game.ID] = game
	}
	for _, game := range loaded {
		if game.ChainNext != "" && m.sessions[game.ChainNext] == nil {
			m.logger.Error().Str("id", game.ID).Str("next", game.ChainNext).Msg("dangling chain link dropped")
			game.ChainNext = ""
		}
		if game.ChainPrev != "" && m.sessions[game.ChainPrev] == nil {
			m.logger.Error().Str("id", game.ID).Str("prev", game.ChainPrev).Msg("dangling chain link dropped")
			game.ChainPrev = ""
		}
	}

	if len(loaded) > 0 {
		m.logger.Info().Int("count", len(loaded)).Msg("loaded persisted sessions")
	}
	return nil
}

// SaveAllSessions writes a copy of every registered game to persistence
func (m *Manager) SaveAllSessions() error {
	if m.persistence == nil {
		return nil
	}

	m.mu.Lock()
	games := make([]*engine.Game, 0, len(m.sessions))
	for _, game := range m.sessions {
		games = append(games, cloneGame(game))
	}
	m.mu.Unlock()

	errorCount := 0
	for _, game := range games {
		if err := m.persistence.Save(game); err != nil {
			m.logger.Warn().Err(err).Str("id", game.ID).Msg("failed to save game")
			errorCount++
		}
	}

	if errorCount > 0 {
		return fmt.Errorf("failed to save %d sessions", errorCount)
	}
	m.logger.Info().Int("count", len(games)).Msg("saved sessions")
	return nil
}

func (m *Manager) createLocked(words []string) (*engine.Game, error) {
	id, err := m.generateSessionID()
	if err != nil {
		return nil, err
	}

	game, err := engine.NewGame(id, words, m.boardSize, m.rng, m.now())
	if err != nil {
		return nil, err
	}
	m.sessions[id] = game

	m.logger.Debug().Str("id", id).Str("first", string(game.Move.Side)).Msg("game created")
	return game, nil
}

// resolveLocked follows next links to the last reachable game. A link to a
// missing game or a cycle stops the walk at the last valid game.
func (m *Manager) resolveLocked(game *engine.Game) *engine.Game {
	visited := map[string]bool{game.ID: true}
	for game.ChainNext != "" {
		next, ok := m.sessions[game.ChainNext]
		if !ok || visited[next.ID] {
			m.logger.Error().Str("id", game.ID).Str("next", game.ChainNext).Msg("broken chain link")
			break
		}
		visited[next.ID] = true
		game = next
	}
	return game
}

// chainLocked returns every registered game of id's chain, head first
func (m *Manager) chainLocked(id string) []*engine.Game {
	head := m.sessions[id]
	visited := map[string]bool{head.ID: true}
	for head.ChainPrev != "" {
		prev, ok := m.sessions[head.ChainPrev]
		if !ok || visited[prev.ID] {
			break
		}
		visited[prev.ID] = true
		head = prev
	}

	chain := []*engine.Game{head}
	members := map[string]bool{head.ID: true}
	for game := head; game.ChainNext != ""; {
		next, ok := m.sessions[game.ChainNext]
		if !ok || members[next.ID] {
			break
		}
		members[next.ID] = true
		chain = append(chain, next)
		game = next
	}
	return chain
}

func (m *Manager) publishGameEventsLocked(game *engine.Game, from int, card engine.Card) {
	for _, ev := range game.Events[from:] {
		m.publishLocked(Event{
			Kind:       EventGame,
			SessionID:  game.ID,
			Game:       ev,
			Card:       card,
			RedLeft:    game.RedLeft,
			BlueLeft:   game.BlueLeft,
			IsFinished: game.IsFinished,
		})
	}
}

func (m *Manager) publishLocked(event Event) {
	for _, listener := range m.listeners {
		listener(event)
	}
}

// generateSessionID picks a random id that is not registered yet
func (m *Manager) generateSessionID() (string, error) {
	for {
		id, err := randomID()
		if err != nil {
			return "", fmt.Errorf("failed to generate session id: %w", err)
		}
		if _, exists := m.sessions[id]; !exists {
			return id, nil
		}
	}
}

func randomID() (string, error) {
	base := big.NewInt(int64(len(idAlphabet)))
	id := make([]byte, idLength)
	for i := range id {
		n, err := rand.Int(rand.Reader, base)
		if err != nil {
			return "", err
		}
		id[i] = idAlphabet[n.Int64()]
	}
	return string(id), nil
}

func cloneGame(game *engine.Game) *engine.Game {
	clone := *game
	clone.Board = append([]engine.Card(nil), game.Board...)
	clone.Events = append([]engine.GameEvent(nil), game.Events...)
	return &clone
}
