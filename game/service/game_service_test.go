package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"

	"github.com/wricardo/codenames-server/game/dictionary"
	"github.com/wricardo/codenames-server/game/engine"
	"github.com/wricardo/codenames-server/game/service"
	"github.com/wricardo/codenames-server/game/session"
)

// MockDictionaryManager implements service.DictionaryManager for testing
type MockDictionaryManager struct {
	words []string
	calls int
}

func NewMockDictionaryManager() *MockDictionaryManager {
	words := make([]string, 30)
	for i := range words {
		words[i] = fmt.Sprintf("word%d", i)
	}
	return &MockDictionaryManager{words: words}
}

func (m *MockDictionaryManager) RandomWords(id, n int) ([]string, error) {
	m.calls++
	if id != 0 {
		return nil, dictionary.ErrDictionaryNotFound
	}
	return m.words[:n], nil
}

func (m *MockDictionaryManager) List() []dictionary.Info {
	return []dictionary.Info{{ID: 0, Name: "mock", WordCount: len(m.words)}}
}

type mockCounter int

func (c mockCounter) ClientsCount() int { return int(c) }

func setupService(t *testing.T) (service.GameService, *MockDictionaryManager) {
	t.Helper()
	dicts := NewMockDictionaryManager()
	svc := service.NewGameService(session.NewManager(zerolog.Nop()), dicts, mockCounter(3))
	return svc, dicts
}

func TestGameService_CreateGame(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	t.Run("new game", func(t *testing.T) {
		id, err := svc.CreateGame(ctx, 0, "")
		if err != nil {
			t.Fatalf("CreateGame failed: %v", err)
		}
		status, err := svc.GetGameStatus(ctx, id, engine.Operative)
		if err != nil {
			t.Fatalf("GetGameStatus failed: %v", err)
		}
		if len(status.Board) != engine.DefaultBoardSize {
			t.Errorf("Expected %d cards, got %d", engine.DefaultBoardSize, len(status.Board))
		}
	})

	t.Run("chained game", func(t *testing.T) {
		first, _ := svc.CreateGame(ctx, 0, "")
		next, err := svc.CreateGame(ctx, 0, first)
		if err != nil {
			t.Fatalf("CreateGame failed: %v", err)
		}
		again, _ := svc.CreateGame(ctx, 0, first)
		if again != next {
			t.Errorf("Expected repeated next-game request to return %s, got %s", next, again)
		}

		status, _ := svc.GetGameStatus(ctx, first, engine.Operative)
		if status.ID != next || status.GameInChain != 1 {
			t.Errorf("Expected status of %s (game 1), got %s (game %d)", next, status.ID, status.GameInChain)
		}
	})

	t.Run("unknown dictionary", func(t *testing.T) {
		if _, err := svc.CreateGame(ctx, 5, ""); !errors.Is(err, dictionary.ErrDictionaryNotFound) {
			t.Errorf("Expected ErrDictionaryNotFound, got %v", err)
		}
	})
}

func TestGameService_UncoverAgent(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	id, _ := svc.CreateGame(ctx, 0, "")

	if _, err := svc.UncoverAgent(ctx, id, 0); !errors.Is(err, service.ErrUncoverNotAllowed) {
		t.Errorf("Expected ErrUncoverNotAllowed before hint, got %v", err)
	}

	if _, err := svc.CommitHint(ctx, id, "start 1"); err != nil {
		t.Fatalf("CommitHint failed: %v", err)
	}
	card, err := svc.UncoverAgent(ctx, id, 0)
	if err != nil {
		t.Fatalf("UncoverAgent failed: %v", err)
	}
	if !card.Uncovered || card.Side == engine.Unknown {
		t.Errorf("Expected an uncovered card with a side, got %+v", card)
	}

	if _, err := svc.UncoverAgent(ctx, id, 0); !errors.Is(err, service.ErrUncoverNotAllowed) {
		t.Errorf("Expected ErrUncoverNotAllowed for repeated uncover, got %v", err)
	}
	if _, err := svc.UncoverAgent(ctx, id, 30); !errors.Is(err, engine.ErrAgentNotFound) {
		t.Errorf("Expected ErrAgentNotFound, got %v", err)
	}
	if _, err := svc.UncoverAgent(ctx, "nope", 0); !errors.Is(err, session.ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestGameService_CommitHint(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	id, _ := svc.CreateGame(ctx, 0, "")

	tests := []struct {
		name    string
		message string
		wantErr error
	}{
		{"valid", "Allegra 8", nil},
		{"count too large", "Allegra 10", engine.ErrInvalidInput},
		{"missing count", "Allegra", engine.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			move, err := svc.CommitHint(ctx, id, tt.message)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("CommitHint failed: %v", err)
			}
			if move.Hint != "Allegra" || move.Count != 9 {
				t.Errorf("Unexpected move: %+v", move)
			}
		})
	}
}

func TestGameService_Stats(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	svc.CreateGame(ctx, 0, "")

	stats, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.ClientsConnected != 3 {
		t.Errorf("Expected 3 clients, got %d", stats.ClientsConnected)
	}
	if stats.ActiveGames != 1 || stats.TotalGamesPlayed != 0 {
		t.Errorf("Unexpected counters: %+v", stats)
	}
	if stats.Version != service.Version || stats.UpTime == "" {
		t.Errorf("Unexpected version or uptime: %+v", stats)
	}

	dicts, _ := svc.ListDictionaries(ctx)
	if len(dicts) != 1 || dicts[0].Name != "mock" {
		t.Errorf("Unexpected dictionaries: %+v", dicts)
	}
}
