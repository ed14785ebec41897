package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/wricardo/codenames-server/game/dictionary"
	"github.com/wricardo/codenames-server/game/engine"
	"github.com/wricardo/codenames-server/game/service"
	"github.com/wricardo/codenames-server/game/session"
)

// MockGameService implements service.GameService for testing
type MockGameService struct {
	CreateGameFunc       func(ctx context.Context, dictID int, fromID string) (string, error)
	GetGameStatusFunc    func(ctx context.Context, gameID string, role engine.ViewerRole) (*engine.Status, error)
	UncoverAgentFunc     func(ctx context.Context, gameID string, index int) (*engine.Card, error)
	CommitHintFunc       func(ctx context.Context, gameID, message string) (*engine.Move, error)
	ListDictionariesFunc func(ctx context.Context) ([]dictionary.Info, error)
	StatsFunc            func(ctx context.Context) (*service.Stats, error)
}

func (m *MockGameService) CreateGame(ctx context.Context, dictID int, fromID string) (string, error) {
	if m.CreateGameFunc != nil {
		return m.CreateGameFunc(ctx, dictID, fromID)
	}
	return "game1", nil
}

func (m *MockGameService) GetGameStatus(ctx context.Context, gameID string, role engine.ViewerRole) (*engine.Status, error) {
	if m.GetGameStatusFunc != nil {
		return m.GetGameStatusFunc(ctx, gameID, role)
	}
	return &engine.Status{ID: gameID}, nil
}

func (m *MockGameService) UncoverAgent(ctx context.Context, gameID string, index int) (*engine.Card, error) {
	if m.UncoverAgentFunc != nil {
		return m.UncoverAgentFunc(ctx, gameID, index)
	}
	return &engine.Card{Index: index, Name: "apple", Side: engine.Red, Uncovered: true}, nil
}

func (m *MockGameService) CommitHint(ctx context.Context, gameID, message string) (*engine.Move, error) {
	if m.CommitHintFunc != nil {
		return m.CommitHintFunc(ctx, gameID, message)
	}
	return &engine.Move{Hint: message, Count: 2, Side: engine.Red, IsInited: true}, nil
}

func (m *MockGameService) ListDictionaries(ctx context.Context) ([]dictionary.Info, error) {
	if m.ListDictionariesFunc != nil {
		return m.ListDictionariesFunc(ctx)
	}
	return []dictionary.Info{{ID: 0, Name: "Classic", WordCount: 400}}, nil
}

func (m *MockGameService) Stats(ctx context.Context) (*service.Stats, error) {
	if m.StatsFunc != nil {
		return m.StatsFunc(ctx)
	}
	return &service.Stats{ClientsConnected: 2, TotalGamesPlayed: 5, UpTime: "1m0s", Version: "test"}, nil
}

func newTestServer(mock *MockGameService) *Server {
	return NewServer(mock, nil, zerolog.Nop())
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return body
}

func TestCreateGame(t *testing.T) {
	var gotDict int
	var gotFrom string
	mock := &MockGameService{
		CreateGameFunc: func(ctx context.Context, dictID int, fromID string) (string, error) {
			gotDict, gotFrom = dictID, fromID
			return "abc123", nil
		},
	}
	server := newTestServer(mock)

	t.Run("with parameters", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/games/create?dict=2&from=prev1", nil)
		rr := httptest.NewRecorder()
		server.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", rr.Code)
		}
		if body := decodeBody(t, rr); body["gameId"] != "abc123" {
			t.Errorf("Expected gameId abc123, got %v", body["gameId"])
		}
		if gotDict != 2 || gotFrom != "prev1" {
			t.Errorf("Expected dict 2 from prev1, got %d from %q", gotDict, gotFrom)
		}
	})

	t.Run("defaults", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/games/create?dict=abc", nil)
		rr := httptest.NewRecorder()
		server.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", rr.Code)
		}
		if gotDict != 0 || gotFrom != "" {
			t.Errorf("Expected defaults, got dict %d from %q", gotDict, gotFrom)
		}
	})
}

func TestGameStatus(t *testing.T) {
	var gotRole engine.ViewerRole
	mock := &MockGameService{
		GetGameStatusFunc: func(ctx context.Context, gameID string, role engine.ViewerRole) (*engine.Status, error) {
			gotRole = role
			if gameID == "missing" {
				return nil, session.ErrSessionNotFound
			}
			return &engine.Status{ID: "active", RedLeft: 9, BlueLeft: 8}, nil
		},
	}
	server := newTestServer(mock)

	tests := []struct {
		query    string
		wantRole engine.ViewerRole
	}{
		{"?player=1", engine.HintGiver},
		{"?player=0", engine.Operative},
		{"", engine.Operative},
		{"?player=7", engine.Operative},
	}
	for _, tt := range tests {
		t.Run("player"+tt.query, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/games/g1/status"+tt.query, nil)
			rr := httptest.NewRecorder()
			server.ServeHTTP(rr, req)

			if rr.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", rr.Code)
			}
			if gotRole != tt.wantRole {
				t.Errorf("Expected role %d, got %d", tt.wantRole, gotRole)
			}
			game, ok := decodeBody(t, rr)["game"].(map[string]interface{})
			if !ok || game["id"] != "active" {
				t.Errorf("Expected game active, got %v", game)
			}
		})
	}

	t.Run("not found", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/games/missing/status", nil)
		rr := httptest.NewRecorder()
		server.ServeHTTP(rr, req)

		if rr.Code != http.StatusNotFound {
			t.Errorf("Expected status 404, got %d", rr.Code)
		}
		if body := decodeBody(t, rr); body["code"] != CodeGameNotFound {
			t.Errorf("Expected code %s, got %v", CodeGameNotFound, body["code"])
		}
	})
}

func TestUncoverAgent(t *testing.T) {
	mock := &MockGameService{
		UncoverAgentFunc: func(ctx context.Context, gameID string, index int) (*engine.Card, error) {
			switch index {
			case 1:
				return nil, fmt.Errorf("%w: agent 1", service.ErrUncoverNotAllowed)
			case 99:
				return nil, fmt.Errorf("%w: index 99", engine.ErrAgentNotFound)
			}
			return &engine.Card{Index: index, Name: "bank", Side: engine.Blue, Uncovered: true}, nil
		},
	}
	server := newTestServer(mock)

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantCode   string
	}{
		{"allowed", "/api/games/g1/agents/3/uncover", http.StatusOK, ""},
		{"denied", "/api/games/g1/agents/1/uncover", http.StatusConflict, CodeUncoverNotAllowed},
		{"out of range", "/api/games/g1/agents/99/uncover", http.StatusNotFound, CodeAgentNotFound},
		{"not a number", "/api/games/g1/agents/x/uncover", http.StatusNotFound, CodeAgentNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			rr := httptest.NewRecorder()
			server.ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d", tt.wantStatus, rr.Code)
			}
			body := decodeBody(t, rr)
			if tt.wantCode != "" {
				if body["code"] != tt.wantCode {
					t.Errorf("Expected code %s, got %v", tt.wantCode, body["code"])
				}
				return
			}
			agent, ok := body["agent"].(map[string]interface{})
			if !ok || agent["side"] != "blue" {
				t.Errorf("Unexpected agent: %v", body["agent"])
			}
		})
	}
}

func TestCommitCode(t *testing.T) {
	mock := &MockGameService{
		CommitHintFunc: func(ctx context.Context, gameID, message string) (*engine.Move, error) {
			switch message {
			case "bad":
				return nil, fmt.Errorf("%w: hint must be a single word followed by a count", engine.ErrInvalidInput)
			case "late 1":
				return nil, engine.ErrGameAlreadyFinished
			}
			return &engine.Move{Hint: "river", Count: 3, Side: engine.Blue, IsInited: true}, nil
		},
	}
	server := newTestServer(mock)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"valid", `{"message":"river 2"}`, http.StatusOK, ""},
		{"wrong hint", `{"message":"bad"}`, http.StatusBadRequest, CodeWrongSpymasterHint},
		{"finished", `{"message":"late 1"}`, http.StatusConflict, CodeGameIsFinished},
		{"invalid json", `{`, http.StatusBadRequest, CodeBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/games/g1/commit-code", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rr := httptest.NewRecorder()
			server.ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d", tt.wantStatus, rr.Code)
			}
			body := decodeBody(t, rr)
			if tt.wantCode != "" {
				if body["code"] != tt.wantCode {
					t.Errorf("Expected code %s, got %v", tt.wantCode, body["code"])
				}
				return
			}
			move, ok := body["move"].(map[string]interface{})
			if !ok || move["hint"] != "river" || move["count"] != float64(3) {
				t.Errorf("Unexpected move: %v", body["move"])
			}
		})
	}

	for _, method := range []string{"GET", "DELETE"} {
		t.Run("wrong method "+method, func(t *testing.T) {
			req := httptest.NewRequest(method, "/api/games/g1/commit-code", nil)
			rr := httptest.NewRecorder()
			server.ServeHTTP(rr, req)
			if rr.Code != http.StatusMethodNotAllowed {
				t.Fatalf("Expected status 405, got %d", rr.Code)
			}
			if allow := rr.Header().Get("Allow"); allow != "POST" {
				t.Errorf("Expected Allow POST, got %q", allow)
			}
			if body := decodeBody(t, rr); body["code"] != CodeMethodNotAllowed {
				t.Errorf("Expected code %s, got %v", CodeMethodNotAllowed, body["code"])
			}
		})
	}
}

func TestInviteQR(t *testing.T) {
	mock := &MockGameService{
		GetGameStatusFunc: func(ctx context.Context, gameID string, role engine.ViewerRole) (*engine.Status, error) {
			if gameID == "missing" {
				return nil, session.ErrSessionNotFound
			}
			return &engine.Status{ID: gameID}, nil
		},
	}
	server := newTestServer(mock)

	req := httptest.NewRequest("GET", "/api/games/g1/qr", nil)
	rr := httptest.NewRecorder()
	server.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Expected image/png, got %s", ct)
	}
	if !bytes.HasPrefix(rr.Body.Bytes(), []byte("\x89PNG")) {
		t.Error("Response is not a PNG")
	}

	req = httptest.NewRequest("GET", "/api/games/missing/qr", nil)
	rr = httptest.NewRecorder()
	server.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for unknown game, got %d", rr.Code)
	}
}

func TestDictionariesAndStats(t *testing.T) {
	mock := &MockGameService{
		CreateGameFunc: func(ctx context.Context, dictID int, fromID string) (string, error) {
			return "", fmt.Errorf("%w: %d", dictionary.ErrDictionaryNotFound, dictID)
		},
	}
	server := newTestServer(mock)

	t.Run("dictionaries", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/dictionaries", nil)
		rr := httptest.NewRecorder()
		server.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", rr.Code)
		}
		list, ok := decodeBody(t, rr)["dictionaries"].([]interface{})
		if !ok || len(list) != 1 {
			t.Errorf("Expected 1 dictionary, got %v", list)
		}
	})

	t.Run("stats", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/stat/info", nil)
		rr := httptest.NewRecorder()
		server.ServeHTTP(rr, req)

		body := decodeBody(t, rr)
		if body["clientsConnected"] != float64(2) || body["totalGamesPlayed"] != float64(5) {
			t.Errorf("Unexpected stats: %v", body)
		}
	})

	t.Run("unknown dictionary", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/games/create?dict=9", nil)
		rr := httptest.NewRecorder()
		server.ServeHTTP(rr, req)

		if rr.Code != http.StatusNotFound {
			t.Errorf("Expected status 404, got %d", rr.Code)
		}
		if body := decodeBody(t, rr); body["code"] != CodeDictionaryNotFound {
			t.Errorf("Expected code %s, got %v", CodeDictionaryNotFound, body["code"])
		}
	})
}

func TestHealth(t *testing.T) {
	server := newTestServer(&MockGameService{})

	req := httptest.NewRequest("GET", "/health", nil)
	rr := httptest.NewRecorder()
	server.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rr.Code)
	}
}
