package engine

import (
	"encoding/json"
	"errors"
	"math/rand/v2"
	"testing"
	"time"
)

func newTestGame(t *testing.T) *Game {
	t.Helper()
	game, err := NewGame("test", testWords(40), DefaultBoardSize, rand.New(rand.NewPCG(5, 6)), time.Now())
	if err != nil {
		t.Fatalf("Failed to create game: %v", err)
	}
	return game
}

// fixedGame builds a small board with known sides:
// 0-2 red, 3-4 blue, 5 neutral, 6 assassin. Red hints first.
func fixedGame() *Game {
	sides := []Side{Red, Red, Red, Blue, Blue, Neutral, Assassin}
	board := make([]Card, len(sides))
	for i, side := range sides {
		board[i] = Card{Index: i, Name: string(rune('a' + i)), Side: side}
	}
	return &Game{
		ID:        "fixed",
		BoardSize: len(board),
		Board:     board,
		Move:      Move{Side: Red},
		RedLeft:   3,
		BlueLeft:  2,
	}
}

func TestNewGame(t *testing.T) {
	game := newTestGame(t)

	if game.Move.IsInited {
		t.Error("Expected move not to be inited before the first hint")
	}
	if !game.Move.Side.IsTeam() {
		t.Errorf("Expected first move side to be red or blue, got %s", game.Move.Side)
	}
	if game.RedLeft != CountCovered(game.Board, Red) || game.BlueLeft != CountCovered(game.Board, Blue) {
		t.Errorf("Counters do not match board: red=%d blue=%d", game.RedLeft, game.BlueLeft)
	}
	if len(game.Events) != 0 {
		t.Errorf("Expected empty event log, got %d events", len(game.Events))
	}
}

func TestCommitHint(t *testing.T) {
	game := newTestGame(t)
	first := game.Move.Side

	move, err := game.CommitHint("Allegra", 8, time.Now())
	if err != nil {
		t.Fatalf("CommitHint failed: %v", err)
	}
	want := Move{Hint: "Allegra", Count: 9, Side: first, IsInited: true, IsFinished: false}
	if move != want {
		t.Errorf("Expected move %+v, got %+v", want, move)
	}

	move, err = game.CommitHint("Joy", 0, time.Now())
	if err != nil {
		t.Fatalf("CommitHint failed: %v", err)
	}
	if move.Count != DefaultBoardSize {
		t.Errorf("Expected unlimited count %d, got %d", DefaultBoardSize, move.Count)
	}
	if move.Side != first.Opponent() {
		t.Errorf("Expected second hint from %s, got %s", first.Opponent(), move.Side)
	}

	if len(game.Events) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(game.Events))
	}
	ev := game.Events[0]
	if ev.Kind != HintCommitted || ev.Hint != "Allegra" || ev.MatchCount != 8 || ev.Side != first {
		t.Errorf("Unexpected hint event: %+v", ev)
	}
}

func TestCommitHintAfterFinish(t *testing.T) {
	game := fixedGame()
	game.IsFinished = true

	if _, err := game.CommitHint("late", 1, time.Now()); !errors.Is(err, ErrGameAlreadyFinished) {
		t.Errorf("Expected ErrGameAlreadyFinished, got %v", err)
	}
}

func TestUncoverBeforeHintDenied(t *testing.T) {
	game := fixedGame()

	if _, ok := game.UncoverAgent(0, time.Now()); ok {
		t.Error("Uncover before any hint should be denied")
	}
	if game.Board[0].Uncovered || game.RedLeft != 3 {
		t.Error("Denied uncover must not change state")
	}
}

func TestUncoverIdempotent(t *testing.T) {
	game := fixedGame()
	game.CommitHint("trio", 3, time.Now())

	card, ok := game.UncoverAgent(0, time.Now())
	if !ok {
		t.Fatal("First uncover should be allowed")
	}
	if !card.Uncovered || card.Side != Red {
		t.Errorf("Unexpected card: %+v", card)
	}

	if _, ok := game.UncoverAgent(0, time.Now()); ok {
		t.Error("Second uncover of the same card should be denied")
	}
	if game.RedLeft != 2 {
		t.Errorf("Expected redLeft 2 after repeated uncover, got %d", game.RedLeft)
	}
	if game.Move.Count != 3 {
		t.Errorf("Expected move count 3, got %d", game.Move.Count)
	}
	if len(game.Events) != 2 {
		t.Errorf("Expected 2 events, got %d", len(game.Events))
	}
}

func TestCorrectGuessKeepsTurn(t *testing.T) {
	game := fixedGame()
	game.CommitHint("pair", 1, time.Now())

	game.UncoverAgent(0, time.Now())
	if game.Move.IsFinished {
		t.Fatal("Correct guess with budget left should keep the move open")
	}

	game.UncoverAgent(1, time.Now())
	if !game.Move.IsFinished {
		t.Error("Move should finish once the budget is exhausted")
	}
	if _, ok := game.UncoverAgent(2, time.Now()); ok {
		t.Error("Uncover after the move finished should be denied")
	}
}

func TestWrongGuessEndsTurn(t *testing.T) {
	game := fixedGame()
	game.CommitHint("pair", 2, time.Now())

	card, ok := game.UncoverAgent(5, time.Now())
	if !ok || card.Side != Neutral {
		t.Fatalf("Expected neutral uncover, got %+v ok=%v", card, ok)
	}
	if !game.Move.IsFinished {
		t.Error("Neutral card should end the move")
	}
	if game.IsFinished {
		t.Error("Neutral card should not end the game")
	}

	move, _ := game.CommitHint("next", 1, time.Now())
	if move.Side != Blue {
		t.Errorf("Expected blue to hint next, got %s", move.Side)
	}
}

func TestWinByDepletion(t *testing.T) {
	game := fixedGame()
	game.CommitHint("many", 0, time.Now())

	game.UncoverAgent(0, time.Now())
	game.UncoverAgent(1, time.Now())
	if game.IsFinished {
		t.Fatal("Game finished too early")
	}
	game.UncoverAgent(2, time.Now())

	if !game.IsFinished || !game.Move.IsFinished {
		t.Fatal("Game should be finished once red has no agents left")
	}
	if game.Winner() != Red {
		t.Errorf("Expected red to win, got %s", game.Winner())
	}
	last := game.Events[len(game.Events)-1]
	if last.Kind != GameFinished || last.Winner != Red {
		t.Errorf("Unexpected final event: %+v", last)
	}
}

// A red guess uncovers blue's last agent. The win goes to blue, the side
// that ran out, not to the guessing side.
func TestWinByDepletionOfOtherTeam(t *testing.T) {
	game := fixedGame()
	game.BlueLeft = 1
	game.Board[3].Uncovered = true
	game.CommitHint("oops", 1, time.Now())

	game.UncoverAgent(4, time.Now())

	if !game.IsFinished {
		t.Fatal("Game should be finished when blue runs out of agents")
	}
	if game.Winner() != Blue {
		t.Errorf("Expected the other team (blue) to win, got %s", game.Winner())
	}
}

func TestWinByAssassin(t *testing.T) {
	game := fixedGame()
	game.CommitHint("danger", 1, time.Now())

	game.UncoverAgent(6, time.Now())

	if !game.IsFinished {
		t.Fatal("Assassin should finish the game")
	}
	if game.Winner() != Blue {
		t.Errorf("Expected blue to win after red hit the assassin, got %s", game.Winner())
	}
	if _, ok := game.UncoverAgent(0, time.Now()); ok {
		t.Error("Uncover after finish should be denied")
	}
}

func TestUncoverUpdatesLastModified(t *testing.T) {
	game := fixedGame()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	later := start.Add(time.Minute)

	game.CommitHint("one", 1, start)
	if !game.LastModified.Equal(start) {
		t.Errorf("Expected lastModified %v, got %v", start, game.LastModified)
	}
	game.UncoverAgent(0, later)
	if !game.LastModified.Equal(later) {
		t.Errorf("Expected lastModified %v, got %v", later, game.LastModified)
	}
	game.UncoverAgent(0, later.Add(time.Hour))
	if !game.LastModified.Equal(later) {
		t.Error("Denied uncover must not touch lastModified")
	}
}

func TestView(t *testing.T) {
	game := fixedGame()
	game.CommitHint("one", 1, time.Now())
	game.UncoverAgent(3, time.Now())

	operative := game.View(Operative)
	for _, card := range operative.Board {
		if card.Index == 3 {
			if card.Side != Blue {
				t.Errorf("Uncovered card should show its side, got %s", card.Side)
			}
			continue
		}
		if card.Side != Unknown {
			t.Errorf("Covered card %d should be hidden from operatives, got %s", card.Index, card.Side)
		}
	}

	spymaster := game.View(HintGiver)
	for i, card := range spymaster.Board {
		if card.Side != game.Board[i].Side {
			t.Errorf("Hint giver should see card %d as %s, got %s", i, game.Board[i].Side, card.Side)
		}
	}

	if game.Board[0].Side != Red {
		t.Error("View must not modify the game board")
	}
}

func TestParseHint(t *testing.T) {
	tests := []struct {
		message   string
		wantHint  string
		wantCount int
		wantErr   bool
	}{
		{"Allegra 8", "Allegra", 8, false},
		{"  river,2 ", "river", 2, false},
		{"joy;0", "joy", 0, false},
		{"joy 9", "joy", 9, false},
		{"joy 10", "", 0, true},
		{"joy -1", "", 0, true},
		{"joy", "", 0, true},
		{"two words 3", "", 0, true},
		{"word many", "", 0, true},
		{"", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			hint, count, err := ParseHint(tt.message, DefaultBoardSize)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidInput) {
					t.Errorf("Expected ErrInvalidInput, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if hint != tt.wantHint || count != tt.wantCount {
				t.Errorf("Expected (%s, %d), got (%s, %d)", tt.wantHint, tt.wantCount, hint, count)
			}
		})
	}
}

func TestGameEventJSON(t *testing.T) {
	game := fixedGame()
	game.CommitHint("danger", 1, time.Now())
	game.UncoverAgent(6, time.Now())

	data, err := json.Marshal(game)
	if err != nil {
		t.Fatalf("Failed to marshal game: %v", err)
	}

	var restored Game
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("Failed to unmarshal game: %v", err)
	}

	if len(restored.Events) != len(game.Events) {
		t.Fatalf("Expected %d events, got %d", len(game.Events), len(restored.Events))
	}
	for i := range game.Events {
		if restored.Events[i] != game.Events[i] {
			t.Errorf("Event %d: expected %+v, got %+v", i, game.Events[i], restored.Events[i])
		}
	}

	raw, _ := json.Marshal(game.Events[2])
	if string(raw) != `{"kind":"gameFinished","winningSide":"blue"}` {
		t.Errorf("Unexpected event encoding: %s", raw)
	}
}
