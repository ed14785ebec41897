package engine

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"
)

// NewGame deals a fresh board and seeds the first move with the side that
// won the coin flip. No hint has been given yet.
func NewGame(id string, words []string, boardSize int, rng *rand.Rand, now time.Time) (*Game, error) {
	board, firstHint, err := GenerateBoard(words, boardSize, rng)
	if err != nil {
		return nil, err
	}

	counts := CountSides(board)
	return &Game{
		ID:           id,
		BoardSize:    boardSize,
		Board:        board,
		Move:         Move{Side: firstHint},
		Events:       []GameEvent{},
		RedLeft:      counts[Red],
		BlueLeft:     counts[Blue],
		LastModified: now,
	}, nil
}

// CommitHint starts a new move for the side after the current one, or for
// the pre-seeded first side when no hint has been committed yet.
func (g *Game) CommitHint(hint string, matchCount int, now time.Time) (Move, error) {
	if g.IsFinished {
		return Move{}, ErrGameAlreadyFinished
	}

	side := g.Move.Side
	if g.Move.IsInited {
		side = side.Opponent()
	}

	count := matchCount + 1
	if matchCount == 0 {
		count = g.BoardSize
	}

	g.Move = Move{
		Hint:     hint,
		Count:    count,
		Side:     side,
		IsInited: true,
	}
	g.Events = append(g.Events, GameEvent{
		Kind:       HintCommitted,
		Side:       side,
		Hint:       hint,
		MatchCount: matchCount,
	})
	g.LastModified = now

	return g.Move, nil
}

// CanUncover reports whether the card at index may be uncovered right now
func (g *Game) CanUncover(index int) bool {
	if index < 0 || index >= len(g.Board) {
		return false
	}
	return g.Move.IsInited && !g.Move.IsFinished && !g.IsFinished && !g.Board[index].Uncovered
}

// UncoverAgent reveals one card. It returns false without touching any
// state when the uncover is not allowed, so repeated clicks are harmless.
func (g *Game) UncoverAgent(index int, now time.Time) (Card, bool) {
	if !g.CanUncover(index) {
		return Card{}, false
	}

	card := &g.Board[index]
	card.Uncovered = true
	g.Events = append(g.Events, GameEvent{Kind: AgentUncovered, Index: index, Side: card.Side})

	switch card.Side {
	case Red:
		g.RedLeft--
	case Blue:
		g.BlueLeft--
	}

	g.Move.Count--
	if card.Side != g.Move.Side || g.Move.Count == 0 {
		g.Move.IsFinished = true
	}

	if g.RedLeft == 0 || g.BlueLeft == 0 || card.Side == Assassin {
		g.IsFinished = true
		g.Move.IsFinished = true
		g.Events = append(g.Events, GameEvent{Kind: GameFinished, Winner: g.winner(card.Side)})
	}

	g.LastModified = now
	return *card, true
}

// winner decides the result of a finishing uncover
func (g *Game) winner(uncovered Side) Side {
	switch {
	case uncovered == Assassin:
		return g.Move.Side.Opponent()
	case g.RedLeft == 0:
		return Red
	default:
		return Blue
	}
}

// Winner returns the winning side of a finished game, or Unknown
func (g *Game) Winner() Side {
	for i := len(g.Events) - 1; i >= 0; i-- {
		if g.Events[i].Kind == GameFinished {
			return g.Events[i].Winner
		}
	}
	return Unknown
}

// View projects the game for a viewer. Operatives do not see the sides of
// covered cards.
func (g *Game) View(role ViewerRole) *Status {
	board := make([]Card, len(g.Board))
	copy(board, g.Board)
	if role != HintGiver {
		for i := range board {
			if !board[i].Uncovered {
				board[i].Side = Unknown
			}
		}
	}

	events := make([]GameEvent, len(g.Events))
	copy(events, g.Events)

	return &Status{
		ID:          g.ID,
		Board:       board,
		Move:        g.Move,
		RedLeft:     g.RedLeft,
		BlueLeft:    g.BlueLeft,
		IsFinished:  g.IsFinished,
		Events:      events,
		GameInChain: g.GameInChain,
	}
}

// ParseHint splits a "<word> <count>" message into a single-token hint and
// a match count within [0, MaxMatchCount(boardSize)].
func ParseHint(message string, boardSize int) (string, int, error) {
	fields := strings.FieldsFunc(strings.TrimSpace(message), func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	if len(fields) != 2 {
		return "", 0, fmt.Errorf("%w: hint must be a single word followed by a count", ErrInvalidInput)
	}

	count, err := strconv.Atoi(fields[1])
	if err != nil {
		return "", 0, fmt.Errorf("%w: match count %q is not a number", ErrInvalidInput, fields[1])
	}
	if maxCount := MaxMatchCount(boardSize); count < 0 || count > maxCount {
		return "", 0, fmt.Errorf("%w: match count must be between 0 and %d", ErrInvalidInput, maxCount)
	}

	return fields[0], count, nil
}
