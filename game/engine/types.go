package engine

import (
	"errors"
	"time"
)

// Side is the affiliation of a card, and of the team taking a turn.
type Side string

const (
	Unknown  Side = "unknown"
	Red      Side = "red"
	Blue     Side = "blue"
	Neutral  Side = "neutral"
	Assassin Side = "assassin"

	// DefaultBoardSize is the number of cards on a standard 5x5 board
	DefaultBoardSize = 25
	// MinBoardSize is the smallest board that still leaves one neutral card
	MinBoardSize = 7
)

// Opponent returns the other team. Only meaningful for Red and Blue.
func (s Side) Opponent() Side {
	switch s {
	case Red:
		return Blue
	case Blue:
		return Red
	}
	return Unknown
}

// IsTeam reports whether the side is one of the two playing teams
func (s Side) IsTeam() bool {
	return s == Red || s == Blue
}

// ViewerRole is who is looking at the board.
type ViewerRole int

const (
	// Operative sees only the sides of uncovered cards.
	Operative ViewerRole = iota
	// HintGiver sees every card's side.
	HintGiver
)

var (
	ErrInsufficientWords   = errors.New("insufficient words for board")
	ErrInvalidBoardSize    = errors.New("invalid board size")
	ErrInvalidInput        = errors.New("invalid input")
	ErrGameAlreadyFinished = errors.New("game is finished")
	ErrAgentNotFound       = errors.New("agent not found")
)

// Card is a single codename on the board
type Card struct {
	Index     int    `json:"index"`
	Name      string `json:"name"`
	Side      Side   `json:"side"`
	Uncovered bool   `json:"uncovered"`
}

// Move is the guessing budget granted by the most recent hint.
// Count is the number of uncovers left in the turn (match count + 1).
type Move struct {
	Hint       string `json:"hint"`
	Count      int    `json:"count"`
	Side       Side   `json:"side"`
	IsInited   bool   `json:"isInited"`
	IsFinished bool   `json:"isFinished"`
}

// Game is one playthrough from board generation to finish.
//
// ChainPrev and ChainNext reference neighbouring games by id; the session
// manager resolves them through its own map.
type Game struct {
	ID           string      `json:"id"`
	BoardSize    int         `json:"boardSize"`
	Board        []Card      `json:"board"`
	Move         Move        `json:"move"`
	Events       []GameEvent `json:"events"`
	RedLeft      int         `json:"redLeft"`
	BlueLeft     int         `json:"blueLeft"`
	IsFinished   bool        `json:"isFinished"`
	LastModified time.Time   `json:"lastModified"`
	ChainPrev    string      `json:"chainPrev,omitempty"`
	ChainNext    string      `json:"chainNext,omitempty"`
	GameInChain  int         `json:"gameInChain"`
}

// Status is the viewer-specific projection of a game. Events goes out on
// the wire as "log".
type Status struct {
	ID          string      `json:"id"`
	Board       []Card      `json:"board"`
	Move        Move        `json:"move"`
	RedLeft     int         `json:"redLeft"`
	BlueLeft    int         `json:"blueLeft"`
	IsFinished  bool        `json:"isFinished"`
	Events      []GameEvent `json:"log"`
	GameInChain int         `json:"gameInChain"`
}
