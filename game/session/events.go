package session

import "github.com/wricardo/codenames-server/game/engine"

// EventKind distinguishes game log entries from chain changes
type EventKind int

const (
	// EventGame carries one entry of a game's event log
	EventGame EventKind = iota
	// EventChainAdvanced announces that a game got a successor
	EventChainAdvanced
)

// Event is published for every state change of a registered game
type Event struct {
	Kind      EventKind
	SessionID string

	// Set for EventGame
	Game       engine.GameEvent
	Card       engine.Card
	RedLeft    int
	BlueLeft   int
	IsFinished bool

	// Set for EventChainAdvanced
	NextSessionID string
}

// Listener receives registry events
type Listener func(Event)
