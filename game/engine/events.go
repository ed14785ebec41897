package engine

import (
	"encoding/json"
	"fmt"
)

// EventKind discriminates the GameEvent variants
type EventKind string

const (
	AgentUncovered EventKind = "agentUncovered"
	HintCommitted  EventKind = "hintCommitted"
	GameFinished   EventKind = "gameFinished"
)

// GameEvent is one entry of a game's append-only log. Which fields are
// meaningful depends on Kind:
//
//	AgentUncovered: Index, Side
//	HintCommitted:  Side, Hint, MatchCount
//	GameFinished:   Winner
type GameEvent struct {
	Kind       EventKind
	Index      int
	Side       Side
	Hint       string
	MatchCount int
	Winner     Side
}

type agentUncoveredJSON struct {
	Kind  EventKind `json:"kind"`
	Index int       `json:"index"`
	Side  Side      `json:"side"`
}

type hintCommittedJSON struct {
	Kind       EventKind `json:"kind"`
	Side       Side      `json:"side"`
	Hint       string    `json:"hint"`
	MatchCount int       `json:"matchCount"`
}

type gameFinishedJSON struct {
	Kind        EventKind `json:"kind"`
	WinningSide Side      `json:"winningSide"`
}

// MarshalJSON writes only the fields of the event's variant, kind first.
func (e GameEvent) MarshalJSON() ([]byte, error) {
	switch e.Kind {
	case AgentUncovered:
		return json.Marshal(agentUncoveredJSON{Kind: e.Kind, Index: e.Index, Side: e.Side})
	case HintCommitted:
		return json.Marshal(hintCommittedJSON{Kind: e.Kind, Side: e.Side, Hint: e.Hint, MatchCount: e.MatchCount})
	case GameFinished:
		return json.Marshal(gameFinishedJSON{Kind: e.Kind, WinningSide: e.Winner})
	}
	return nil, fmt.Errorf("unknown game event kind %q", e.Kind)
}

// UnmarshalJSON reads any of the variants written by MarshalJSON
func (e *GameEvent) UnmarshalJSON(data []byte) error {
	var head struct {
		Kind EventKind `json:"kind"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}

	switch head.Kind {
	case AgentUncovered:
		var v agentUncoveredJSON
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*e = GameEvent{Kind: v.Kind, Index: v.Index, Side: v.Side}
	case HintCommitted:
		var v hintCommittedJSON
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*e = GameEvent{Kind: v.Kind, Side: v.Side, Hint: v.Hint, MatchCount: v.MatchCount}
	case GameFinished:
		var v gameFinishedJSON
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*e = GameEvent{Kind: v.Kind, Winner: v.WinningSide}
	default:
		return fmt.Errorf("unknown game event kind %q", head.Kind)
	}
	return nil
}
