package websocket

import (
	"encoding/json"
	"fmt"

	"github.com/wricardo/codenames-server/game/engine"
	"github.com/wricardo/codenames-server/game/session"
)

// MessageKind is the discriminant written first in every wire message
type MessageKind string

const (
	// client -> server
	KindJoinRoom MessageKind = "joinRoom"
	KindPing     MessageKind = "ping"

	// server -> client
	KindPlayerJoined   MessageKind = "playerJoined"
	KindPlayerLeft     MessageKind = "playerLeft"
	KindAgentUncovered MessageKind = "agentUncovered"
	KindHintCommitted  MessageKind = "hintCommitted"
	KindGameFinished   MessageKind = "gameFinished"
	KindChainAdvanced  MessageKind = "chainAdvanced"

	// both directions
	KindChat MessageKind = "chat"
)

// JoinRoomMessage subscribes the connection to a game's room
type JoinRoomMessage struct {
	Kind      MessageKind `json:"kind"`
	SessionID string      `json:"sessionId"`
}

// PingMessage keeps idle connections open through proxies
type PingMessage struct {
	Kind MessageKind `json:"kind"`
}

// ChatMessage is relayed to every member of the sender's room
type ChatMessage struct {
	Kind    MessageKind `json:"kind"`
	Message string      `json:"message"`
	Side    engine.Side `json:"side,omitempty"`
}

// RoomCountMessage reports the room size after a join or leave
type RoomCountMessage struct {
	Kind  MessageKind `json:"kind"`
	Count int         `json:"count"`
}

type AgentUncoveredMessage struct {
	Kind       MessageKind `json:"kind"`
	Card       engine.Card `json:"card"`
	RedLeft    int         `json:"redLeft"`
	BlueLeft   int         `json:"blueLeft"`
	IsFinished bool        `json:"isFinished"`
}

type HintCommittedMessage struct {
	Kind       MessageKind `json:"kind"`
	Side       engine.Side `json:"side"`
	Hint       string      `json:"hint"`
	MatchCount int         `json:"matchCount"`
}

type GameFinishedMessage struct {
	Kind        MessageKind `json:"kind"`
	WinningSide engine.Side `json:"winningSide"`
}

// ChainAdvancedMessage tells room members to rejoin the next game
type ChainAdvancedMessage struct {
	Kind         MessageKind `json:"kind"`
	NewSessionID string      `json:"newSessionId"`
}

// inbound is a decoded client message
type inbound struct {
	kind MessageKind
	join JoinRoomMessage
	chat ChatMessage
}

// decodeInbound reads the kind first and then the matching payload
func decodeInbound(data []byte) (inbound, error) {
	var head struct {
		Kind MessageKind `json:"kind"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return inbound{}, fmt.Errorf("malformed message: %w", err)
	}

	in := inbound{kind: head.Kind}
	switch head.Kind {
	case KindJoinRoom:
		if err := json.Unmarshal(data, &in.join); err != nil {
			return inbound{}, fmt.Errorf("malformed %s: %w", head.Kind, err)
		}
		if in.join.SessionID == "" {
			return inbound{}, fmt.Errorf("%s without sessionId", head.Kind)
		}
	case KindChat:
		if err := json.Unmarshal(data, &in.chat); err != nil {
			return inbound{}, fmt.Errorf("malformed %s: %w", head.Kind, err)
		}
	case KindPing:
	default:
		return inbound{}, fmt.Errorf("unknown message kind %q", head.Kind)
	}
	return in, nil
}

// eventMessage maps a registry event to its wire message
func eventMessage(e session.Event) (any, bool) {
	if e.Kind == session.EventChainAdvanced {
		return ChainAdvancedMessage{Kind: KindChainAdvanced, NewSessionID: e.NextSessionID}, true
	}

	switch e.Game.Kind {
	case engine.AgentUncovered:
		return AgentUncoveredMessage{
			Kind:       KindAgentUncovered,
			Card:       e.Card,
			RedLeft:    e.RedLeft,
			BlueLeft:   e.BlueLeft,
			IsFinished: e.IsFinished,
		}, true
	case engine.HintCommitted:
		return HintCommittedMessage{
			Kind:       KindHintCommitted,
			Side:       e.Game.Side,
			Hint:       e.Game.Hint,
			MatchCount: e.Game.MatchCount,
		}, true
	case engine.GameFinished:
		return GameFinishedMessage{Kind: KindGameFinished, WinningSide: e.Game.Winner}, true
	}
	return nil, false
}
