package main

import (
	"fmt"
	"math/rand/v2"

	"github.com/wricardo/codenames-server/game/engine"
)

type ActionKind int

const (
	ActionDone ActionKind = iota
	ActionHint
	ActionUncover
)

// Action is the next request the bot should send
type Action struct {
	Kind    ActionKind
	Message string
	Index   int
}

// Strategy plays both teams from the hint giver view. With MistakeRate > 0
// some guesses pick a random covered card instead of an own agent.
type Strategy struct {
	MaxHint     int
	MistakeRate float64
	rng         *rand.Rand
}

func NewStrategy(seed uint64, mistakeRate float64) *Strategy {
	return &Strategy{
		MaxHint:     2,
		MistakeRate: mistakeRate,
		rng:         rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// guessing reports whether the current move still accepts uncovers
func guessing(status *engine.Status) bool {
	return status.Move.IsInited && !status.Move.IsFinished && status.Move.Count > 0
}

// hintSide is the side the next committed hint belongs to
func hintSide(status *engine.Status) engine.Side {
	if status.Move.IsInited {
		return status.Move.Side.Opponent()
	}
	return status.Move.Side
}

func coveredOf(status *engine.Status, side engine.Side) []int {
	var indexes []int
	for _, card := range status.Board {
		if !card.Uncovered && (side == engine.Unknown || card.Side == side) {
			indexes = append(indexes, card.Index)
		}
	}
	return indexes
}

// Next picks the next action for status
func (s *Strategy) Next(status *engine.Status) Action {
	if status.IsFinished {
		return Action{Kind: ActionDone}
	}

	if !guessing(status) {
		own := len(coveredOf(status, hintSide(status)))
		count := min(s.MaxHint, own)
		if count < 1 {
			count = 1
		}
		return Action{
			Kind:    ActionHint,
			Message: fmt.Sprintf("clue%d %d", len(status.Events), count),
		}
	}

	candidates := coveredOf(status, status.Move.Side)
	if len(candidates) == 0 || s.rng.Float64() < s.MistakeRate {
		candidates = coveredOf(status, engine.Unknown)
	}
	return Action{
		Kind:  ActionUncover,
		Index: candidates[s.rng.IntN(len(candidates))],
	}
}

// winnerOf reads the winner from the log of a finished game
func winnerOf(status *engine.Status) engine.Side {
	for i := len(status.Events) - 1; i >= 0; i-- {
		if status.Events[i].Kind == engine.GameFinished {
			return status.Events[i].Winner
		}
	}
	return engine.Unknown
}
