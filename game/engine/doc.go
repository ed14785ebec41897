// Package engine provides the core game rules for the Codenames server.
//
// The engine package implements:
//   - Random board dealing with balanced teams and a single assassin
//   - The hint / guess turn state machine
//   - Win condition evaluation
//   - Viewer-specific projections of a game
//
// Core Types:
//
// Game is the aggregate for one playthrough: the board, the current Move,
// the append-only event log and the remaining agent counters. Card is a
// single codename. GameEvent is the tagged entry of the event log.
//
// Usage:
//
//	game, err := engine.NewGame("k3Fq9aZt", words, engine.DefaultBoardSize, nil, time.Now())
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// The hint giver of the starting side commits a hint
//	hint, count, err := engine.ParseHint("river 2", game.BoardSize)
//	move, err := game.CommitHint(hint, count, time.Now())
//
//	// Operatives uncover cards until the move is finished
//	card, ok := game.UncoverAgent(7, time.Now())
//
// Game Rules:
//
// A hint with match count N allows N+1 uncovers; a count of zero allows
// unlimited uncovers. Uncovering a card of another side ends the move. The
// game ends when a team has no covered agents left (that team wins) or when
// the assassin is uncovered (the guessing team loses).
//
// Concurrency:
//
// Game is not safe for concurrent use. The session manager serializes every
// mutation.
package engine
