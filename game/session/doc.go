// Package session provides the game registry for the Codenames server.
//
// The session package implements:
//   - Thread-safe storage of live games keyed by short random ids
//   - Game chains, where "next game" links a new game to a finished one
//   - Resolution of any id in a chain to the chain's active game
//   - Chain-aware expiry of idle games
//   - Snapshot persistence to disk
//
// Chains:
//
// When players ask for a next game, the new game is linked to the previous
// one. Clients that still hold an old id keep working, because status
// lookups follow the links to the last game. Asking twice for a successor
// of the same game returns the existing one.
//
// Expiry:
//
// A chain is evicted only when every game in it has been idle for longer
// than the TTL. Touching any game keeps the whole chain alive, so a chain
// is never split by the sweeper.
//
// Events:
//
// Every mutation publishes events to subscribed listeners while the
// registry lock is held. Listeners therefore observe events in exactly the
// order the mutations were applied. They must hand events off quickly and
// must not call back into the manager.
//
// Usage:
//
//	manager := session.NewManager(logger)
//	manager.Subscribe(hub.Publish)
//
//	id, err := manager.Create(words)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	status, err := manager.Status(id, engine.Operative)
//
//	go manager.RunSweeper(ctx, time.Hour, time.Hour)
package session
