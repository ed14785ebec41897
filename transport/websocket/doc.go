// Package websocket provides the realtime transport for the Codenames server.
//
// The websocket package implements:
//   - Room membership, one room per game, at most one room per connection
//   - Relay of registry events to the members of a game's room
//   - Chat relay between room members
//   - Application level keepalive pings
//
// Architecture:
//
// A central Hub owns all membership state and processes registrations,
// joins, chat messages, registry events and keepalive ticks in a single
// Run loop. Each connection has a read pump and a write pump goroutine
// that talk to the hub only through channels.
//
// Message Protocol:
//
// Every message is a JSON object whose first field is "kind":
//   - Incoming: {"kind":"joinRoom","sessionId":"abc"}, {"kind":"ping"},
//     {"kind":"chat","message":"...","side":"red"}
//   - Outgoing: playerJoined and playerLeft with the room size,
//     agentUncovered, hintCommitted, gameFinished, chainAdvanced, chat, ping
//
// A chainAdvanced message carries the id of the next game; clients are
// expected to send joinRoom for it.
//
// Usage:
//
//	hub := websocket.NewHub(logger, websocket.DefaultKeepalive)
//	go hub.Run(ctx)
//	sessions.Subscribe(hub.Publish)
//
//	router.HandleFunc("/api/stream", hub.ServeWS)
//
// Slow Clients:
//
// A connection whose send buffer is full is disconnected, which notifies
// the rest of its room with playerLeft.
package websocket
