// Package api provides HTTP REST API handlers for the Codenames server.
//
// The api package implements:
//   - Game creation, status, uncover and hint endpoints
//   - Invite QR codes
//   - Dictionary listing and server statistics
//   - WebSocket upgrade for the realtime stream
//
// Endpoints:
//
// Games:
//   - GET /api/games/create?dict=<n>&from=<id> - Create a game, optionally
//     continuing the chain of game <id>. Returns {"gameId"}
//   - GET /api/games/{id}/status?player=<0|1> - Status of the active game of
//     the chain. player=1 is the hint giver and sees every card's side
//   - GET /api/games/{id}/agents/{index}/uncover - Uncover a card. Returns
//     {"agent"}
//   - POST /api/games/{id}/commit-code - Body {"message": "<word> <count>"}.
//     Returns {"move"}
//   - GET /api/games/{id}/qr - PNG QR code with the operative link
//
// Server:
//   - GET /api/dictionaries - Loaded dictionaries with sample words
//   - GET /api/stat/info - Connected clients, finished games, uptime
//   - GET /api/stream - WebSocket stream, see package websocket
//   - GET /health - Liveness probe
//
// Errors:
//
// Errors are returned as {"error": "...", "code": "..."} where code is one
// of GameNotFound, AgentNotFound, UncoverNotAllowed, WrongSpymasterHint,
// GameIsFinished, DictionaryNotFound, BadRequest or InternalError.
//
// Usage:
//
//	server := api.NewServer(gameService, hub, logger)
//	http.ListenAndServe(":8095", server)
package api
