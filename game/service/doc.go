// Package service provides the business logic layer for the Codenames server.
//
// The service package implements:
//   - Game creation from a dictionary, optionally continuing a chain
//   - Viewer-specific game status
//   - Uncover and hint operations with uniform errors
//   - Server statistics
//
// Core Interfaces:
//
// GameService is the main service interface used by the HTTP and MCP
// transports. SessionManager is the game registry it drives, and
// DictionaryManager supplies words for new boards.
//
// Architecture:
//
// The service layer sits between the transports and the session registry.
// Dictionary lookups happen here, before the registry is touched, so every
// registry mutation is pure in-memory work.
//
// Usage:
//
//	sessions := session.NewManager(logger)
//	dictionaries, _ := dictionary.NewManager("dictionaries", logger)
//	gameService := service.NewGameService(sessions, dictionaries, hub)
//
//	gameID, err := gameService.CreateGame(ctx, 0, "")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	card, err := gameService.UncoverAgent(ctx, gameID, 3)
package service
