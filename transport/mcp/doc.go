// Package mcp provides a Model Context Protocol server for the Codenames server.
//
// The mcp package implements:
//   - MCP server for AI agent integration
//   - Tool definitions proxying the REST API
//   - Text rendering of boards, moves and logs
//
// MCP Tools:
//
// The package exposes the following tools for AI agents:
//   - create_game: Create a game, optionally continuing a chain
//   - game_status: Board and log of the active game, as operative or hint giver
//   - uncover_agent: Uncover a card
//   - commit_hint: Give a "<word> <count>" hint
//   - list_dictionaries: List available word lists
//   - server_stats: Connected clients and finished games
//   - game_rules: Rules of the game
//
// Transport Modes:
//
// The server supports two transport modes:
//   - Stdio: the stdio-mcp command talks to a running server over HTTP
//   - HTTP: the server mounts the MCP endpoint at /mcp
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8095")
//	server.ServeStdio(client.GetMCPServer())
package mcp
