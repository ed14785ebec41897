package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/codenames-server/game/dictionary"
	"github.com/wricardo/codenames-server/game/engine"
	"github.com/wricardo/codenames-server/game/service"
)

const gameRules = `Codenames - rules

Two teams, red and blue, compete to find their agents on a board of 25
codenames. Each team has a hint giver who sees every card's side and
operatives who only see cards that are already uncovered.

BOARD:
- 9 cards for the team that hints first, 8 for the other
- 7 neutral bystanders
- 1 assassin

TURNS:
1. The hint giver of the current side commits a hint: one word and a
   number, e.g. "ocean 2". The number is how many cards relate to the word.
2. Operatives may uncover up to number+1 cards. A count of 0 means
   unlimited guesses.
3. Uncovering a card of another side ends the turn.

WINNING:
- A team wins when all of its agents are uncovered
- Uncovering the assassin loses the game for the guessing team

Games can be chained: create_game with from_game_id starts the next game
for the same group. Asking twice returns the same next game.`

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Codenames",
		service.Version,
		server.WithToolCapabilities(true),
		server.WithInstructions(`Codenames - MCP Interface

This is a thin client that proxies all requests to the REST API server.

AVAILABLE TOOLS:
- create_game: Start a game, or the next game of a chain
- game_status: Board, current move and log of the active game
- uncover_agent: Uncover a card by index (0-24)
- commit_hint: Give a hint as "<word> <count>"
- list_dictionaries: Word lists available for new games
- server_stats: Connected clients and finished games
- game_rules: How to play

Call game_status with spymaster=true to see every card's side.`),
	)

	c.registerTools()
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_game",
		Description: "Create a new game. With from_game_id the game continues that game's chain",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"dictionary": map[string]interface{}{
					"type":        "number",
					"description": "Dictionary id from list_dictionaries (default 0)",
				},
				"from_game_id": map[string]interface{}{
					"type":        "string",
					"description": "Previous game of the chain (optional)",
				},
			},
		},
	}, c.handleCreateGame)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_status",
		Description: "Get the status of the active game of a chain",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game_id": map[string]interface{}{
					"type":        "string",
					"description": "Any game id of the chain",
				},
				"spymaster": map[string]interface{}{
					"type":        "boolean",
					"description": "Show the sides of covered cards",
				},
			},
			Required: []string{"game_id"},
		},
	}, c.handleGameStatus)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "uncover_agent",
		Description: "Uncover the card at the given index",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game_id": map[string]interface{}{
					"type":        "string",
					"description": "Game ID",
				},
				"index": map[string]interface{}{
					"type":        "number",
					"description": "Card index, row by row from 0",
				},
			},
			Required: []string{"game_id", "index"},
		},
	}, c.handleUncoverAgent)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "commit_hint",
		Description: "Commit a hint for the next side, e.g. \"ocean 2\"",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game_id": map[string]interface{}{
					"type":        "string",
					"description": "Game ID",
				},
				"message": map[string]interface{}{
					"type":        "string",
					"description": "One word followed by the match count",
				},
			},
			Required: []string{"game_id", "message"},
		},
	}, c.handleCommitHint)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_dictionaries",
		Description: "List available dictionaries",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListDictionaries)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "server_stats",
		Description: "Get server statistics",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleServerStats)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_rules",
		Description: "Get the rules of the game",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameRules)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			if code := errResp["code"]; code != "" {
				return fmt.Errorf("%s: %s", code, msg)
			}
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	return args
}

// Tool handlers

func (c *Client) handleCreateGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	query := url.Values{}
	if dict, ok := args["dictionary"].(float64); ok {
		query.Set("dict", fmt.Sprintf("%d", int(dict)))
	}
	if from, _ := args["from_game_id"].(string); from != "" {
		query.Set("from", from)
	}

	var response struct {
		GameID string `json:"gameId"`
	}
	if err := c.apiCall(ctx, "GET", "/api/games/create?"+query.Encode(), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Created game: %s\n", response.GameID)), nil
}

func (c *Client) handleGameStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	gameID, _ := args["game_id"].(string)
	spymaster, _ := args["spymaster"].(bool)

	player := engine.Operative
	if spymaster {
		player = engine.HintGiver
	}

	var response struct {
		Game engine.Status `json:"game"`
	}
	path := fmt.Sprintf("/api/games/%s/status?player=%d", url.PathEscape(gameID), player)
	if err := c.apiCall(ctx, "GET", path, nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatStatus(&response.Game)), nil
}

func (c *Client) handleUncoverAgent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	gameID, _ := args["game_id"].(string)
	index, ok := args["index"].(float64)
	if !ok || index != math.Trunc(index) {
		return mcp.NewToolResultError("index must be a whole number"), nil
	}

	var response struct {
		Agent engine.Card `json:"agent"`
	}
	path := fmt.Sprintf("/api/games/%s/agents/%d/uncover", url.PathEscape(gameID), int(index))
	if err := c.apiCall(ctx, "GET", path, nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Uncovered %q: %s\n", response.Agent.Name, response.Agent.Side)), nil
}

func (c *Client) handleCommitHint(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	gameID, _ := args["game_id"].(string)
	message, _ := args["message"].(string)

	var response struct {
		Move engine.Move `json:"move"`
	}
	path := fmt.Sprintf("/api/games/%s/commit-code", url.PathEscape(gameID))
	if err := c.apiCall(ctx, "POST", path, map[string]string{"message": message}, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatMove(response.Move)), nil
}

func (c *Client) handleListDictionaries(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Dictionaries []dictionary.Info `json:"dictionaries"`
	}
	if err := c.apiCall(ctx, "GET", "/api/dictionaries", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Dictionaries (%d):\n\n", len(response.Dictionaries))
	for _, d := range response.Dictionaries {
		fmt.Fprintf(&b, "- [%d] %s (%d words)", d.ID, d.Name, d.WordCount)
		if d.Warning {
			b.WriteString(" [warning]")
		}
		if d.Description != "" {
			fmt.Fprintf(&b, ": %s", d.Description)
		}
		if len(d.WordsExample) > 0 {
			fmt.Fprintf(&b, "\n  e.g. %s", strings.Join(d.WordsExample, ", "))
		}
		b.WriteString("\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleServerStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var stats service.Stats
	if err := c.apiCall(ctx, "GET", "/api/stat/info", nil, &stats); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Clients connected: %d\nActive games: %d\nGames played: %d\nUp time: %s\nVersion: %s\n",
		stats.ClientsConnected, stats.ActiveGames, stats.TotalGamesPlayed, stats.UpTime, stats.Version)
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleGameRules(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(gameRules), nil
}

// Formatting helpers

var sideMarks = map[engine.Side]string{
	engine.Red:      "R",
	engine.Blue:     "B",
	engine.Neutral:  "N",
	engine.Assassin: "X",
	engine.Unknown:  "?",
}

func formatStatus(status *engine.Status) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Game %s (game %d of chain)\n", status.ID, status.GameInChain+1)
	fmt.Fprintf(&b, "Red left: %d, Blue left: %d\n", status.RedLeft, status.BlueLeft)
	if status.IsFinished {
		b.WriteString("Game is finished\n")
	} else {
		b.WriteString(formatMove(status.Move))
	}

	b.WriteString("\nBoard (index side name, * = uncovered):\n")
	cols := int(math.Sqrt(float64(len(status.Board))))
	if cols*cols != len(status.Board) {
		cols = 5
	}
	for i, card := range status.Board {
		mark := " "
		if card.Uncovered {
			mark = "*"
		}
		fmt.Fprintf(&b, "%2d %s%s %-12s", card.Index, sideMarks[card.Side], mark, card.Name)
		if (i+1)%cols == 0 || i == len(status.Board)-1 {
			b.WriteString("\n")
		}
	}

	if len(status.Events) > 0 {
		b.WriteString("\nLog:\n")
		for _, ev := range status.Events {
			b.WriteString("- " + formatEvent(ev, status.Board) + "\n")
		}
	}
	return b.String()
}

func formatMove(move engine.Move) string {
	if !move.IsInited {
		return fmt.Sprintf("Waiting for the first hint from %s\n", move.Side)
	}
	state := "open"
	if move.IsFinished {
		state = "finished"
	}
	return fmt.Sprintf("Move: %s hint %q, %d guesses left (%s)\n", move.Side, move.Hint, move.Count, state)
}

func formatEvent(ev engine.GameEvent, board []engine.Card) string {
	switch ev.Kind {
	case engine.HintCommitted:
		return fmt.Sprintf("%s hint: %s %d", ev.Side, ev.Hint, ev.MatchCount)
	case engine.AgentUncovered:
		name := ""
		if ev.Index >= 0 && ev.Index < len(board) {
			name = board[ev.Index].Name
		}
		return fmt.Sprintf("uncovered %s (%s)", name, ev.Side)
	case engine.GameFinished:
		return fmt.Sprintf("%s wins", ev.Winner)
	}
	return string(ev.Kind)
}
