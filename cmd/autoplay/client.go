package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/wricardo/codenames-server/game/engine"
)

// Client talks to the REST API of a running server
type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// apiError is an error response of the server
type apiError struct {
	Status  int
	Code    string `json:"code"`
	Message string `json:"error"`
}

func (e *apiError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
}

func (c *Client) do(ctx context.Context, method, path string, body, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
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

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		apiErr := &apiError{Status: resp.StatusCode}
		json.NewDecoder(resp.Body).Decode(apiErr)
		return apiErr
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("parse %s response: %w", path, err)
		}
	}
	return nil
}

// CreateGame starts a game. A non-empty from continues that game's chain.
func (c *Client) CreateGame(ctx context.Context, dict int, from string) (string, error) {
	query := url.Values{}
	query.Set("dict", strconv.Itoa(dict))
	if from != "" {
		query.Set("from", from)
	}

	var resp struct {
		GameID string `json:"gameId"`
	}
	if err := c.do(ctx, "GET", "/api/games/create?"+query.Encode(), nil, &resp); err != nil {
		return "", err
	}
	return resp.GameID, nil
}

// Status fetches the hint giver view of the active game of id's chain
func (c *Client) Status(ctx context.Context, id string) (*engine.Status, error) {
	var resp struct {
		Game engine.Status `json:"game"`
	}
	path := fmt.Sprintf("/api/games/%s/status?player=%d", url.PathEscape(id), engine.HintGiver)
	if err := c.do(ctx, "GET", path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Game, nil
}

func (c *Client) CommitHint(ctx context.Context, id, message string) (*engine.Move, error) {
	var resp struct {
		Move engine.Move `json:"move"`
	}
	path := fmt.Sprintf("/api/games/%s/commit-code", url.PathEscape(id))
	if err := c.do(ctx, "POST", path, map[string]string{"message": message}, &resp); err != nil {
		return nil, err
	}
	return &resp.Move, nil
}

func (c *Client) Uncover(ctx context.Context, id string, index int) (*engine.Card, error) {
	var resp struct {
		Agent engine.Card `json:"agent"`
	}
	path := fmt.Sprintf("/api/games/%s/agents/%d/uncover", url.PathEscape(id), index)
	if err := c.do(ctx, "GET", path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Agent, nil
}
