// Command autoplay plays complete games against a running server through
// its REST API. Both teams are played from the hint giver view, and each
// finished game is followed by the next game of the same chain.
//
// It is useful for smoke testing a deployment and for watching the realtime
// stream of a room without a second player.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/codenames-server/game/engine"
)

// maxActions bounds a single game; a 25 card board never needs more
const maxActions = 200

// Result summarizes one played game
type Result struct {
	GameID  string
	Winner  engine.Side
	Actions int
}

// Player drives games through a Client
type Player struct {
	client   *Client
	strategy *Strategy
	delay    time.Duration
	logger   zerolog.Logger
}

// Play runs the game with the given id to its end
func (p *Player) Play(ctx context.Context, gameID string) (Result, error) {
	result := Result{GameID: gameID}

	for result.Actions < maxActions {
		status, err := p.client.Status(ctx, gameID)
		if err != nil {
			return result, fmt.Errorf("status: %w", err)
		}

		action := p.strategy.Next(status)
		switch action.Kind {
		case ActionDone:
			result.Winner = winnerOf(status)
			return result, nil

		case ActionHint:
			move, err := p.client.CommitHint(ctx, gameID, action.Message)
			if err != nil {
				return result, fmt.Errorf("commit hint: %w", err)
			}
			p.logger.Debug().Str("side", string(move.Side)).Str("hint", action.Message).Msg("hint committed")

		case ActionUncover:
			card, err := p.client.Uncover(ctx, gameID, action.Index)
			if err != nil {
				return result, fmt.Errorf("uncover %d: %w", action.Index, err)
			}
			p.logger.Debug().Int("index", card.Index).Str("name", card.Name).Str("side", string(card.Side)).Msg("agent uncovered")
		}
		result.Actions++

		if p.delay > 0 {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-time.After(p.delay):
			}
		}
	}
	return result, fmt.Errorf("game %s did not finish after %d actions", gameID, maxActions)
}

// PlayChain plays games games, each one linked to the previous. An empty
// from starts a new chain.
func (p *Player) PlayChain(ctx context.Context, dict int, from string, games int) ([]Result, error) {
	var results []Result
	for i := 0; i < games; i++ {
		gameID, err := p.client.CreateGame(ctx, dict, from)
		if err != nil {
			return results, fmt.Errorf("create game: %w", err)
		}
		p.logger.Info().Str("session_id", gameID).Int("game", i+1).Msg("game created")

		result, err := p.Play(ctx, gameID)
		if err != nil {
			return results, err
		}
		p.logger.Info().
			Str("session_id", gameID).
			Str("winner", string(result.Winner)).
			Int("actions", result.Actions).
			Msg("game finished")

		results = append(results, result)
		from = gameID
	}
	return results, nil
}

func main() {
	app := &cli.Command{
		Name:  "autoplay",
		Usage: "Play games against a running Codenames server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:8095", Usage: "Game server URL"},
			&cli.IntFlag{Name: "dict", Usage: "Dictionary id"},
			&cli.StringFlag{Name: "continue", Usage: "Continue the chain of an existing game"},
			&cli.IntFlag{Name: "games", Value: 1, Usage: "Number of chained games to play"},
			&cli.FloatFlag{Name: "mistakes", Value: 0.2, Usage: "Chance of guessing a random card"},
			&cli.Uint64Flag{Name: "seed", Usage: "Random seed (default: current time)"},
			&cli.DurationFlag{Name: "delay", Usage: "Delay between actions"},
			&cli.BoolFlag{Name: "v", Usage: "Verbose output"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			level := zerolog.InfoLevel
			if cmd.Bool("v") {
				level = zerolog.DebugLevel
			}
			logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
				Level(level).With().Timestamp().Logger()

			seed := cmd.Uint64("seed")
			if seed == 0 {
				seed = uint64(time.Now().UnixNano())
			}

			player := &Player{
				client:   NewClient(cmd.String("url")),
				strategy: NewStrategy(seed, cmd.Float("mistakes")),
				delay:    cmd.Duration("delay"),
				logger:   logger,
			}

			results, err := player.PlayChain(ctx, cmd.Int("dict"), cmd.String("continue"), cmd.Int("games"))
			wins := map[engine.Side]int{}
			for _, r := range results {
				wins[r.Winner]++
			}
			logger.Info().Int("games", len(results)).Int("red", wins[engine.Red]).Int("blue", wins[engine.Blue]).Msg("done")

			var apiErr *apiError
			if errors.As(err, &apiErr) && apiErr.Code == "GameNotFound" {
				return cli.Exit("game not found (it may have expired)", 1)
			}
			return err
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "autoplay: %v\n", err)
		os.Exit(1)
	}
}
