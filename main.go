// Command codenames-server starts the Codenames game server.
//
// It supports three modes:
//  1. "server" (default) – runs the HTTP server exposing REST API, WebSocket stream, and an /mcp HTTP endpoint
//  2. "stdio-mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//  3. "dictcheck" – checks the dictionaries of --dict-dir and exits
//
// Flags control host/port, dictionary and data directories, the snapshot
// backend, session expiry, logging, and optional ngrok tunneling for easy
// external access during development.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/codenames-server/api"
	"github.com/wricardo/codenames-server/game/dictionary"
	"github.com/wricardo/codenames-server/game/service"
	"github.com/wricardo/codenames-server/game/session"
	"github.com/wricardo/codenames-server/game/session/sqlitestore"
	"github.com/wricardo/codenames-server/transport/mcp"
	"github.com/wricardo/codenames-server/transport/websocket"
)

const AppName = "Codenames Server"

// Snapshot backends
const (
	snapshotFile   = "file"
	snapshotSQLite = "sqlite"
	snapshotNone   = "none"
)

// options is the resolved command line configuration
type options struct {
	Host          string
	Port          int
	DictDir       string
	DataDir       string
	Snapshot      string
	SessionTTL    time.Duration
	SweepInterval time.Duration
	Keepalive     time.Duration
}

func optionsFromCommand(cmd *cli.Command) options {
	return options{
		Host:          cmd.String("host"),
		Port:          cmd.Int("port"),
		DictDir:       cmd.String("dict-dir"),
		DataDir:       cmd.String("data-dir"),
		Snapshot:      cmd.String("snapshot"),
		SessionTTL:    cmd.Duration("session-ttl"),
		SweepInterval: cmd.Duration("sweep-interval"),
		Keepalive:     cmd.Duration("keepalive"),
	}
}

func (o options) addr() string {
	return fmt.Sprintf("%s:%d", o.Host, o.Port)
}

func main() {
	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: Error loading .env file: %v\n", err)
	}

	app := newApp()
	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", app.Name, err)
		os.Exit(1)
	}
}

// newApp builds the command tree. Flags on the root command are inherited by
// every subcommand.
func newApp() *cli.Command {
	return &cli.Command{
		Name:    "codenames-server",
		Usage:   "Realtime Codenames game server",
		Version: service.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "host",
				Value:   "localhost",
				Usage:   "HTTP server host",
				Sources: cli.EnvVars("CODENAMES_HOST"),
			},
			&cli.IntFlag{
				Name:    "port",
				Value:   8095,
				Usage:   "HTTP server port",
				Sources: cli.EnvVars("CODENAMES_HTTP_PORT"),
			},
			&cli.StringFlag{
				Name:    "dict-dir",
				Value:   "dictionaries",
				Usage:   "Directory containing YAML dictionaries",
				Sources: cli.EnvVars("CODENAMES_DICT_DIR"),
			},
			&cli.StringFlag{
				Name:    "data-dir",
				Value:   "data",
				Usage:   "Directory for game snapshots",
				Sources: cli.EnvVars("CODENAMES_DATA_DIR"),
			},
			&cli.StringFlag{
				Name:    "snapshot",
				Value:   snapshotFile,
				Usage:   "Snapshot backend: file, sqlite or none",
				Sources: cli.EnvVars("CODENAMES_SNAPSHOT"),
			},
			&cli.DurationFlag{
				Name:    "session-ttl",
				Value:   time.Hour,
				Usage:   "Games idle for longer than this are removed",
				Sources: cli.EnvVars("CODENAMES_SESSION_TTL"),
			},
			&cli.DurationFlag{
				Name:    "sweep-interval",
				Value:   time.Hour,
				Usage:   "How often expired games are removed",
				Sources: cli.EnvVars("CODENAMES_SWEEP_INTERVAL"),
			},
			&cli.DurationFlag{
				Name:    "keepalive",
				Value:   10 * time.Second,
				Usage:   "Interval of keepalive messages to stream clients",
				Sources: cli.EnvVars("CODENAMES_KEEPALIVE"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "Log level (debug, info, warn, error)",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.BoolFlag{
				Name:    "pretty",
				Usage:   "Human readable console logs",
				Sources: cli.EnvVars("LOG_PRETTY"),
			},
			&cli.BoolFlag{
				Name:    "ngrok",
				Usage:   "Enable ngrok tunnel",
				Sources: cli.EnvVars("NGROK_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "ngrok-auth",
				Usage:   "Ngrok auth token",
				Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN"),
			},
			&cli.StringFlag{
				Name:    "ngrok-domain",
				Usage:   "Custom ngrok domain (optional)",
				Sources: cli.EnvVars("NGROK_DOMAIN"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:    "server",
				Aliases: []string{"http"},
				Usage:   "Run HTTP server with API, WebSocket, and MCP endpoint (default)",
				Action:  runServerCommand,
			},
			{
				Name:    "stdio-mcp",
				Aliases: []string{"mcp-stdio", "mcp"},
				Usage:   "Run MCP stdio server with internal HTTP server",
				Action:  runStdioMCPCommand,
			},
			{
				Name:   "dictcheck",
				Usage:  "Check the dictionaries of --dict-dir",
				Action: runDictCheckCommand,
			},
		},
		Action: runServerCommand,
	}
}

// newLogger builds the process logger. Logs go to stderr so stdio MCP keeps
// stdout for the protocol.
func newLogger(level string, pretty bool) zerolog.Logger {
	var out io.Writer = os.Stderr
	if pretty {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}

func loggerFromCommand(cmd *cli.Command) zerolog.Logger {
	return newLogger(cmd.String("log-level"), cmd.Bool("pretty"))
}

// services holds everything the transports need
type services struct {
	sessions     *session.Manager
	dictionaries *dictionary.Manager
	hub          *websocket.Hub
	game         service.GameService
	closeStore   func() error
}

// openPersistence selects the snapshot backend. The returned close function
// is never nil.
func openPersistence(opts options) (session.SessionPersistence, func() error, error) {
	noop := func() error { return nil }

	switch opts.Snapshot {
	case snapshotNone, "":
		return nil, noop, nil
	case snapshotFile:
		persistence, err := session.NewFilePersistence(filepath.Join(opts.DataDir, "sessions"))
		if err != nil {
			return nil, noop, fmt.Errorf("failed to create session persistence: %w", err)
		}
		return persistence, noop, nil
	case snapshotSQLite:
		store, err := sqlitestore.Open(filepath.Join(opts.DataDir, "codenames.db"))
		if err != nil {
			return nil, noop, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		return store, store.Close, nil
	}
	return nil, noop, fmt.Errorf("unknown snapshot backend %q", opts.Snapshot)
}

// initializeServices wires dictionaries, sessions, the realtime hub and the
// game service. The caller runs the hub and the sweeper.
func initializeServices(opts options, logger zerolog.Logger) (*services, error) {
	dictionaries, err := dictionary.NewManager(opts.DictDir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create dictionary manager: %w", err)
	}

	persistence, closeStore, err := openPersistence(opts)
	if err != nil {
		return nil, err
	}

	var sessions *session.Manager
	if persistence != nil {
		sessions = session.NewManagerWithPersistence(persistence, logger)
		if err := sessions.LoadPersistedSessions(); err != nil {
			logger.Warn().Err(err).Msg("failed to load persisted sessions")
		}
	} else {
		sessions = session.NewManager(logger)
	}

	hub := websocket.NewHub(logger, opts.Keepalive)
	sessions.Subscribe(hub.Publish)

	return &services{
		sessions:     sessions,
		dictionaries: dictionaries,
		hub:          hub,
		game:         service.NewGameService(sessions, dictionaries, hub),
		closeStore:   closeStore,
	}, nil
}

// shutdown snapshots every live game and closes the store
func (s *services) shutdown(logger zerolog.Logger) {
	if err := s.sessions.SaveAllSessions(); err != nil {
		logger.Error().Err(err).Msg("failed to save sessions")
	} else {
		logger.Info().Int("sessions", s.sessions.Count()).Msg("sessions saved")
	}
	if err := s.closeStore(); err != nil {
		logger.Error().Err(err).Msg("failed to close session store")
	}
}

// mcpHandler serves single JSON-RPC messages over HTTP POST
func mcpHandler(mcpServer *server.MCPServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpServer.HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	}
}

// newHandler builds the public HTTP handler: the REST API, the stream, and
// the /mcp endpoint proxying back to baseURL
func newHandler(svc *services, baseURL string, logger zerolog.Logger) http.Handler {
	apiServer := api.NewServer(svc.game, svc.hub, logger)
	mcpClient := mcp.NewClient(baseURL)
	apiServer.Router().HandleFunc("/mcp", mcpHandler(mcpClient.GetMCPServer())).Methods("POST")
	return apiServer
}

func runServerCommand(ctx context.Context, cmd *cli.Command) error {
	logger := loggerFromCommand(cmd)
	opts := optionsFromCommand(cmd)

	ngrokOpts := ngrokOptions{
		Enabled: cmd.Bool("ngrok"),
		Auth:    cmd.String("ngrok-auth"),
		Domain:  cmd.String("ngrok-domain"),
	}
	return runHTTPServer(ctx, opts, ngrokOpts, logger)
}

type ngrokOptions struct {
	Enabled bool
	Auth    string
	Domain  string
}

// runHTTPServer starts the HTTP server with REST API, WebSocket hub, and an
// /mcp proxy endpoint. If ngrok is enabled it also provisions a public tunnel.
func runHTTPServer(parent context.Context, opts options, ngrokOpts ngrokOptions, logger zerolog.Logger) error {
	logger.Info().Str("version", service.Version).Msgf("Starting %s", AppName)

	svc, err := initializeServices(opts, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	go svc.hub.Run(ctx)
	go svc.sessions.RunSweeper(ctx, opts.SweepInterval, opts.SessionTTL)

	addr := opts.addr()
	handler := newHandler(svc, fmt.Sprintf("http://%s", addr), logger)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Handle shutdown signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	serverErr := make(chan error, 1)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()

		logger.Info().
			Str("addr", addr).
			Str("api", fmt.Sprintf("http://%s/api", addr)).
			Str("stream", fmt.Sprintf("ws://%s/api/stream", addr)).
			Str("mcp", fmt.Sprintf("http://%s/mcp", addr)).
			Msg("HTTP server listening")

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	if ngrokOpts.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrok(ctx, ngrokOpts, handler, logger)
		}()
	}

	// Wait for shutdown signal
	select {
	case sig := <-stop:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	case err = <-serverErr:
		logger.Error().Err(err).Msg("HTTP server failed")
	case <-parent.Done():
	}
	cancel()

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	}

	wg.Wait()
	svc.shutdown(logger)
	logger.Info().Msg("Server stopped")
	return err
}

// runNgrok serves handler through an ngrok tunnel until ctx is done
func runNgrok(ctx context.Context, opts ngrokOptions, handler http.Handler, logger zerolog.Logger) {
	if opts.Auth == "" {
		logger.Warn().Msg("ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN env var)")
		return
	}

	logger.Info().Msg("Starting ngrok tunnel...")

	var tunnel ngrokConfig.Tunnel
	if opts.Domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(opts.Domain))
		logger.Info().Str("domain", opts.Domain).Msg("Using custom ngrok domain")
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(opts.Auth))
	if err != nil {
		logger.Error().Err(err).Msg("Failed to start ngrok tunnel")
		return
	}
	defer func() {
		if err := tun.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close ngrok tunnel")
		}
	}()

	ngrokURL := tun.URL()
	logger.Info().
		Str("url", ngrokURL).
		Str("api", ngrokURL+"/api").
		Str("mcp", ngrokURL+"/mcp").
		Msg("Ngrok tunnel established")

	go func() {
		<-ctx.Done()
		tun.Close()
	}()

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		logger.Error().Err(err).Msg("Ngrok server error")
	}
	logger.Info().Msg("Ngrok tunnel closed")
}

func runStdioMCPCommand(ctx context.Context, cmd *cli.Command) error {
	return runStdioMCP(ctx, optionsFromCommand(cmd), loggerFromCommand(cmd))
}

// runStdioMCP runs an MCP stdio server. It reuses a server already listening
// on --host/--port; otherwise it starts an internal HTTP API bound to a random
// loopback port and targets that.
func runStdioMCP(ctx context.Context, opts options, logger zerolog.Logger) error {
	externalURL := fmt.Sprintf("http://%s", opts.addr())
	logger.Info().Str("url", externalURL).Msg("Checking for external API server")

	baseURL := externalURL
	testClient := &http.Client{Timeout: 2 * time.Second}
	resp, err := testClient.Get(externalURL + "/health")
	if err == nil && resp.StatusCode < 500 {
		resp.Body.Close()
		logger.Info().Msg("External API server found, using it for MCP")
	} else {
		logger.Info().Msg("No external API server found, starting internal HTTP server")

		svc, err := initializeServices(opts, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize services: %w", err)
		}

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		go svc.hub.Run(ctx)
		go svc.sessions.RunSweeper(ctx, opts.SweepInterval, opts.SessionTTL)
		defer svc.shutdown(logger)

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}

		internalAddr := listener.Addr().String()
		baseURL = fmt.Sprintf("http://%s", internalAddr)
		logger.Info().Str("addr", internalAddr).Msg("Starting internal HTTP server for MCP stdio")

		httpServer := &http.Server{Handler: newHandler(svc, baseURL, logger)}
		go func() {
			if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Msg("Internal HTTP server error")
			}
		}()
		defer httpServer.Close()
	}

	mcpClient := mcp.NewClient(baseURL)
	logger.Info().Str("api", baseURL).Msg("MCP stdio server ready")

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}
