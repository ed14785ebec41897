package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/skip2/go-qrcode"

	"github.com/wricardo/codenames-server/game/dictionary"
	"github.com/wricardo/codenames-server/game/engine"
	"github.com/wricardo/codenames-server/game/service"
	"github.com/wricardo/codenames-server/game/session"
	"github.com/wricardo/codenames-server/transport/websocket"
)

// Machine readable error codes returned with every error response
const (
	CodeGameNotFound       = "GameNotFound"
	CodeAgentNotFound      = "AgentNotFound"
	CodeUncoverNotAllowed  = "UncoverNotAllowed"
	CodeWrongSpymasterHint = "WrongSpymasterHint"
	CodeGameIsFinished     = "GameIsFinished"
	CodeDictionaryNotFound = "DictionaryNotFound"
	CodeBadRequest         = "BadRequest"
	CodeMethodNotAllowed   = "MethodNotAllowed"
	CodeInternal           = "InternalError"
)

const qrSize = 320

// Server represents the REST API server
type Server struct {
	service service.GameService
	hub     *websocket.Hub
	router  *mux.Router
	logger  zerolog.Logger
}

// NewServer creates a new API server. hub may be nil, in which case the
// stream endpoint is not registered.
func NewServer(gameService service.GameService, hub *websocket.Hub, logger zerolog.Logger) *Server {
	s := &Server{
		service: gameService,
		hub:     hub,
		router:  mux.NewRouter(),
		logger:  logger.With().Str("component", "api").Logger(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router.Use(s.logRequests)

	api := s.router.PathPrefix("/api").Subrouter()

	// Games ("create" must be registered before the {id} patterns)
	api.HandleFunc("/games/create", s.handleCreateGame).Methods("GET")
	api.HandleFunc("/games/{id}/status", s.handleGameStatus).Methods("GET")
	api.HandleFunc("/games/{id}/agents/{index}/uncover", s.handleUncoverAgent).Methods("GET")
	// POST only, enforced by the handler
	api.HandleFunc("/games/{id}/commit-code", s.handleCommitCode)
	api.HandleFunc("/games/{id}/qr", s.handleInviteQR).Methods("GET")

	// Server
	api.HandleFunc("/dictionaries", s.handleListDictionaries).Methods("GET")
	api.HandleFunc("/stat/info", s.handleStatInfo).Methods("GET")

	// WebSocket
	if s.hub != nil {
		api.HandleFunc("/stream", s.hub.ServeWS)
	}

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Router exposes the router so other transports can be mounted next to the API
func (s *Server) Router() *mux.Router {
	return s.router
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, map[string]string{"error": message, "code": code})
}

// respondServiceError maps domain errors to a status and error code
func (s *Server) respondServiceError(w http.ResponseWriter, err error) {
	status, code := http.StatusInternalServerError, CodeInternal
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		status, code = http.StatusNotFound, CodeGameNotFound
	case errors.Is(err, engine.ErrAgentNotFound):
		status, code = http.StatusNotFound, CodeAgentNotFound
	case errors.Is(err, dictionary.ErrDictionaryNotFound):
		status, code = http.StatusNotFound, CodeDictionaryNotFound
	case errors.Is(err, service.ErrUncoverNotAllowed):
		status, code = http.StatusConflict, CodeUncoverNotAllowed
	case errors.Is(err, engine.ErrGameAlreadyFinished):
		status, code = http.StatusConflict, CodeGameIsFinished
	case errors.Is(err, engine.ErrInvalidInput):
		status, code = http.StatusBadRequest, CodeWrongSpymasterHint
	default:
		s.logger.Error().Err(err).Msg("request failed")
	}
	respondError(w, status, code, err.Error())
}

// Game Handlers

func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	dictID, err := strconv.Atoi(query.Get("dict"))
	if err != nil {
		dictID = 0
	}

	gameID, err := s.service.CreateGame(r.Context(), dictID, query.Get("from"))
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"gameId": gameID})
}

func (s *Server) handleGameStatus(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["id"]

	role := engine.Operative
	if player, err := strconv.Atoi(r.URL.Query().Get("player")); err == nil && engine.ViewerRole(player) == engine.HintGiver {
		role = engine.HintGiver
	}

	status, err := s.service.GetGameStatus(r.Context(), gameID, role)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"game": status})
}

func (s *Server) handleUncoverAgent(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	index, err := strconv.Atoi(vars["index"])
	if err != nil {
		respondError(w, http.StatusNotFound, CodeAgentNotFound, fmt.Sprintf("agent %q not found", vars["index"]))
		return
	}

	card, err := s.service.UncoverAgent(r.Context(), vars["id"], index)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"agent": card})
}

func (s *Server) handleCommitCode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		respondError(w, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "use POST")
		return
	}

	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, CodeBadRequest, "invalid JSON body")
		return
	}

	move, err := s.service.CommitHint(r.Context(), mux.Vars(r)["id"], req.Message)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"move": move})
}

// handleInviteQR renders a PNG QR code pointing operatives at the game
func (s *Server) handleInviteQR(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["id"]
	if _, err := s.service.GetGameStatus(r.Context(), gameID, engine.Operative); err != nil {
		s.respondServiceError(w, err)
		return
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	url := fmt.Sprintf("%s://%s/game/%s/player/%d/board", scheme, r.Host, gameID, engine.Operative)

	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		s.respondServiceError(w, fmt.Errorf("qr generation failed: %w", err))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

// Server Handlers

func (s *Server) handleListDictionaries(w http.ResponseWriter, r *http.Request) {
	dictionaries, err := s.service.ListDictionaries(r.Context())
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"dictionaries": dictionaries})
}

func (s *Server) handleStatInfo(w http.ResponseWriter, r *http.Request) {
	stats, err := s.service.Stats(r.Context())
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, stats)
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// statusRecorder captures the response status for request logging
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The stream endpoint hijacks the connection
		if r.URL.Path == "/api/stream" {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}
