package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/wricardo/codenames-server/game/session"
)

// DefaultKeepalive is the interval between application level pings
const DefaultKeepalive = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type joinRequest struct {
	client    *Client
	sessionID string
}

type chatRequest struct {
	client *Client
	chat   ChatMessage
}

// Hub tracks connections and their room membership. All membership state
// is owned by the Run loop; other goroutines talk to it through channels.
type Hub struct {
	// Every tracked connection, in a room or not
	clients map[*Client]bool

	// Room members by session ID, and the inverse
	rooms map[string]map[*Client]bool
	owner map[*Client]string

	register   chan *Client
	unregister chan *Client
	join       chan joinRequest
	chat       chan chatRequest

	// Registry events, in the order they were published
	events chan session.Event

	keepalive    time.Duration
	clientsCount atomic.Int64
	done         chan struct{}
	logger       zerolog.Logger
}

// NewHub creates a new WebSocket hub
func NewHub(logger zerolog.Logger, keepalive time.Duration) *Hub {
	if keepalive <= 0 {
		keepalive = DefaultKeepalive
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		rooms:      make(map[string]map[*Client]bool),
		owner:      make(map[*Client]string),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		join:       make(chan joinRequest),
		chat:       make(chan chatRequest, 64),
		events:     make(chan session.Event, 1024),
		keepalive:  keepalive,
		done:       make(chan struct{}),
		logger:     logger.With().Str("component", "hub").Logger(),
	}
}

// Run starts the hub's event loop and blocks until ctx is cancelled
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.keepalive)
	defer ticker.Stop()

	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case req := <-h.join:
			h.joinRoom(req.client, req.sessionID)

		case req := <-h.chat:
			h.relayChat(req.client, req.chat)

		case event := <-h.events:
			h.relayEvent(event)

		case <-ticker.C:
			h.ping()

		case <-ctx.Done():
			for client := range h.clients {
				h.unregisterClient(client)
			}
			close(h.done)
			return
		}
	}
}

// Publish queues a registry event for relay. It is safe to call while the
// registry lock is held.
func (h *Hub) Publish(event session.Event) {
	select {
	case h.events <- event:
	case <-h.done:
	}
}

// ClientsCount returns the number of connected clients
func (h *Hub) ClientsCount() int {
	return int(h.clientsCount.Load())
}

// ServeWS upgrades the request and starts the client's pumps. An optional
// sessionId query parameter joins that room right away.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := &Client{
		id:   uuid.NewString(),
		hub:  h,
		conn: conn,
		send: make(chan []byte, 256),
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()

	if sessionID := r.URL.Query().Get("sessionId"); sessionID != "" {
		h.requestJoin(client, sessionID)
	}
}

func (h *Hub) requestJoin(client *Client, sessionID string) {
	select {
	case h.join <- joinRequest{client: client, sessionID: sessionID}:
	case <-h.done:
	}
}

func (h *Hub) requestChat(client *Client, chat ChatMessage) {
	select {
	case h.chat <- chatRequest{client: client, chat: chat}:
	case <-h.done:
	}
}

func (h *Hub) requestUnregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// registerClient starts tracking a connection
func (h *Hub) registerClient(client *Client) {
	h.clients[client] = true
	h.clientsCount.Add(1)

	h.logger.Debug().Str("conn_id", client.id).Int("clients", len(h.clients)).Msg("client connected")
}

// unregisterClient leaves the client's room and stops tracking it. Safe to
// call more than once.
func (h *Hub) unregisterClient(client *Client) {
	if !h.clients[client] {
		return
	}

	h.leaveRoom(client)
	delete(h.clients, client)
	close(client.send)
	h.clientsCount.Add(-1)

	h.logger.Debug().Str("conn_id", client.id).Int("clients", len(h.clients)).Msg("client disconnected")
}

// joinRoom moves the client into the room of sessionID, leaving its old
// room first. Joining the current room again does nothing.
func (h *Hub) joinRoom(client *Client, sessionID string) {
	if !h.clients[client] || h.owner[client] == sessionID {
		return
	}

	h.leaveRoom(client)

	room := h.rooms[sessionID]
	if room == nil {
		room = make(map[*Client]bool)
		h.rooms[sessionID] = room
	}
	room[client] = true
	h.owner[client] = sessionID

	h.logger.Debug().Str("conn_id", client.id).Str("session_id", sessionID).Int("room_size", len(room)).Msg("joined room")
	h.broadcast(sessionID, RoomCountMessage{Kind: KindPlayerJoined, Count: len(room)})
}

// leaveRoom removes the client from its room, if any
func (h *Hub) leaveRoom(client *Client) {
	sessionID, ok := h.owner[client]
	if !ok {
		return
	}
	delete(h.owner, client)

	room := h.rooms[sessionID]
	delete(room, client)
	if len(room) == 0 {
		delete(h.rooms, sessionID)
		return
	}
	h.broadcast(sessionID, RoomCountMessage{Kind: KindPlayerLeft, Count: len(room)})
}

func (h *Hub) relayChat(client *Client, chat ChatMessage) {
	sessionID, ok := h.owner[client]
	if !ok {
		return
	}
	chat.Kind = KindChat
	h.broadcast(sessionID, chat)
}

func (h *Hub) relayEvent(event session.Event) {
	message, ok := eventMessage(event)
	if !ok {
		h.logger.Warn().Str("session_id", event.SessionID).Str("kind", string(event.Game.Kind)).Msg("unknown event dropped")
		return
	}
	h.broadcast(event.SessionID, message)
}

// ping sends a keepalive to every tracked connection
func (h *Hub) ping() {
	data, _ := json.Marshal(PingMessage{Kind: KindPing})

	var failed []*Client
	for client := range h.clients {
		if !client.trySend(data) {
			failed = append(failed, client)
		}
	}
	for _, client := range failed {
		h.unregisterClient(client)
	}
}

// broadcast sends message to every member of a room. A member whose send
// buffer is full is disconnected.
func (h *Hub) broadcast(sessionID string, message any) {
	room, ok := h.rooms[sessionID]
	if !ok {
		return
	}

	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to marshal broadcast message")
		return
	}

	var failed []*Client
	for client := range room {
		if !client.trySend(data) {
			failed = append(failed, client)
		}
	}
	for _, client := range failed {
		h.logger.Warn().Str("conn_id", client.id).Msg("send buffer full, dropping client")
		h.unregisterClient(client)
	}
}
