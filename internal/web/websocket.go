package web

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// Update types pushed to viewers
const (
	UpdateState     = "state"
	UpdateSelection = "selection"
	UpdateMove      = "move"
	UpdateGameEnd   = "game_end"
)

var pongMessage = []byte(`{"type":"pong"}`)

// WebSocket upgrader with reasonable settings
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The viewer is served locally; any origin may watch
		return true
	},
}

// Hub maintains active WebSocket connections
type Hub struct {
	// Registered clients by game ID
	gameClients map[string]map[*Client]bool

	// Broadcast channel for game updates
	broadcast chan GameUpdate

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Closed once Run returns
	done chan struct{}

	mu sync.RWMutex
}

// Client represents a WebSocket connection
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	pong   chan struct{}
	gameID string
}

// GameUpdate represents an update to broadcast
type GameUpdate struct {
	GameID string      `json:"gameId"`
	Type   string      `json:"type"` // "state", "selection", "move", "game_end"
	Data   interface{} `json:"data"`
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		gameClients: make(map[string]map[*Client]bool),
		broadcast:   make(chan GameUpdate, 256),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		done:        make(chan struct{}),
	}
}

// Run starts the hub's main event loop. It returns when ctx is done,
// closing every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.gameClients[client.gameID] == nil {
				h.gameClients[client.gameID] = make(map[*Client]bool)
			}
			h.gameClients[client.gameID][client] = true
			h.mu.Unlock()

			log.Info().
				Str("gameID", client.gameID).
				Str("remote", client.conn.RemoteAddr().String()).
				Msg("Viewer connected to game")

		case client := <-h.unregister:
			h.remove(client)

			log.Info().
				Str("gameID", client.gameID).
				Msg("Viewer disconnected from game")

		case update := <-h.broadcast:
			h.deliver(update)
		}
	}
}

func (h *Hub) deliver(update GameUpdate) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.gameClients[update.GameID]))
	for client := range h.gameClients[update.GameID] {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	if len(clients) == 0 {
		return
	}

	message, err := json.Marshal(update)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal game update")
		return
	}

	for _, client := range clients {
		select {
		case client.send <- message:
		default:
			// Client's send channel is full, drop it
			h.remove(client)
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.gameClients[client.gameID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	close(client.send)

	// Clean up empty game rooms
	if len(clients) == 0 {
		delete(h.gameClients, client.gameID)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for gameID, clients := range h.gameClients {
		for client := range clients {
			close(client.send)
		}
		delete(h.gameClients, gameID)
	}
}

// ClientCount returns the number of viewers watching a game.
func (h *Hub) ClientCount(gameID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.gameClients[gameID])
}

// BroadcastGameUpdate sends an update to all clients watching a game. When
// the queue is full updates are dropped, except game_end, which waits for
// room until the hub stops.
func (h *Hub) BroadcastGameUpdate(update GameUpdate) {
	if update.Type == UpdateGameEnd {
		select {
		case h.broadcast <- update:
		case <-h.done:
			log.Warn().Str("gameID", update.GameID).Msg("Hub stopped, game end not delivered")
		}
		return
	}

	select {
	case h.broadcast <- update:
	default:
		log.Warn().Str("gameID", update.GameID).Msg("Broadcast channel full, dropping update")
	}
}

// WebSocketHandler upgrades the request and streams updates of the
// service's game to it, starting with the current state.
func (s *Service) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	if gameID := r.URL.Query().Get("gameId"); gameID != "" && gameID != s.gameID {
		http.Error(w, "Game not found", http.StatusNotFound)
		return
	}

	// Upgrade connection
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	client := &Client{
		hub:    s.hub,
		conn:   conn,
		send:   make(chan []byte, 256),
		pong:   make(chan struct{}, 1),
		gameID: s.gameID,
	}

	if data, err := json.Marshal(GameUpdate{GameID: s.gameID, Type: UpdateState, Data: s.engine.GetState()}); err == nil {
		client.send <- data
	}

	// Register client
	select {
	case client.hub.register <- client:
	case <-client.hub.done:
		conn.Close()
		return
	}

	// Start client goroutines
	go client.writePump()
	go client.readPump()
}

// readPump handles incoming messages from the WebSocket
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Msg("WebSocket error")
			}
			break
		}

		// Viewers only ever send keepalives
		var msg map[string]interface{}
		if err := json.Unmarshal(message, &msg); err == nil {
			if msg["type"] == "ping" {
				select {
				case c.pong <- struct{}{}:
				default:
				}
			}
		}
	}
}

// writePump handles sending messages to the WebSocket
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-c.pong:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, pongMessage); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
