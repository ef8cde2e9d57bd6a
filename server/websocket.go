package server

import (
	"context"
	"encoding/json"
	"io/fs"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/lab1702/langbots/game"
	"go.uber.org/zap"
)

// isValidOrigin allows non-browser clients, same-origin pages and localhost
func isValidOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if r.Host == originURL.Host {
		return true
	}
	host := originURL.Hostname()
	return host == "localhost" || host == "127.0.0.1" || strings.HasPrefix(originURL.Host, "[::1]")
}

var upgrader = websocket.Upgrader{
	CheckOrigin:       isValidOrigin,
	EnableCompression: true,
}

// Message types
const (
	MsgTypeUpdate = "update"
	MsgTypeResult = "result"
)

// Spectator connection timings
const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// ServerMessage is the envelope of everything sent to spectators
type ServerMessage struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// BattleState is the payload of an update message
type BattleState struct {
	BattleID string      `json:"battleId"`
	Frame    int64       `json:"frame"`
	Field    *game.Field `json:"field"`
}

// BattleResult is the payload of a result message
type BattleResult struct {
	BattleID   string  `json:"battleId"`
	Winner     string  `json:"winner,omitempty"`
	BattleTime float64 `json:"battleTime"`
	Ticks      int     `json:"ticks"`
	Aborted    bool    `json:"aborted"`
}

// Client is one connected spectator
type Client struct {
	ID   int
	conn *websocket.Conn
	send chan []byte
	hub  *Hub
}

// Hub fans battle snapshots out to websocket spectators
type Hub struct {
	mu         sync.RWMutex
	clients    map[int]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}
	nextID     int
	battleID   string
	frame      int64
	latest     []byte // Last update, sent to new spectators and served by /api/battle
	logger     *zap.Logger
}

// NewHub creates a hub for one battle (or one playback)
func NewHub(battleID string, logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[int]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
		done:       make(chan struct{}),
		battleID:   battleID,
		logger:     orNop(logger).With(zap.String("component", "hub")),
	}
}

// Run handles client events until ctx is done
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for id, client := range h.clients {
				delete(h.clients, id)
				close(client.send)
			}
			h.mu.Unlock()
			return nil

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			latest := h.latest
			h.mu.Unlock()
			if latest != nil {
				client.send <- latest
			}
			h.logger.Info("Spectator connected", zap.Int("client", client.ID))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(client.send)
			}
			h.mu.Unlock()
			h.logger.Info("Spectator disconnected", zap.Int("client", client.ID))

		case message := <-h.broadcast:
			h.mu.RLock()
			for _, client := range h.clients {
				select {
				case client.send <- message:
				default:
					h.logger.Warn("Spectator send buffer full, skipping frame", zap.Int("client", client.ID))
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Draw publishes a snapshot. Frames are dropped rather than slowing the battle down.
func (h *Hub) Draw(_ context.Context, f *game.Field) error {
	h.mu.Lock()
	h.frame++
	state := BattleState{BattleID: h.battleID, Frame: h.frame, Field: f}
	h.mu.Unlock()

	data, err := json.Marshal(ServerMessage{Type: MsgTypeUpdate, Data: state})
	if err != nil {
		return err
	}

	h.mu.Lock()
	h.latest = data
	h.mu.Unlock()

	h.publish(data)
	return nil
}

// Report announces the end of the battle
func (h *Hub) Report(result Result) {
	payload := BattleResult{
		BattleID:   result.BattleID,
		BattleTime: result.BattleTime,
		Ticks:      result.Ticks,
		Aborted:    result.Aborted,
	}
	if result.Winner != nil {
		payload.Winner = result.Winner.Name
	}
	data, err := json.Marshal(ServerMessage{Type: MsgTypeResult, Data: payload})
	if err != nil {
		h.logger.Error("Encoding result failed", zap.Error(err))
		return
	}
	h.publish(data)
}

func (h *Hub) publish(data []byte) {
	select {
	case h.broadcast <- data:
	default:
		h.logger.Warn("Broadcast queue full, skipping frame")
	}
}

// Close is a no-op; the hub stops with the context passed to Run
func (h *Hub) Close() error {
	return nil
}

// Handler serves the spectator endpoints and the static viewer
func (h *Hub) Handler(static fs.FS) http.Handler {
	mux := http.NewServeMux()
	if static != nil {
		mux.Handle("/", http.FileServer(http.FS(static)))
	}
	mux.HandleFunc("/ws", h.HandleWebSocket)
	mux.HandleFunc("/api/battle", h.HandleBattle)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	return mux
}

// HandleBattle returns the latest update as JSON
func (h *Hub) HandleBattle(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Content-Type", "application/json")

	h.mu.RLock()
	latest := h.latest
	h.mu.RUnlock()

	if latest == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Write(latest)
}

// HandleWebSocket upgrades a spectator connection
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	h.mu.Lock()
	clientID := h.nextID
	h.nextID++
	h.mu.Unlock()

	client := &Client{
		ID:   clientID,
		conn: conn,
		send: make(chan []byte, 256),
		hub:  h,
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// readPump discards spectator messages and notices when the connection goes away
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("WebSocket error", zap.Int("client", c.ID), zap.Error(err))
			}
			return
		}
	}
}

// writePump sends queued messages and keeps the connection alive with pings
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
