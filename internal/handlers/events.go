package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/lehigh-university-libraries/imagemeta/internal/pipeline"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	clientSendSize = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type client struct {
	conn      *websocket.Conn
	sessionID string
	send      chan []byte
}

// Hub fans pipeline events out to the websocket clients of each session
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*client]bool
}

func NewHub() *Hub {
	return &Hub{clients: make(map[string]map[*client]bool)}
}

// Notify implements pipeline.Notifier. Slow clients drop messages instead of blocking the run.
func (h *Hub) Notify(e pipeline.Event) {
	message, err := json.Marshal(e)
	if err != nil {
		slog.Error("Unable to encode event", "type", e.Type, "err", err)
		return
	}
	h.broadcast(e.BatchID, message)
}

func (h *Hub) broadcast(sessionID string, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[sessionID] {
		select {
		case c.send <- message:
		default:
			slog.Warn("Dropping event for slow client", "session_id", sessionID)
		}
	}
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c.sessionID] == nil {
		h.clients[c.sessionID] = make(map[*client]bool)
	}
	h.clients[c.sessionID][c] = true
	slog.Debug("Event client connected", "session_id", c.sessionID, "clients", len(h.clients[c.sessionID]))
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c.sessionID][c]; !ok {
		return
	}
	delete(h.clients[c.sessionID], c)
	close(c.send)
	if len(h.clients[c.sessionID]) == 0 {
		delete(h.clients, c.sessionID)
	}
}

// CloseSession disconnects every client of a session
func (h *Hub) CloseSession(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients[sessionID] {
		close(c.send)
	}
	delete(h.clients, sessionID)
}

// Clients reports how many clients follow a session
func (h *Hub) Clients(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[sessionID])
}

// HandleEvents upgrades to a websocket, sends a snapshot and then streams pipeline events
func (h *Handler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	session, ok := h.getSessionOrError(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("WebSocket upgrade failed", "err", err)
		return
	}

	snapshot, err := json.Marshal(map[string]any{
		"type":       "snapshot",
		"session_id": session.ID,
		"snapshot":   session.Snapshot(),
	})
	if err != nil {
		slog.Error("Unable to encode snapshot", "err", err)
		conn.Close()
		return
	}

	c := &client{conn: conn, sessionID: session.ID, send: make(chan []byte, clientSendSize)}
	c.send <- snapshot
	h.hub.add(c)

	go c.writePump()
	go c.readPump(h.hub)
}

// readPump discards client messages and unregisters the client once the connection ends
func (c *client) readPump(hub *Hub) {
	defer func() {
		hub.remove(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("WebSocket error", "session_id", c.sessionID, "err", err)
			}
			return
		}
	}
}

func (c *client) writePump() {
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
				slog.Warn("WebSocket write error", "session_id", c.sessionID, "err", err)
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
