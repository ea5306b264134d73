package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"redops/internal/domain"
)

const (
	hubSendBuffer = 32
	hubWriteWait  = 5 * time.Second
	hubPingPeriod = 30 * time.Second
)

type pushFrame struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type hubClient struct {
	conn   *websocket.Conn
	send   chan []byte
	userID string
}

// Hub fans notifications out to connected websocket clients. Slow clients
// whose buffer is full are disconnected.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *slog.Logger

	mu      sync.Mutex
	clients map[*hubClient]struct{}
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger:  logger,
		clients: map[*hubClient]struct{}{},
	}
}

// Clients reports the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) Broadcast(n domain.Notification) {
	data, err := json.Marshal(pushFrame{Type: "notification", Payload: n})
	if err != nil {
		h.logger.Error("encode push frame", "error", err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.logger.Warn("dropping slow push client", "user", c.userID)
			delete(h.clients, c)
			close(c.send)
		}
	}
}

func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) register(c *hubClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) unregister(c *hubClient) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// handler upgrades authenticated requests. The token comes from the
// Authorization header or, for browsers, the token query parameter.
func (h *Hub) handler(cfg AuthConfig) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			token = r.URL.Query().Get("token")
		}
		principal, _, err := authenticateJWT(token, cfg)
		if err != nil {
			respondStatusError(w, newAPIError(http.StatusUnauthorized, "invalid token"))
			return
		}
		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.logger.Warn("websocket upgrade failed", "error", err)
			return
		}
		c := &hubClient{conn: conn, send: make(chan []byte, hubSendBuffer), userID: principal.UserID}
		h.register(c)
		h.logger.Debug("push client connected", "user", c.userID)
		go h.writePump(c)
		h.readPump(c)
	})
}

// readPump discards inbound frames and unregisters on disconnect.
func (h *Hub) readPump(c *hubClient) {
	defer func() {
		h.unregister(c)
		_ = c.conn.Close()
		h.logger.Debug("push client disconnected", "user", c.userID)
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *hubClient) {
	ticker := time.NewTicker(hubPingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(hubWriteWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(hubWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
