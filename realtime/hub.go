// Package realtime pushes session and streak changes to the websocket
// connections of the user they belong to.
package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/hpmalinova/monifly/events"
)

const (
	writeWait  = 5 * time.Second
	sendBuffer = 64

	// DefaultPongWait is how long a connection may stay silent. Pings go
	// out twice per wait.
	DefaultPongWait = 60 * time.Second
)

type envelope struct {
	userID string
	conn   *websocket.Conn // only this connection when set
	data   []byte
}

// Hub tracks the connections of every user. All writes happen on the
// goroutine started by Start.
type Hub struct {
	clients  map[string]map[*websocket.Conn]bool
	send     chan envelope
	mu       sync.Mutex
	upgrader websocket.Upgrader
	log      *zap.Logger
	pongWait time.Duration
}

type Option func(*Hub)

// WithPongWait sets how long a connection may go without answering a ping.
func WithPongWait(d time.Duration) Option {
	return func(h *Hub) { h.pongWait = d }
}

func NewHub(log *zap.Logger, opts ...Option) *Hub {
	h := &Hub{
		clients: make(map[string]map[*websocket.Conn]bool),
		send:    make(chan envelope, sendBuffer),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		log:      log,
		pongWait: DefaultPongWait,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Hub) pingPeriod() time.Duration {
	return h.pongWait / 2
}

// Start runs the writer until ctx is done, then closes every connection.
// The writer also pings every connection to keep read deadlines moving.
func (h *Hub) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(h.pingPeriod())
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				h.closeAll()
				return
			case msg := <-h.send:
				h.deliver(msg)
			case <-ticker.C:
				h.ping()
			}
		}
	}()
}

func (h *Hub) ping() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, conns := range h.clients {
		for conn := range conns {
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				h.log.Debug("websocket ping failed", zap.String("user", userID), zap.Error(err))
				conn.Close()
				h.drop(userID, conn)
			}
		}
	}
}

func (h *Hub) deliver(msg envelope) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients[msg.userID] {
		if msg.conn != nil && conn != msg.conn {
			continue
		}
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, msg.data); err != nil {
			h.log.Warn("websocket write failed", zap.String("user", msg.userID), zap.Error(err))
			conn.Close()
			h.drop(msg.userID, conn)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, conns := range h.clients {
		for conn := range conns {
			conn.Close()
		}
		delete(h.clients, userID)
	}
}

func (h *Hub) drop(userID string, conn *websocket.Conn) {
	conns := h.clients[userID]
	delete(conns, conn)
	if len(conns) == 0 {
		delete(h.clients, userID)
	}
}

func (h *Hub) register(userID string, conn *websocket.Conn) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*websocket.Conn]bool)
	}
	h.clients[userID][conn] = true
	return len(h.clients[userID])
}

func (h *Hub) unregister(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[userID][conn]; ok {
		conn.Close()
		h.drop(userID, conn)
	}
	h.log.Debug("websocket client disconnected", zap.String("user", userID), zap.Int("remaining", len(h.clients[userID])))
}

// Clients counts the open connections of userID.
func (h *Hub) Clients(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[userID])
}

// Serve upgrades the request and keeps the connection until the client
// goes away. Incoming messages are ignored.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, userID string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	n := h.register(userID, conn)
	h.log.Debug("websocket client connected", zap.String("user", userID), zap.Int("clients", n))
	h.enqueue(userID, conn, map[string]interface{}{"type": "connected", "clients": n})

	// a client that answers neither pings nor anything else is dropped
	// once the read deadline passes
	_ = conn.SetReadDeadline(time.Now().Add(h.pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.pongWait))
	})

	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.unregister(userID, conn)
				return
			}
		}
	}()
}

func (h *Hub) enqueue(userID string, conn *websocket.Conn, message map[string]interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		h.log.Error("marshal websocket message", zap.Error(err))
		return
	}
	select {
	case h.send <- envelope{userID: userID, conn: conn, data: data}:
	default:
		h.log.Warn("websocket queue full, message dropped", zap.String("user", userID))
	}
}

// Attach forwards bus events to the owner's connections.
func (h *Hub) Attach(bus *events.Bus) func() {
	return bus.Subscribe(func(ctx context.Context, e events.Event) {
		switch ev := e.(type) {
		case events.SessionChanged:
			h.enqueue(ev.UserID, nil, map[string]interface{}{
				"type":  "session",
				"event": ev.Kind,
				"view":  ev.View,
			})
		case events.StreakUpdated:
			h.enqueue(ev.UserID, nil, map[string]interface{}{
				"type":   "streak",
				"streak": ev.Streak,
				"max":    ev.Max,
				"level":  ev.Level,
			})
		}
	})
}
