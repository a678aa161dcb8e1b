// Package realtime pushes check-in notifications to connected admin
// dashboards over WebSocket.
package realtime

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/fossuok/qr-event-backend/internal/models"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 50 * time.Second
	sendBuffer = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Cross-origin dashboards are allowed; the route itself sits behind
	// the admin session middleware.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// CheckinEvent is the message broadcast on each first-time check-in.
type CheckinEvent struct {
	Type string          `json:"type"`
	User models.ScanView `json:"user"`
}

// Hub fans check-in events out to connected clients. Clients that fall
// behind are dropped rather than allowed to block the broadcast.
type Hub struct {
	logger *zap.Logger

	mu      sync.Mutex
	clients map[chan []byte]struct{}
}

// NewHub creates a check-in feed hub.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		logger:  logger,
		clients: make(map[chan []byte]struct{}),
	}
}

// BroadcastCheckin sends a check-in event to every connected client.
func (h *Hub) BroadcastCheckin(u models.ScanView) {
	msg, err := json.Marshal(CheckinEvent{Type: "checkin", User: u})
	if err != nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- msg:
		default:
			delete(h.clients, ch)
			close(ch)
			h.logger.Warn("dropping slow checkin feed client")
		}
	}
}

func (h *Hub) register() chan []byte {
	ch := make(chan []byte, sendBuffer)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *Hub) unregister(ch chan []byte) {
	h.mu.Lock()
	if _, ok := h.clients[ch]; ok {
		delete(h.clients, ch)
		close(ch)
	}
	h.mu.Unlock()
}

// ServeWS handles GET /admin/ws: upgrades the connection and streams
// check-in events until the client disconnects.
func (h *Hub) ServeWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	ch := h.register()
	done := make(chan struct{})

	// The feed is one-way; the read loop only detects disconnects.
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		h.unregister(ch)
		conn.Close()
	}()

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
