package realtime

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/mellystark/visitormanagement/pkg/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 << 10
)

// controlMessage is sent by dashboards to change subscriptions at runtime.
type controlMessage struct {
	Action  string   `json:"action"`
	Streams []string `json:"streams"`
}

type client struct {
	hub     *Hub
	socket  *websocket.Conn
	adminID uint
	streams map[string]struct{} // guarded by hub.mu

	mu     sync.Mutex
	send   chan Message
	closed bool
	once   sync.Once
}

func newClient(hub *Hub, socket *websocket.Conn, adminID uint) *client {
	return &client{
		hub:     hub,
		socket:  socket,
		adminID: adminID,
		streams: make(map[string]struct{}),
		send:    make(chan Message, hub.bufferSize),
	}
}

// trySend queues message without blocking. It reports false when the queue is
// full or the client is closed.
func (c *client) trySend(message Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- message:
		return true
	default:
		return false
	}
}

func (c *client) readLoop() {
	defer c.close()

	c.socket.SetReadLimit(maxMessageSize)
	_ = c.socket.SetReadDeadline(time.Now().Add(pongWait))
	c.socket.SetPongHandler(func(string) error {
		return c.socket.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, payload, err := c.socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Debug("unexpected close", zap.Uint("admin_id", c.adminID), zap.Error(err))
			}
			return
		}
		c.handleControl(payload)
	}
}

func (c *client) handleControl(payload []byte) {
	if len(payload) == 0 {
		return
	}
	var ctrl controlMessage
	if err := json.Unmarshal(payload, &ctrl); err != nil {
		c.hub.log.Debug("invalid control payload", zap.Uint("admin_id", c.adminID), zap.Error(err))
		return
	}

	switch strings.ToLower(strings.TrimSpace(ctrl.Action)) {
	case "subscribe":
		c.hub.subscribe(c, ctrl.Streams)
	case "unsubscribe":
		c.hub.unsubscribe(c, ctrl.Streams)
	case "ping":
		c.trySend(Message{Event: "pong"})
	default:
		c.hub.log.Debug("unsupported control action", zap.String("action", ctrl.Action))
	}
}

func (c *client) writeLoop() {
	defer c.close()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.socket.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.socket.WriteJSON(message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.socket.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// close marks the client closed before unregistering it, so a subscribe
// racing with close either sees the flag or is undone by unregister.
func (c *client) close() {
	c.once.Do(func() {
		c.mu.Lock()
		c.closed = true
		close(c.send)
		c.mu.Unlock()

		c.hub.unregister(c)
		_ = c.socket.Close()
		metrics.RealtimeConnections.Dec()
	})
}
