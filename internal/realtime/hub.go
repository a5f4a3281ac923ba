package realtime

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/mellystark/visitormanagement/pkg/logger"
	"github.com/mellystark/visitormanagement/pkg/metrics"
)

const defaultBufferSize = 64

// Message is the JSON frame pushed to dashboard clients.
type Message struct {
	Stream string         `json:"stream"`
	Event  string         `json:"event"`
	Data   any            `json:"data,omitempty"`
	Meta   map[string]any `json:"meta,omitempty"`
}

// Publisher delivers a message to every subscriber of a stream.
type Publisher interface {
	Publish(ctx context.Context, stream string, message Message) error
}

// Subscriber describes an upgraded dashboard connection.
type Subscriber struct {
	AdminID uint
	Streams []string
}

type HubOption func(*Hub)

// WithAllowedOrigins permits cross-origin upgrades from the listed origins.
// "*" allows any origin.
func WithAllowedOrigins(origins []string) HubOption {
	return func(h *Hub) {
		for _, origin := range origins {
			switch origin = strings.TrimSpace(origin); origin {
			case "":
			case "*":
				h.anyOrigin = true
			default:
				h.origins[originHost(origin)] = struct{}{}
			}
		}
	}
}

// WithBufferSize sets the per-client outbound queue length.
func WithBufferSize(size int) HubOption {
	return func(h *Hub) {
		if size > 0 {
			h.bufferSize = size
		}
	}
}

// Hub fans stream messages out to connected dashboards. Only KnownStreams
// can be subscribed; a client that cannot keep up is disconnected.
type Hub struct {
	mu      sync.RWMutex
	streams map[string]map[*client]struct{}
	known   map[string]struct{}

	upgrader   websocket.Upgrader
	origins    map[string]struct{}
	anyOrigin  bool
	bufferSize int
	log        *zap.Logger
}

func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		streams:    make(map[string]map[*client]struct{}),
		known:      make(map[string]struct{}),
		origins:    make(map[string]struct{}),
		bufferSize: defaultBufferSize,
		log:        logger.WithModule("realtime"),
	}
	for _, stream := range KnownStreams() {
		h.known[stream] = struct{}{}
	}
	for _, opt := range opts {
		opt(h)
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// Serve upgrades the request and blocks until the client disconnects.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, sub Subscriber) {
	socket, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("upgrade failed", zap.Error(err))
		return
	}

	c := newClient(h, socket, sub.AdminID)
	metrics.RealtimeConnections.Inc()
	h.subscribe(c, sub.Streams)

	go c.writeLoop()
	c.readLoop()
}

// Publish delivers message to local subscribers of stream. It never fails;
// the error satisfies Publisher.
func (h *Hub) Publish(_ context.Context, stream string, message Message) error {
	h.BroadcastStream(stream, message)
	return nil
}

// BroadcastStream delivers message to every client subscribed to stream.
func (h *Hub) BroadcastStream(stream string, message Message) {
	message.Stream = normalizeStream(stream)

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.streams[message.Stream] {
		if !c.trySend(message) {
			h.dropSlow(c, message)
		}
	}
}

// SubscriberCount reports how many clients listen on stream.
func (h *Hub) SubscriberCount(stream string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.streams[normalizeStream(stream)])
}

func (h *Hub) subscribe(c *client, streams []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c.isClosed() {
		return
	}
	for _, stream := range uniqueStreams(streams) {
		if _, ok := h.known[stream]; !ok {
			h.log.Debug("ignoring unknown stream", zap.String("stream", stream), zap.Uint("admin_id", c.adminID))
			continue
		}
		if h.streams[stream] == nil {
			h.streams[stream] = make(map[*client]struct{})
		}
		h.streams[stream][c] = struct{}{}
		c.streams[stream] = struct{}{}
	}
}

func (h *Hub) unsubscribe(c *client, streams []string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, stream := range uniqueStreams(streams) {
		h.removeLocked(c, stream)
	}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for stream := range c.streams {
		h.removeLocked(c, stream)
	}
}

func (h *Hub) removeLocked(c *client, stream string) {
	delete(c.streams, stream)
	if subs, ok := h.streams[stream]; ok {
		delete(subs, c)
		if len(subs) == 0 {
			delete(h.streams, stream)
		}
	}
}

// dropSlow runs under the read lock, so the client is closed asynchronously.
func (h *Hub) dropSlow(c *client, message Message) {
	metrics.RealtimeDropped.WithLabelValues(message.Stream).Inc()
	h.log.Warn("disconnecting slow client",
		zap.String("stream", message.Stream),
		zap.String("event", message.Event),
		zap.Uint("admin_id", c.adminID),
	)
	go c.close()
}

// checkOrigin accepts same-host, loopback and configured origins. Requests
// without an Origin header come from non-browser clients.
func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || h.anyOrigin {
		return true
	}
	host := originHost(origin)
	if host == originHost(r.Host) || isLoopback(host) {
		return true
	}
	_, ok := h.origins[host]
	return ok
}

func originHost(raw string) string {
	raw = strings.TrimSpace(raw)
	if u, err := url.Parse(raw); err == nil && u.Host != "" {
		raw = u.Host
	}
	if host, _, err := net.SplitHostPort(raw); err == nil {
		return strings.ToLower(host)
	}
	return strings.ToLower(raw)
}

func isLoopback(host string) bool {
	if ip := net.ParseIP(host); ip != nil {
		return ip.IsLoopback()
	}
	return host == "localhost"
}

func normalizeStream(stream string) string {
	return strings.ToLower(strings.TrimSpace(stream))
}

func uniqueStreams(streams []string) []string {
	seen := make(map[string]struct{}, len(streams))
	out := make([]string, 0, len(streams))
	for _, stream := range streams {
		stream = normalizeStream(stream)
		if _, dup := seen[stream]; stream == "" || dup {
			continue
		}
		seen[stream] = struct{}{}
		out = append(out, stream)
	}
	return out
}
