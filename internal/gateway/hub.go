package gateway

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"tradevault-engine/internal/metrics"
)

var upgrader = websocket.Upgrader{
	// Viewer connections carry no auth and may come from any origin.
	CheckOrigin:       func(*http.Request) bool { return true },
	EnableCompression: true,
}

// Hub fans every engine event out to all connected viewers and feeds
// their subscribe/unsubscribe requests into the feed manager.
type Hub struct {
	feeds   FeedController
	log     *zap.Logger
	metrics *metrics.Metrics
	health  *metrics.HealthStatus

	mu      sync.RWMutex
	clients map[*Client]bool
}

// NewHub creates a hub over the given feed manager.
func NewHub(feeds FeedController, m *metrics.Metrics, health *metrics.HealthStatus, log *zap.Logger) *Hub {
	return &Hub{
		feeds:   feeds,
		log:     log,
		metrics: m,
		health:  health,
		clients: make(map[*Client]bool),
	}
}

// Broadcast marshals the event once and queues it on every viewer.
// Viewers whose queue is full miss the event; there is no per-viewer
// buffering or retry.
func (h *Hub) Broadcast(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		h.log.Error("broadcast marshal failed", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.metrics.BroadcastDropped.Inc()
		}
	}
}

// HandleWS upgrades the request and registers the viewer. Only the new
// viewer receives the connected snapshot.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, 256),
	}

	h.mu.Lock()
	h.clients[client] = true
	count := len(h.clients)
	h.mu.Unlock()
	h.metrics.Viewers.Set(float64(count))
	h.health.SetViewers(count)

	h.log.Info("viewer connected", zap.Int("viewers", count))

	client.enqueue(NewConnectedEvent(h.feeds.ActiveSymbols()))

	go client.writePump()
	go client.readPump()
}

// removeClient unregisters a viewer and closes its queue. Safe to call
// more than once per client.
func (h *Hub) removeClient(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	count := len(h.clients)
	h.mu.Unlock()

	close(c.send)
	h.metrics.Viewers.Set(float64(count))
	h.health.SetViewers(count)
	h.log.Info("viewer disconnected", zap.Int("viewers", count))
}

// ClientCount returns the number of connected viewers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every viewer; their pumps exit as the queues drain.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[*Client]bool)
	h.mu.Unlock()

	for _, c := range clients {
		close(c.send)
	}
	h.metrics.Viewers.Set(0)
	h.health.SetViewers(0)
}
