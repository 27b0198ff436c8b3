package ws

import (
	"encoding/json"
	"sync"

	"txsync/internal/domain"
	"txsync/internal/logger"

	"github.com/prometheus/client_golang/prometheus"
)

var observersConnected = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "ws_observers_connected",
		Help: "Currently connected websocket observers",
	},
)

func init() {
	prometheus.MustRegister(observersConnected)
}

// Hub is the observer sink: it pushes every accepted transaction to all
// connected websocket clients. Delivery is fire-and-forget; a client
// whose send buffer is full misses the message rather than stalling the
// rest of the fanout.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*Client]struct{})}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	observersConnected.Inc()
	logger.Debug("observer connected", "remote", c.conn.RemoteAddr().String())
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
	}
	h.mu.Unlock()
	if ok {
		observersConnected.Dec()
		close(c.send)
	}
}

// Notify implements fanout.Sink. The payload is marshaled once and
// shared across clients.
func (h *Hub) Notify(tx *domain.Transaction) {
	payload, err := json.Marshal(tx)
	if err != nil {
		logger.Error("encode transaction for observers", "id", tx.ID, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			logger.Debug("observer send buffer full, skipping", "id", tx.ID)
		}
	}
}

// Count reports connected observers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
