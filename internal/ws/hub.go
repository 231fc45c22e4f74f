package ws

import (
	"encoding/json"
	"sync"

	"augustus_tap/internal/logger"
)

// Hub fans committed state changes out to each user's open sockets. It
// implements service.Notifier; publishes never block the tap pipeline.
type Hub struct {
	mu      sync.RWMutex
	clients map[int64]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[int64]map[*Client]struct{})}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.userID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[c.userID] = set
	}
	set[c] = struct{}{}
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.clients[c.userID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.clients, c.userID)
		}
	}
}

// Publish sends event to every socket of one user. Slow consumers are
// dropped rather than blocking the caller.
func (h *Hub) Publish(userID int64, event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		logger.Warn("ws payload marshal failed", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[userID] {
		select {
		case c.send <- payload:
		default:
			go c.close()
		}
	}
}
