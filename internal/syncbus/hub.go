package syncbus

import (
	"sync"

	"github.com/gofiber/websocket/v2"

	"barangay/internal/middleware"
	"barangay/internal/models"
	"barangay/internal/observability"
)

const (
	maxConnsPerUser = 12
	maxTotalConns   = 10000
)

// Hub maps userID -> set of websocket clients and fans Redis-delivered sync
// frames out to them.
type Hub struct {
	mu    sync.RWMutex
	conns map[uint]map[*Client]struct{}
	total int
}

func NewHub() *Hub {
	return &Hub{conns: make(map[uint]map[*Client]struct{})}
}

// Register admits a new connection for userID. It returns nil when the
// per-user or global connection limit is reached.
func (h *Hub) Register(userID uint, role models.Role, conn *websocket.Conn) *Client {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.total >= maxTotalConns {
		middleware.Logger.Warn("rejecting websocket, hub full", "user_id", userID)
		return nil
	}
	m, ok := h.conns[userID]
	if !ok {
		m = make(map[*Client]struct{})
		h.conns[userID] = m
	}
	if len(m) >= maxConnsPerUser {
		middleware.Logger.Warn("rejecting websocket, per-user limit", "user_id", userID)
		return nil
	}
	c := newClient(userID, role, conn)
	m[c] = struct{}{}
	h.total++
	observability.WebSocketConnectionsTotal.Inc()
	return c
}

// Unregister removes a client and closes it.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if m, ok := h.conns[c.UserID]; ok {
		if _, present := m[c]; present {
			delete(m, c)
			h.total--
			observability.WebSocketConnectionsTotal.Dec()
			if len(m) == 0 {
				delete(h.conns, c.UserID)
			}
		}
	}
	h.mu.Unlock()
	c.close()
}

// SendToUser queues payload on every connection of userID.
func (h *Hub) SendToUser(userID uint, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.conns[userID] {
		c.TrySend(payload)
	}
}

// SendToRole queues payload on every connection whose user holds role.
func (h *Hub) SendToRole(role models.Role, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, m := range h.conns {
		for c := range m {
			if c.Role == role {
				c.TrySend(payload)
			}
		}
	}
}

// SendToAll queues payload on every connection.
func (h *Hub) SendToAll(payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, m := range h.conns {
		for c := range m {
			c.TrySend(payload)
		}
	}
}

// ConnectionCount reports the number of live connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.total
}

// Shutdown closes every connection. New registrations after Shutdown are
// still possible; callers stop accepting upgrades first.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	clients := make([]*Client, 0, h.total)
	for _, m := range h.conns {
		for c := range m {
			clients = append(clients, c)
		}
	}
	h.conns = make(map[uint]map[*Client]struct{})
	h.total = 0
	observability.WebSocketConnectionsTotal.Set(0)
	h.mu.Unlock()
	for _, c := range clients {
		c.close()
	}
}
