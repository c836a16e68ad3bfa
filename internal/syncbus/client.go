package syncbus

import (
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"

	"barangay/internal/middleware"
	"barangay/internal/models"
	"barangay/internal/observability"
)

const (
	sendBuffer   = 32
	writeTimeout = 10 * time.Second
)

// Client wraps one websocket connection. Writes go through a buffered
// channel drained by WritePump so fan-out never blocks on a slow reader.
type Client struct {
	UserID uint
	Role   models.Role

	conn      *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once

	// Scheduler drives this connection's snapshot refreshes. Owned by the
	// websocket session handler.
	Scheduler *Scheduler
}

func newClient(userID uint, role models.Role, conn *websocket.Conn) *Client {
	return &Client{
		UserID: userID,
		Role:   role,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
	}
}

// TrySend queues payload for delivery. A full buffer drops the frame: a
// connection that far behind will be corrected by its next snapshot push.
func (c *Client) TrySend(payload []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- payload:
		return true
	default:
		observability.WebSocketBackpressureDrops.WithLabelValues("sync", "buffer_full").Inc()
		middleware.Logger.Warn("dropping sync frame, client buffer full", "user_id", c.UserID)
		return false
	}
}

// WritePump drains the send channel onto the wire. It returns when the
// client is closed or a write fails.
func (c *Client) WritePump() {
	for {
		select {
		case <-c.done:
			return
		case payload := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				middleware.Logger.Debug("websocket write failed", "user_id", c.UserID, "error", err)
				return
			}
		}
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}
