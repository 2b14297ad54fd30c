package websocket

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/nfrund/chatgate/internal/domain"
)

// writeTimeout bounds a single frame write.
const writeTimeout = 10 * time.Second

// Client is one admitted connection. Its identity is fixed at creation.
// Outbound frames go through a buffered FIFO queue drained by a single writer,
// which keeps per-client delivery order equal to enqueue order.
type Client struct {
	ID          string
	ConnectedAt time.Time

	identity domain.Identity
	conn     *websocket.Conn

	mu   sync.RWMutex
	send chan []byte
}

// NewClient creates a client for identity with a send queue of bufferSize.
func NewClient(identity domain.Identity, bufferSize int) *Client {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &Client{
		ID:          uuid.NewString(),
		ConnectedAt: time.Now().UTC(),
		identity:    identity,
		send:        make(chan []byte, bufferSize),
	}
}

// Identity returns the authenticated identity of the connection.
func (c *Client) Identity() domain.Identity {
	return c.identity
}

// Queue returns the outbound queue. It is closed when the client is removed.
func (c *Client) Queue() <-chan []byte {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.send
}

// enqueue adds msg to the send queue without blocking. It reports false when
// the queue is full or the client is already closed.
func (c *Client) enqueue(msg []byte) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.send == nil {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// close closes the send queue once.
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.send != nil {
		close(c.send)
		c.send = nil
	}
}

// writePump drains the send queue into the socket until the queue is closed
// or a write fails.
func (c *Client) writePump(queue <-chan []byte) {
	defer c.conn.Close(websocket.StatusNormalClosure, "")

	for message := range queue {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := c.conn.Write(ctx, websocket.MessageText, message)
		cancel()
		if err != nil {
			slog.Warn("WebSocket write failed", "clientID", c.ID, "userID", c.identity.UserID, "error", err)
			return
		}
	}
}
