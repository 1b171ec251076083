package chat

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Client is one user's live session. One writer goroutine drains Send;
// everything else only ever does non-blocking sends into it.
type Client struct {
	ConnID      string
	UserID      string
	DisplayName string
	WS          *websocket.Conn // nil in tests
	Send        chan []byte
	ConnectedAt time.Time

	closeOnce sync.Once
	done      chan struct{}
}

func NewClient(connID, userID, displayName string, ws *websocket.Conn, sendQueueSize int) *Client {
	return &Client{
		ConnID:      connID,
		UserID:      userID,
		DisplayName: displayName,
		WS:          ws,
		Send:        make(chan []byte, sendQueueSize),
		ConnectedAt: time.Now(),
		done:        make(chan struct{}),
	}
}

// TryPush enqueues without blocking. False means the session is closed or
// its queue is full — either way the caller treats the user as offline.
func (c *Client) TryPush(payload []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.Send <- payload:
		return true
	default:
		return false
	}
}

// Shutdown stops the writer pump. Safe to call more than once and from any
// goroutine; the Send channel itself is never closed.
func (c *Client) Shutdown() {
	c.closeOnce.Do(func() { close(c.done) })
}

func (c *Client) Done() <-chan struct{} { return c.done }
