package gateway

import (
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ideatoapp/chatgateway/logger"
)

const writeWait = 10 * time.Second

// Client is the gateway's handle on one live connection. The user ID is
// set before the client enters the session directory; unauthenticated
// connections never become a Client.
type Client struct {
	ConnID string
	UserID string

	ws   *websocket.Conn
	send chan []byte

	// alive is cleared by the liveness monitor and re-armed by the pong
	// handler; a connection still false on the next probe is dead.
	alive atomic.Bool

	// closed guards teardown so a transport error racing an explicit close
	// runs deregistration exactly once. quit is closed at the same moment;
	// it is the signal, never the send channel, so concurrent Enqueue calls
	// from fanout workers stay safe during teardown.
	closed atomic.Bool
	quit   chan struct{}
}

func NewClient(connID, userID string, ws *websocket.Conn, sendQueueSize int) *Client {
	c := &Client{
		ConnID: connID,
		UserID: userID,
		ws:     ws,
		send:   make(chan []byte, sendQueueSize),
		quit:   make(chan struct{}),
	}
	c.alive.Store(true)
	ws.SetPongHandler(func(string) error {
		c.alive.Store(true)
		return nil
	})
	return c
}

// Enqueue queues an outbound frame without blocking. A full queue means a
// slow client; the frame is dropped and the caller keeps going.
func (c *Client) Enqueue(data []byte) bool {
	select {
	case <-c.quit:
		return false
	case c.send <- data:
		return true
	default:
		logger.Warnf("[gateway] send queue full, drop frame conn=%s user=%s", c.ConnID, c.UserID)
		return false
	}
}

func (c *Client) EnqueueEvent(e *Event) bool {
	return c.Enqueue(e.Encode())
}

// writePump is the single writer for the connection. It exits on teardown
// (quit closed) or a failed write, and always closes the underlying socket
// on the way out.
func (c *Client) writePump() {
	defer func() { _ = c.ws.Close() }()
	for {
		select {
		case <-c.quit:
			// clean shutdown: flush what is queued, tell the peer, leave
			for {
				select {
				case data := <-c.send:
					if !c.write(data) {
						return
					}
				default:
					_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
					_ = c.ws.WriteMessage(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
					return
				}
			}
		case data := <-c.send:
			if !c.write(data) {
				return
			}
		}
	}
}

func (c *Client) write(data []byte) bool {
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		logger.Infof("[gateway] write err conn=%s user=%s err=%v", c.ConnID, c.UserID, err)
		return false
	}
	return true
}

// ping sends a control probe. Safe to call concurrently with the write pump.
func (c *Client) ping() error {
	return c.ws.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(writeWait))
}

// markClosed flips the closed flag and signals the write pump; returns
// false if already closed.
func (c *Client) markClosed() bool {
	if !c.closed.CompareAndSwap(false, true) {
		return false
	}
	close(c.quit)
	return true
}
