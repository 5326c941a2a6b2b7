package websocket

import (
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. Freehand shapes carry a
	// point list, so this is well above a chat-only limit.
	maxMessageSize = 64 * 1024

	// Outbound buffer per connection; a slow consumer that falls this
	// far behind is treated as dead.
	sendBufferSize = 256
)

// Conn is the transport handle the hub writes to. *websocket.Conn
// satisfies it; tests substitute an in-memory implementation.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	Close() error
}

// Client is one live connection: the transport handle plus the identity
// it resolved to and the rooms it has joined. The rooms set is owned by
// the hub loop; the pumps never touch it.
type Client struct {
	id       string
	identity string
	hub      *Hub
	conn     Conn
	send     chan []byte
	rooms    map[string]struct{}

	closed     int32
	sendClosed int32
}

func NewClient(hub *Hub, conn Conn, identity string) *Client {
	return &Client{
		id:       uuid.New().String(),
		identity: identity,
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, sendBufferSize),
		rooms:    make(map[string]struct{}),
	}
}

func (c *Client) ID() string       { return c.id }
func (c *Client) Identity() string { return c.identity }

func (c *Client) isClosed() bool {
	return atomic.LoadInt32(&c.closed) == 1
}

func (c *Client) close() {
	if atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		slog.Debug("client closed", "connectionId", c.id, "userId", c.identity)
	}
}

func (c *Client) closeSend() {
	if atomic.CompareAndSwapInt32(&c.sendClosed, 0, 1) {
		close(c.send)
	}
}

// enqueue hands a serialized event to the connection's writer. A full
// buffer means the peer has stalled; the connection is torn down and the
// failure reported to the caller, which skips this recipient only.
func (c *Client) enqueue(data []byte) bool {
	if c.isClosed() || atomic.LoadInt32(&c.sendClosed) == 1 {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		slog.Warn("send buffer full, dropping connection", "connectionId", c.id, "userId", c.identity)
		c.close()
		c.closeSend()
		return false
	}
}

func (c *Client) readPump() {
	defer func() {
		c.close()
		select {
		case c.hub.unregister <- c:
		case <-c.hub.ctx.Done():
			// Hub loop already gone; nothing left to unregister from.
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("read error", "connectionId", c.id, "userId", c.identity, "error", err)
			} else {
				slog.Debug("connection closed", "connectionId", c.id, "userId", c.identity)
			}
			return
		}

		select {
		case c.hub.inbound <- inboundFrame{client: c, data: data}:
		case <-c.hub.ctx.Done():
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				slog.Debug("write error", "connectionId", c.id, "userId", c.identity, "error", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeWS upgrades the HTTP request and attaches the resulting
// connection to the hub under the already-resolved identity.
func ServeWS(hub *Hub, w http.ResponseWriter, r *http.Request, identity string) {
	conn, err := Upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "userId", identity, "error", err)
		return
	}

	client := NewClient(hub, conn, identity)
	slog.Info("connection established", "connectionId", client.id, "userId", identity)

	hub.register <- client

	go client.writePump()
	go client.readPump()
}
