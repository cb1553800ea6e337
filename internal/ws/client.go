package ws

import (
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait = 10 * time.Second
	// Matches the liveness settings of the original deployment:
	// ping every 25s, give up after 60s of silence.
	pongWait     = 60 * time.Second
	pingInterval = 25 * time.Second

	maxFrameSize = 1 << 20 // bulk sync frames carry full row sets
	sendBuffer   = 64
)

// Client is one live socket. All writes go through the send channel so
// the write pump is the only goroutine touching conn for output.
type Client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	done chan struct{} // closed once the connection is torn down
	log  *zap.Logger
}

func newClient(id string, conn *websocket.Conn, log *zap.Logger) *Client {
	return &Client{
		id:   id,
		conn: conn,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
		log:  log,
	}
}

// enqueue hands a frame to the write pump. A client that cannot drain its
// buffer loses the frame; the transport's liveness probing will reap it
// soon after.
func (c *Client) enqueue(frame []byte) {
	select {
	case c.send <- frame:
	default:
		c.log.Warn("send buffer full, dropping frame", zap.String("sid", c.id))
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case frame := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
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

// readPump delivers inbound frames to handle until the socket dies.
func (c *Client) readPump(handle func(raw []byte)) {
	defer c.conn.Close()
	c.conn.SetReadLimit(maxFrameSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn("ws read error", zap.String("sid", c.id), zap.Error(err))
			}
			return
		}
		handle(raw)
	}
}
