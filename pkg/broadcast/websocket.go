package broadcast

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const defaultWriteWait = 10 * time.Second

// WSConn adapts a gorilla websocket connection to the Sender contract.
// Writes are serialized and carry a deadline, so delivery latency is bounded
// even for an observer that stopped reading.
type WSConn struct {
	id        string
	conn      *websocket.Conn
	writeWait time.Duration
	mu        sync.Mutex
}

func NewWSConn(conn *websocket.Conn, writeWait time.Duration) *WSConn {
	if writeWait <= 0 {
		writeWait = defaultWriteWait
	}

	return &WSConn{
		id:        uuid.NewString(),
		conn:      conn,
		writeWait: writeWait,
	}
}

func (c *WSConn) ID() string {
	return c.id
}

func (c *WSConn) Send(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeWait)); err != nil {
		return err
	}

	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

func (c *WSConn) Close() error {
	return c.conn.Close()
}
