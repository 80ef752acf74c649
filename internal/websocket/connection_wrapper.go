package websocket

import (
	"github.com/gorilla/websocket"
)

// conn adapts *websocket.Conn to Connection; only RemoteAddr differs
type conn struct {
	*websocket.Conn
}

// NewConnection wraps a gorilla/websocket connection
func NewConnection(c *websocket.Conn) Connection {
	return conn{Conn: c}
}

// RemoteAddr returns the remote network address as a string
func (c conn) RemoteAddr() string {
	if addr := c.Conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}
