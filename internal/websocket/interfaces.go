package websocket

import (
	"time"
)

// Connection is the part of a gorilla/websocket connection the hub uses.
// Tests substitute a mock.
type Connection interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetReadLimit(limit int64)
	SetPongHandler(h func(string) error)
	RemoteAddr() string
}

// Broadcaster is what services need from the hub
type Broadcaster interface {
	Broadcast(messageType string, data interface{})
}
