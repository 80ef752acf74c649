// Package websocket pushes live notifications to browser clients.
//
// The Hub fans out events such as a rebuilt corpus or an accepted upload to
// every connected Client. Broadcasts never block the caller; a client whose
// buffer is full is disconnected.
package websocket
