package server

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"sealchat/internal/relay"
)

const closeWriteTimeout = 5 * time.Second

// wsHandle adapts a gorilla connection to the relay.Handle contract. Reads
// stay single-goroutine (the session's reader pump); writes are serialised
// with a mutex because peers' sessions write into this handle concurrently
// with its own session loop.
type wsHandle struct {
	conn *websocket.Conn

	mu     sync.Mutex
	closed bool
}

var _ relay.Handle = (*wsHandle)(nil)

func newWSHandle(conn *websocket.Conn) *wsHandle {
	return &wsHandle{conn: conn}
}

func (h *wsHandle) ReadFrame() ([]byte, error) {
	_, data, err := h.conn.ReadMessage()
	return data, err
}

func (h *wsHandle) WriteJSON(v any) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return websocket.ErrCloseSent
	}
	return h.conn.WriteJSON(v)
}

func (h *wsHandle) WriteText(s string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return websocket.ErrCloseSent
	}
	return h.conn.WriteMessage(websocket.TextMessage, []byte(s))
}

// Close sends a close frame carrying code and reason, then tears down the
// transport. Subsequent closes are no-ops.
func (h *wsHandle) Close(code int, reason string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	msg := websocket.FormatCloseMessage(code, reason)
	_ = h.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeWriteTimeout))
	return h.conn.Close()
}

func (h *wsHandle) Closed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}
