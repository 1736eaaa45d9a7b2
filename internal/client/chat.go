package client

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"sealchat/internal/domain"
)

// ChatConn is a live chat connection. Reads must come from one goroutine.
type ChatConn struct {
	conn *websocket.Conn
}

// DialChat opens the websocket using the session cookie from the jar.
func (c *Client) DialChat(ctx context.Context) (*ChatConn, error) {
	wsBase := strings.Replace(c.base, "http", "ws", 1)
	dialer := websocket.Dialer{Jar: c.http.Jar}
	conn, resp, err := dialer.DialContext(ctx, wsBase+"/api/v1/ws/chat", http.Header{})
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	return &ChatConn{conn: conn}, nil
}

// Send writes an encrypted-message frame.
func (cc *ChatConn) Send(env domain.Envelope) error {
	env.Type = "encrypted-message"
	return cc.conn.WriteJSON(env)
}

// Pair writes an explicit pair request for peer.
func (cc *ChatConn) Pair(peer domain.Identity) error {
	return cc.conn.WriteJSON(map[string]string{"type": "pair", "to": string(peer)})
}

// Ping writes a liveness probe; the server answers with a pong frame.
func (cc *ChatConn) Ping() error {
	return cc.conn.WriteJSON(map[string]string{"type": "ping"})
}

// Recv returns the next raw frame. Status frames arrive as "STATUS:..."
// text; everything else is JSON.
func (cc *ChatConn) Recv() ([]byte, error) {
	_, data, err := cc.conn.ReadMessage()
	return data, err
}

// SetReadDeadline bounds the next Recv. A deadline failure is fatal to the
// connection.
func (cc *ChatConn) SetReadDeadline(t time.Time) error {
	return cc.conn.SetReadDeadline(t)
}

// Close performs a normal closure.
func (cc *ChatConn) Close() error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = cc.conn.WriteMessage(websocket.CloseMessage, msg)
	return cc.conn.Close()
}
