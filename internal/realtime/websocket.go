package realtime

import (
	"context"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

// WSTransport writes events as JSON text frames on a websocket.
type WSTransport struct {
	conn *websocket.Conn
}

func NewWSTransport(c *websocket.Conn) *WSTransport {
	return &WSTransport{conn: c}
}

func (t *WSTransport) Write(ctx context.Context, evt Event) error {
	return wsjson.Write(ctx, t.conn, evt)
}

// Ping needs a concurrent reader on the connection to receive the pong.
func (t *WSTransport) Ping(ctx context.Context) error {
	return t.conn.Ping(ctx)
}

// Close starts the close handshake in the background so that evicting a
// stalled client never waits on it. A failed write skips the handshake.
func (t *WSTransport) Close(reason CloseReason) error {
	switch reason {
	case CloseWriteFailed:
		return t.conn.CloseNow()
	case CloseSlowConsumer:
		go t.conn.Close(websocket.StatusPolicyViolation, reason.String())
	case CloseGoingAway:
		go t.conn.Close(websocket.StatusGoingAway, reason.String())
	default:
		go t.conn.Close(websocket.StatusNormalClosure, "")
	}
	return nil
}
