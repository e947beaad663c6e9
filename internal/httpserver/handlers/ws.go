package handlers

import (
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/MrSnakeDoc/bookmarkd/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookmarkd/internal/logger"
	"github.com/MrSnakeDoc/bookmarkd/internal/realtime"
)

// Realtime upgrades to a websocket and streams bookmark events. The
// connection is registered once the handshake is done, so it only sees events
// dispatched from then on. Client messages are read and dropped; reading also
// keeps pings and close frames flowing.
func Realtime(d deps.Deps) http.HandlerFunc {
	opts := &websocket.AcceptOptions{OriginPatterns: d.CORSOrigins}
	for _, o := range d.CORSOrigins {
		if o == "*" {
			opts = &websocket.AcceptOptions{InsecureSkipVerify: true}
			break
		}
	}

	return func(w http.ResponseWriter, r *http.Request) {
		// hijacked connections keep the server's deadlines otherwise
		rc := http.NewResponseController(w)
		_ = rc.SetReadDeadline(time.Time{})
		_ = rc.SetWriteDeadline(time.Time{})

		ws, err := websocket.Accept(w, r, opts)
		if err != nil {
			d.Logger.Debug("websocket handshake failed", logger.Error(err))
			return
		}

		conn := realtime.NewConn(uuid.NewString(), realtime.NewWSTransport(ws), realtime.ConnOptions{
			QueueSize: d.WSQueueSize,
			OnClose:   func(c *realtime.Conn) { d.Registry.Unregister(c) },
		})
		d.Registry.Register(conn)
		log := d.Logger.With(logger.String("conn_id", conn.ID()))
		log.Info("realtime connection opened", logger.Int("connections", d.Registry.Len()))

		ctx := r.Context()
		go func() {
			defer conn.Close()
			for {
				if _, _, err := ws.Read(ctx); err != nil {
					return
				}
			}
		}()

		if err := conn.Run(ctx); err != nil {
			log.Debug("realtime writer stopped", logger.Error(err))
		}
		log.Info("realtime connection closed", logger.Uint64("sent", conn.Sent()))
	}
}
