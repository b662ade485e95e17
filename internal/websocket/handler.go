package websocket

import (
	"log/slog"
	"net/http"

	ws "github.com/coder/websocket"
)

// Handler upgrades requests to WebSocket and attaches them to the hub
// until the connection drops.
func Handler(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			// Dashboards connect from whatever hostname the home
			// network exposes, so origin checking is off.
			InsecureSkipVerify: true,
		})
		if err != nil {
			slog.Warn("websocket accept failed", "error", err, "remote", r.RemoteAddr)
			return
		}

		NewClient(hub, conn).Run(r.Context())
	}
}
