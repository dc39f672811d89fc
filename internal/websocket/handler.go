package websocket

import (
	"net/http"

	ws "github.com/coder/websocket"
)

// HandleWebSocket returns an HTTP handler that upgrades connections to WebSocket
// and runs them as Hub clients.
func HandleWebSocket(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			// The API allows every origin, so the socket does too.
			InsecureSkipVerify: true,
		})
		if err != nil {
			hub.logger.Warn("accept websocket", "error", err, "remote", r.RemoteAddr)
			return
		}
		hub.logger.Debug("client connected", "clients", hub.ClientCount()+1)

		client := NewClient(hub, conn)
		client.Run(r.Context())
	}
}
