package handler

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"livedetect/internal/logger"
	"livedetect/internal/service"
	"livedetect/internal/service/auth"
	ws "livedetect/internal/service/websocket"
)

// newUpgrader allows any origin while the server is open. With password auth
// the session cookie would ride along on cross-site handshakes, so only
// same-origin requests are upgraded.
func newUpgrader(sessions *auth.Service) websocket.Upgrader {
	if sessions != nil && sessions.Enabled() {
		return websocket.Upgrader{}
	}
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
}

// ViewWebsocketHandler handles viewer connections over WebSocket. The viewer
// gets the current status right away and is then registered in the hub to
// receive frames, status updates and notices.
func ViewWebsocketHandler(hub *ws.HubService, manager *service.Manager, sessions *auth.Service, logger *logger.Logger) http.HandlerFunc {
	upgrader := newUpgrader(sessions)
	return func(w http.ResponseWriter, r *http.Request) {
		connection, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("WebSocket upgrade error: %v", err)
			return
		}

		connection.SetWriteDeadline(time.Now().Add(2 * time.Second))
		if err := connection.WriteJSON(manager.StatusMessage()); err != nil {
			logger.Warning("Could not greet viewer: %v", err)
			connection.Close()
			return
		}

		hub.Register(connection)
		defer hub.Unregister(connection)

		for {
			if _, _, err := connection.ReadMessage(); err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					logger.Info("Viewer disconnected normally")
				} else {
					logger.Warning("Viewer disconnected: %v", err)
				}
				return
			}
		}
	}
}
