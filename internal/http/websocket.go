package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"royalties/internal/notify"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
)

// wsMessage mirrors what the browser puts on its cross-tab channel.
type wsMessage struct {
	Key     string        `json:"key"`
	Payload notify.Update `json:"payload"`
}

// handleWebSocket upgrades to WebSocket and streams reload-worthy updates to
// the client until either side goes away or the hub stops.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.WarnContext(r.Context(), "Websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	updates, unsubscribe := s.hub.Subscribe()
	defer unsubscribe()

	// Read pump: the client never sends data, reads only detect disconnects
	// and process pongs.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return
		case u, ok := <-updates:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
				return
			}
			if !u.TriggersReload() {
				continue
			}
			if err := conn.WriteJSON(wsMessage{Key: notify.Key, Payload: u}); err != nil {
				slog.DebugContext(r.Context(), "Websocket write failed", "error", err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
