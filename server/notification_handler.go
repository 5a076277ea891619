package server

import (
	"net/http"
	"time"

	"tunex/logger"
	"tunex/model"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10 // 必须小于 pongWait
	maxMessageSize = 512
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ListNotificationsHandler returns the caller's notifications, newest first.
func (h *APIHandler) ListNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	list, err := h.notifications.ListForUser(r.Context(), GetIdentityFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if list == nil {
		list = []*model.Notification{}
	}
	writeJSON(w, http.StatusOK, list)
}

// NotificationSocketHandler pushes notifications committed after the
// connection was opened. History stays available through the list endpoint.
func (h *APIHandler) NotificationSocketHandler(w http.ResponseWriter, r *http.Request) {
	id := GetIdentityFromContext(r.Context())

	hub := h.notifications.Hub()
	sub := hub.Subscribe(id.UserID)

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		hub.Unsubscribe(sub)
		logger.Warn("websocket upgrade failed", logger.ErrorField(err))
		return
	}
	logger.Info("notification socket connected", logger.Int64("userId", id.UserID))

	done := make(chan struct{})
	go readPump(conn, done)
	writePump(conn, sub.C, done)

	hub.Unsubscribe(sub)
	conn.Close()
	logger.Info("notification socket closed", logger.Int64("userId", id.UserID))
}

// readPump discards client frames and keeps the read deadline fresh so
// pongs and close frames are processed. done is closed when the peer goes away.
func readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("notification socket read error", logger.ErrorField(err))
			}
			return
		}
	}
}

// writePump forwards notifications and pings until the subscriber channel
// closes, the peer disconnects, or a write fails.
func writePump(conn *websocket.Conn, in <-chan *model.Notification, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case n, ok := <-in:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(n); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
