package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/google/uuid"

	"github.com/quakewatch/quakewatch/internal/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// NoticeHub is the subset of hub.Hub the WebSocket endpoint needs.
type NoticeHub interface {
	Subscribe(id string) <-chan *models.Notice
	Unsubscribe(id string)
}

// ServeNotices upgrades the request to a WebSocket and streams every
// notice the hub publishes until the client disconnects, adapted from the
// register/unregister-channel pattern used for the pack's other
// gorilla/websocket subscriber hub.
func ServeNotices(hub NoticeHub) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			slog.Debug("api: websocket upgrade failed", "err", err)
			return
		}
		defer conn.Close()

		id := uuid.NewString()
		ch := hub.Subscribe(id)
		defer hub.Unsubscribe(id)

		for n := range ch {
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			body, err := json.Marshal(n)
			if err != nil {
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, body); err != nil {
				return
			}
		}
	}
}
