package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// CORS policy already admits any origin
	CheckOrigin: func(r *http.Request) bool { return true },
}

const writeWait = 10 * time.Second

// subscribe upgrades the request to a websocket and streams post change
// events until the client disconnects. No history is replayed on connect.
func (h *Handler) subscribe(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warnf("websocket upgrade: %v", err)
		return
	}

	sub := h.hub.Subscribe()
	if sub == nil {
		conn.Close()
		return
	}
	defer sub.Close()
	defer conn.Close()

	go func() {
		for event := range sub.Events() {
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(event); err != nil {
				conn.Close()
				return
			}
		}
		// hub dropped or closed us
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
		conn.Close()
	}()

	// inbound messages are ignored; the read loop only detects disconnects
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
