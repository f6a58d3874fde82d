// internal/realtime/websocket.go
package realtime

import (
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// WebSocketConn wraps websocket.Conn so the hub does not depend on the transport.
type WebSocketConn struct {
	Conn *websocket.Conn
}

func NewWebSocketConn(c *websocket.Conn) *WebSocketConn {
	return &WebSocketConn{Conn: c}
}

// Serve registers the connection for userID and pumps hub messages to it
// until either side closes.
func Serve(hub *Hub, c *websocket.Conn, userID uuid.UUID, log logrus.FieldLogger) {
	client := &Client{
		ID:     uuid.New().String(),
		UserID: userID,
		Conn:   NewWebSocketConn(c),
		Send:   make(chan []byte, 256),
	}
	entry := log.WithFields(logrus.Fields{"user_id": userID, "client_id": client.ID})

	if !hub.RegisterClient(client) {
		_ = c.Close()
		return
	}
	defer hub.UnregisterClient(client)

	go func() {
		for msg := range client.Send {
			if err := client.Conn.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				entry.WithError(err).Debug("ws write failed")
				return
			}
		}
	}()

	// reads only keep the connection alive; clients send pongs
	for {
		var payload map[string]interface{}
		if err := c.ReadJSON(&payload); err != nil {
			entry.WithError(err).Debug("ws closed")
			return
		}
	}
}
