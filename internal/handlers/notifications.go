package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/freelancehub/platform_be/internal/middleware"
	"github.com/freelancehub/platform_be/internal/realtime"
)

const wsUserKey = "ws_user_id"

// NotificationsHandler streams realtime events to the signed-in user.
type NotificationsHandler struct {
	Hub *realtime.Hub
	Log logrus.FieldLogger
}

// Routes expects a router that already runs the session middleware.
func (h *NotificationsHandler) Routes(protected fiber.Router) {
	protected.Get("/ws/notifications", h.upgrade, websocket.New(h.serve))
}

// upgrade only lets websocket handshakes through and hands the caller id to
// the websocket connection.
func (h *NotificationsHandler) upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	id, found := middleware.CurrentIdentity(c)
	if !found {
		return fiber.ErrUnauthorized
	}
	c.Locals(wsUserKey, id.UserID)
	return c.Next()
}

func (h *NotificationsHandler) serve(c *websocket.Conn) {
	uid, isUser := c.Locals(wsUserKey).(uuid.UUID)
	if !isUser {
		_ = c.Close()
		return
	}
	h.Log.WithField("user_id", uid).Debug("notifications socket opened")
	realtime.Serve(h.Hub, c, uid, h.Log)
}
