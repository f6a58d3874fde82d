package handlers

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/freelancehub/platform_be/internal/mailer"
	"github.com/freelancehub/platform_be/internal/metrics"
	"github.com/freelancehub/platform_be/internal/models"
	"github.com/freelancehub/platform_be/internal/realtime"
	"github.com/freelancehub/platform_be/internal/services/messaging"
)

type MessageHandler struct {
	Messages        *messaging.MessagingService
	Mailer          mailer.Mailer
	Notifier        realtime.Notifier
	Log             logrus.FieldLogger
	Metrics         *metrics.Metrics
	FrontendBaseURL string
}

func (h *MessageHandler) Routes(protected fiber.Router) {
	protected.Get("/messages", h.List)
	protected.Get("/view_message/:id", h.View)
	protected.Post("/send_message/:receiver_id", h.Send)
	protected.Get("/unread_messages", h.UnreadCount)
}

func (h *MessageHandler) List(c *fiber.Ctx) error {
	uid, err := getAuth(c)
	if err != nil {
		return err
	}

	ctx := c.UserContext()
	received, err := h.Messages.Inbox(ctx, uid, 0)
	if err != nil {
		h.Log.WithError(err).WithField("user_id", uid).Error("load inbox")
		return fail500(c, "Failed to load messages")
	}
	sent, err := h.Messages.Outbox(ctx, uid, 0)
	if err != nil {
		h.Log.WithError(err).WithField("user_id", uid).Error("load outbox")
		return fail500(c, "Failed to load messages")
	}

	return ok(c, "", fiber.Map{
		"received_messages": messagesJSON(received),
		"sent_messages":     messagesJSON(sent),
	})
}

func (h *MessageHandler) View(c *fiber.Ctx) error {
	uid, err := getAuth(c)
	if err != nil {
		return err
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	m, err := h.Messages.View(c.UserContext(), uid, id)
	switch {
	case errors.Is(err, messaging.ErrNotFound):
		return fail404(c, "Message not found")
	case errors.Is(err, messaging.ErrForbidden):
		return fail403(c, "You are not authorized to view this message.")
	case err != nil:
		h.Log.WithError(err).WithField("message_id", id).Error("view message")
		return fail500(c, "Failed to load message")
	}
	return ok(c, "", messageJSON(m))
}

type SendMessageReq struct {
	Subject string `json:"subject" form:"subject" validate:"required,min=5,max=200"`
	Content string `json:"content" form:"content" validate:"required,min=10,max=5000"`
}

func (r *SendMessageReq) normalize() {
	r.Subject = strings.TrimSpace(r.Subject)
	r.Content = strings.TrimSpace(r.Content)
}

func (h *MessageHandler) Send(c *fiber.Ctx) error {
	uid, err := getAuth(c)
	if err != nil {
		return err
	}
	receiverID, err := paramUUID(c, "receiver_id")
	if err != nil {
		return err
	}

	var req SendMessageReq
	if valid, err := bindAndValidate(c, &req); !valid {
		return err
	}

	ctx := c.UserContext()
	m, err := h.Messages.Send(ctx, uid, receiverID, req.Subject, req.Content)
	switch {
	case errors.Is(err, messaging.ErrNoReceiver):
		return fail404(c, "Receiver not found")
	case errors.Is(err, messaging.ErrSelfMessage):
		return fail200(c, "You cannot send a message to yourself.")
	case err != nil:
		h.Log.WithError(err).WithField("receiver_id", receiverID).Error("send message")
		return fail500(c, "An error occurred while sending the message.")
	}
	h.Metrics.MessageSent("private")

	h.notify(ctx, m)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Message sent successfully!",
		"data":    messageJSON(m),
	})
}

// notify delivers the new-message email and realtime push. Failures are
// logged and never fail the send.
func (h *MessageHandler) notify(ctx context.Context, m *models.Message) {
	preview := messaging.Preview(m.Content)
	log := h.Log.WithFields(logrus.Fields{"message_id": m.ID, "receiver_id": m.ReceiverID})

	link := strings.TrimRight(h.FrontendBaseURL, "/") + "/view_message/" + m.ID.String()
	mail, err := mailer.NewMessage(m.Receiver.Email, m.Receiver.Username, m.Sender.Username, m.Subject, preview, link)
	if err == nil {
		err = h.Mailer.Send(ctx, mail)
	}
	if err != nil {
		h.Metrics.NotificationFailed("email")
		log.WithError(err).Warn("message email not sent")
	}

	h.Notifier.Notify(ctx, m.ReceiverID, realtime.EventNewMessage, fiber.Map{
		"message_id": m.ID,
		"sender_id":  m.SenderID,
		"sender":     m.Sender.Username,
		"subject":    m.Subject,
		"preview":    preview,
	})
}

func (h *MessageHandler) UnreadCount(c *fiber.Ctx) error {
	uid, err := getAuth(c)
	if err != nil {
		return err
	}

	n, err := h.Messages.UnreadCount(c.UserContext(), uid)
	if err != nil {
		h.Log.WithError(err).WithField("user_id", uid).Error("count unread")
		return fail500(c, "Failed to count messages")
	}
	return c.JSON(fiber.Map{"count": n})
}

func userRef(u *models.User) fiber.Map {
	if u == nil {
		return nil
	}
	return fiber.Map{"id": u.ID, "username": u.Username}
}

func messageJSON(m *models.Message) fiber.Map {
	return fiber.Map{
		"id":         m.ID,
		"subject":    m.Subject,
		"content":    m.Content,
		"is_read":    m.IsRead,
		"read_at":    m.ReadAt,
		"created_at": m.CreatedAt,
		"sender":     userRef(m.Sender),
		"receiver":   userRef(m.Receiver),
	}
}

func messagesJSON(msgs []models.Message) []fiber.Map {
	out := make([]fiber.Map, 0, len(msgs))
	for i := range msgs {
		item := messageJSON(&msgs[i])
		item["preview"] = messaging.Preview(msgs[i].Content)
		out = append(out, item)
	}
	return out
}
