package messaging

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freelancehub/platform_be/internal/models"
)

var (
	ErrNotFound    = errors.New("message not found")
	ErrNoReceiver  = errors.New("receiver not found")
	ErrSelfMessage = errors.New("cannot message yourself")
	ErrForbidden   = errors.New("not a participant of this message")
)

// PreviewLen is how much of a message body goes into notifications.
const PreviewLen = 100

type MessagingService struct {
	DB  *gorm.DB
	Now func() time.Time
}

func NewMessagingService(gdb *gorm.DB) *MessagingService {
	return &MessagingService{DB: gdb, Now: time.Now}
}

func (s *MessagingService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Send stores a private message. Sender and receiver are preloaded on the result.
func (s *MessagingService) Send(ctx context.Context, senderID, receiverID uuid.UUID, subject, content string) (*models.Message, error) {
	if senderID == receiverID {
		return nil, ErrSelfMessage
	}
	tx := s.DB.WithContext(ctx)

	var receiver models.User
	if err := tx.First(&receiver, "id = ?", receiverID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoReceiver
		}
		return nil, fmt.Errorf("load receiver: %w", err)
	}
	var sender models.User
	if err := tx.First(&sender, "id = ?", senderID).Error; err != nil {
		return nil, fmt.Errorf("load sender: %w", err)
	}

	m := &models.Message{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Subject:    subject,
		Content:    content,
		IsRead:     false,
	}
	if err := tx.Create(m).Error; err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	m.Sender = &sender
	m.Receiver = &receiver
	return m, nil
}

// View returns a message to its sender or receiver. The first view by the
// receiver marks it read; the flag never flips back.
func (s *MessagingService) View(ctx context.Context, viewerID, messageID uuid.UUID) (*models.Message, error) {
	tx := s.DB.WithContext(ctx)

	var m models.Message
	if err := tx.Preload("Sender").Preload("Receiver").First(&m, "id = ?", messageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load message: %w", err)
	}
	if viewerID != m.SenderID && viewerID != m.ReceiverID {
		return nil, ErrForbidden
	}

	if viewerID == m.ReceiverID && !m.IsRead {
		readAt := s.now()
		res := tx.Model(&models.Message{}).
			Where("id = ? AND is_read = ?", m.ID, false).
			Updates(map[string]interface{}{"is_read": true, "read_at": readAt})
		if res.Error != nil {
			return nil, fmt.Errorf("mark read: %w", res.Error)
		}
		if res.RowsAffected > 0 {
			m.IsRead = true
			m.ReadAt = &readAt
		} else if err := tx.First(&m, "id = ?", m.ID).Error; err != nil {
			return nil, fmt.Errorf("reload message: %w", err)
		}
	}
	return &m, nil
}

// Inbox lists received messages newest first. limit <= 0 means all.
func (s *MessagingService) Inbox(ctx context.Context, userID uuid.UUID, limit int) ([]models.Message, error) {
	return s.list(ctx, "receiver_id = ?", "Sender", userID, limit)
}

// Outbox lists sent messages newest first. limit <= 0 means all.
func (s *MessagingService) Outbox(ctx context.Context, userID uuid.UUID, limit int) ([]models.Message, error) {
	return s.list(ctx, "sender_id = ?", "Receiver", userID, limit)
}

func (s *MessagingService) list(ctx context.Context, cond, preload string, userID uuid.UUID, limit int) ([]models.Message, error) {
	q := s.DB.WithContext(ctx).
		Where(cond, userID).
		Preload(preload).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	out := []models.Message{}
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return out, nil
}

func (s *MessagingService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	if err := s.DB.WithContext(ctx).
		Model(&models.Message{}).
		Where("receiver_id = ? AND is_read = ?", userID, false).
		Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return n, nil
}

// Preview truncates content for notification bodies.
func Preview(content string) string {
	r := []rune(content)
	if len(r) <= PreviewLen {
		return content
	}
	return string(r[:PreviewLen]) + "..."
}
