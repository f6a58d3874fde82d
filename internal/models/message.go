// internal/models/message.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Message is a private user-to-user message.
type Message struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	SenderID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"sender_id"`
	ReceiverID uuid.UUID  `gorm:"type:uuid;not null;index:idx_messages_receiver_read" json:"receiver_id"`
	Subject    string     `gorm:"type:varchar(200);not null" json:"subject"`
	Content    string     `gorm:"type:text;not null" json:"content"`
	IsRead     bool       `gorm:"default:false;index:idx_messages_receiver_read" json:"is_read"`
	ReadAt     *time.Time `json:"read_at"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`

	// Preloaded relation
	Sender   *User `gorm:"foreignKey:SenderID;constraint:OnDelete:CASCADE" json:"sender,omitempty"`
	Receiver *User `gorm:"foreignKey:ReceiverID;constraint:OnDelete:CASCADE" json:"receiver,omitempty"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return
}
