package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MinScore = 1
	MaxScore = 5
)

// Rating is a client's review of a freelancer. One row per (client, freelancer).
type Rating struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ClientID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_ratings_client_freelancer" json:"client_id"`
	FreelancerID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_ratings_client_freelancer;index" json:"freelancer_id"`

	Score  int    `gorm:"not null;check:score >= 1 AND score <= 5" json:"score"` // 1-5
	Review string `gorm:"type:text" json:"review"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Client     *User `gorm:"foreignKey:ClientID;constraint:OnDelete:CASCADE" json:"client,omitempty"`
	Freelancer *User `gorm:"foreignKey:FreelancerID;constraint:OnDelete:CASCADE" json:"freelancer,omitempty"`
}

func (r *Rating) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return
}
