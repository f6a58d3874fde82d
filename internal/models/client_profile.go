package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ClientProfile struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`

	CompanyName        string `gorm:"type:varchar(200);not null" json:"company_name"`
	CompanyDescription string `gorm:"type:text" json:"company_description"`
	Industry           string `gorm:"type:varchar(100)" json:"industry"`
	Location           string `gorm:"type:varchar(200)" json:"location"`
	Website            string `gorm:"type:varchar(200)" json:"website"`
	CompanySize        string `gorm:"type:varchar(50)" json:"company_size"` // 1-10, 11-50, 51-200, 200+
	Phone              string `gorm:"type:varchar(20)" json:"phone"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *ClientProfile) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}
