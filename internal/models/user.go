package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freelancehub/platform_be/internal/utils"
)

type Role string

// RoleNone is stored for users that registered but have not picked a side yet.
const (
	RoleNone       Role = ""
	RoleClient     Role = "client"
	RoleFreelancer Role = "freelancer"
)

// Label is the role as shown to API consumers.
func (r Role) Label() string {
	if r == RoleNone {
		return "none"
	}
	return string(r)
}

// internal/models/user.go
type User struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username string    `gorm:"type:varchar(20);uniqueIndex;not null" json:"username"`
	Email    string    `gorm:"type:varchar(120);uniqueIndex;not null" json:"email"`

	PasswordHash string `gorm:"type:varchar(255);not null" json:"-"`
	Role         Role   `gorm:"type:varchar(20);index" json:"role"`
	IsActive     bool   `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	FreelancerProfile *FreelancerProfile `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE" json:"freelancer_profile,omitempty"`
	ClientProfile     *ClientProfile     `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE" json:"client_profile,omitempty"`
}

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return
}

// SetPassword replaces the stored hash. The plaintext is never kept.
func (u *User) SetPassword(plaintext string) error {
	hash, err := utils.HashPassword(plaintext)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(plaintext string) bool {
	return u.PasswordHash != "" && utils.CheckPassword(u.PasswordHash, plaintext)
}

func (u *User) IsFreelancer() bool { return u.Role == RoleFreelancer }
func (u *User) IsClient() bool     { return u.Role == RoleClient }
