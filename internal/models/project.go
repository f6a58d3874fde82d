// internal/models/project.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ProjectStatus string

const (
	ProjectOpen       ProjectStatus = "open"
	ProjectInProgress ProjectStatus = "in_progress"
	ProjectCompleted  ProjectStatus = "completed"
	ProjectCancelled  ProjectStatus = "cancelled"
)

type ProjectType string

const (
	ProjectFixed  ProjectType = "fixed"
	ProjectHourly ProjectType = "hourly"
)

var projectTransitions = map[ProjectStatus][]ProjectStatus{
	ProjectOpen:       {ProjectInProgress, ProjectCancelled},
	ProjectInProgress: {ProjectCompleted, ProjectCancelled},
}

func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectOpen, ProjectInProgress, ProjectCompleted, ProjectCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether the lifecycle allows moving from s to next.
// Completed and cancelled are terminal.
func (s ProjectStatus) CanTransitionTo(next ProjectStatus) bool {
	for _, to := range projectTransitions[s] {
		if to == next {
			return true
		}
	}
	return false
}

func (t ProjectType) Valid() bool {
	return t == ProjectFixed || t == ProjectHourly
}

type Project struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	Title          string          `gorm:"type:varchar(200);not null" json:"title"`
	Description    string          `gorm:"type:text;not null" json:"description"`
	Budget         float64         `gorm:"index" json:"budget"`
	Deadline       *datatypes.Date `json:"deadline,omitempty"`
	SkillsRequired string          `gorm:"type:text;not null" json:"skills_required"` // comma separated
	ProjectType    ProjectType     `gorm:"type:varchar(20);not null" json:"project_type"`
	Status         ProjectStatus   `gorm:"type:varchar(20);not null;default:'open';index" json:"status"`

	ClientID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"client_id"`
	FreelancerID *uuid.UUID `gorm:"type:uuid;index" json:"freelancer_id,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Client     *User            `gorm:"foreignKey:ClientID;constraint:OnDelete:CASCADE" json:"client,omitempty"`
	Freelancer *User            `gorm:"foreignKey:FreelancerID;constraint:OnDelete:SET NULL" json:"freelancer,omitempty"`
	Messages   []ProjectMessage `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"messages,omitempty"`
}

func (p *Project) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}

func (p *Project) SkillsRequiredList() []string { return SplitList(p.SkillsRequired) }

// ProjectMessage is one entry of a project's thread. Rows are never edited.
type ProjectMessage struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID uuid.UUID `gorm:"type:uuid;not null;index" json:"project_id"`
	SenderID  uuid.UUID `gorm:"type:uuid;not null;index" json:"sender_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`

	Sender *User `gorm:"foreignKey:SenderID;constraint:OnDelete:CASCADE" json:"sender,omitempty"`
}

func (m *ProjectMessage) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return
}
