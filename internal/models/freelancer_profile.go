// internal/models/freelancer_profile.go
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ExperienceLevel string

const (
	ExperienceBeginner     ExperienceLevel = "beginner"
	ExperienceIntermediate ExperienceLevel = "intermediate"
	ExperienceExpert       ExperienceLevel = "expert"
)

type Availability string

const (
	AvailabilityFullTime Availability = "full-time"
	AvailabilityPartTime Availability = "part-time"
	AvailabilityAsNeeded Availability = "as-needed"
)

type FreelancerProfile struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`

	Title           string          `gorm:"type:varchar(200);not null" json:"title"`
	Description     string          `gorm:"type:text;not null" json:"description"`
	Skills          string          `gorm:"type:text;not null" json:"skills"` // comma separated
	ExperienceLevel ExperienceLevel `gorm:"type:varchar(50);not null;index" json:"experience_level"`
	HourlyRate      float64         `json:"hourly_rate"`

	Location       string       `gorm:"type:varchar(200)" json:"location"`
	Education      string       `gorm:"type:text" json:"education"`
	Certifications string       `gorm:"type:text" json:"certifications"`
	PortfolioLinks string       `gorm:"type:text" json:"portfolio_links"`
	Languages      string       `gorm:"type:text" json:"languages"`
	Availability   Availability `gorm:"type:varchar(50)" json:"availability"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *FreelancerProfile) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}

func (p *FreelancerProfile) SkillsList() []string { return SplitList(p.Skills) }

// PortfolioLinksList accepts links separated by commas or newlines.
func (p *FreelancerProfile) PortfolioLinksList() []string {
	return SplitList(strings.ReplaceAll(p.PortfolioLinks, "\n", ","))
}

func (p *FreelancerProfile) LanguagesList() []string { return SplitList(p.Languages) }

// SplitList splits comma separated text, dropping blanks.
func SplitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}
