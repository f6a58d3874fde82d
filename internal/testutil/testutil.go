// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/freelancehub/platform_be/internal/db"
	"github.com/freelancehub/platform_be/internal/models"
)

// NewDB returns a migrated in-memory SQLite database private to the test.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}

// NewLogger returns a logger that discards output.
func NewLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// CreateUser inserts an active user with the given role and password "secret1".
func CreateUser(t *testing.T, gdb *gorm.DB, username string, role models.Role) *models.User {
	t.Helper()

	u := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Role:     role,
		IsActive: true,
	}
	if err := u.SetPassword("secret1"); err != nil {
		t.Fatalf("hash: %v", err)
	}
	if err := gdb.Create(u).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return u
}

// CreateFreelancer inserts a freelancer user with a profile.
func CreateFreelancer(t *testing.T, gdb *gorm.DB, username, skills string, level models.ExperienceLevel) *models.User {
	t.Helper()

	u := CreateUser(t, gdb, username, models.RoleFreelancer)
	p := &models.FreelancerProfile{
		UserID:          u.ID,
		Title:           "Senior " + username + " developer",
		Description:     "Experienced freelancer working on " + skills,
		Skills:          skills,
		ExperienceLevel: level,
		HourlyRate:      40,
		Availability:    models.AvailabilityFullTime,
	}
	if err := gdb.Create(p).Error; err != nil {
		t.Fatalf("create freelancer profile: %v", err)
	}
	u.FreelancerProfile = p
	return u
}

// CreateProject inserts an open project owned by clientID.
func CreateProject(t *testing.T, gdb *gorm.DB, clientID uuid.UUID, title string, budget float64, createdAt time.Time) *models.Project {
	t.Helper()

	p := &models.Project{
		Title:          title,
		Description:    "Description for " + title + " with enough detail.",
		Budget:         budget,
		SkillsRequired: "Go, PostgreSQL",
		ProjectType:    models.ProjectFixed,
		Status:         models.ProjectOpen,
		ClientID:       clientID,
		CreatedAt:      createdAt,
	}
	if err := gdb.Create(p).Error; err != nil {
		t.Fatalf("create project: %v", err)
	}
	return p
}
