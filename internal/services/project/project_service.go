package project

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/freelancehub/platform_be/internal/models"
	"github.com/freelancehub/platform_be/internal/utils"
)

var (
	ErrNotFound          = errors.New("project not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrNotClient         = errors.New("only clients can post projects")
	ErrNotFreelancer     = errors.New("user is not a freelancer")
	ErrForbidden         = errors.New("not allowed for this project")
	ErrInvalidTransition = errors.New("invalid status transition")
)

type ProjectService struct {
	DB *gorm.DB
}

func NewProjectService(gdb *gorm.DB) *ProjectService {
	return &ProjectService{DB: gdb}
}

type Input struct {
	Title          string
	Description    string
	Budget         float64
	Deadline       *time.Time
	SkillsRequired string
	ProjectType    models.ProjectType
}

func (in Input) deadline() *datatypes.Date {
	if in.Deadline == nil {
		return nil
	}
	d := datatypes.Date(*in.Deadline)
	return &d
}

func loadUser(tx *gorm.DB, id uuid.UUID) (*models.User, error) {
	var u models.User
	if err := tx.First(&u, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func loadProject(tx *gorm.DB, id uuid.UUID) (*models.Project, error) {
	var p models.Project
	if err := tx.First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// loadOwned returns the project if actorID is its client.
func loadOwned(tx *gorm.DB, actorID, projectID uuid.UUID) (*models.Project, error) {
	p, err := loadProject(tx, projectID)
	if err != nil {
		return nil, err
	}
	if p.ClientID != actorID {
		return nil, ErrForbidden
	}
	return p, nil
}

func (s *ProjectService) Create(ctx context.Context, clientID uuid.UUID, in Input) (*models.Project, error) {
	tx := s.DB.WithContext(ctx)

	u, err := loadUser(tx, clientID)
	if err != nil {
		return nil, err
	}
	if !u.IsClient() {
		return nil, ErrNotClient
	}

	p := &models.Project{
		Title:          in.Title,
		Description:    in.Description,
		Budget:         in.Budget,
		Deadline:       in.deadline(),
		SkillsRequired: in.SkillsRequired,
		ProjectType:    in.ProjectType,
		Status:         models.ProjectOpen,
		ClientID:       clientID,
	}
	if err := tx.Create(p).Error; err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return p, nil
}

// Update edits the posting fields. Status only moves through Transition and Assign.
func (s *ProjectService) Update(ctx context.Context, actorID, projectID uuid.UUID, in Input) (*models.Project, error) {
	var p *models.Project
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if p, err = loadOwned(tx, actorID, projectID); err != nil {
			return err
		}
		if err := tx.Model(p).Updates(map[string]interface{}{
			"title":           in.Title,
			"description":     in.Description,
			"budget":          in.Budget,
			"deadline":        in.deadline(),
			"skills_required": in.SkillsRequired,
			"project_type":    in.ProjectType,
		}).Error; err != nil {
			return err
		}
		var fresh models.Project
		if err := tx.First(&fresh, "id = ?", projectID).Error; err != nil {
			return err
		}
		p = &fresh
		return nil
	})
	if err != nil {
		return nil, wrap("update project", err)
	}
	return p, nil
}

// Get loads a project with its client, the client's profile and the assigned freelancer.
func (s *ProjectService) Get(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	var p models.Project
	err := s.DB.WithContext(ctx).
		Preload("Client").
		Preload("Client.ClientProfile").
		Preload("Freelancer").
		First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load project: %w", err)
	}
	return &p, nil
}

type Filter struct {
	Search      string
	Skill       string
	BudgetMin   *float64
	BudgetMax   *float64
	ProjectType models.ProjectType
	Page        int
	Limit       int
}

type Page struct {
	Items []models.Project
	Meta  utils.Meta
}

func (f Filter) scope(q *gorm.DB) *gorm.DB {
	q = q.Where("status = ?", models.ProjectOpen)

	if v := strings.ToLower(strings.TrimSpace(f.Search)); v != "" {
		like := "%" + v + "%"
		q = q.Where("(LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(skills_required) LIKE ?)", like, like, like)
	}
	if v := strings.ToLower(strings.TrimSpace(f.Skill)); v != "" {
		q = q.Where("LOWER(skills_required) LIKE ?", "%"+v+"%")
	}
	if f.BudgetMin != nil {
		q = q.Where("budget >= ?", *f.BudgetMin)
	}
	if f.BudgetMax != nil {
		q = q.Where("budget <= ?", *f.BudgetMax)
	}
	if f.ProjectType != "" {
		q = q.Where("project_type = ?", f.ProjectType)
	}
	return q
}

// Browse lists open projects, newest first.
func (s *ProjectService) Browse(ctx context.Context, f Filter) (*Page, error) {
	page, limit := utils.Paging(f.Page, f.Limit)

	var total int64
	if err := s.DB.WithContext(ctx).Model(&models.Project{}).Scopes(f.scope).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count projects: %w", err)
	}

	items := []models.Project{}
	if err := s.DB.WithContext(ctx).
		Scopes(f.scope).
		Preload("Client").
		Order("created_at DESC").
		Limit(limit).
		Offset(utils.Offset(page, limit)).
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("browse projects: %w", err)
	}
	return &Page{Items: items, Meta: utils.NewMeta(page, limit, total)}, nil
}

// ListByClient returns a client's projects newest first, optionally restricted to statuses.
func (s *ProjectService) ListByClient(ctx context.Context, clientID uuid.UUID, statuses ...models.ProjectStatus) ([]models.Project, error) {
	q := s.DB.WithContext(ctx).Where("client_id = ?", clientID)
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}

	items := []models.Project{}
	if err := q.Preload("Freelancer").Order("created_at DESC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return items, nil
}

// ListAssigned returns projects a freelancer works on, newest first.
func (s *ProjectService) ListAssigned(ctx context.Context, freelancerID uuid.UUID) ([]models.Project, error) {
	items := []models.Project{}
	if err := s.DB.WithContext(ctx).
		Where("freelancer_id = ?", freelancerID).
		Preload("Client").
		Order("created_at DESC").
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list assigned projects: %w", err)
	}
	return items, nil
}

// Transition moves a project along its lifecycle. Re-applying the current
// status is a no-op and reports changed=false.
func (s *ProjectService) Transition(ctx context.Context, actorID, projectID uuid.UUID, to models.ProjectStatus) (p *models.Project, changed bool, err error) {
	if !to.Valid() {
		return nil, false, ErrInvalidTransition
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if p, err = loadOwned(tx, actorID, projectID); err != nil {
			return err
		}
		if p.Status == to {
			return nil
		}
		if !p.Status.CanTransitionTo(to) {
			return ErrInvalidTransition
		}
		if err := moveStatus(tx, p, to, nil); err != nil {
			return err
		}
		changed = true
		return nil
	})
	if err != nil {
		return nil, false, wrap("transition project", err)
	}
	return p, changed, nil
}

// Assign gives an open project to a freelancer and starts it.
func (s *ProjectService) Assign(ctx context.Context, actorID, projectID, freelancerID uuid.UUID) (*models.Project, error) {
	var p *models.Project
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if p, err = loadOwned(tx, actorID, projectID); err != nil {
			return err
		}
		if p.Status != models.ProjectOpen {
			return ErrInvalidTransition
		}
		f, err := loadUser(tx, freelancerID)
		if err != nil {
			return err
		}
		if !f.IsFreelancer() {
			return ErrNotFreelancer
		}
		return moveStatus(tx, p, models.ProjectInProgress, &f.ID)
	})
	if err != nil {
		return nil, wrap("assign project", err)
	}
	return p, nil
}

// moveStatus updates only if nobody changed the status in between.
func moveStatus(tx *gorm.DB, p *models.Project, to models.ProjectStatus, freelancerID *uuid.UUID) error {
	cols := map[string]interface{}{"status": to}
	if freelancerID != nil {
		cols["freelancer_id"] = *freelancerID
	}

	res := tx.Model(&models.Project{}).
		Where("id = ? AND status = ?", p.ID, p.Status).
		Updates(cols)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInvalidTransition
	}

	p.Status = to
	if freelancerID != nil {
		p.FreelancerID = freelancerID
	}
	return nil
}

// CanParticipate reports whether a user may read and post in the project thread:
// the owner, the assigned freelancer, and any freelancer while the project is open.
func CanParticipate(p *models.Project, u *models.User) bool {
	switch {
	case u.ID == p.ClientID:
		return true
	case p.FreelancerID != nil && *p.FreelancerID == u.ID:
		return true
	case p.Status == models.ProjectOpen && u.IsFreelancer():
		return true
	}
	return false
}

func (s *ProjectService) PostMessage(ctx context.Context, senderID, projectID uuid.UUID, content string) (*models.ProjectMessage, error) {
	tx := s.DB.WithContext(ctx)

	p, err := loadProject(tx, projectID)
	if err != nil {
		return nil, err
	}
	u, err := loadUser(tx, senderID)
	if err != nil {
		return nil, err
	}
	if !CanParticipate(p, u) {
		return nil, ErrForbidden
	}

	m := &models.ProjectMessage{
		ProjectID: p.ID,
		SenderID:  u.ID,
		Content:   content,
	}
	if err := tx.Create(m).Error; err != nil {
		return nil, fmt.Errorf("create project message: %w", err)
	}
	m.Sender = u
	return m, nil
}

// Messages returns the project thread, oldest first.
func (s *ProjectService) Messages(ctx context.Context, actorID, projectID uuid.UUID) ([]models.ProjectMessage, error) {
	tx := s.DB.WithContext(ctx)

	p, err := loadProject(tx, projectID)
	if err != nil {
		return nil, err
	}
	u, err := loadUser(tx, actorID)
	if err != nil {
		return nil, err
	}
	if !CanParticipate(p, u) {
		return nil, ErrForbidden
	}

	out := []models.ProjectMessage{}
	if err := tx.Where("project_id = ?", p.ID).
		Preload("Sender").
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list project messages: %w", err)
	}
	return out, nil
}

// Participants lists the users notified about thread activity.
func Participants(p *models.Project) []uuid.UUID {
	ids := []uuid.UUID{p.ClientID}
	if p.FreelancerID != nil {
		ids = append(ids, *p.FreelancerID)
	}
	return ids
}

func wrap(op string, err error) error {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrForbidden), errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrNotFreelancer):
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}
