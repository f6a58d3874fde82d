package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freelancehub/platform_be/internal/db"
	"github.com/freelancehub/platform_be/internal/models"
	"github.com/freelancehub/platform_be/internal/utils"
)

var (
	ErrNotFound      = errors.New("profile not found")
	ErrUserNotFound  = errors.New("user not found")
	ErrProfileExists = errors.New("profile already exists")
	ErrWrongRole     = errors.New("user has a different role")
)

type ProfileService struct {
	DB *gorm.DB
}

func NewProfileService(gdb *gorm.DB) *ProfileService {
	return &ProfileService{DB: gdb}
}

type FreelancerInput struct {
	Title           string
	Description     string
	Skills          string
	ExperienceLevel models.ExperienceLevel
	HourlyRate      float64
	Location        string
	Education       string
	Certifications  string
	PortfolioLinks  string
	Languages       string
	Availability    models.Availability
}

func (in FreelancerInput) columns() map[string]interface{} {
	return map[string]interface{}{
		"title":            in.Title,
		"description":      in.Description,
		"skills":           in.Skills,
		"experience_level": in.ExperienceLevel,
		"hourly_rate":      in.HourlyRate,
		"location":         in.Location,
		"education":        in.Education,
		"certifications":   in.Certifications,
		"portfolio_links":  in.PortfolioLinks,
		"languages":        in.Languages,
		"availability":     in.Availability,
	}
}

type ClientInput struct {
	CompanyName        string
	CompanyDescription string
	Industry           string
	Location           string
	Website            string
	CompanySize        string
	Phone              string
}

func (in ClientInput) columns() map[string]interface{} {
	return map[string]interface{}{
		"company_name":        in.CompanyName,
		"company_description": in.CompanyDescription,
		"industry":            in.Industry,
		"location":            in.Location,
		"website":             in.Website,
		"company_size":        in.CompanySize,
		"phone":               in.Phone,
	}
}

// claimRole sets the role of a user that has none yet and owns no profile.
func claimRole(tx *gorm.DB, userID uuid.UUID, role models.Role) error {
	res := tx.Model(&models.User{}).
		Where("id = ? AND (role = ? OR role IS NULL)", userID, models.RoleNone).
		Update("role", role)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := tx.Model(&models.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrUserNotFound
		}
		return ErrProfileExists
	}

	var existing int64
	if err := tx.Model(&models.FreelancerProfile{}).Where("user_id = ?", userID).Count(&existing).Error; err != nil {
		return err
	}
	if existing > 0 {
		return ErrProfileExists
	}
	if err := tx.Model(&models.ClientProfile{}).Where("user_id = ?", userID).Count(&existing).Error; err != nil {
		return err
	}
	if existing > 0 {
		return ErrProfileExists
	}
	return nil
}

func (s *ProfileService) CreateFreelancer(ctx context.Context, userID uuid.UUID, in FreelancerInput) (*models.FreelancerProfile, error) {
	p := &models.FreelancerProfile{
		UserID:          userID,
		Title:           in.Title,
		Description:     in.Description,
		Skills:          in.Skills,
		ExperienceLevel: in.ExperienceLevel,
		HourlyRate:      in.HourlyRate,
		Location:        in.Location,
		Education:       in.Education,
		Certifications:  in.Certifications,
		PortfolioLinks:  in.PortfolioLinks,
		Languages:       in.Languages,
		Availability:    in.Availability,
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := claimRole(tx, userID, models.RoleFreelancer); err != nil {
			return err
		}
		if err := tx.Create(p).Error; err != nil {
			if db.IsUniqueViolation(err) {
				return ErrProfileExists
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, wrap("create freelancer profile", err)
	}
	return p, nil
}

func (s *ProfileService) CreateClient(ctx context.Context, userID uuid.UUID, in ClientInput) (*models.ClientProfile, error) {
	p := &models.ClientProfile{
		UserID:             userID,
		CompanyName:        in.CompanyName,
		CompanyDescription: in.CompanyDescription,
		Industry:           in.Industry,
		Location:           in.Location,
		Website:            in.Website,
		CompanySize:        in.CompanySize,
		Phone:              in.Phone,
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := claimRole(tx, userID, models.RoleClient); err != nil {
			return err
		}
		if err := tx.Create(p).Error; err != nil {
			if db.IsUniqueViolation(err) {
				return ErrProfileExists
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, wrap("create client profile", err)
	}
	return p, nil
}

// GetFreelancer returns the user with its freelancer profile loaded.
func (s *ProfileService) GetFreelancer(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	return s.getWithProfile(ctx, userID, models.RoleFreelancer, "FreelancerProfile")
}

// GetClient returns the user with its client profile loaded.
func (s *ProfileService) GetClient(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	return s.getWithProfile(ctx, userID, models.RoleClient, "ClientProfile")
}

func (s *ProfileService) getWithProfile(ctx context.Context, userID uuid.UUID, role models.Role, assoc string) (*models.User, error) {
	var u models.User
	err := s.DB.WithContext(ctx).Preload(assoc).First(&u, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if u.Role != role {
		return nil, ErrWrongRole
	}
	if (role == models.RoleFreelancer && u.FreelancerProfile == nil) ||
		(role == models.RoleClient && u.ClientProfile == nil) {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (s *ProfileService) UpdateFreelancer(ctx context.Context, userID uuid.UUID, in FreelancerInput) (*models.FreelancerProfile, error) {
	var p models.FreelancerProfile
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).First(&p).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if err := tx.Model(&p).Updates(in.columns()).Error; err != nil {
			return err
		}
		return tx.First(&p, "id = ?", p.ID).Error
	})
	if err != nil {
		return nil, wrap("update freelancer profile", err)
	}
	return &p, nil
}

func (s *ProfileService) UpdateClient(ctx context.Context, userID uuid.UUID, in ClientInput) (*models.ClientProfile, error) {
	var p models.ClientProfile
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).First(&p).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if err := tx.Model(&p).Updates(in.columns()).Error; err != nil {
			return err
		}
		return tx.First(&p, "id = ?", p.ID).Error
	})
	if err != nil {
		return nil, wrap("update client profile", err)
	}
	return &p, nil
}

type FreelancerFilter struct {
	Search     string
	Skill      string
	Experience models.ExperienceLevel
	Location   string
	MinRate    *float64
	MaxRate    *float64
	Page       int
	Limit      int
}

type FreelancerRow struct {
	models.FreelancerProfile
	Username    string  `json:"username"`
	AvgRating   float64 `json:"avg_rating"`
	RatingCount int64   `json:"rating_count"`
}

type FreelancerPage struct {
	Items []FreelancerRow
	Meta  utils.Meta
}

const ratingStats = `LEFT JOIN (
	SELECT freelancer_id, AVG(score) AS avg_rating, COUNT(*) AS rating_count
	FROM ratings GROUP BY freelancer_id
) rs ON rs.freelancer_id = freelancer_profiles.user_id`

func (f FreelancerFilter) scope(q *gorm.DB) *gorm.DB {
	q = q.Joins("JOIN users u ON u.id = freelancer_profiles.user_id").
		Where("u.role = ? AND u.is_active = ?", models.RoleFreelancer, true)

	if v := strings.ToLower(strings.TrimSpace(f.Search)); v != "" {
		like := "%" + v + "%"
		q = q.Where(`(LOWER(freelancer_profiles.title) LIKE ?
			OR LOWER(freelancer_profiles.skills) LIKE ?
			OR LOWER(freelancer_profiles.description) LIKE ?)`, like, like, like)
	}
	if v := strings.ToLower(strings.TrimSpace(f.Skill)); v != "" {
		q = q.Where("LOWER(freelancer_profiles.skills) LIKE ?", "%"+v+"%")
	}
	if f.Experience != "" {
		q = q.Where("freelancer_profiles.experience_level = ?", f.Experience)
	}
	if v := strings.ToLower(strings.TrimSpace(f.Location)); v != "" {
		q = q.Where("LOWER(freelancer_profiles.location) LIKE ?", "%"+v+"%")
	}
	if f.MinRate != nil {
		q = q.Where("freelancer_profiles.hourly_rate >= ?", *f.MinRate)
	}
	if f.MaxRate != nil {
		q = q.Where("freelancer_profiles.hourly_rate <= ?", *f.MaxRate)
	}
	return q
}

// BrowseFreelancers lists active freelancers, best rated first.
func (s *ProfileService) BrowseFreelancers(ctx context.Context, f FreelancerFilter) (*FreelancerPage, error) {
	page, limit := utils.Paging(f.Page, f.Limit)

	var total int64
	if err := s.DB.WithContext(ctx).
		Model(&models.FreelancerProfile{}).
		Scopes(f.scope).
		Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count freelancers: %w", err)
	}

	rows := []FreelancerRow{}
	if err := s.DB.WithContext(ctx).
		Model(&models.FreelancerProfile{}).
		Select(`freelancer_profiles.*, u.username AS username,
			COALESCE(rs.avg_rating, 0) AS avg_rating,
			COALESCE(rs.rating_count, 0) AS rating_count`).
		Joins(ratingStats).
		Scopes(f.scope).
		Order("avg_rating DESC").
		Order("freelancer_profiles.created_at DESC").
		Limit(limit).
		Offset(utils.Offset(page, limit)).
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("browse freelancers: %w", err)
	}

	for i := range rows {
		rows[i].AvgRating = utils.RoundRating(rows[i].AvgRating)
	}
	return &FreelancerPage{Items: rows, Meta: utils.NewMeta(page, limit, total)}, nil
}

func wrap(op string, err error) error {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrProfileExists), errors.Is(err, ErrWrongRole):
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}
