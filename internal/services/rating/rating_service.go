package rating

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/freelancehub/platform_be/internal/models"
	"github.com/freelancehub/platform_be/internal/utils"
)

var (
	ErrNotFound      = errors.New("rating not found")
	ErrUserNotFound  = errors.New("user not found")
	ErrNotClient     = errors.New("only clients can rate freelancers")
	ErrNotFreelancer = errors.New("only freelancers can be rated")
	ErrInvalidScore  = errors.New("score must be between 1 and 5")
)

type RatingService struct {
	DB *gorm.DB
}

func NewRatingService(gdb *gorm.DB) *RatingService {
	return &RatingService{DB: gdb}
}

// Summary aggregates the ratings a freelancer received.
type Summary struct {
	Average      float64       `json:"average"`
	Count        int64         `json:"count"`
	Distribution map[int]int64 `json:"distribution"`
}

// Submit creates the client's rating of a freelancer or overwrites the
// previous one. created reports whether a new row was inserted.
func (s *RatingService) Submit(ctx context.Context, clientID, freelancerID uuid.UUID, score int, review string) (r *models.Rating, created bool, err error) {
	if score < models.MinScore || score > models.MaxScore {
		return nil, false, ErrInvalidScore
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var client, freelancer models.User
		if err := tx.First(&client, "id = ?", clientID).Error; err != nil {
			return notFound(err)
		}
		if !client.IsClient() {
			return ErrNotClient
		}
		if err := tx.First(&freelancer, "id = ?", freelancerID).Error; err != nil {
			return notFound(err)
		}
		if !freelancer.IsFreelancer() {
			return ErrNotFreelancer
		}

		var existing int64
		if err := tx.Model(&models.Rating{}).
			Where("client_id = ? AND freelancer_id = ?", clientID, freelancerID).
			Count(&existing).Error; err != nil {
			return err
		}
		created = existing == 0

		row := models.Rating{
			ClientID:     clientID,
			FreelancerID: freelancerID,
			Score:        score,
			Review:       review,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "client_id"}, {Name: "freelancer_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"score", "review", "updated_at"}),
		}).Create(&row).Error; err != nil {
			return err
		}

		r = &models.Rating{}
		return tx.Where("client_id = ? AND freelancer_id = ?", clientID, freelancerID).First(r).Error
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrUserNotFound), errors.Is(err, ErrNotClient), errors.Is(err, ErrNotFreelancer):
			return nil, false, err
		}
		return nil, false, fmt.Errorf("submit rating: %w", err)
	}
	return r, created, nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUserNotFound
	}
	return err
}

// Average returns the mean score rounded to one decimal, 0 when unrated.
func (s *RatingService) Average(ctx context.Context, freelancerID uuid.UUID) (Summary, error) {
	var rows []struct {
		Score int
		N     int64
	}
	if err := s.DB.WithContext(ctx).
		Model(&models.Rating{}).
		Select("score, COUNT(*) AS n").
		Where("freelancer_id = ?", freelancerID).
		Group("score").
		Scan(&rows).Error; err != nil {
		return Summary{}, fmt.Errorf("rating summary: %w", err)
	}

	sum := Summary{Distribution: map[int]int64{}}
	for score := models.MinScore; score <= models.MaxScore; score++ {
		sum.Distribution[score] = 0
	}
	var total int64
	for _, r := range rows {
		sum.Distribution[r.Score] = r.N
		sum.Count += r.N
		total += int64(r.Score) * r.N
	}
	if sum.Count > 0 {
		sum.Average = utils.RoundRating(float64(total) / float64(sum.Count))
	}
	return sum, nil
}

// ListForFreelancer returns received ratings newest first, with the rating client loaded.
func (s *RatingService) ListForFreelancer(ctx context.Context, freelancerID uuid.UUID) ([]models.Rating, error) {
	out := []models.Rating{}
	if err := s.DB.WithContext(ctx).
		Where("freelancer_id = ?", freelancerID).
		Preload("Client").
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}
	return out, nil
}

// Existing returns the client's current rating of the freelancer, or ErrNotFound.
func (s *RatingService) Existing(ctx context.Context, clientID, freelancerID uuid.UUID) (*models.Rating, error) {
	var r models.Rating
	err := s.DB.WithContext(ctx).
		Where("client_id = ? AND freelancer_id = ?", clientID, freelancerID).
		First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load rating: %w", err)
	}
	return &r, nil
}
