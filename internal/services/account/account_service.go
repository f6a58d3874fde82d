package account

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freelancehub/platform_be/internal/db"
	"github.com/freelancehub/platform_be/internal/models"
	"github.com/freelancehub/platform_be/internal/utils"
)

var (
	ErrUsernameTaken      = errors.New("username already taken")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInactive           = errors.New("account inactive")
	ErrNotFound           = errors.New("user not found")
	ErrInvalidToken       = errors.New("reset token invalid")
	ErrTokenExpired       = errors.New("reset token expired")
)

const maxUsernameLen = 20

type AccountService struct {
	DB     *gorm.DB
	Resets utils.ResetTokens
}

func NewAccountService(gdb *gorm.DB, resets utils.ResetTokens) *AccountService {
	return &AccountService{DB: gdb, Resets: resets}
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// NormalizeEmail is the form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	email := NormalizeEmail(in.Email)

	if err := s.checkTaken(ctx, username, email); err != nil {
		return nil, err
	}

	u := &models.User{
		Username: username,
		Email:    email,
		Role:     models.RoleNone,
		IsActive: true,
	}
	if err := u.SetPassword(in.Password); err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	if err := s.DB.WithContext(ctx).Create(u).Error; err != nil {
		// lost a race against a concurrent registration
		if db.IsUniqueViolation(err) {
			if err := s.checkTaken(ctx, username, email); err != nil {
				return nil, err
			}
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// checkTaken returns ErrUsernameTaken or ErrEmailTaken when a stored user
// already holds either value.
func (s *AccountService) checkTaken(ctx context.Context, username, email string) error {
	var count int64
	if err := s.DB.WithContext(ctx).Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return fmt.Errorf("check username: %w", err)
	}
	if count > 0 {
		return ErrUsernameTaken
	}
	if err := s.DB.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return fmt.Errorf("check email: %w", err)
	}
	if count > 0 {
		return ErrEmailTaken
	}
	return nil
}

func (s *AccountService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	var u models.User
	err := s.DB.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !u.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, ErrInactive
	}
	return &u, nil
}

func (s *AccountService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	err := s.DB.WithContext(ctx).First(&u, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}

func (s *AccountService) SetPassword(ctx context.Context, userID uuid.UUID, plaintext string) error {
	u, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}
	return s.storePassword(s.DB.WithContext(ctx), u, plaintext)
}

func (s *AccountService) storePassword(tx *gorm.DB, u *models.User, plaintext string) error {
	if err := u.SetPassword(plaintext); err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := tx.Model(u).Update("password_hash", u.PasswordHash).Error; err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// IssueResetToken returns ErrNotFound for unknown emails. Callers facing the
// public must not reveal that distinction.
func (s *AccountService) IssueResetToken(ctx context.Context, email string) (string, *models.User, error) {
	var u models.User
	err := s.DB.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil, ErrNotFound
	}
	if err != nil {
		return "", nil, fmt.Errorf("find user: %w", err)
	}

	token, err := s.Resets.Issue(u.Email, u.PasswordHash)
	if err != nil {
		return "", nil, fmt.Errorf("sign reset token: %w", err)
	}
	return token, &u, nil
}

// VerifyResetToken returns the account a token was issued for.
func (s *AccountService) VerifyResetToken(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.Resets.Verify(token)
	if errors.Is(err, utils.ErrTokenExpired) {
		return nil, ErrTokenExpired
	}
	if err != nil {
		return nil, ErrInvalidToken
	}

	var u models.User
	err = s.DB.WithContext(ctx).Where("email = ?", claims.Email).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	// password changed since the token was issued
	if claims.Fingerprint != utils.PasswordFingerprint(u.PasswordHash) {
		return nil, ErrInvalidToken
	}
	return &u, nil
}

func (s *AccountService) ResetPassword(ctx context.Context, token, newPassword string) error {
	u, err := s.VerifyResetToken(ctx, token)
	if err != nil {
		return err
	}
	return s.storePassword(s.DB.WithContext(ctx), u, newPassword)
}

// DeleteUser removes the account and everything hanging off it. Projects the
// user was assigned to survive with no freelancer.
func (s *AccountService) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u models.User
		if err := tx.First(&u, "id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		var owned []uuid.UUID
		if err := tx.Model(&models.Project{}).Where("client_id = ?", userID).Pluck("id", &owned).Error; err != nil {
			return err
		}
		if len(owned) > 0 {
			if err := tx.Where("project_id IN ?", owned).Delete(&models.ProjectMessage{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("sender_id = ?", userID).Delete(&models.ProjectMessage{}).Error; err != nil {
			return err
		}
		if err := tx.Where("client_id = ?", userID).Delete(&models.Project{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Project{}).
			Where("freelancer_id = ?", userID).
			Update("freelancer_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("sender_id = ? OR receiver_id = ?", userID, userID).Delete(&models.Message{}).Error; err != nil {
			return err
		}
		if err := tx.Where("client_id = ? OR freelancer_id = ?", userID, userID).Delete(&models.Rating{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.FreelancerProfile{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.ClientProfile{}).Error; err != nil {
			return err
		}
		return tx.Delete(&u).Error
	})
}

var usernameUnsafe = regexp.MustCompile(`[^a-z0-9_]+`)

// FindOrCreateOAuthUser returns the account for a verified external email,
// creating one with an unusable random password on first sign-in.
func (s *AccountService) FindOrCreateOAuthUser(ctx context.Context, email, name string) (*models.User, bool, error) {
	email = NormalizeEmail(email)

	var u models.User
	err := s.DB.WithContext(ctx).Where("email = ?", email).First(&u).Error
	if err == nil {
		return &u, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("find user: %w", err)
	}

	username, err := s.availableUsername(ctx, name, email)
	if err != nil {
		return nil, false, err
	}

	u = models.User{
		Username: username,
		Email:    email,
		Role:     models.RoleNone,
		IsActive: true,
	}
	if err := u.SetPassword(uuid.NewString() + uuid.NewString()); err != nil {
		return nil, false, fmt.Errorf("hash password: %w", err)
	}
	if err := s.DB.WithContext(ctx).Create(&u).Error; err != nil {
		return nil, false, fmt.Errorf("create user: %w", err)
	}
	return &u, true, nil
}

func (s *AccountService) availableUsername(ctx context.Context, name, email string) (string, error) {
	base := usernameUnsafe.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "_")
	base = strings.Trim(base, "_")
	if len(base) < 2 {
		base = usernameUnsafe.ReplaceAllString(strings.SplitN(email, "@", 2)[0], "_")
	}
	if len(base) < 2 {
		base = "user"
	}
	if len(base) > maxUsernameLen {
		base = base[:maxUsernameLen]
	}

	candidate := base
	for i := 0; i < 5; i++ {
		var count int64
		if err := s.DB.WithContext(ctx).Model(&models.User{}).Where("username = ?", candidate).Count(&count).Error; err != nil {
			return "", fmt.Errorf("check username: %w", err)
		}
		if count == 0 {
			return candidate, nil
		}
		suffix := "_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:5]
		trimmed := base
		if len(trimmed)+len(suffix) > maxUsernameLen {
			trimmed = trimmed[:maxUsernameLen-len(suffix)]
		}
		candidate = trimmed + suffix
	}
	return "", ErrUsernameTaken
}
