package account

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/freelancehub/platform_be/internal/models"
	"github.com/freelancehub/platform_be/internal/testutil"
	"github.com/freelancehub/platform_be/internal/utils"
)

type clock struct{ t time.Time }

func (c *clock) Now() time.Time { return c.t }

func newService(t *testing.T) (*AccountService, *clock) {
	t.Helper()
	c := &clock{t: time.Now()}
	return NewAccountService(testutil.NewDB(t), utils.ResetTokens{Secret: "test-secret", Now: c.Now}), c
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterInput{Username: "ana", Email: "Ana@Example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", u.Email)
	assert.Equal(t, models.RoleNone, u.Role)
	assert.NotEqual(t, "secret1", u.PasswordHash)

	_, err = svc.Register(ctx, RegisterInput{Username: "ana", Email: "other@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrUsernameTaken)

	_, err = svc.Register(ctx, RegisterInput{Username: "ana2", Email: "ANA@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	var count int64
	require.NoError(t, svc.DB.Model(&models.User{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestRegisterLosesEmailRace(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	// a concurrent registration takes the email between the checks and the insert
	raced := false
	err := svc.DB.Callback().Create().Before("gorm:begin_transaction").Register("test:race", func(tx *gorm.DB) {
		if raced {
			return
		}
		raced = true
		testutil.CreateUser(t, svc.DB, "racer", models.RoleNone)
	})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterInput{Username: "newbie", Email: "racer@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrEmailTaken)
	assert.True(t, raced)
}

func TestAuthenticate(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Username: "ana", Email: "ana@example.com", Password: "secret1"})
	require.NoError(t, err)

	u, err := svc.Authenticate(ctx, " ANA@example.com ", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "ana", u.Username)

	_, err = svc.Authenticate(ctx, "ana@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, svc.DB.Model(&models.User{}).Where("id = ?", u.ID).Update("is_active", false).Error)
	_, err = svc.Authenticate(ctx, "ana@example.com", "secret1")
	assert.ErrorIs(t, err, ErrInactive)
}

func TestSetPasswordKeepsOnlyLatest(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	u := testutil.CreateUser(t, svc.DB, "ana", models.RoleNone)

	require.NoError(t, svc.SetPassword(ctx, u.ID, "first-pass"))
	require.NoError(t, svc.SetPassword(ctx, u.ID, "second-pass"))

	stored, err := svc.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, stored.CheckPassword("second-pass"))
	assert.False(t, stored.CheckPassword("first-pass"))
	assert.False(t, stored.CheckPassword("secret1"))
}

func TestResetPasswordFlow(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	u := testutil.CreateUser(t, svc.DB, "ana", models.RoleNone)

	token, issuedFor, err := svc.IssueResetToken(ctx, "ANA@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, issuedFor.ID)

	require.NoError(t, svc.ResetPassword(ctx, token, "brand-new"))
	_, err = svc.Authenticate(ctx, u.Email, "brand-new")
	require.NoError(t, err)

	// single use once the password changed
	assert.ErrorIs(t, svc.ResetPassword(ctx, token, "again-new"), ErrInvalidToken)

	_, _, err = svc.IssueResetToken(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResetPasswordExpired(t *testing.T) {
	svc, c := newService(t)
	ctx := context.Background()
	u := testutil.CreateUser(t, svc.DB, "ana", models.RoleNone)

	token, _, err := svc.IssueResetToken(ctx, u.Email)
	require.NoError(t, err)

	c.t = c.t.Add(time.Hour + time.Minute)
	assert.ErrorIs(t, svc.ResetPassword(ctx, token, "brand-new"), ErrTokenExpired)
	assert.ErrorIs(t, svc.ResetPassword(ctx, "garbage", "brand-new"), ErrInvalidToken)
}

func TestDeleteUserCascades(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	gdb := svc.DB

	client := testutil.CreateUser(t, gdb, "client", models.RoleClient)
	require.NoError(t, gdb.Create(&models.ClientProfile{UserID: client.ID, CompanyName: "Acme"}).Error)
	other := testutil.CreateUser(t, gdb, "other", models.RoleClient)
	free := testutil.CreateFreelancer(t, gdb, "free", "Go", models.ExperienceExpert)

	owned := testutil.CreateProject(t, gdb, client.ID, "Owned project", 200, time.Now())
	assigned := testutil.CreateProject(t, gdb, other.ID, "Other project", 300, time.Now())
	require.NoError(t, gdb.Model(assigned).Update("freelancer_id", free.ID).Error)

	require.NoError(t, gdb.Create(&models.ProjectMessage{ProjectID: owned.ID, SenderID: free.ID, Content: "hi"}).Error)
	require.NoError(t, gdb.Create(&models.ProjectMessage{ProjectID: assigned.ID, SenderID: free.ID, Content: "hello"}).Error)
	require.NoError(t, gdb.Create(&models.Message{SenderID: client.ID, ReceiverID: free.ID, Subject: "s", Content: "c"}).Error)
	require.NoError(t, gdb.Create(&models.Rating{ClientID: client.ID, FreelancerID: free.ID, Score: 4}).Error)

	require.NoError(t, svc.DeleteUser(ctx, client.ID))

	count := func(model interface{}) int64 {
		var n int64
		require.NoError(t, gdb.Model(model).Count(&n).Error)
		return n
	}
	assert.EqualValues(t, 0, count(&models.ClientProfile{}))
	assert.EqualValues(t, 1, count(&models.Project{}))
	assert.EqualValues(t, 1, count(&models.ProjectMessage{}))
	assert.EqualValues(t, 0, count(&models.Message{}))
	assert.EqualValues(t, 0, count(&models.Rating{}))

	require.NoError(t, svc.DeleteUser(ctx, free.ID))
	var p models.Project
	require.NoError(t, gdb.First(&p, "id = ?", assigned.ID).Error)
	assert.Nil(t, p.FreelancerID)
	assert.EqualValues(t, 0, count(&models.ProjectMessage{}))
	assert.EqualValues(t, 0, count(&models.FreelancerProfile{}))

	assert.ErrorIs(t, svc.DeleteUser(ctx, free.ID), ErrNotFound)
}

func TestFindOrCreateOAuthUser(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	testutil.CreateUser(t, svc.DB, "ana_lopez", models.RoleNone)

	u, created, err := svc.FindOrCreateOAuthUser(ctx, "Ana.Lopez@Gmail.com", "Ana Lopez")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "ana.lopez@gmail.com", u.Email)
	assert.True(t, strings.HasPrefix(u.Username, "ana_lopez_"))
	assert.LessOrEqual(t, len(u.Username), maxUsernameLen)

	again, created, err := svc.FindOrCreateOAuthUser(ctx, "ana.lopez@gmail.com", "Whatever")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, u.ID, again.ID)
}
