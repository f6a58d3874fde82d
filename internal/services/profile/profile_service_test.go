package profile

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freelancehub/platform_be/internal/models"
	"github.com/freelancehub/platform_be/internal/testutil"
)

func freelancerInput() FreelancerInput {
	return FreelancerInput{
		Title:           "Backend engineer",
		Description:     "Builds APIs in Go and Python for startups.",
		Skills:          "Go, PostgreSQL, Docker",
		ExperienceLevel: models.ExperienceExpert,
		HourlyRate:      55,
		Location:        "Lisbon",
		PortfolioLinks:  "https://a.example\nhttps://b.example",
		Languages:       "English, Portuguese",
		Availability:    models.AvailabilityPartTime,
	}
}

func TestCreateFreelancerSetsRole(t *testing.T) {
	gdb := testutil.NewDB(t)
	svc := NewProfileService(gdb)
	ctx := context.Background()
	u := testutil.CreateUser(t, gdb, "ana", models.RoleNone)

	p, err := svc.CreateFreelancer(ctx, u.ID, freelancerInput())
	require.NoError(t, err)
	assert.Equal(t, u.ID, p.UserID)

	got, err := svc.GetFreelancer(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleFreelancer, got.Role)
	require.NotNil(t, got.FreelancerProfile)
	assert.Equal(t, []string{"Go", "PostgreSQL", "Docker"}, got.FreelancerProfile.SkillsList())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, got.FreelancerProfile.PortfolioLinksList())

	_, err = svc.GetClient(ctx, u.ID)
	assert.ErrorIs(t, err, ErrWrongRole)
}

func TestSecondProfileRejected(t *testing.T) {
	gdb := testutil.NewDB(t)
	svc := NewProfileService(gdb)
	ctx := context.Background()
	u := testutil.CreateUser(t, gdb, "bob", models.RoleNone)

	_, err := svc.CreateClient(ctx, u.ID, ClientInput{CompanyName: "Acme", CompanySize: "11-50"})
	require.NoError(t, err)

	_, err = svc.CreateClient(ctx, u.ID, ClientInput{CompanyName: "Acme 2"})
	assert.ErrorIs(t, err, ErrProfileExists)
	_, err = svc.CreateFreelancer(ctx, u.ID, freelancerInput())
	assert.ErrorIs(t, err, ErrProfileExists)

	var n int64
	require.NoError(t, gdb.Model(&models.ClientProfile{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)
	require.NoError(t, gdb.Model(&models.FreelancerProfile{}).Count(&n).Error)
	assert.EqualValues(t, 0, n)

	// rolled back: role stays client
	got, err := svc.GetClient(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleClient, got.Role)
	assert.Equal(t, "Acme", got.ClientProfile.CompanyName)
}

func TestCreateProfileUnknownUser(t *testing.T) {
	svc := NewProfileService(testutil.NewDB(t))
	_, err := svc.CreateClient(context.Background(), uuid.New(), ClientInput{CompanyName: "Ghost"})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUpdateFreelancer(t *testing.T) {
	gdb := testutil.NewDB(t)
	svc := NewProfileService(gdb)
	ctx := context.Background()
	u := testutil.CreateFreelancer(t, gdb, "ana", "Go", models.ExperienceBeginner)

	in := freelancerInput()
	in.HourlyRate = 0
	in.Location = ""
	p, err := svc.UpdateFreelancer(ctx, u.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "Backend engineer", p.Title)
	assert.Zero(t, p.HourlyRate)
	assert.Empty(t, p.Location)

	other := testutil.CreateUser(t, gdb, "bob", models.RoleNone)
	_, err = svc.UpdateFreelancer(ctx, other.ID, in)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBrowseFreelancersOrderedByRating(t *testing.T) {
	gdb := testutil.NewDB(t)
	svc := NewProfileService(gdb)
	ctx := context.Background()

	client := testutil.CreateUser(t, gdb, "client", models.RoleClient)
	client2 := testutil.CreateUser(t, gdb, "client2", models.RoleClient)
	low := testutil.CreateFreelancer(t, gdb, "low", "Go, gRPC", models.ExperienceExpert)
	high := testutil.CreateFreelancer(t, gdb, "high", "Go, React", models.ExperienceExpert)
	testutil.CreateFreelancer(t, gdb, "none", "PHP", models.ExperienceBeginner)

	require.NoError(t, gdb.Create(&models.Rating{ClientID: client.ID, FreelancerID: low.ID, Score: 2}).Error)
	require.NoError(t, gdb.Create(&models.Rating{ClientID: client.ID, FreelancerID: high.ID, Score: 5}).Error)
	require.NoError(t, gdb.Create(&models.Rating{ClientID: client2.ID, FreelancerID: high.ID, Score: 4}).Error)

	res, err := svc.BrowseFreelancers(ctx, FreelancerFilter{})
	require.NoError(t, err)
	require.Len(t, res.Items, 3)
	assert.Equal(t, "high", res.Items[0].Username)
	assert.Equal(t, 4.5, res.Items[0].AvgRating)
	assert.EqualValues(t, 2, res.Items[0].RatingCount)
	assert.Equal(t, "low", res.Items[1].Username)
	assert.Equal(t, "none", res.Items[2].Username)
	assert.Zero(t, res.Items[2].AvgRating)
	assert.EqualValues(t, 3, res.Meta.TotalItems)

	res, err = svc.BrowseFreelancers(ctx, FreelancerFilter{Skill: "go", Experience: models.ExperienceExpert})
	require.NoError(t, err)
	assert.Len(t, res.Items, 2)

	res, err = svc.BrowseFreelancers(ctx, FreelancerFilter{Search: "react"})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, high.ID, res.Items[0].UserID)

	maxRate := 10.0
	res, err = svc.BrowseFreelancers(ctx, FreelancerFilter{MaxRate: &maxRate})
	require.NoError(t, err)
	assert.Empty(t, res.Items)
	assert.EqualValues(t, 0, res.Meta.TotalItems)
}
