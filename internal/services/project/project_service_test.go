package project

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/freelancehub/platform_be/internal/models"
	"github.com/freelancehub/platform_be/internal/testutil"
)

type fixture struct {
	db     *gorm.DB
	svc    *ProjectService
	client *models.User
	free   *models.User
}

func setup(t *testing.T) fixture {
	t.Helper()
	gdb := testutil.NewDB(t)
	return fixture{
		db:     gdb,
		svc:    NewProjectService(gdb),
		client: testutil.CreateUser(t, gdb, "client", models.RoleClient),
		free:   testutil.CreateFreelancer(t, gdb, "free", "Go", models.ExperienceExpert),
	}
}

func validInput() Input {
	deadline := time.Date(2027, 3, 1, 0, 0, 0, 0, time.UTC)
	return Input{
		Title:          "Build a REST API",
		Description:    "We need a Go REST API with PostgreSQL storage and tests.",
		Budget:         800,
		Deadline:       &deadline,
		SkillsRequired: "Go, PostgreSQL",
		ProjectType:    models.ProjectFixed,
	}
}

func TestCreateRequiresClient(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	p, err := f.svc.Create(ctx, f.client.ID, validInput())
	require.NoError(t, err)
	assert.Equal(t, models.ProjectOpen, p.Status)
	assert.Nil(t, p.FreelancerID)

	_, err = f.svc.Create(ctx, f.free.ID, validInput())
	assert.ErrorIs(t, err, ErrNotClient)

	got, err := f.svc.Get(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Client)
	assert.Equal(t, "client", got.Client.Username)
	require.NotNil(t, got.Deadline)
}

func TestUpdateOnlyByOwner(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	other := testutil.CreateUser(t, f.db, "other", models.RoleClient)

	p, err := f.svc.Create(ctx, f.client.ID, validInput())
	require.NoError(t, err)

	in := validInput()
	in.Title = "Build a GraphQL API"
	in.Budget = 900
	in.Deadline = nil

	_, err = f.svc.Update(ctx, other.ID, p.ID, in)
	assert.ErrorIs(t, err, ErrForbidden)

	updated, err := f.svc.Update(ctx, f.client.ID, p.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "Build a GraphQL API", updated.Title)
	assert.Equal(t, 900.0, updated.Budget)
	assert.Nil(t, updated.Deadline)
	assert.Equal(t, models.ProjectOpen, updated.Status)

	stored, err := f.svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.Deadline)
	assert.Equal(t, "Build a GraphQL API", stored.Title)
}

func TestBrowseBudgetRangeNewestFirst(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	testutil.CreateProject(t, f.db, f.client.ID, "cheap", 50, base)
	testutil.CreateProject(t, f.db, f.client.ID, "lower edge", 100, base.Add(time.Hour))
	testutil.CreateProject(t, f.db, f.client.ID, "middle", 300, base.Add(2*time.Hour))
	testutil.CreateProject(t, f.db, f.client.ID, "upper edge", 500, base.Add(3*time.Hour))
	testutil.CreateProject(t, f.db, f.client.ID, "pricey", 501, base.Add(4*time.Hour))
	closed := testutil.CreateProject(t, f.db, f.client.ID, "closed middle", 200, base.Add(5*time.Hour))
	require.NoError(t, f.db.Model(closed).Update("status", models.ProjectCancelled).Error)

	min, max := 100.0, 500.0
	page, err := f.svc.Browse(ctx, Filter{BudgetMin: &min, BudgetMax: &max})
	require.NoError(t, err)

	titles := []string{}
	for _, p := range page.Items {
		titles = append(titles, p.Title)
	}
	assert.Equal(t, []string{"upper edge", "middle", "lower edge"}, titles)
	assert.EqualValues(t, 3, page.Meta.TotalItems)
	assert.Equal(t, 1, page.Meta.TotalPages)
}

func TestBrowseSearchAndPaging(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)

	for i, title := range []string{"Go backend", "React frontend", "Go CLI tool"} {
		testutil.CreateProject(t, f.db, f.client.ID, title, 100, base.Add(time.Duration(i)*time.Minute))
	}

	page, err := f.svc.Browse(ctx, Filter{Search: "GO ", Limit: 1})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Go CLI tool", page.Items[0].Title)
	assert.EqualValues(t, 3, page.Meta.TotalItems) // every fixture lists Go in its skills
	assert.Equal(t, 3, page.Meta.TotalPages)

	page, err = f.svc.Browse(ctx, Filter{Search: "frontend"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "React frontend", page.Items[0].Title)
}

func TestLifecycle(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	p, err := f.svc.Create(ctx, f.client.ID, validInput())
	require.NoError(t, err)

	_, _, err = f.svc.Transition(ctx, f.client.ID, p.ID, models.ProjectCompleted)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, _, err = f.svc.Transition(ctx, f.free.ID, p.ID, models.ProjectCancelled)
	assert.ErrorIs(t, err, ErrForbidden)

	assigned, err := f.svc.Assign(ctx, f.client.ID, p.ID, f.free.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProjectInProgress, assigned.Status)
	require.NotNil(t, assigned.FreelancerID)
	assert.Equal(t, f.free.ID, *assigned.FreelancerID)

	_, err = f.svc.Assign(ctx, f.client.ID, p.ID, f.free.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	same, changed, err := f.svc.Transition(ctx, f.client.ID, p.ID, models.ProjectInProgress)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, models.ProjectInProgress, same.Status)

	done, changed, err := f.svc.Transition(ctx, f.client.ID, p.ID, models.ProjectCompleted)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, models.ProjectCompleted, done.Status)

	_, _, err = f.svc.Transition(ctx, f.client.ID, p.ID, models.ProjectOpen)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, _, err = f.svc.Transition(ctx, f.client.ID, p.ID, models.ProjectCancelled)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, _, err = f.svc.Transition(ctx, f.client.ID, p.ID, models.ProjectStatus("archived"))
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestAssignRequiresFreelancer(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	other := testutil.CreateUser(t, f.db, "other", models.RoleClient)

	p, err := f.svc.Create(ctx, f.client.ID, validInput())
	require.NoError(t, err)

	_, err = f.svc.Assign(ctx, f.client.ID, p.ID, other.ID)
	assert.ErrorIs(t, err, ErrNotFreelancer)
}

func TestProjectThreadParticipants(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	outsider := testutil.CreateUser(t, f.db, "outsider", models.RoleClient)
	late := testutil.CreateFreelancer(t, f.db, "late", "Go", models.ExperienceBeginner)

	p, err := f.svc.Create(ctx, f.client.ID, validInput())
	require.NoError(t, err)

	_, err = f.svc.PostMessage(ctx, f.free.ID, p.ID, "Is the deadline flexible?")
	require.NoError(t, err)
	_, err = f.svc.PostMessage(ctx, f.client.ID, p.ID, "A little.")
	require.NoError(t, err)
	_, err = f.svc.PostMessage(ctx, outsider.ID, p.ID, "hello")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.Assign(ctx, f.client.ID, p.ID, f.free.ID)
	require.NoError(t, err)

	_, err = f.svc.Messages(ctx, late.ID, p.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	msgs, err := f.svc.Messages(ctx, f.free.ID, p.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "Is the deadline flexible?", msgs[0].Content)
	require.NotNil(t, msgs[1].Sender)
	assert.Equal(t, "client", msgs[1].Sender.Username)
}

func TestListByClient(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)

	a := testutil.CreateProject(t, f.db, f.client.ID, "a", 100, base)
	testutil.CreateProject(t, f.db, f.client.ID, "b", 100, base.Add(time.Minute))
	require.NoError(t, f.db.Model(a).Update("status", models.ProjectCompleted).Error)

	all, err := f.svc.ListByClient(ctx, f.client.ID)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "b", all[0].Title)

	done, err := f.svc.ListByClient(ctx, f.client.ID, models.ProjectCompleted)
	require.NoError(t, err)
	require.Len(t, done, 1)
	assert.Equal(t, "a", done[0].Title)
}
