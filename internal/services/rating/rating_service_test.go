package rating

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freelancehub/platform_be/internal/models"
	"github.com/freelancehub/platform_be/internal/testutil"
)

func TestResubmitUpdatesInPlace(t *testing.T) {
	gdb := testutil.NewDB(t)
	svc := NewRatingService(gdb)
	ctx := context.Background()
	client := testutil.CreateUser(t, gdb, "client", models.RoleClient)
	free := testutil.CreateFreelancer(t, gdb, "free", "Go", models.ExperienceExpert)

	first, created, err := svc.Submit(ctx, client.ID, free.ID, 3, "ok")
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := svc.Submit(ctx, client.ID, free.ID, 5, "great after all")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 5, second.Score)
	assert.Equal(t, "great after all", second.Review)

	var n int64
	require.NoError(t, gdb.Model(&models.Rating{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)

	got, err := svc.Existing(ctx, client.ID, free.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Score)
}

func TestSubmitRules(t *testing.T) {
	gdb := testutil.NewDB(t)
	svc := NewRatingService(gdb)
	ctx := context.Background()
	client := testutil.CreateUser(t, gdb, "client", models.RoleClient)
	other := testutil.CreateUser(t, gdb, "other", models.RoleClient)
	free := testutil.CreateFreelancer(t, gdb, "free", "Go", models.ExperienceExpert)

	for _, score := range []int{0, 6, -1} {
		_, _, err := svc.Submit(ctx, client.ID, free.ID, score, "")
		assert.ErrorIs(t, err, ErrInvalidScore)
	}

	_, _, err := svc.Submit(ctx, free.ID, free.ID, 4, "")
	assert.ErrorIs(t, err, ErrNotClient)

	_, _, err = svc.Submit(ctx, client.ID, other.ID, 4, "")
	assert.ErrorIs(t, err, ErrNotFreelancer)

	_, err = svc.Existing(ctx, client.ID, free.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAverage(t *testing.T) {
	gdb := testutil.NewDB(t)
	svc := NewRatingService(gdb)
	ctx := context.Background()
	free := testutil.CreateFreelancer(t, gdb, "free", "Go", models.ExperienceExpert)

	empty, err := svc.Average(ctx, free.ID)
	require.NoError(t, err)
	assert.Zero(t, empty.Average)
	assert.Zero(t, empty.Count)

	for i, score := range []int{5, 4, 3} {
		c := testutil.CreateUser(t, gdb, "client"+string(rune('a'+i)), models.RoleClient)
		_, _, err := svc.Submit(ctx, c.ID, free.ID, score, "")
		require.NoError(t, err)
	}

	sum, err := svc.Average(ctx, free.ID)
	require.NoError(t, err)
	assert.Equal(t, 4.0, sum.Average)
	assert.EqualValues(t, 3, sum.Count)
	assert.EqualValues(t, 1, sum.Distribution[5])
	assert.EqualValues(t, 0, sum.Distribution[1])

	list, err := svc.ListForFreelancer(ctx, free.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.NotNil(t, list[0].Client)
}

func TestAverageRoundsToOneDecimal(t *testing.T) {
	gdb := testutil.NewDB(t)
	svc := NewRatingService(gdb)
	ctx := context.Background()
	free := testutil.CreateFreelancer(t, gdb, "free", "Go", models.ExperienceExpert)

	for i, score := range []int{5, 5, 4} {
		c := testutil.CreateUser(t, gdb, "client"+string(rune('a'+i)), models.RoleClient)
		_, _, err := svc.Submit(ctx, c.ID, free.ID, score, "")
		require.NoError(t, err)
	}

	sum, err := svc.Average(ctx, free.ID)
	require.NoError(t, err)
	assert.Equal(t, 4.7, sum.Average)
}
