package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mwestre/cadence/internal/domain/profile"
	"github.com/mwestre/cadence/internal/repository"
	"github.com/mwestre/cadence/internal/syncmeta"
)

func TestProfileRepository_Roundtrip(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProfileRepository(db)
	ctx := context.Background()

	created := time.Date(2024, time.March, 1, 7, 0, 0, 0, time.UTC)
	p := &profile.UserProfile{
		ID:          "u1",
		DisplayName: "Marta",
		Timezone:    "Europe/Madrid",
		Meta:        syncmeta.New(created),
	}
	require.NoError(t, repo.Upsert(ctx, "u1", p))

	got, err := repo.Get(ctx, "u1", "u1")
	require.NoError(t, err)
	require.Equal(t, "Marta", got.DisplayName)
	require.Equal(t, "Europe/Madrid", got.Timezone)

	_, err = repo.Get(ctx, "u2", "u2")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestProfileRepository_PendingSyncIsSingleRow(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProfileRepository(db)
	ctx := context.Background()

	pending, err := repo.FindPendingSync(ctx, "u1")
	require.NoError(t, err)
	require.Empty(t, pending)

	created := time.Date(2024, time.March, 1, 7, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Upsert(ctx, "u1", &profile.UserProfile{
		ID:   "u1",
		Meta: syncmeta.New(created),
	}))

	pending, err = repo.FindPendingSync(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, pending, 1)

	require.NoError(t, repo.MarkSynced(ctx, "u1", "u1", created.Add(time.Hour)))
	pending, err = repo.FindPendingSync(ctx, "u1")
	require.NoError(t, err)
	require.Empty(t, pending)
}

func TestAchievementRepository_Roundtrip(t *testing.T) {
	db := NewTestDB(t)
	repo := NewAchievementRepository(db)
	ctx := context.Background()

	created := time.Date(2024, time.March, 1, 7, 0, 0, 0, time.UTC)
	a := &profile.Achievement{
		ID:         "ach1",
		Code:       "seven_day_streak",
		UnlockedAt: created,
		Meta:       syncmeta.New(created),
	}
	require.NoError(t, repo.Upsert(ctx, "u1", a))

	got, err := repo.Get(ctx, "u1", "ach1")
	require.NoError(t, err)
	require.Equal(t, "seven_day_streak", got.Code)
	require.True(t, got.UnlockedAt.Equal(created))

	pending, err := repo.FindPendingSync(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, pending, 1)
}

func TestOnboardingRepository_StepsRoundtrip(t *testing.T) {
	db := NewTestDB(t)
	repo := NewOnboardingRepository(db)
	ctx := context.Background()

	created := time.Date(2024, time.March, 1, 7, 0, 0, 0, time.UTC)
	o := &profile.OnboardingState{
		ID:             "u1",
		CompletedSteps: []string{"welcome", "first_habit"},
		Meta:           syncmeta.New(created),
	}
	require.NoError(t, repo.Upsert(ctx, "u1", o))

	got, err := repo.Get(ctx, "u1", "u1")
	require.NoError(t, err)
	require.Equal(t, []string{"welcome", "first_habit"}, got.CompletedSteps)
	require.False(t, got.Completed)

	got.CompletedSteps = append(got.CompletedSteps, "notifications")
	got.Completed = true
	got.Meta.Touch(created.Add(time.Hour))
	require.NoError(t, repo.Upsert(ctx, "u1", got))

	again, err := repo.Get(ctx, "u1", "u1")
	require.NoError(t, err)
	require.True(t, again.Completed)
	require.Len(t, again.CompletedSteps, 3)
}
