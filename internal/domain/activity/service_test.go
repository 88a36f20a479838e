package activity_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mwestre/cadence/internal/domain/activity"
	"github.com/mwestre/cadence/internal/domain/habit"
	"github.com/mwestre/cadence/internal/repository"
	"github.com/mwestre/cadence/internal/repository/mocks"
	"github.com/mwestre/cadence/internal/syncmeta"
)

func TestEnsureForDate_GeneratesMissingInstances(t *testing.T) {
	ctx := context.Background()
	acts := &mocks.ActivityRepository{}
	habits := &mocks.HabitRepository{}

	created := time.Date(2024, time.March, 1, 7, 0, 0, 0, time.UTC)
	h := challengeHabit(created, habit.ClockTime{Hour: 8}, habit.ClockTime{Hour: 20})
	date := time.Date(2024, time.March, 2, 0, 0, 0, 0, time.UTC)

	habits.On("ListActive", ctx, "u1").Return([]*habit.Habit{h}, nil)
	acts.On("CountByHabitAndDate", ctx, "u1", "h1", date).Return(0, nil)
	acts.On("InsertIgnore", ctx, "u1", mock.MatchedBy(func(got []*activity.Activity) bool {
		return len(got) == 2 && got[0].SlotKey() == "08:00" && got[1].SlotKey() == "20:00"
	})).Return(nil)

	svc := activity.NewService(acts, habits, nil)
	require.NoError(t, svc.EnsureForDate(ctx, "u1", date))
	acts.AssertExpectations(t)
}

func TestEnsureForDate_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	acts := &mocks.ActivityRepository{}
	habits := &mocks.HabitRepository{}

	created := time.Date(2024, time.March, 1, 7, 0, 0, 0, time.UTC)
	h := challengeHabit(created, habit.ClockTime{Hour: 8}, habit.ClockTime{Hour: 20})
	date := time.Date(2024, time.March, 2, 0, 0, 0, 0, time.UTC)

	habits.On("ListActive", ctx, "u1").Return([]*habit.Habit{h}, nil)
	// The full set already exists, so nothing gets inserted.
	acts.On("CountByHabitAndDate", ctx, "u1", "h1", date).Return(2, nil)

	svc := activity.NewService(acts, habits, nil)
	require.NoError(t, svc.EnsureForDate(ctx, "u1", date))
	acts.AssertNotCalled(t, "InsertIgnore", ctx, "u1", mock.Anything)
}

func TestEnsureForDate_CreationDaySkipsPassedSlots(t *testing.T) {
	ctx := context.Background()
	acts := &mocks.ActivityRepository{}
	habits := &mocks.HabitRepository{}

	// Habit created at 12:30; the 08:00 slot already passed, only 20:00
	// should be generated for that first day.
	created := time.Date(2024, time.March, 2, 12, 30, 0, 0, time.UTC)
	h := challengeHabit(created, habit.ClockTime{Hour: 8}, habit.ClockTime{Hour: 20})
	date := time.Date(2024, time.March, 2, 0, 0, 0, 0, time.UTC)

	habits.On("ListActive", ctx, "u1").Return([]*habit.Habit{h}, nil)
	acts.On("CountByHabitAndDate", ctx, "u1", "h1", date).Return(0, nil)
	acts.On("InsertIgnore", ctx, "u1", mock.MatchedBy(func(got []*activity.Activity) bool {
		return len(got) == 1 && got[0].SlotKey() == "20:00"
	})).Return(nil)

	svc := activity.NewService(acts, habits, nil)
	require.NoError(t, svc.EnsureForDate(ctx, "u1", date))
	acts.AssertExpectations(t)
}

func TestRefreshForDate_WritesOnlyChangedStatuses(t *testing.T) {
	ctx := context.Background()
	acts := &mocks.ActivityRepository{}

	date := time.Date(2024, time.March, 2, 0, 0, 0, 0, time.UTC)
	now := date.Add(10 * time.Hour)
	opens := date.Add(8 * time.Hour)
	expires := date.AddDate(0, 0, 1)

	stale := &activity.Activity{
		ID: "a1", HabitID: "h1", Date: date,
		OpensAt: &opens, ExpiresAt: &expires,
		Status: activity.StatusPending,
		Meta:   syncmeta.New(date),
	}
	done := &activity.Activity{
		ID: "a2", HabitID: "h1", Date: date,
		OpensAt: &opens, ExpiresAt: &expires,
		Status: activity.StatusCompleted,
		Meta:   syncmeta.New(date),
	}

	acts.On("ListByDate", ctx, "u1", date).Return([]*activity.Activity{stale, done}, nil)
	acts.On("Upsert", ctx, "u1", mock.MatchedBy(func(got *activity.Activity) bool {
		return got.ID == "a1" && got.Status == activity.StatusAvailable && got.Meta.PendingSync
	})).Return(nil)

	svc := activity.NewService(acts, &mocks.HabitRepository{}, nil)
	require.NoError(t, svc.RefreshForDate(ctx, "u1", date, now))

	acts.AssertExpectations(t)
	acts.AssertNumberOfCalls(t, "Upsert", 1)
}

func TestRegisterProgress(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2024, time.March, 2, 0, 0, 0, 0, time.UTC)
	at := date.Add(9 * time.Hour)

	newRepo := func() *mocks.ActivityRepository {
		acts := &mocks.ActivityRepository{}
		a := &activity.Activity{
			ID: "a1", HabitID: "h1", Date: date,
			Status: activity.StatusAvailable, TargetQty: 250,
			Meta: syncmeta.New(date),
		}
		acts.On("Get", ctx, "u1", "a1").Return(a, nil)
		acts.On("Upsert", ctx, "u1", mock.Anything).Return(nil)
		return acts
	}

	t.Run("records completion", func(t *testing.T) {
		acts := newRepo()
		svc := activity.NewService(acts, &mocks.HabitRepository{}, nil)
		got, err := svc.RegisterProgress(ctx, "u1", "a1", 250, activity.StatusCompleted, at)
		require.NoError(t, err)
		require.Equal(t, activity.StatusCompleted, got.Status)
		require.Equal(t, 250.0, got.RecordedQty)
		require.Equal(t, at, *got.LoggedAt)
		require.True(t, got.Meta.PendingSync)
	})

	t.Run("clamps negative quantity", func(t *testing.T) {
		acts := newRepo()
		svc := activity.NewService(acts, &mocks.HabitRepository{}, nil)
		got, err := svc.RegisterProgress(ctx, "u1", "a1", -10, activity.StatusPartial, at)
		require.NoError(t, err)
		require.Equal(t, 0.0, got.RecordedQty)
	})

	t.Run("rejects non-loggable status", func(t *testing.T) {
		svc := activity.NewService(&mocks.ActivityRepository{}, &mocks.HabitRepository{}, nil)
		_, err := svc.RegisterProgress(ctx, "u1", "a1", 1, activity.StatusMissed, at)
		require.ErrorIs(t, err, activity.ErrInvalidStatus)
	})

	t.Run("unknown activity", func(t *testing.T) {
		acts := &mocks.ActivityRepository{}
		acts.On("Get", ctx, "u1", "nope").Return(nil, repository.ErrNotFound)
		svc := activity.NewService(acts, &mocks.HabitRepository{}, nil)
		_, err := svc.RegisterProgress(ctx, "u1", "nope", 1, activity.StatusCompleted, at)
		require.ErrorIs(t, err, activity.ErrActivityNotFound)
	})
}

func TestListForDate_FiltersTombstones(t *testing.T) {
	ctx := context.Background()
	acts := &mocks.ActivityRepository{}

	date := time.Date(2024, time.March, 2, 0, 0, 0, 0, time.UTC)
	live := &activity.Activity{ID: "a1", Status: activity.StatusAvailable, Meta: syncmeta.New(date)}
	dead := &activity.Activity{ID: "a2", Status: activity.StatusAvailable, Meta: syncmeta.New(date)}
	dead.Meta.Tombstone(date.Add(time.Hour))

	acts.On("ListByDate", ctx, "u1", date).Return([]*activity.Activity{live, dead}, nil)

	svc := activity.NewService(acts, &mocks.HabitRepository{}, nil)
	got, err := svc.ListForDate(ctx, "u1", date)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "a1", got[0].ID)
}
