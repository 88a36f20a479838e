package habit_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mwestre/cadence/internal/domain/habit"
	"github.com/mwestre/cadence/internal/repository/mocks"
	"github.com/mwestre/cadence/internal/syncmeta"
)

func strPtr(s string) *string { return &s }

func TestHabitService_Create(t *testing.T) {
	ctx := context.Background()
	habits := &mocks.HabitRepository{}
	acts := &mocks.ActivityRepository{}
	planner := &mocks.NotificationPlanner{}

	habits.On("Upsert", ctx, "u1", mock.Anything).Return(nil)
	planner.On("Replan", ctx, mock.Anything).Return(nil)

	svc := habit.NewService(habits, acts, planner, nil)
	h, err := svc.Create(ctx, "u1", habit.CreateRequest{
		Name:   "Meditate",
		Repeat: habit.Repeat{Kind: habit.RepeatDaily, Every: 1},
		Notif:  habit.NotifConfig{Enabled: true, Times: []habit.ClockTime{{Hour: 8}}},
	})
	require.NoError(t, err)
	require.NotEmpty(t, h.ID)
	require.True(t, h.Meta.PendingSync)
	planner.AssertCalled(t, "Replan", ctx, mock.Anything)
}

func TestHabitService_Create_InvalidRepeat(t *testing.T) {
	ctx := context.Background()
	svc := habit.NewService(&mocks.HabitRepository{}, &mocks.ActivityRepository{}, nil, nil)

	_, err := svc.Create(ctx, "u1", habit.CreateRequest{
		Name:   "Broken",
		Repeat: habit.Repeat{Kind: habit.RepeatDaily, Every: 0},
	})
	require.ErrorIs(t, err, habit.ErrInvalidRepeat)
}

func TestHabitService_Update_ChallengeLocksEdits(t *testing.T) {
	ctx := context.Background()
	habits := &mocks.HabitRepository{}
	now := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

	locked := &habit.Habit{
		ID:        "h1",
		Name:      "Run",
		Repeat:    habit.Repeat{Kind: habit.RepeatDaily, Every: 1},
		Challenge: &habit.Challenge{StartsAt: now, EndsAt: now.AddDate(0, 1, 0)},
		Meta:      syncmeta.New(now),
	}
	habits.On("Get", ctx, "u1", "h1").Return(locked, nil)

	svc := habit.NewService(habits, &mocks.ActivityRepository{}, nil, nil)
	_, err := svc.Update(ctx, "u1", habit.UpdateRequest{ID: "h1", Name: strPtr("Sprint")})
	require.ErrorIs(t, err, habit.ErrChallengeLocked)
}

func TestHabitService_Update_ChallengeAllowsNotifChanges(t *testing.T) {
	ctx := context.Background()
	habits := &mocks.HabitRepository{}
	planner := &mocks.NotificationPlanner{}
	now := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

	locked := &habit.Habit{
		ID:        "h1",
		Name:      "Run",
		Repeat:    habit.Repeat{Kind: habit.RepeatDaily, Every: 1},
		Challenge: &habit.Challenge{StartsAt: now, EndsAt: now.AddDate(0, 1, 0)},
		Meta:      syncmeta.New(now),
	}
	habits.On("Get", ctx, "u1", "h1").Return(locked, nil)
	habits.On("Upsert", ctx, "u1", mock.Anything).Return(nil)
	planner.On("Replan", ctx, mock.Anything).Return(nil)

	svc := habit.NewService(habits, &mocks.ActivityRepository{}, planner, nil)
	h, err := svc.Update(ctx, "u1", habit.UpdateRequest{
		ID:    "h1",
		Notif: &habit.NotifConfig{Enabled: false},
	})
	require.NoError(t, err)
	require.False(t, h.Notif.Enabled)
	require.True(t, h.Meta.PendingSync)
}

func TestHabitService_Update_BuiltInImmutable(t *testing.T) {
	ctx := context.Background()
	habits := &mocks.HabitRepository{}
	now := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

	tpl := &habit.Habit{ID: "tpl", Name: "Template", BuiltIn: true, Meta: syncmeta.New(now)}
	habits.On("Get", ctx, "u1", "tpl").Return(tpl, nil)

	svc := habit.NewService(habits, &mocks.ActivityRepository{}, nil, nil)
	_, err := svc.Update(ctx, "u1", habit.UpdateRequest{ID: "tpl", Name: strPtr("Mine")})
	require.ErrorIs(t, err, habit.ErrBuiltInImmutable)
}

func TestHabitService_Instantiate_CopiesTemplate(t *testing.T) {
	ctx := context.Background()
	habits := &mocks.HabitRepository{}
	planner := &mocks.NotificationPlanner{}
	now := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

	tpl := &habit.Habit{
		ID:      "tpl",
		Name:    "Drink water",
		Repeat:  habit.Repeat{Kind: habit.RepeatDaily, Every: 1},
		BuiltIn: true,
		Meta:    syncmeta.New(now),
	}
	habits.On("Get", ctx, "u1", "tpl").Return(tpl, nil)
	habits.On("Upsert", ctx, "u1", mock.Anything).Return(nil)
	planner.On("Replan", ctx, mock.Anything).Return(nil)

	svc := habit.NewService(habits, &mocks.ActivityRepository{}, planner, nil)
	h, err := svc.Instantiate(ctx, "u1", "tpl")
	require.NoError(t, err)
	require.NotEqual(t, tpl.ID, h.ID)
	require.False(t, h.BuiltIn)
	require.Equal(t, "Drink water", h.Name)
	require.True(t, h.Meta.PendingSync)
}

func TestHabitService_Delete_NeverSyncedIsHardDelete(t *testing.T) {
	ctx := context.Background()
	habits := &mocks.HabitRepository{}
	acts := &mocks.ActivityRepository{}
	planner := &mocks.NotificationPlanner{}
	now := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

	h := &habit.Habit{ID: "h1", Name: "Run", Meta: syncmeta.New(now)}
	habits.On("Get", ctx, "u1", "h1").Return(h, nil)
	acts.On("DeleteByHabit", ctx, "u1", "h1").Return(nil)
	habits.On("Delete", ctx, "u1", "h1").Return(nil)
	planner.On("Replan", ctx, mock.Anything).Return(nil)

	svc := habit.NewService(habits, acts, planner, nil)
	require.NoError(t, svc.Delete(ctx, "u1", "h1"))

	habits.AssertCalled(t, "Delete", ctx, "u1", "h1")
	acts.AssertCalled(t, "DeleteByHabit", ctx, "u1", "h1")
	habits.AssertNotCalled(t, "Upsert", ctx, "u1", mock.Anything)
}

func TestHabitService_Delete_SyncedIsTombstoned(t *testing.T) {
	ctx := context.Background()
	habits := &mocks.HabitRepository{}
	planner := &mocks.NotificationPlanner{}
	now := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

	h := &habit.Habit{ID: "h1", Name: "Run", Meta: syncmeta.New(now)}
	synced := now.Add(time.Hour)
	h.Meta.SyncedAt = &synced
	h.Meta.PendingSync = false

	habits.On("Get", ctx, "u1", "h1").Return(h, nil)
	habits.On("Upsert", ctx, "u1", mock.MatchedBy(func(got *habit.Habit) bool {
		return got.Meta.Deleted() && got.Meta.PendingSync
	})).Return(nil)
	planner.On("Replan", ctx, mock.Anything).Return(nil)

	svc := habit.NewService(habits, &mocks.ActivityRepository{}, planner, nil)
	require.NoError(t, svc.Delete(ctx, "u1", "h1"))

	habits.AssertNotCalled(t, "Delete", ctx, "u1", "h1")
}
