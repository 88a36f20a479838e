package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mwestre/cadence/internal/domain/habit"
	"github.com/mwestre/cadence/internal/repository"
	"github.com/mwestre/cadence/internal/syncmeta"
)

func testHabit(id string, created time.Time) *habit.Habit {
	return &habit.Habit{
		ID:          id,
		Name:        "Drink water",
		Description: "Stay hydrated",
		Category:    "health",
		Session:     habit.Session{Target: 250, Unit: "ml"},
		Repeat:      habit.Repeat{Kind: habit.RepeatDaily, Every: 1},
		Notif: habit.NotifConfig{
			Enabled: true,
			Times:   []habit.ClockTime{{Hour: 8}, {Hour: 20}},
			Message: "time to drink",
		},
		Challenge: &habit.Challenge{
			StartsAt: created,
			EndsAt:   created.AddDate(0, 1, 0),
		},
		Meta: syncmeta.New(created),
	}
}

func TestHabitRepository_UpsertAndGet(t *testing.T) {
	db := NewTestDB(t)
	repo := NewHabitRepository(db)
	ctx := context.Background()

	created := time.Date(2024, time.March, 1, 7, 0, 0, 0, time.UTC)
	h := testHabit("h1", created)
	require.NoError(t, repo.Upsert(ctx, "u1", h))

	got, err := repo.Get(ctx, "u1", "h1")
	require.NoError(t, err)
	require.Equal(t, h.Name, got.Name)
	require.Equal(t, h.Repeat, got.Repeat)
	require.Equal(t, h.Notif.Times, got.Notif.Times)
	require.NotNil(t, got.Challenge)
	require.True(t, got.Challenge.EndsAt.Equal(h.Challenge.EndsAt))
	require.True(t, got.Meta.PendingSync)
	require.Nil(t, got.Meta.SyncedAt)
}

func TestHabitRepository_GetNotFound(t *testing.T) {
	db := NewTestDB(t)
	repo := NewHabitRepository(db)

	_, err := repo.Get(context.Background(), "u1", "missing")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestHabitRepository_GetIsScopedToUser(t *testing.T) {
	db := NewTestDB(t)
	repo := NewHabitRepository(db)
	ctx := context.Background()

	created := time.Date(2024, time.March, 1, 7, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Upsert(ctx, "u1", testHabit("h1", created)))

	_, err := repo.Get(ctx, "u2", "h1")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestHabitRepository_UpsertReplacesRow(t *testing.T) {
	db := NewTestDB(t)
	repo := NewHabitRepository(db)
	ctx := context.Background()

	created := time.Date(2024, time.March, 1, 7, 0, 0, 0, time.UTC)
	h := testHabit("h1", created)
	require.NoError(t, repo.Upsert(ctx, "u1", h))

	h.Name = "Drink more water"
	h.Meta.Touch(created.Add(time.Hour))
	require.NoError(t, repo.Upsert(ctx, "u1", h))

	got, err := repo.Get(ctx, "u1", "h1")
	require.NoError(t, err)
	require.Equal(t, "Drink more water", got.Name)
	require.True(t, got.Meta.UpdatedAt.Equal(created.Add(time.Hour)))
}

func TestHabitRepository_ListActiveExcludesTombstones(t *testing.T) {
	db := NewTestDB(t)
	repo := NewHabitRepository(db)
	ctx := context.Background()

	created := time.Date(2024, time.March, 1, 7, 0, 0, 0, time.UTC)
	live := testHabit("h1", created)
	dead := testHabit("h2", created.Add(time.Minute))
	dead.Meta.Tombstone(created.Add(time.Hour))

	require.NoError(t, repo.Upsert(ctx, "u1", live))
	require.NoError(t, repo.Upsert(ctx, "u1", dead))

	got, err := repo.ListActive(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "h1", got[0].ID)

	// The tombstoned row is still reachable by id for sync purposes.
	gone, err := repo.Get(ctx, "u1", "h2")
	require.NoError(t, err)
	require.True(t, gone.Meta.Deleted())
}

func TestHabitRepository_PendingSyncLifecycle(t *testing.T) {
	db := NewTestDB(t)
	repo := NewHabitRepository(db)
	ctx := context.Background()

	created := time.Date(2024, time.March, 1, 7, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Upsert(ctx, "u1", testHabit("h1", created)))

	pending, err := repo.FindPendingSync(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, pending, 1)

	syncedAt := created.Add(2 * time.Hour)
	require.NoError(t, repo.MarkSynced(ctx, "u1", "h1", syncedAt))

	pending, err = repo.FindPendingSync(ctx, "u1")
	require.NoError(t, err)
	require.Empty(t, pending)

	got, err := repo.Get(ctx, "u1", "h1")
	require.NoError(t, err)
	require.False(t, got.Meta.PendingSync)
	require.NotNil(t, got.Meta.SyncedAt)
}

func TestHabitRepository_Delete(t *testing.T) {
	db := NewTestDB(t)
	repo := NewHabitRepository(db)
	ctx := context.Background()

	created := time.Date(2024, time.March, 1, 7, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Upsert(ctx, "u1", testHabit("h1", created)))

	require.NoError(t, repo.Delete(ctx, "u1", "h1"))
	_, err := repo.Get(ctx, "u1", "h1")
	require.ErrorIs(t, err, repository.ErrNotFound)

	require.ErrorIs(t, repo.Delete(ctx, "u1", "h1"), repository.ErrNotFound)
}
