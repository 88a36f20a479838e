package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mwestre/cadence/internal/domain/wellness"
	"github.com/mwestre/cadence/internal/syncmeta"
)

func TestEmotionRepository_Roundtrip(t *testing.T) {
	db := NewTestDB(t)
	repo := NewEmotionRepository(db)
	ctx := context.Background()

	recorded := time.Date(2024, time.March, 2, 21, 30, 0, 0, time.UTC)
	e := &wellness.EmotionEntry{
		ID:         "e1",
		Mood:       "calm",
		Intensity:  4,
		Note:       "evening walk helped",
		RecordedAt: recorded,
		Meta:       syncmeta.New(recorded),
	}
	require.NoError(t, repo.Upsert(ctx, "u1", e))

	got, err := repo.Get(ctx, "u1", "e1")
	require.NoError(t, err)
	require.Equal(t, "calm", got.Mood)
	require.Equal(t, 4, got.Intensity)
	require.True(t, got.RecordedAt.Equal(recorded))
	require.True(t, got.Meta.PendingSync)
}

func TestEmotionRepository_PendingSyncLifecycle(t *testing.T) {
	db := NewTestDB(t)
	repo := NewEmotionRepository(db)
	ctx := context.Background()

	recorded := time.Date(2024, time.March, 2, 21, 30, 0, 0, time.UTC)
	require.NoError(t, repo.Upsert(ctx, "u1", &wellness.EmotionEntry{
		ID:         "e1",
		Mood:       "tired",
		RecordedAt: recorded,
		Meta:       syncmeta.New(recorded),
	}))

	pending, err := repo.FindPendingSync(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, pending, 1)

	require.NoError(t, repo.MarkSynced(ctx, "u1", "e1", recorded.Add(time.Minute)))

	pending, err = repo.FindPendingSync(ctx, "u1")
	require.NoError(t, err)
	require.Empty(t, pending)
}
