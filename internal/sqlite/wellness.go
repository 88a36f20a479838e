package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mwestre/cadence/internal/domain/wellness"
	"github.com/mwestre/cadence/internal/repository"
)

// EmotionRepository is the local store for mood journal entries.
type EmotionRepository struct {
	db *DB
}

// NewEmotionRepository creates a new EmotionRepository
func NewEmotionRepository(db *DB) *EmotionRepository {
	return &EmotionRepository{db: db}
}

const emotionColumns = `
	id, mood, intensity, note, recorded_at,
	created_at, updated_at, deleted_at, pending_sync, synced_at
`

func (r *EmotionRepository) Get(ctx context.Context, uid, id string) (*wellness.EmotionEntry, error) {
	query := `SELECT ` + emotionColumns + ` FROM emotions WHERE user_id = ? AND id = ?`
	e, err := scanEmotion(r.db.QueryRowContext(ctx, query, uid, id))
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get emotion entry: %w", err)
	}
	return e, nil
}

func (r *EmotionRepository) Upsert(ctx context.Context, uid string, e *wellness.EmotionEntry) error {
	query := `
		INSERT INTO emotions (
			user_id, id, mood, intensity, note, recorded_at,
			created_at, updated_at, deleted_at, pending_sync, synced_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, id) DO UPDATE SET
			mood = excluded.mood,
			intensity = excluded.intensity,
			note = excluded.note,
			recorded_at = excluded.recorded_at,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			deleted_at = excluded.deleted_at,
			pending_sync = excluded.pending_sync,
			synced_at = excluded.synced_at
	`
	_, err := r.db.ExecContext(ctx, query,
		uid, e.ID, e.Mood, e.Intensity, e.Note, e.RecordedAt,
		e.Meta.CreatedAt, e.Meta.UpdatedAt,
		nullableTime(e.Meta.DeletedAt), e.Meta.PendingSync, nullableTime(e.Meta.SyncedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert emotion entry: %w", err)
	}
	return nil
}

func (r *EmotionRepository) FindPendingSync(ctx context.Context, uid string) ([]*wellness.EmotionEntry, error) {
	query := `SELECT ` + emotionColumns + ` FROM emotions WHERE user_id = ? AND pending_sync = 1 ORDER BY updated_at`
	rows, err := r.db.QueryContext(ctx, query, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to query emotion entries: %w", err)
	}
	defer rows.Close()

	var entries []*wellness.EmotionEntry
	for rows.Next() {
		e, err := scanEmotion(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan emotion entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *EmotionRepository) MarkSynced(ctx context.Context, uid, id string, at time.Time) error {
	query := `UPDATE emotions SET pending_sync = 0, synced_at = ? WHERE user_id = ? AND id = ?`
	if _, err := r.db.ExecContext(ctx, query, at, uid, id); err != nil {
		return fmt.Errorf("failed to mark emotion entry synced: %w", err)
	}
	return nil
}

func scanEmotion(row rowScanner) (*wellness.EmotionEntry, error) {
	var (
		e         wellness.EmotionEntry
		deletedAt sql.NullTime
		syncedAt  sql.NullTime
	)
	err := row.Scan(
		&e.ID, &e.Mood, &e.Intensity, &e.Note, &e.RecordedAt,
		&e.Meta.CreatedAt, &e.Meta.UpdatedAt, &deletedAt, &e.Meta.PendingSync, &syncedAt,
	)
	if err != nil {
		return nil, err
	}
	e.Meta.DeletedAt = timePtr(deletedAt)
	e.Meta.SyncedAt = timePtr(syncedAt)
	return &e, nil
}
