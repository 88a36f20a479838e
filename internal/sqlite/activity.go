package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mwestre/cadence/internal/domain/activity"
	"github.com/mwestre/cadence/internal/domain/habit"
	"github.com/mwestre/cadence/internal/repository"
)

const dateLayout = "2006-01-02"

// ActivityRepository implements activity.Repository and the sync local-store
// port for activities.
type ActivityRepository struct {
	db *DB
}

// NewActivityRepository creates a new ActivityRepository
func NewActivityRepository(db *DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

const activityColumns = `
	id, habit_id, activity_date, scheduled_time, opens_at, expires_at,
	status, target_qty, recorded_qty, session_unit, logged_at, generated_at,
	created_at, updated_at, deleted_at, pending_sync, synced_at
`

// Get retrieves an activity by id.
func (r *ActivityRepository) Get(ctx context.Context, uid, id string) (*activity.Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activities WHERE user_id = ? AND id = ?`
	a, err := scanActivity(r.db.QueryRowContext(ctx, query, uid, id))
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}
	return a, nil
}

// Upsert inserts or replaces the activity row by id.
func (r *ActivityRepository) Upsert(ctx context.Context, uid string, a *activity.Activity) error {
	query := `
		INSERT INTO activities (
			user_id, id, habit_id, activity_date, scheduled_time,
			opens_at, expires_at, status, target_qty, recorded_qty, session_unit,
			logged_at, generated_at, created_at, updated_at, deleted_at, pending_sync, synced_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, id) DO UPDATE SET
			habit_id = excluded.habit_id,
			activity_date = excluded.activity_date,
			scheduled_time = excluded.scheduled_time,
			opens_at = excluded.opens_at,
			expires_at = excluded.expires_at,
			status = excluded.status,
			target_qty = excluded.target_qty,
			recorded_qty = excluded.recorded_qty,
			session_unit = excluded.session_unit,
			logged_at = excluded.logged_at,
			generated_at = excluded.generated_at,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			deleted_at = excluded.deleted_at,
			pending_sync = excluded.pending_sync,
			synced_at = excluded.synced_at
	`
	_, err := r.db.ExecContext(ctx, query, activityArgs(uid, a)...)
	if err != nil {
		return fmt.Errorf("failed to upsert activity: %w", err)
	}
	return nil
}

// InsertIgnore inserts activities, silently skipping any whose
// (habit, date, slot) tuple already has a row. Re-running generation must
// never duplicate or overwrite user-modified instances.
func (r *ActivityRepository) InsertIgnore(ctx context.Context, uid string, acts []*activity.Activity) error {
	query := `
		INSERT OR IGNORE INTO activities (
			user_id, id, habit_id, activity_date, scheduled_time,
			opens_at, expires_at, status, target_qty, recorded_qty, session_unit,
			logged_at, generated_at, created_at, updated_at, deleted_at, pending_sync, synced_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for _, a := range acts {
		if _, err := r.db.ExecContext(ctx, query, activityArgs(uid, a)...); err != nil {
			return fmt.Errorf("failed to insert activity: %w", err)
		}
	}
	return nil
}

// ListByDate returns all of a date's activities, tombstoned rows included.
func (r *ActivityRepository) ListByDate(ctx context.Context, uid string, date time.Time) ([]*activity.Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activities
		WHERE user_id = ? AND activity_date = ? ORDER BY scheduled_time`
	return r.queryActivities(ctx, query, uid, habit.DateOf(date).Format(dateLayout))
}

// CountByHabitAndDate counts live instances for one habit on one date.
func (r *ActivityRepository) CountByHabitAndDate(ctx context.Context, uid, habitID string, date time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM activities
		WHERE user_id = ? AND habit_id = ? AND activity_date = ? AND deleted_at IS NULL`
	var n int
	err := r.db.QueryRowContext(ctx, query, uid, habitID, habit.DateOf(date).Format(dateLayout)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count activities: %w", err)
	}
	return n, nil
}

// DeleteByHabit removes all of a habit's activities (hard-delete cascade).
func (r *ActivityRepository) DeleteByHabit(ctx context.Context, uid, habitID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM activities WHERE user_id = ? AND habit_id = ?`, uid, habitID); err != nil {
		return fmt.Errorf("failed to delete activities: %w", err)
	}
	return nil
}

// FindPendingSync returns activities with unpushed local changes.
func (r *ActivityRepository) FindPendingSync(ctx context.Context, uid string) ([]*activity.Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activities WHERE user_id = ? AND pending_sync = 1 ORDER BY updated_at`
	return r.queryActivities(ctx, query, uid)
}

// MarkSynced clears the pending flag and records the push instant.
func (r *ActivityRepository) MarkSynced(ctx context.Context, uid, id string, at time.Time) error {
	query := `UPDATE activities SET pending_sync = 0, synced_at = ? WHERE user_id = ? AND id = ?`
	if _, err := r.db.ExecContext(ctx, query, at, uid, id); err != nil {
		return fmt.Errorf("failed to mark activity synced: %w", err)
	}
	return nil
}

func (r *ActivityRepository) queryActivities(ctx context.Context, query string, args ...any) ([]*activity.Activity, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	defer rows.Close()

	var acts []*activity.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		acts = append(acts, a)
	}
	return acts, rows.Err()
}

func activityArgs(uid string, a *activity.Activity) []any {
	slot := ""
	if a.ScheduledTime != nil {
		slot = a.ScheduledTime.String()
	}
	return []any{
		uid, a.ID, a.HabitID, a.Date.Format(dateLayout), slot,
		nullableTime(a.OpensAt), nullableTime(a.ExpiresAt),
		string(a.Status), a.TargetQty, a.RecordedQty, a.SessionUnit,
		nullableTime(a.LoggedAt), a.GeneratedAt,
		a.Meta.CreatedAt, a.Meta.UpdatedAt,
		nullableTime(a.Meta.DeletedAt), a.Meta.PendingSync, nullableTime(a.Meta.SyncedAt),
	}
}

func scanActivity(row rowScanner) (*activity.Activity, error) {
	var (
		a         activity.Activity
		dateStr   string
		slot      string
		opensAt   sql.NullTime
		expiresAt sql.NullTime
		status    string
		loggedAt  sql.NullTime
		deletedAt sql.NullTime
		syncedAt  sql.NullTime
	)
	err := row.Scan(
		&a.ID, &a.HabitID, &dateStr, &slot, &opensAt, &expiresAt,
		&status, &a.TargetQty, &a.RecordedQty, &a.SessionUnit, &loggedAt, &a.GeneratedAt,
		&a.Meta.CreatedAt, &a.Meta.UpdatedAt, &deletedAt, &a.Meta.PendingSync, &syncedAt,
	)
	if err != nil {
		return nil, err
	}

	date, err := time.Parse(dateLayout, dateStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse activity date: %w", err)
	}
	a.Date = date
	if slot != "" {
		ct, err := habit.ParseClock(slot)
		if err != nil {
			return nil, fmt.Errorf("failed to parse scheduled time: %w", err)
		}
		a.ScheduledTime = &ct
	}
	a.Status = activity.Status(status)
	a.OpensAt = timePtr(opensAt)
	a.ExpiresAt = timePtr(expiresAt)
	a.LoggedAt = timePtr(loggedAt)
	a.Meta.DeletedAt = timePtr(deletedAt)
	a.Meta.SyncedAt = timePtr(syncedAt)
	return &a, nil
}
