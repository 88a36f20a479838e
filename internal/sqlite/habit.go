package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mwestre/cadence/internal/domain/habit"
	"github.com/mwestre/cadence/internal/repository"
)

// HabitRepository implements habit.Repository and the sync local-store port
// for habits.
type HabitRepository struct {
	db *DB
}

// NewHabitRepository creates a new HabitRepository
func NewHabitRepository(db *DB) *HabitRepository {
	return &HabitRepository{db: db}
}

const habitColumns = `
	id, name, description, category, icon, session_target, session_unit,
	repeat, period, notif, challenge, built_in,
	created_at, updated_at, deleted_at, pending_sync, synced_at
`

// Get retrieves a habit by id, tombstoned rows included.
func (r *HabitRepository) Get(ctx context.Context, uid, id string) (*habit.Habit, error) {
	query := `SELECT ` + habitColumns + ` FROM habits WHERE user_id = ? AND id = ?`
	h, err := scanHabit(r.db.QueryRowContext(ctx, query, uid, id))
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get habit: %w", err)
	}
	return h, nil
}

// Upsert inserts or replaces the habit row.
func (r *HabitRepository) Upsert(ctx context.Context, uid string, h *habit.Habit) error {
	repeatJSON, err := json.Marshal(h.Repeat)
	if err != nil {
		return fmt.Errorf("failed to encode repeat: %w", err)
	}
	notifJSON, err := json.Marshal(h.Notif)
	if err != nil {
		return fmt.Errorf("failed to encode notif config: %w", err)
	}
	periodJSON, err := encodeOptional(h.Period)
	if err != nil {
		return fmt.Errorf("failed to encode period: %w", err)
	}
	challengeJSON, err := encodeOptional(h.Challenge)
	if err != nil {
		return fmt.Errorf("failed to encode challenge: %w", err)
	}

	query := `
		INSERT INTO habits (
			user_id, id, name, description, category, icon,
			session_target, session_unit, repeat, period, notif, challenge,
			built_in, created_at, updated_at, deleted_at, pending_sync, synced_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			category = excluded.category,
			icon = excluded.icon,
			session_target = excluded.session_target,
			session_unit = excluded.session_unit,
			repeat = excluded.repeat,
			period = excluded.period,
			notif = excluded.notif,
			challenge = excluded.challenge,
			built_in = excluded.built_in,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			deleted_at = excluded.deleted_at,
			pending_sync = excluded.pending_sync,
			synced_at = excluded.synced_at
	`
	_, err = r.db.ExecContext(ctx, query,
		uid, h.ID, h.Name, h.Description, h.Category, h.Icon,
		h.Session.Target, h.Session.Unit,
		string(repeatJSON), periodJSON, string(notifJSON), challengeJSON,
		h.BuiltIn, h.Meta.CreatedAt, h.Meta.UpdatedAt,
		nullableTime(h.Meta.DeletedAt), h.Meta.PendingSync, nullableTime(h.Meta.SyncedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert habit: %w", err)
	}
	return nil
}

// ListActive returns non-tombstoned habits.
func (r *HabitRepository) ListActive(ctx context.Context, uid string) ([]*habit.Habit, error) {
	query := `SELECT ` + habitColumns + ` FROM habits WHERE user_id = ? AND deleted_at IS NULL ORDER BY created_at`
	return r.queryHabits(ctx, query, uid)
}

// FindPendingSync returns habits with unpushed local changes.
func (r *HabitRepository) FindPendingSync(ctx context.Context, uid string) ([]*habit.Habit, error) {
	query := `SELECT ` + habitColumns + ` FROM habits WHERE user_id = ? AND pending_sync = 1 ORDER BY updated_at`
	return r.queryHabits(ctx, query, uid)
}

// MarkSynced clears the pending flag and records the push instant.
func (r *HabitRepository) MarkSynced(ctx context.Context, uid, id string, at time.Time) error {
	query := `UPDATE habits SET pending_sync = 0, synced_at = ? WHERE user_id = ? AND id = ?`
	if _, err := r.db.ExecContext(ctx, query, at, uid, id); err != nil {
		return fmt.Errorf("failed to mark habit synced: %w", err)
	}
	return nil
}

// Delete removes the habit row permanently.
func (r *HabitRepository) Delete(ctx context.Context, uid, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM habits WHERE user_id = ? AND id = ?`, uid, id)
	if err != nil {
		return fmt.Errorf("failed to delete habit: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *HabitRepository) queryHabits(ctx context.Context, query string, args ...any) ([]*habit.Habit, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query habits: %w", err)
	}
	defer rows.Close()

	var habits []*habit.Habit
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan habit: %w", err)
		}
		habits = append(habits, h)
	}
	return habits, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHabit(row rowScanner) (*habit.Habit, error) {
	var (
		h             habit.Habit
		repeatJSON    string
		notifJSON     string
		periodJSON    sql.NullString
		challengeJSON sql.NullString
		deletedAt     sql.NullTime
		syncedAt      sql.NullTime
	)
	err := row.Scan(
		&h.ID, &h.Name, &h.Description, &h.Category, &h.Icon,
		&h.Session.Target, &h.Session.Unit,
		&repeatJSON, &periodJSON, &notifJSON, &challengeJSON, &h.BuiltIn,
		&h.Meta.CreatedAt, &h.Meta.UpdatedAt, &deletedAt, &h.Meta.PendingSync, &syncedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(repeatJSON), &h.Repeat); err != nil {
		return nil, fmt.Errorf("failed to decode repeat: %w", err)
	}
	if err := json.Unmarshal([]byte(notifJSON), &h.Notif); err != nil {
		return nil, fmt.Errorf("failed to decode notif config: %w", err)
	}
	if periodJSON.Valid {
		h.Period = &habit.Period{}
		if err := json.Unmarshal([]byte(periodJSON.String), h.Period); err != nil {
			return nil, fmt.Errorf("failed to decode period: %w", err)
		}
	}
	if challengeJSON.Valid {
		h.Challenge = &habit.Challenge{}
		if err := json.Unmarshal([]byte(challengeJSON.String), h.Challenge); err != nil {
			return nil, fmt.Errorf("failed to decode challenge: %w", err)
		}
	}
	h.Meta.DeletedAt = timePtr(deletedAt)
	h.Meta.SyncedAt = timePtr(syncedAt)
	return &h, nil
}

func encodeOptional[T any](p *T) (sql.NullString, error) {
	if p == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func nullableTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
