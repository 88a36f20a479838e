package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mwestre/cadence/internal/domain/profile"
	"github.com/mwestre/cadence/internal/repository"
)

// ProfileRepository is the local store for user profiles.
type ProfileRepository struct {
	db *DB
}

// NewProfileRepository creates a new ProfileRepository
func NewProfileRepository(db *DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) Get(ctx context.Context, uid, id string) (*profile.UserProfile, error) {
	query := `SELECT id, display_name, avatar_url, timezone,
		created_at, updated_at, deleted_at, pending_sync, synced_at
		FROM profiles WHERE user_id = ? AND id = ?`
	var (
		p         profile.UserProfile
		deletedAt sql.NullTime
		syncedAt  sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, uid, id).Scan(
		&p.ID, &p.DisplayName, &p.AvatarURL, &p.Timezone,
		&p.Meta.CreatedAt, &p.Meta.UpdatedAt, &deletedAt, &p.Meta.PendingSync, &syncedAt,
	)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	p.Meta.DeletedAt = timePtr(deletedAt)
	p.Meta.SyncedAt = timePtr(syncedAt)
	return &p, nil
}

func (r *ProfileRepository) Upsert(ctx context.Context, uid string, p *profile.UserProfile) error {
	query := `
		INSERT INTO profiles (
			user_id, id, display_name, avatar_url, timezone,
			created_at, updated_at, deleted_at, pending_sync, synced_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, id) DO UPDATE SET
			display_name = excluded.display_name,
			avatar_url = excluded.avatar_url,
			timezone = excluded.timezone,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			deleted_at = excluded.deleted_at,
			pending_sync = excluded.pending_sync,
			synced_at = excluded.synced_at
	`
	_, err := r.db.ExecContext(ctx, query,
		uid, p.ID, p.DisplayName, p.AvatarURL, p.Timezone,
		p.Meta.CreatedAt, p.Meta.UpdatedAt,
		nullableTime(p.Meta.DeletedAt), p.Meta.PendingSync, nullableTime(p.Meta.SyncedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}

func (r *ProfileRepository) FindPendingSync(ctx context.Context, uid string) ([]*profile.UserProfile, error) {
	p, err := r.Get(ctx, uid, uid)
	if err == repository.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !p.Meta.PendingSync {
		return nil, nil
	}
	return []*profile.UserProfile{p}, nil
}

func (r *ProfileRepository) MarkSynced(ctx context.Context, uid, id string, at time.Time) error {
	query := `UPDATE profiles SET pending_sync = 0, synced_at = ? WHERE user_id = ? AND id = ?`
	if _, err := r.db.ExecContext(ctx, query, at, uid, id); err != nil {
		return fmt.Errorf("failed to mark profile synced: %w", err)
	}
	return nil
}

// AchievementRepository is the local store for unlocked achievements.
type AchievementRepository struct {
	db *DB
}

// NewAchievementRepository creates a new AchievementRepository
func NewAchievementRepository(db *DB) *AchievementRepository {
	return &AchievementRepository{db: db}
}

const achievementColumns = `
	id, code, unlocked_at, created_at, updated_at, deleted_at, pending_sync, synced_at
`

func (r *AchievementRepository) Get(ctx context.Context, uid, id string) (*profile.Achievement, error) {
	query := `SELECT ` + achievementColumns + ` FROM achievements WHERE user_id = ? AND id = ?`
	a, err := scanAchievement(r.db.QueryRowContext(ctx, query, uid, id))
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get achievement: %w", err)
	}
	return a, nil
}

func (r *AchievementRepository) Upsert(ctx context.Context, uid string, a *profile.Achievement) error {
	query := `
		INSERT INTO achievements (
			user_id, id, code, unlocked_at,
			created_at, updated_at, deleted_at, pending_sync, synced_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, id) DO UPDATE SET
			code = excluded.code,
			unlocked_at = excluded.unlocked_at,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			deleted_at = excluded.deleted_at,
			pending_sync = excluded.pending_sync,
			synced_at = excluded.synced_at
	`
	_, err := r.db.ExecContext(ctx, query,
		uid, a.ID, a.Code, a.UnlockedAt,
		a.Meta.CreatedAt, a.Meta.UpdatedAt,
		nullableTime(a.Meta.DeletedAt), a.Meta.PendingSync, nullableTime(a.Meta.SyncedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert achievement: %w", err)
	}
	return nil
}

func (r *AchievementRepository) FindPendingSync(ctx context.Context, uid string) ([]*profile.Achievement, error) {
	query := `SELECT ` + achievementColumns + ` FROM achievements WHERE user_id = ? AND pending_sync = 1 ORDER BY updated_at`
	rows, err := r.db.QueryContext(ctx, query, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to query achievements: %w", err)
	}
	defer rows.Close()

	var achievements []*profile.Achievement
	for rows.Next() {
		a, err := scanAchievement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan achievement: %w", err)
		}
		achievements = append(achievements, a)
	}
	return achievements, rows.Err()
}

func (r *AchievementRepository) MarkSynced(ctx context.Context, uid, id string, at time.Time) error {
	query := `UPDATE achievements SET pending_sync = 0, synced_at = ? WHERE user_id = ? AND id = ?`
	if _, err := r.db.ExecContext(ctx, query, at, uid, id); err != nil {
		return fmt.Errorf("failed to mark achievement synced: %w", err)
	}
	return nil
}

func scanAchievement(row rowScanner) (*profile.Achievement, error) {
	var (
		a         profile.Achievement
		deletedAt sql.NullTime
		syncedAt  sql.NullTime
	)
	err := row.Scan(
		&a.ID, &a.Code, &a.UnlockedAt,
		&a.Meta.CreatedAt, &a.Meta.UpdatedAt, &deletedAt, &a.Meta.PendingSync, &syncedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Meta.DeletedAt = timePtr(deletedAt)
	a.Meta.SyncedAt = timePtr(syncedAt)
	return &a, nil
}

// OnboardingRepository is the local store for onboarding progress.
type OnboardingRepository struct {
	db *DB
}

// NewOnboardingRepository creates a new OnboardingRepository
func NewOnboardingRepository(db *DB) *OnboardingRepository {
	return &OnboardingRepository{db: db}
}

func (r *OnboardingRepository) Get(ctx context.Context, uid, id string) (*profile.OnboardingState, error) {
	query := `SELECT id, completed_steps, completed,
		created_at, updated_at, deleted_at, pending_sync, synced_at
		FROM onboarding WHERE user_id = ? AND id = ?`
	var (
		o         profile.OnboardingState
		stepsJSON string
		deletedAt sql.NullTime
		syncedAt  sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, uid, id).Scan(
		&o.ID, &stepsJSON, &o.Completed,
		&o.Meta.CreatedAt, &o.Meta.UpdatedAt, &deletedAt, &o.Meta.PendingSync, &syncedAt,
	)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get onboarding state: %w", err)
	}
	if err := json.Unmarshal([]byte(stepsJSON), &o.CompletedSteps); err != nil {
		return nil, fmt.Errorf("failed to decode onboarding steps: %w", err)
	}
	o.Meta.DeletedAt = timePtr(deletedAt)
	o.Meta.SyncedAt = timePtr(syncedAt)
	return &o, nil
}

func (r *OnboardingRepository) Upsert(ctx context.Context, uid string, o *profile.OnboardingState) error {
	steps := o.CompletedSteps
	if steps == nil {
		steps = []string{}
	}
	stepsJSON, err := json.Marshal(steps)
	if err != nil {
		return fmt.Errorf("failed to encode onboarding steps: %w", err)
	}
	query := `
		INSERT INTO onboarding (
			user_id, id, completed_steps, completed,
			created_at, updated_at, deleted_at, pending_sync, synced_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, id) DO UPDATE SET
			completed_steps = excluded.completed_steps,
			completed = excluded.completed,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			deleted_at = excluded.deleted_at,
			pending_sync = excluded.pending_sync,
			synced_at = excluded.synced_at
	`
	_, err = r.db.ExecContext(ctx, query,
		uid, o.ID, string(stepsJSON), o.Completed,
		o.Meta.CreatedAt, o.Meta.UpdatedAt,
		nullableTime(o.Meta.DeletedAt), o.Meta.PendingSync, nullableTime(o.Meta.SyncedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert onboarding state: %w", err)
	}
	return nil
}

func (r *OnboardingRepository) FindPendingSync(ctx context.Context, uid string) ([]*profile.OnboardingState, error) {
	o, err := r.Get(ctx, uid, uid)
	if err == repository.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !o.Meta.PendingSync {
		return nil, nil
	}
	return []*profile.OnboardingState{o}, nil
}

func (r *OnboardingRepository) MarkSynced(ctx context.Context, uid, id string, at time.Time) error {
	query := `UPDATE onboarding SET pending_sync = 0, synced_at = ? WHERE user_id = ? AND id = ?`
	if _, err := r.db.ExecContext(ctx, query, at, uid, id); err != nil {
		return fmt.Errorf("failed to mark onboarding state synced: %w", err)
	}
	return nil
}
