package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps the device-local SQLite database, the single source of truth all
// reads and mutations go through.
type DB struct {
	*sql.DB
}

// New creates a new SQLite database connection
func New(dataSourceName string) (*DB, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return &DB{db}, nil
}

// Migrate creates the schema if it doesn't exist yet.
func (db *DB) Migrate() error {
	migration := `
-- Habit definitions. Structured configs (recurrence rule, notification
-- settings, challenge, period bound) are stored as JSON documents; queried
-- fields get their own columns.
CREATE TABLE IF NOT EXISTS habits (
    user_id TEXT NOT NULL,
    id TEXT NOT NULL,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    category TEXT NOT NULL DEFAULT '',
    icon TEXT NOT NULL DEFAULT '',
    session_target REAL NOT NULL DEFAULT 0,
    session_unit TEXT NOT NULL DEFAULT '',
    repeat TEXT NOT NULL,
    period TEXT,
    notif TEXT NOT NULL,
    challenge TEXT,
    built_in INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    deleted_at TIMESTAMP,
    pending_sync INTEGER NOT NULL DEFAULT 1,
    synced_at TIMESTAMP,
    PRIMARY KEY (user_id, id)
);
CREATE INDEX IF NOT EXISTS idx_habits_pending ON habits(user_id, pending_sync);

-- Generated activity instances. scheduled_time is '' for the unscheduled
-- slot rather than NULL, because NULLs are pairwise distinct inside a SQLite
-- unique index and would break the one-row-per-slot guarantee.
CREATE TABLE IF NOT EXISTS activities (
    user_id TEXT NOT NULL,
    id TEXT NOT NULL,
    habit_id TEXT NOT NULL,
    activity_date TEXT NOT NULL,
    scheduled_time TEXT NOT NULL DEFAULT '',
    opens_at TIMESTAMP,
    expires_at TIMESTAMP,
    status TEXT NOT NULL CHECK(status IN ('PENDING', 'AVAILABLE_FOR_LOGGING', 'COMPLETED', 'PARTIALLY_COMPLETED', 'MISSED')),
    target_qty REAL NOT NULL DEFAULT 0,
    recorded_qty REAL NOT NULL DEFAULT 0,
    session_unit TEXT NOT NULL DEFAULT '',
    logged_at TIMESTAMP,
    generated_at TIMESTAMP NOT NULL,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    deleted_at TIMESTAMP,
    pending_sync INTEGER NOT NULL DEFAULT 1,
    synced_at TIMESTAMP,
    PRIMARY KEY (user_id, id),
    UNIQUE (user_id, habit_id, activity_date, scheduled_time)
);
CREATE INDEX IF NOT EXISTS idx_activities_date ON activities(user_id, activity_date);
CREATE INDEX IF NOT EXISTS idx_activities_pending ON activities(user_id, pending_sync);

-- Mood journal entries
CREATE TABLE IF NOT EXISTS emotions (
    user_id TEXT NOT NULL,
    id TEXT NOT NULL,
    mood TEXT NOT NULL,
    intensity INTEGER NOT NULL DEFAULT 0,
    note TEXT NOT NULL DEFAULT '',
    recorded_at TIMESTAMP NOT NULL,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    deleted_at TIMESTAMP,
    pending_sync INTEGER NOT NULL DEFAULT 1,
    synced_at TIMESTAMP,
    PRIMARY KEY (user_id, id)
);

-- User profile (id equals user_id, one row per user)
CREATE TABLE IF NOT EXISTS profiles (
    user_id TEXT NOT NULL,
    id TEXT NOT NULL,
    display_name TEXT NOT NULL DEFAULT '',
    avatar_url TEXT NOT NULL DEFAULT '',
    timezone TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    deleted_at TIMESTAMP,
    pending_sync INTEGER NOT NULL DEFAULT 1,
    synced_at TIMESTAMP,
    PRIMARY KEY (user_id, id)
);

-- Unlocked achievements
CREATE TABLE IF NOT EXISTS achievements (
    user_id TEXT NOT NULL,
    id TEXT NOT NULL,
    code TEXT NOT NULL,
    unlocked_at TIMESTAMP NOT NULL,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    deleted_at TIMESTAMP,
    pending_sync INTEGER NOT NULL DEFAULT 1,
    synced_at TIMESTAMP,
    PRIMARY KEY (user_id, id)
);

-- Onboarding progress (id equals user_id)
CREATE TABLE IF NOT EXISTS onboarding (
    user_id TEXT NOT NULL,
    id TEXT NOT NULL,
    completed_steps TEXT NOT NULL DEFAULT '[]',
    completed INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    deleted_at TIMESTAMP,
    pending_sync INTEGER NOT NULL DEFAULT 1,
    synced_at TIMESTAMP,
    PRIMARY KEY (user_id, id)
);
`

	_, err := db.Exec(migration)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
