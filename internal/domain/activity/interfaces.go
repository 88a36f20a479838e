package activity

import (
	"context"
	"time"

	"github.com/mwestre/cadence/internal/domain/habit"
)

// Repository provides local persistence for activities.
type Repository interface {
	Get(ctx context.Context, uid, id string) (*Activity, error)
	Upsert(ctx context.Context, uid string, a *Activity) error
	// InsertIgnore inserts each activity unless a row already exists for its
	// (habit, date, slot) tuple. Existing rows are left untouched so a
	// re-run never clobbers in-progress logging.
	InsertIgnore(ctx context.Context, uid string, acts []*Activity) error
	ListByDate(ctx context.Context, uid string, date time.Time) ([]*Activity, error)
	CountByHabitAndDate(ctx context.Context, uid, habitID string, date time.Time) (int, error)
	DeleteByHabit(ctx context.Context, uid, habitID string) error
	FindPendingSync(ctx context.Context, uid string) ([]*Activity, error)
	MarkSynced(ctx context.Context, uid, id string, at time.Time) error
}

// HabitSource lists the habits generation runs over.
type HabitSource interface {
	ListActive(ctx context.Context, uid string) ([]*habit.Habit, error)
}
