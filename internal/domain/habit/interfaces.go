package habit

import (
	"context"
	"time"
)

// Repository provides local persistence for habits. uid scopes every call to
// one user's rows.
type Repository interface {
	Get(ctx context.Context, uid, id string) (*Habit, error)
	Upsert(ctx context.Context, uid string, h *Habit) error
	// ListActive returns non-tombstoned habits.
	ListActive(ctx context.Context, uid string) ([]*Habit, error)
	// Delete removes the row permanently. Only legal for rows that were
	// never pushed remotely.
	Delete(ctx context.Context, uid, id string) error
	FindPendingSync(ctx context.Context, uid string) ([]*Habit, error)
	MarkSynced(ctx context.Context, uid, id string, at time.Time) error
}

// ActivityCascade removes a habit's generated activities when the habit
// itself is hard-deleted.
type ActivityCascade interface {
	DeleteByHabit(ctx context.Context, uid, habitID string) error
}

// NotificationPlanner recomputes and reschedules a habit's reminder
// triggers after any mutation. Implementations must cancel previously
// scheduled triggers before scheduling new ones.
type NotificationPlanner interface {
	Replan(ctx context.Context, h *Habit) error
}
