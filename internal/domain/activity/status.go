package activity

import "time"

// ComputeStatus derives the lifecycle status an activity should hold at the
// given instant. Terminal statuses are sticky: once a user logs a result the
// clock can no longer change it. Unset window bounds are unbounded.
func ComputeStatus(a *Activity, now time.Time) Status {
	if a.Status.Terminal() {
		return a.Status
	}
	if a.OpensAt != nil && now.Before(*a.OpensAt) {
		return StatusPending
	}
	if a.ExpiresAt != nil && now.After(*a.ExpiresAt) {
		return StatusMissed
	}
	return StatusAvailable
}
