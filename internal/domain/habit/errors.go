package habit

import "errors"

var (
	// ErrHabitNotFound indicates the habit doesn't exist or is tombstoned.
	ErrHabitNotFound = errors.New("habit not found")
	// ErrBuiltInImmutable indicates an attempt to edit a built-in template.
	ErrBuiltInImmutable = errors.New("built-in habit templates are immutable")
	// ErrChallengeLocked indicates an edit beyond notification settings while
	// a challenge is active.
	ErrChallengeLocked = errors.New("habit locked by active challenge: only notification settings may change")
	// ErrInvalidRepeat indicates a malformed recurrence rule.
	ErrInvalidRepeat = errors.New("invalid recurrence rule")
	// ErrInvalidInput indicates invalid input for habit operations.
	ErrInvalidInput = errors.New("invalid habit input")
)
