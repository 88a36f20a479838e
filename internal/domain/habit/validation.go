package habit

import "time"

// ValidateRepeat rejects rules the matcher would treat as never-due. The
// matcher itself stays total; validation exists so bad rules are refused at
// the edge instead of silently generating nothing.
func ValidateRepeat(r Repeat) error {
	switch r.Kind {
	case RepeatNone:
		return nil
	case RepeatDaily, RepeatBusinessDays:
		if r.Every < 1 {
			return ErrInvalidRepeat
		}
	case RepeatWeekly:
		if len(r.Weekdays) == 0 {
			return ErrInvalidRepeat
		}
		for _, wd := range r.Weekdays {
			if wd < time.Sunday || wd > time.Saturday {
				return ErrInvalidRepeat
			}
		}
	case RepeatMonthly:
		if r.DayOfMonth < 1 || r.DayOfMonth > 31 {
			return ErrInvalidRepeat
		}
	case RepeatYearly:
		if r.Month < time.January || r.Month > time.December || r.Day < 1 || r.Day > 31 {
			return ErrInvalidRepeat
		}
	case RepeatMonthlyByWeek:
		if r.Weekday < time.Sunday || r.Weekday > time.Saturday {
			return ErrInvalidRepeat
		}
		if r.Occurrence != OccurrenceLast && (r.Occurrence < OccurrenceFirst || r.Occurrence > OccurrenceFourth) {
			return ErrInvalidRepeat
		}
	default:
		return ErrInvalidRepeat
	}
	return nil
}

func validateNotif(n NotifConfig) error {
	if n.AdvanceMin < 0 {
		return ErrInvalidInput
	}
	for _, t := range n.Times {
		if t.Hour < 0 || t.Hour > 23 || t.Minute < 0 || t.Minute > 59 {
			return ErrInvalidInput
		}
	}
	if n.StartsAt != nil && n.ExpiresAt != nil && n.ExpiresAt.Before(*n.StartsAt) {
		return ErrInvalidInput
	}
	return nil
}
