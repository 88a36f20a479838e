package habit

import "time"

// Matches reports whether a habit governed by rule is due on date, given the
// anchor date offsets count from. It is total: any (rule, date, anchor)
// triple yields an answer, and malformed rules are simply never due.
// Dates before the anchor never match.
func Matches(rule Repeat, date, anchor time.Time) bool {
	d := DateOf(date)
	a := DateOf(anchor)

	switch rule.Kind {
	case RepeatNone:
		return SameDate(d, a)

	case RepeatDaily:
		if rule.Every <= 0 || d.Before(a) {
			return false
		}
		return daysBetween(a, d)%rule.Every == 0

	case RepeatWeekly:
		if d.Before(a) {
			return false
		}
		for _, wd := range rule.Weekdays {
			if d.Weekday() == wd {
				return true
			}
		}
		return false

	case RepeatMonthly:
		if rule.DayOfMonth < 1 || rule.DayOfMonth > 31 || d.Before(a) {
			return false
		}
		return d.Day() == rule.DayOfMonth

	case RepeatYearly:
		if rule.Month < time.January || rule.Month > time.December || rule.Day < 1 || rule.Day > 31 || d.Before(a) {
			return false
		}
		return d.Month() == rule.Month && d.Day() == rule.Day

	case RepeatMonthlyByWeek:
		if d.Before(a) {
			return false
		}
		target, ok := weekdayOccurrence(d.Year(), d.Month(), rule.Weekday, rule.Occurrence, d.Location())
		return ok && SameDate(d, target)

	case RepeatBusinessDays:
		if d.Before(a) || !isBusinessDay(d) {
			return false
		}
		if rule.Every <= 0 {
			return false
		}
		if rule.Every == 1 {
			return true
		}
		return businessDayOrdinal(a, d)%rule.Every == 0

	default:
		return false
	}
}

// daysBetween returns whole calendar days from a to b. Both arguments are
// midnight-normalized; the computation goes through UTC so DST transitions
// cannot produce fractional days.
func daysBetween(a, b time.Time) int {
	au := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bu := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bu.Sub(au).Hours() / 24)
}

func isBusinessDay(d time.Time) bool {
	wd := d.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// businessDayOrdinal counts business days from anchor to date. The anchor
// itself is ordinal 0 when it is a business day; otherwise the first
// business day after it is ordinal 0. date must be a business day >= anchor.
func businessDayOrdinal(anchor, date time.Time) int {
	cur := anchor
	for !isBusinessDay(cur) {
		cur = cur.AddDate(0, 0, 1)
	}
	n := 0
	for cur.Before(date) {
		cur = cur.AddDate(0, 0, 1)
		if isBusinessDay(cur) {
			n++
		}
	}
	return n
}

// weekdayOccurrence locates the Nth (or last) given weekday within a month.
func weekdayOccurrence(year int, month time.Month, wd time.Weekday, occ Occurrence, loc *time.Location) (time.Time, bool) {
	if occ == OccurrenceLast {
		// Walk back from the final day of the month.
		last := time.Date(year, month+1, 0, 0, 0, 0, 0, loc)
		for d := last; d.Month() == month; d = d.AddDate(0, 0, -1) {
			if d.Weekday() == wd {
				return d, true
			}
		}
		return time.Time{}, false
	}
	if occ < OccurrenceFirst || occ > OccurrenceFourth {
		return time.Time{}, false
	}
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	offset := (int(wd) - int(first.Weekday()) + 7) % 7
	d := first.AddDate(0, 0, offset+7*(int(occ)-1))
	if d.Month() != month {
		return time.Time{}, false
	}
	return d, true
}
