package domain

import "time"

const day = 24 * time.Hour

// Streak is the consecutive-day activity state kept on the user row.
// LastActive holds a calendar date at midnight UTC.
type Streak struct {
	Current    int
	Longest    int
	LastActive *time.Time
}

// CalendarDay returns the date of t in loc as midnight UTC.
func CalendarDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NextStreak applies activity on today to s. It reports false when nothing
// changes, which happens for repeat activity on the same day.
func NextStreak(s Streak, today time.Time) (Streak, bool) {
	today = CalendarDay(today, time.UTC)

	next := s
	if s.LastActive != nil {
		last := CalendarDay(*s.LastActive, time.UTC)
		gap := int(today.Sub(last) / day)
		switch {
		case gap <= 0:
			return s, false
		case gap == 1:
			next.Current = s.Current + 1
		default:
			next.Current = 1
		}
	} else {
		next.Current = 1
	}

	if next.Current > next.Longest {
		next.Longest = next.Current
	}
	next.LastActive = &today
	return next, true
}
