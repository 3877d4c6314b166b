package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNextStreakFirstActivity(t *testing.T) {
	next, changed := NextStreak(Streak{}, date(2025, 3, 1).Add(15*time.Hour))
	assert.True(t, changed)
	assert.Equal(t, 1, next.Current)
	assert.Equal(t, 1, next.Longest)
	assert.Equal(t, date(2025, 3, 1), *next.LastActive)
}

func TestNextStreakSameDayIsNoop(t *testing.T) {
	last := date(2025, 3, 1)
	s := Streak{Current: 4, Longest: 6, LastActive: &last}

	next, changed := NextStreak(s, last.Add(23*time.Hour))
	assert.False(t, changed)
	assert.Equal(t, s, next)
}

func TestNextStreakConsecutiveDayIncrementsByOne(t *testing.T) {
	last := date(2025, 2, 28)
	next, changed := NextStreak(Streak{Current: 2, Longest: 2, LastActive: &last}, date(2025, 3, 1).Add(time.Minute))
	assert.True(t, changed)
	assert.Equal(t, 3, next.Current)
	assert.Equal(t, 3, next.Longest)
}

func TestNextStreakGapResetsWithoutLoweringLongest(t *testing.T) {
	last := date(2025, 3, 1)
	next, changed := NextStreak(Streak{Current: 5, Longest: 9, LastActive: &last}, date(2025, 3, 4))
	assert.True(t, changed)
	assert.Equal(t, 1, next.Current)
	assert.Equal(t, 9, next.Longest)
	assert.Equal(t, date(2025, 3, 4), *next.LastActive)
}

func TestCalendarDayUsesLocation(t *testing.T) {
	kl := time.FixedZone("MYT", 8*3600)
	instant := time.Date(2025, 3, 1, 18, 30, 0, 0, time.UTC)

	assert.Equal(t, date(2025, 3, 1), CalendarDay(instant, time.UTC))
	assert.Equal(t, date(2025, 3, 2), CalendarDay(instant, kl))
}
