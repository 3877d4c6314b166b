package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFakeClockAdvance(t *testing.T) {
	start := time.Date(2024, 3, 1, 23, 30, 0, 0, time.FixedZone("WIB", 7*3600))
	c := NewFakeClock(start)

	assert.Equal(t, time.UTC, c.Now().Location())
	assert.True(t, c.Now().Equal(start))

	c.Advance(72 * time.Hour)
	assert.True(t, c.Now().Equal(start.Add(72*time.Hour)))

	next := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.Set(next)
	assert.Equal(t, next, c.Now())
}

func TestSystemClockIsUTC(t *testing.T) {
	assert.Equal(t, time.UTC, SystemClock{}.Now().Location())
}
