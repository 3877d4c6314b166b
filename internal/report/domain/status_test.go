package domain

import (
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
)

func TestCanAdvanceOnlyForward(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusOpen, StatusInProgress, true},
		{StatusOpen, StatusResolved, true},
		{StatusOpen, StatusClosed, true},
		{StatusInProgress, StatusResolved, true},
		{StatusResolved, StatusClosed, true},
		{StatusOpen, StatusOpen, false},
		{StatusResolved, StatusInProgress, false},
		{StatusClosed, StatusResolved, false},
		{StatusClosed, StatusClosed, false},
		{Status("archived"), StatusClosed, false},
		{StatusOpen, Status("archived"), false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CanAdvance(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestParseStatus(t *testing.T) {
	status, err := ParseStatus(" Resolved ")
	assert.NoError(t, err)
	assert.Equal(t, StatusResolved, status)

	_, err = ParseStatus("reopened")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestResolutionConsistent(t *testing.T) {
	resolver := snowflake.ID(9)
	at := time.Now()

	assert.True(t, Report{}.ResolutionConsistent())
	assert.True(t, Report{ResolvedAt: &at, ResolvedBy: &resolver}.ResolutionConsistent())
	assert.False(t, Report{ResolvedBy: &resolver}.ResolutionConsistent())
	assert.False(t, Report{ResolvedAt: &at}.ResolutionConsistent())
}
