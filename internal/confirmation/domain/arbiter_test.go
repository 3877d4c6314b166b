package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDecide(t *testing.T) {
	resolvedAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	before := resolvedAt.Add(10 * time.Hour)
	after := resolvedAt.Add(73 * time.Hour)
	policy := DefaultPolicy()

	cases := []struct {
		name  string
		tally Tally
		now   time.Time
		want  Outcome
	}{
		{name: "three confirmations close", tally: Tally{Confirmed: 3}, now: before, want: OutcomeClose},
		{name: "close wins over not yet majority", tally: Tally{Confirmed: 3, NotYet: 5}, now: before, want: OutcomeClose},
		{name: "not yet majority reverts", tally: Tally{Confirmed: 1, NotYet: 2}, now: before, want: OutcomeRevert},
		{name: "single not yet reverts", tally: Tally{NotYet: 1}, now: before, want: OutcomeRevert},
		{name: "tie waits", tally: Tally{Confirmed: 1, NotYet: 1}, now: before, want: OutcomeNone},
		{name: "no votes waits", tally: Tally{}, now: before, want: OutcomeNone},
		{name: "one confirmation waits", tally: Tally{Confirmed: 2}, now: before, want: OutcomeNone},
		{name: "uncontested confirmation closes after window", tally: Tally{Confirmed: 1}, now: after, want: OutcomeClose},
		{name: "silence reverts after window", tally: Tally{}, now: after, want: OutcomeRevert},
		{name: "tie stalls after window", tally: Tally{Confirmed: 2, NotYet: 2}, now: after, want: OutcomeStalled},
		{name: "window boundary is inclusive", tally: Tally{}, now: resolvedAt.Add(72 * time.Hour), want: OutcomeRevert},
		{name: "just before boundary", tally: Tally{}, now: resolvedAt.Add(72*time.Hour - time.Second), want: OutcomeNone},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Decide(tc.tally, resolvedAt, tc.now, policy))
		})
	}
}

func TestDecideZeroPolicyUsesDefaults(t *testing.T) {
	resolvedAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, OutcomeClose, Decide(Tally{Confirmed: 3}, resolvedAt, resolvedAt, Policy{}))
	assert.Equal(t, OutcomeNone, Decide(Tally{}, resolvedAt, resolvedAt.Add(time.Hour), Policy{}))
}

func TestParseVote(t *testing.T) {
	v, err := ParseVote(" Confirmed ")
	assert.NoError(t, err)
	assert.Equal(t, VoteConfirmed, v)

	v, err = ParseVote("not_yet")
	assert.NoError(t, err)
	assert.Equal(t, VoteNotYet, v)

	_, err = ParseVote("maybe")
	assert.ErrorIs(t, err, ErrInvalidVote)
}
