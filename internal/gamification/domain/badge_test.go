package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTiersToAward(t *testing.T) {
	spotter := Thresholds{Bronze: 1, Silver: 5, Gold: 15}

	cases := []struct {
		name  string
		count int64
		held  map[Tier]bool
		want  []Tier
	}{
		{name: "below bronze", count: 0, want: nil},
		{name: "first bronze", count: 1, want: []Tier{TierBronze}},
		{name: "already bronze", count: 3, held: map[Tier]bool{TierBronze: true}, want: nil},
		{name: "catch up", count: 16, want: []Tier{TierBronze, TierSilver, TierGold}},
		{name: "fills gap below held gold", count: 20, held: map[Tier]bool{TierGold: true}, want: []Tier{TierBronze, TierSilver}},
		{name: "silver only", count: 5, held: map[Tier]bool{TierBronze: true}, want: []Tier{TierSilver}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, TiersToAward(tc.count, spotter, tc.held))
		})
	}
}

func TestNextTier(t *testing.T) {
	closer := Thresholds{Bronze: 2, Silver: 5, Gold: 15}

	tier, threshold, ok := NextTier(3, closer)
	assert.True(t, ok)
	assert.Equal(t, TierSilver, tier)
	assert.EqualValues(t, 5, threshold)

	_, _, ok = NextTier(15, closer)
	assert.False(t, ok)
}
