package domain

type BadgeType string

const (
	BadgeSpotter     BadgeType = "spotter"
	BadgeKampungHero BadgeType = "kampung_hero"
	BadgeCloser      BadgeType = "closer"
)

// BadgeTypes lists every badge category the evaluator checks.
var BadgeTypes = []BadgeType{BadgeSpotter, BadgeKampungHero, BadgeCloser}

type Tier string

const (
	TierBronze Tier = "bronze"
	TierSilver Tier = "silver"
	TierGold   Tier = "gold"
)

// Tiers in ascending order.
var Tiers = []Tier{TierBronze, TierSilver, TierGold}

type Thresholds struct {
	Bronze int64
	Silver int64
	Gold   int64
}

func (t Thresholds) For(tier Tier) int64 {
	switch tier {
	case TierBronze:
		return t.Bronze
	case TierSilver:
		return t.Silver
	case TierGold:
		return t.Gold
	default:
		return 0
	}
}

// NewBadge is a (category, tier) pair unlocked by one evaluation.
type NewBadge struct {
	Type BadgeType `json:"type"`
	Tier Tier      `json:"tier"`
}

// TiersToAward returns, in ascending order, every tier whose threshold count
// meets and that is not already held. Holding a higher tier does not hide a
// missing lower one, so catch-up awards fill the gaps.
func TiersToAward(count int64, thresholds Thresholds, held map[Tier]bool) []Tier {
	var tiers []Tier
	for _, tier := range Tiers {
		threshold := thresholds.For(tier)
		if threshold <= 0 || count < threshold {
			continue
		}
		if held[tier] {
			continue
		}
		tiers = append(tiers, tier)
	}
	return tiers
}

// NextTier is the lowest tier not yet reached, with its threshold.
func NextTier(count int64, thresholds Thresholds) (Tier, int64, bool) {
	for _, tier := range Tiers {
		if threshold := thresholds.For(tier); count < threshold {
			return tier, threshold, true
		}
	}
	return "", 0, false
}
