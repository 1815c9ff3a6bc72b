package progression

import "github.com/clawearning/backend/internal/models"

// tierThresholds lists the minimum lifetime earnings for each tier, highest first
var tierThresholds = []struct {
	min  int64
	tier models.Tier
}{
	{2000, models.TierPlatinum},
	{1000, models.TierGold},
	{500, models.TierSilver},
	{0, models.TierBronze},
}

// TierFor returns the highest tier whose threshold totalEarnings meets
func TierFor(totalEarnings int64) models.Tier {
	for _, t := range tierThresholds {
		if totalEarnings >= t.min {
			return t.tier
		}
	}
	return models.TierBronze
}

// NextTier returns the next tier and the earnings needed to reach it.
// ok is false at the top tier.
func NextTier(totalEarnings int64) (tier models.Tier, needed int64, ok bool) {
	for i := len(tierThresholds) - 1; i >= 0; i-- {
		if tierThresholds[i].min > totalEarnings {
			return tierThresholds[i].tier, tierThresholds[i].min - totalEarnings, true
		}
	}
	return "", 0, false
}

// maxTier never lets a recomputed tier fall below the stored one
func maxTier(current, computed models.Tier) models.Tier {
	if computed.Rank() > current.Rank() {
		return computed
	}
	if current == "" {
		return computed
	}
	return current
}
