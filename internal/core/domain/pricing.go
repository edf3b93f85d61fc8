package domain

import "math"

// basePurchaseCost anchors the cost curve: 100 coins at popularity 0,
// doubling to 200 at popularity 100.
const basePurchaseCost = 100

// Cost computes the coin price of a track from its popularity:
// round(100 * (1 + popularity/100)). Monotonic non-decreasing.
func Cost(popularity int) int64 {
	p := clampPopularity(popularity)
	return int64(math.Round(basePurchaseCost * (1 + float64(p)/100)))
}

// RewardTable maps a rarity tier to the XP awarded for acquiring a track of
// that tier. The canonical table ships in the game catalog.
type RewardTable map[Rarity]int

// DefaultRewardTable returns the canonical acquisition rewards.
func DefaultRewardTable() RewardTable {
	return RewardTable{
		RarityCommon:    100,
		RarityRare:      250,
		RarityEpic:      500,
		RarityLegendary: 1000,
	}
}

// XPReward looks up the reward for a rarity, falling back to the Common
// reward for unknown tiers.
func (t RewardTable) XPReward(r Rarity) int {
	if xp, ok := t[r]; ok {
		return xp
	}
	return t[RarityCommon]
}
