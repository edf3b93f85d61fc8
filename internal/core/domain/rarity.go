package domain

// Rarity is the discrete classification bucket derived from popularity.
// It drives purchase cost and XP reward scaling.
type Rarity string

const (
	RarityCommon    Rarity = "Common"
	RarityRare      Rarity = "Rare"
	RarityEpic      Rarity = "Epic"
	RarityLegendary Rarity = "Legendary"
)

// AllRarities returns the rarities in order from lowest to highest.
func AllRarities() []Rarity {
	return []Rarity{RarityCommon, RarityRare, RarityEpic, RarityLegendary}
}

// RarityScale holds the inclusive lower popularity bound for each tier above
// Common. Anything below Rare classifies as Common. Bounds must be strictly
// ascending within 0..100; the catalog loader enforces this.
type RarityScale struct {
	Rare      int
	Epic      int
	Legendary int
}

// DefaultRarityScale is the canonical 4-tier scale (40/60/80).
func DefaultRarityScale() RarityScale {
	return RarityScale{Rare: 40, Epic: 60, Legendary: 80}
}

// Classify maps a popularity score to its rarity tier. The function is total:
// out-of-range popularity is clamped into 0..100 first.
func (s RarityScale) Classify(popularity int) Rarity {
	p := clampPopularity(popularity)
	switch {
	case p >= s.Legendary:
		return RarityLegendary
	case p >= s.Epic:
		return RarityEpic
	case p >= s.Rare:
		return RarityRare
	default:
		return RarityCommon
	}
}

func clampPopularity(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
