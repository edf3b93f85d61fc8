package domain

// GeneratorType describes a purchasable passive-income unit. One canonical
// schema replaces the loosely-typed per-variant tables: rates are always
// coins per hour, costs are always gems.
type GeneratorType struct {
	ID           string
	Name         string
	Description  string
	CoinsPerHour float64
	Cost         int64
}

// Balance holds the global economy tuning knobs.
type Balance struct {
	StartingCoins int64
	StartingGems  int64
	// GemsPerLevel is the bonus granted for every level gained.
	GemsPerLevel int64
}

// DefaultBalance returns the canonical starting balances.
func DefaultBalance() Balance {
	return Balance{StartingCoins: 1000, StartingGems: 10, GemsPerLevel: 5}
}

// GameConfig aggregates the validated game-balance catalog consumed by the
// economy. It is assembled by the catalog loader; the zero value is not
// usable.
type GameConfig struct {
	Balance      Balance
	Rarity       RarityScale
	Rewards      RewardTable
	Generators   map[string]GeneratorType
	Achievements []AchievementRule
}

// Generator looks up a generator type by id.
func (c GameConfig) Generator(id string) (GeneratorType, bool) {
	g, ok := c.Generators[id]
	return g, ok
}
