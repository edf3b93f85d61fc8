// Package catalog loads and validates the game-balance catalog: generator
// types, achievement rules, rarity cutoffs, reward tables and starting
// balances. One explicit schema replaces the loosely-typed per-variant tables
// the prototypes carried; a catalog that fails validation never reaches the
// economy.
package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ewilliams-labs/songswap/internal/core/domain"
)

type balanceYAML struct {
	StartingCoins int64 `yaml:"starting_coins"`
	StartingGems  int64 `yaml:"starting_gems"`
	GemsPerLevel  int64 `yaml:"gems_per_level"`
}

type rarityYAML struct {
	Rare      int `yaml:"rare"`
	Epic      int `yaml:"epic"`
	Legendary int `yaml:"legendary"`
}

type generatorYAML struct {
	ID           string  `yaml:"id"`
	Name         string  `yaml:"name"`
	Description  string  `yaml:"description"`
	CoinsPerHour float64 `yaml:"coins_per_hour"`
	Cost         int64   `yaml:"cost"`
}

type achievementYAML struct {
	ID          string `yaml:"id"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Metric      string `yaml:"metric"`
	Threshold   int64  `yaml:"threshold"`
	Rarity      string `yaml:"rarity"`
	XP          int    `yaml:"xp"`
}

type catalogYAML struct {
	Balance      balanceYAML       `yaml:"balance"`
	Rarity       rarityYAML        `yaml:"rarity"`
	Rewards      map[string]int    `yaml:"rewards"`
	Generators   []generatorYAML   `yaml:"generators"`
	Achievements []achievementYAML `yaml:"achievements"`
}

// Load reads and validates the catalog file.
func Load(path string) (domain.GameConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.GameConfig{}, fmt.Errorf("catalog: failed to read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates catalog YAML.
func Parse(data []byte) (domain.GameConfig, error) {
	var raw catalogYAML
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return domain.GameConfig{}, fmt.Errorf("catalog: failed to parse: %w", err)
	}

	cfg := domain.GameConfig{
		Balance: domain.Balance{
			StartingCoins: raw.Balance.StartingCoins,
			StartingGems:  raw.Balance.StartingGems,
			GemsPerLevel:  raw.Balance.GemsPerLevel,
		},
		Rarity: domain.RarityScale{
			Rare:      raw.Rarity.Rare,
			Epic:      raw.Rarity.Epic,
			Legendary: raw.Rarity.Legendary,
		},
		Rewards:    make(domain.RewardTable, len(raw.Rewards)),
		Generators: make(map[string]domain.GeneratorType, len(raw.Generators)),
	}

	for tier, xp := range raw.Rewards {
		cfg.Rewards[domain.Rarity(tier)] = xp
	}
	for _, g := range raw.Generators {
		if _, dup := cfg.Generators[g.ID]; dup {
			return domain.GameConfig{}, fmt.Errorf("catalog: duplicate generator id %q", g.ID)
		}
		cfg.Generators[g.ID] = domain.GeneratorType{
			ID:           g.ID,
			Name:         g.Name,
			Description:  g.Description,
			CoinsPerHour: g.CoinsPerHour,
			Cost:         g.Cost,
		}
	}

	seen := make(map[string]bool, len(raw.Achievements))
	for _, a := range raw.Achievements {
		if seen[a.ID] {
			return domain.GameConfig{}, fmt.Errorf("catalog: duplicate achievement id %q", a.ID)
		}
		seen[a.ID] = true
		cfg.Achievements = append(cfg.Achievements, domain.AchievementRule{
			ID:          a.ID,
			Title:       a.Title,
			Description: a.Description,
			Metric:      domain.AchievementMetric(a.Metric),
			Threshold:   a.Threshold,
			Rarity:      domain.Rarity(a.Rarity),
			XP:          a.XP,
		})
	}

	if err := validate(cfg); err != nil {
		return domain.GameConfig{}, err
	}
	return cfg, nil
}

func validate(cfg domain.GameConfig) error {
	if cfg.Balance.StartingCoins < 0 || cfg.Balance.StartingGems < 0 {
		return fmt.Errorf("catalog: starting balances must be non-negative")
	}
	if cfg.Balance.GemsPerLevel < 0 {
		return fmt.Errorf("catalog: gems_per_level must be non-negative")
	}

	r := cfg.Rarity
	if r.Rare <= 0 || r.Rare >= r.Epic || r.Epic >= r.Legendary || r.Legendary > 100 {
		return fmt.Errorf("catalog: rarity cutoffs must be strictly ascending within 1..100, got %d/%d/%d",
			r.Rare, r.Epic, r.Legendary)
	}

	for _, tier := range domain.AllRarities() {
		xp, ok := cfg.Rewards[tier]
		if !ok {
			return fmt.Errorf("catalog: rewards missing tier %s", tier)
		}
		if xp < 0 {
			return fmt.Errorf("catalog: reward for %s must be non-negative", tier)
		}
	}

	if len(cfg.Generators) == 0 {
		return fmt.Errorf("catalog: at least one generator type is required")
	}
	for id, g := range cfg.Generators {
		if id == "" {
			return fmt.Errorf("catalog: generator with empty id")
		}
		if g.Name == "" {
			return fmt.Errorf("catalog: generator %q has no name", id)
		}
		if g.CoinsPerHour <= 0 {
			return fmt.Errorf("catalog: generator %q must earn a positive rate", id)
		}
		if g.Cost < 0 {
			return fmt.Errorf("catalog: generator %q has a negative cost", id)
		}
	}

	known := make(map[domain.AchievementMetric]bool)
	for _, m := range domain.KnownMetrics() {
		known[m] = true
	}
	for _, a := range cfg.Achievements {
		if a.ID == "" {
			return fmt.Errorf("catalog: achievement with empty id")
		}
		if !known[a.Metric] {
			return fmt.Errorf("catalog: achievement %q has unknown metric %q", a.ID, a.Metric)
		}
		if a.Threshold <= 0 {
			return fmt.Errorf("catalog: achievement %q needs a positive threshold", a.ID)
		}
		if a.Metric == domain.MetricRarityCount {
			validTier := false
			for _, tier := range domain.AllRarities() {
				if a.Rarity == tier {
					validTier = true
					break
				}
			}
			if !validTier {
				return fmt.Errorf("catalog: achievement %q has unknown rarity %q", a.ID, a.Rarity)
			}
		}
		if a.XP < 0 {
			return fmt.Errorf("catalog: achievement %q has negative xp", a.ID)
		}
	}

	return nil
}
