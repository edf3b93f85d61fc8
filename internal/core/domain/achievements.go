package domain

// AchievementMetric names the counter an achievement rule thresholds on.
type AchievementMetric string

const (
	MetricCollectionSize AchievementMetric = "collection_size"
	MetricRarityCount    AchievementMetric = "rarity_count"
	MetricTrades         AchievementMetric = "trades"
	MetricCoinsSpent     AchievementMetric = "coins_spent"
)

// KnownMetrics lists the metrics the evaluator understands.
func KnownMetrics() []AchievementMetric {
	return []AchievementMetric{MetricCollectionSize, MetricRarityCount, MetricTrades, MetricCoinsSpent}
}

// AchievementRule is a single unlock condition: a threshold on one metric.
// Rarity is only consulted when Metric is MetricRarityCount.
type AchievementRule struct {
	ID          string
	Title       string
	Description string
	Metric      AchievementMetric
	Threshold   int64
	Rarity      Rarity
	XP          int
}

// Stats holds the lifetime counters the achievement rules threshold on.
type Stats struct {
	TradesCompleted int64
	CoinsSpent      int64
}

// EvaluateAchievements scans the rules against the current collection and
// stat counters and returns the rules that newly cross their threshold.
// Rules already present in unlocked are skipped, so each id fires at most
// once over the lifetime of a player.
func EvaluateAchievements(rules []AchievementRule, ledger *CollectionLedger, stats Stats, unlocked map[string]bool) []AchievementRule {
	var newlyUnlocked []AchievementRule
	byRarity := ledger.CountByRarity()

	for _, rule := range rules {
		if unlocked[rule.ID] {
			continue
		}

		var value int64
		switch rule.Metric {
		case MetricCollectionSize:
			value = int64(ledger.Len())
		case MetricRarityCount:
			value = int64(byRarity[rule.Rarity])
		case MetricTrades:
			value = stats.TradesCompleted
		case MetricCoinsSpent:
			value = stats.CoinsSpent
		default:
			continue
		}

		if value >= rule.Threshold {
			newlyUnlocked = append(newlyUnlocked, rule)
		}
	}
	return newlyUnlocked
}
