package domain

import "time"

// Snapshot is the flat serialized form of EconomyState persisted between
// sessions. One snapshot exists per identity, written only through the
// snapshot repository; it must round-trip exactly.
type Snapshot struct {
	Level           int
	XP              int
	Coins           int64
	Gems            int64
	Collection      []CollectionItem
	GeneratorCounts map[string]int
	Achievements    []string
	TradesCompleted int64
	CoinsSpent      int64
	LastAccrual     time.Time
}

// Equal reports field-for-field equality between two snapshots. Timestamps
// compare with time.Time.Equal so location differences do not matter.
func (s Snapshot) Equal(other Snapshot) bool {
	if s.Level != other.Level || s.XP != other.XP ||
		s.Coins != other.Coins || s.Gems != other.Gems ||
		s.TradesCompleted != other.TradesCompleted ||
		s.CoinsSpent != other.CoinsSpent ||
		!s.LastAccrual.Equal(other.LastAccrual) {
		return false
	}

	if len(s.Collection) != len(other.Collection) {
		return false
	}
	for i := range s.Collection {
		a, b := s.Collection[i], other.Collection[i]
		if a.Track != b.Track || a.Rarity != b.Rarity ||
			a.Method != b.Method || !a.AcquiredAt.Equal(b.AcquiredAt) {
			return false
		}
	}

	if len(s.GeneratorCounts) != len(other.GeneratorCounts) {
		return false
	}
	for id, n := range s.GeneratorCounts {
		if other.GeneratorCounts[id] != n {
			return false
		}
	}

	if len(s.Achievements) != len(other.Achievements) {
		return false
	}
	for i := range s.Achievements {
		if s.Achievements[i] != other.Achievements[i] {
			return false
		}
	}
	return true
}
