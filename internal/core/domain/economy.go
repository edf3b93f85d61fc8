package domain

import (
	"sort"
	"time"
)

// EconomyState is the aggregate root for one logged-in identity: currency,
// progression, generators, collection, achievements and the accrual baseline.
// All mutations go through its operations so the invariants hold at every
// observable point:
//
//   - coins and gems never go negative; a spend that would fails instead
//   - the collection holds at most one item per track id
//   - xp stays within [0, XPRequiredForLevel(level))
//   - each achievement id is granted at most once
//
// EconomyState is not safe for concurrent use; the session service
// serializes access.
type EconomyState struct {
	cfg GameConfig

	coins       int64
	gems        int64
	level       int
	xp          int
	generators  map[string]int
	collection  *CollectionLedger
	unlocked    map[string]bool
	stats       Stats
	lastAccrual time.Time
}

// NewEconomyState creates a fresh state with the configured starting
// balances, used on first login for an identity.
func NewEconomyState(cfg GameConfig, now time.Time) *EconomyState {
	return &EconomyState{
		cfg:         cfg,
		coins:       cfg.Balance.StartingCoins,
		gems:        cfg.Balance.StartingGems,
		level:       1,
		xp:          0,
		generators:  make(map[string]int),
		collection:  NewCollectionLedger(),
		unlocked:    make(map[string]bool),
		lastAccrual: now,
	}
}

// RestoreEconomyState rebuilds a state from a persisted snapshot. Corrupt
// numeric fields are normalized rather than rejected (negative balances clamp
// to zero, xp renormalizes into range); a duplicate track id in the snapshot
// is a hard error.
func RestoreEconomyState(cfg GameConfig, snap Snapshot) (*EconomyState, error) {
	s := NewEconomyState(cfg, snap.LastAccrual)

	s.coins = snap.Coins
	if s.coins < 0 {
		s.coins = 0
	}
	s.gems = snap.Gems
	if s.gems < 0 {
		s.gems = 0
	}

	norm := AwardXP(snap.Level, snap.XP, 0)
	s.level = norm.Level
	s.xp = norm.XP

	for id, n := range snap.GeneratorCounts {
		if n > 0 {
			s.generators[id] = n
		}
	}
	for _, item := range snap.Collection {
		if err := s.collection.Add(item); err != nil {
			return nil, err
		}
	}
	for _, id := range snap.Achievements {
		s.unlocked[id] = true
	}
	s.stats = Stats{TradesCompleted: snap.TradesCompleted, CoinsSpent: snap.CoinsSpent}
	return s, nil
}

// PurchaseResult reports what a successful purchase changed.
type PurchaseResult struct {
	Item        CollectionItem
	XPGained    int
	Leveling    LevelUpResult
	GemsGranted int64
	Unlocked    []AchievementRule
}

// PurchaseSong spends coins on an encounter and adds its track to the
// collection. Validation happens before any mutation, so a rejected purchase
// leaves the state untouched.
func (s *EconomyState) PurchaseSong(enc Encounter, now time.Time) (PurchaseResult, error) {
	return s.buyTrack(enc.Track, enc.Rarity, enc.Cost, AcquiredByPurchase, now)
}

// PurchaseFromShop spends coins on a shop offer. Same rules as an encounter
// purchase; the item records that it came from the shop.
func (s *EconomyState) PurchaseFromShop(offer ShopOffer, now time.Time) (PurchaseResult, error) {
	return s.buyTrack(offer.Track, offer.Rarity, offer.Cost, AcquiredByShop, now)
}

func (s *EconomyState) buyTrack(track Track, rarity Rarity, cost int64, method AcquisitionMethod, now time.Time) (PurchaseResult, error) {
	if s.coins < cost {
		return PurchaseResult{}, ErrInsufficientFunds
	}
	if s.collection.Contains(track.ID) {
		return PurchaseResult{}, ErrAlreadyOwned
	}

	item := CollectionItem{
		Track:      track,
		Rarity:     rarity,
		AcquiredAt: now,
		Method:     method,
	}

	s.coins -= cost
	s.stats.CoinsSpent += cost
	if err := s.collection.Add(item); err != nil {
		// Unreachable after the Contains check; restore the debit anyway.
		s.coins += cost
		s.stats.CoinsSpent -= cost
		return PurchaseResult{}, err
	}

	result := PurchaseResult{Item: item, XPGained: s.cfg.Rewards.XPReward(rarity)}
	result.Leveling, result.GemsGranted = s.awardXP(result.XPGained)
	result.Unlocked = s.unlockNewAchievements()
	return result, nil
}

// PurchaseGenerator spends gems on one unit of the given generator type.
func (s *EconomyState) PurchaseGenerator(typeID string) (GeneratorType, error) {
	gen, ok := s.cfg.Generator(typeID)
	if !ok {
		return GeneratorType{}, ErrUnknownGeneratorType
	}
	if s.gems < gen.Cost {
		return GeneratorType{}, ErrInsufficientFunds
	}

	s.gems -= gen.Cost
	s.generators[typeID]++
	return gen, nil
}

// TradeResult reports what a successful trade changed.
type TradeResult struct {
	Removed  []string
	Item     CollectionItem
	Unlocked []AchievementRule
}

// ExecuteTrade removes the offered items and adds the requested track in one
// transaction. The trade is rejected whole if the offer is empty, contains a
// duplicate or unowned id, or the requested track is already owned and not
// part of the offer.
func (s *EconomyState) ExecuteTrade(offeredIDs []string, requested Track, now time.Time) (TradeResult, error) {
	if len(offeredIDs) == 0 {
		return TradeResult{}, ErrInvalidTrade
	}

	offered := make(map[string]bool, len(offeredIDs))
	for _, id := range offeredIDs {
		if offered[id] {
			return TradeResult{}, ErrInvalidTrade
		}
		if !s.collection.Contains(id) {
			return TradeResult{}, ErrInvalidTrade
		}
		offered[id] = true
	}
	if s.collection.Contains(requested.ID) && !offered[requested.ID] {
		return TradeResult{}, ErrInvalidTrade
	}

	// Validation is complete; none of the mutations below can fail.
	for _, id := range offeredIDs {
		_ = s.collection.Remove(id)
	}
	item := CollectionItem{
		Track:      requested,
		Rarity:     s.cfg.Rarity.Classify(requested.Popularity),
		AcquiredAt: now,
		Method:     AcquiredByTrade,
	}
	_ = s.collection.Add(item)
	s.stats.TradesCompleted++

	result := TradeResult{Removed: append([]string(nil), offeredIDs...), Item: item}
	result.Unlocked = s.unlockNewAchievements()
	return result, nil
}

// TickAccrual credits the coins earned by generators since the last accrual.
// The baseline advances only by the time actually converted into whole coins,
// so sub-coin progress from a slow fleet carries into the next tick instead of
// being floored away. It never fails: a zero or negative elapsed interval
// (clock skew) is a no-op that leaves the baseline alone.
func (s *EconomyState) TickAccrual(now time.Time) int64 {
	elapsed := now.Sub(s.lastAccrual)
	if elapsed <= 0 {
		return 0
	}
	earned, consumed := Accrue(s.generators, s.cfg.Generators, elapsed)
	s.coins += earned
	s.lastAccrual = s.lastAccrual.Add(consumed)
	return earned
}

// GrantAchievement unlocks an achievement and awards its XP. Granting an
// already-unlocked id is a no-op, not a failure.
func (s *EconomyState) GrantAchievement(id string, xpReward int) (LevelUpResult, bool) {
	if s.unlocked[id] {
		return LevelUpResult{Level: s.level, XP: s.xp}, false
	}
	s.unlocked[id] = true
	leveling, _ := s.awardXP(xpReward)
	return leveling, true
}

// awardXP applies an XP gain and the per-level gem bonus.
func (s *EconomyState) awardXP(gained int) (LevelUpResult, int64) {
	result := AwardXP(s.level, s.xp, gained)
	s.level = result.Level
	s.xp = result.XP

	var gems int64
	if result.LevelsGained > 0 {
		gems = int64(result.LevelsGained) * s.cfg.Balance.GemsPerLevel
		s.gems += gems
	}
	return result, gems
}

// unlockNewAchievements runs the evaluator and grants whatever newly crossed
// its threshold, including the XP each rule carries.
func (s *EconomyState) unlockNewAchievements() []AchievementRule {
	newly := EvaluateAchievements(s.cfg.Achievements, s.collection, s.stats, s.unlocked)
	for _, rule := range newly {
		s.unlocked[rule.ID] = true
		s.awardXP(rule.XP)
	}
	return newly
}

// Read-only accessors for the UI boundary.

func (s *EconomyState) Coins() int64          { return s.coins }
func (s *EconomyState) Gems() int64           { return s.gems }
func (s *EconomyState) Level() int            { return s.level }
func (s *EconomyState) XP() int               { return s.xp }
func (s *EconomyState) Stats() Stats          { return s.stats }
func (s *EconomyState) LastAccrual() time.Time { return s.lastAccrual }

// OwnsTrack reports whether the track id is in the collection.
func (s *EconomyState) OwnsTrack(id string) bool { return s.collection.Contains(id) }

// OwnedIDs returns the set of owned track ids.
func (s *EconomyState) OwnedIDs() map[string]bool { return s.collection.OwnedIDs() }

// Collection returns the owned items ordered by acquisition time.
func (s *EconomyState) Collection() []CollectionItem { return s.collection.Items() }

// CollectionSize returns the number of owned items.
func (s *EconomyState) CollectionSize() int { return s.collection.Len() }

// CountByRarity aggregates the collection into rarity buckets.
func (s *EconomyState) CountByRarity() map[Rarity]int { return s.collection.CountByRarity() }

// GeneratorCount returns the owned count for one generator type.
func (s *EconomyState) GeneratorCount(typeID string) int { return s.generators[typeID] }

// GeneratorCounts returns a copy of the owned-generator map.
func (s *EconomyState) GeneratorCounts() map[string]int {
	counts := make(map[string]int, len(s.generators))
	for id, n := range s.generators {
		counts[id] = n
	}
	return counts
}

// Achievements returns the unlocked achievement ids in sorted order.
func (s *EconomyState) Achievements() []string {
	ids := make([]string, 0, len(s.unlocked))
	for id := range s.unlocked {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Snapshot captures the full persistable state.
func (s *EconomyState) Snapshot() Snapshot {
	return Snapshot{
		Level:           s.level,
		XP:              s.xp,
		Coins:           s.coins,
		Gems:            s.gems,
		Collection:      s.collection.Items(),
		GeneratorCounts: s.GeneratorCounts(),
		Achievements:    s.Achievements(),
		TradesCompleted: s.stats.TradesCompleted,
		CoinsSpent:      s.stats.CoinsSpent,
		LastAccrual:     s.lastAccrual,
	}
}
