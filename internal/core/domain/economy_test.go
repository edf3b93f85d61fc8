package domain

import (
	"errors"
	"testing"
	"time"
)

func testConfig() GameConfig {
	return GameConfig{
		Balance:      DefaultBalance(),
		Rarity:       DefaultRarityScale(),
		Rewards:      DefaultRewardTable(),
		Generators:   testGenerators(),
		Achievements: testRules(),
	}
}

func legendaryEncounter(id string) Encounter {
	track := Track{ID: id, Title: "Hit Song", Artist: "Star", Popularity: 85}
	return Encounter{Track: track, Rarity: RarityLegendary, Cost: Cost(track.Popularity)}
}

func TestEconomyStatePurchaseSong(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	state := NewEconomyState(testConfig(), now)
	enc := legendaryEncounter("t1")

	result, err := state.PurchaseSong(enc, now)
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}

	if state.Coins() != 1000-185 {
		t.Errorf("Coins: got %d, want %d", state.Coins(), 1000-185)
	}
	if !state.OwnsTrack("t1") {
		t.Error("track not in collection after purchase")
	}
	if result.XPGained != 1000 {
		t.Errorf("XPGained: got %d, want 1000", result.XPGained)
	}
	// 1000 XP from level 1 consumes 100+200+300+400, landing on level 5 with 0
	// left; the First Legend unlock below then adds its 150 XP on top.
	if state.Level() != 5 || state.XP() != 150 {
		t.Errorf("progression: got level %d xp %d, want level 5 xp 150", state.Level(), state.XP())
	}
	if result.Leveling.LevelsGained != 4 {
		t.Errorf("LevelsGained: got %d, want 4", result.Leveling.LevelsGained)
	}
	// 4 levels * 5 gems bonus on top of the starting 10.
	if state.Gems() != 30 {
		t.Errorf("Gems: got %d, want 30", state.Gems())
	}
	if state.Stats().CoinsSpent != 185 {
		t.Errorf("CoinsSpent: got %d, want 185", state.Stats().CoinsSpent)
	}

	var unlockedIDs []string
	for _, rule := range result.Unlocked {
		unlockedIDs = append(unlockedIDs, rule.ID)
	}
	if len(unlockedIDs) != 1 || unlockedIDs[0] != "legendary_1" {
		t.Errorf("Unlocked: got %v, want [legendary_1]", unlockedIDs)
	}
}

func TestEconomyStatePurchaseSongRejections(t *testing.T) {
	now := time.Now()

	t.Run("insufficient funds leaves state untouched", func(t *testing.T) {
		cfg := testConfig()
		cfg.Balance.StartingCoins = 50
		state := NewEconomyState(cfg, now)

		_, err := state.PurchaseSong(legendaryEncounter("t1"), now)
		if !errors.Is(err, ErrInsufficientFunds) {
			t.Fatalf("got %v, want ErrInsufficientFunds", err)
		}
		if state.Coins() != 50 {
			t.Errorf("Coins changed on rejected purchase: %d", state.Coins())
		}
		if state.CollectionSize() != 0 {
			t.Errorf("collection changed on rejected purchase: %d items", state.CollectionSize())
		}
	})

	t.Run("already owned", func(t *testing.T) {
		state := NewEconomyState(testConfig(), now)
		if _, err := state.PurchaseSong(legendaryEncounter("t1"), now); err != nil {
			t.Fatalf("first purchase: %v", err)
		}
		coinsAfterFirst := state.Coins()

		_, err := state.PurchaseSong(legendaryEncounter("t1"), now)
		if !errors.Is(err, ErrAlreadyOwned) {
			t.Fatalf("got %v, want ErrAlreadyOwned", err)
		}
		if state.Coins() != coinsAfterFirst {
			t.Errorf("Coins changed on rejected repurchase: %d", state.Coins())
		}
	})
}

func TestEconomyStatePurchaseFromShop(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	state := NewEconomyState(testConfig(), now)
	offer := ShopOffer{
		Track:  Track{ID: "s1", Title: "Shop Song", Artist: "C", Popularity: 45},
		Rarity: RarityRare,
		Cost:   Cost(45),
	}

	result, err := state.PurchaseFromShop(offer, now)
	if err != nil {
		t.Fatalf("shop purchase: %v", err)
	}
	if result.Item.Method != AcquiredByShop {
		t.Errorf("Method: got %s, want %s", result.Item.Method, AcquiredByShop)
	}
	if state.Coins() != 1000-145 {
		t.Errorf("Coins: got %d, want %d", state.Coins(), 1000-145)
	}
	if result.XPGained != 250 {
		t.Errorf("XPGained: got %d, want 250", result.XPGained)
	}
	if !state.OwnsTrack("s1") {
		t.Error("track not in collection after shop purchase")
	}

	// Shop purchases follow the same ownership rule as encounters.
	if _, err := state.PurchaseFromShop(offer, now); !errors.Is(err, ErrAlreadyOwned) {
		t.Errorf("repurchase: got %v, want ErrAlreadyOwned", err)
	}
}

func TestEconomyStatePurchaseGenerator(t *testing.T) {
	now := time.Now()

	t.Run("unknown type", func(t *testing.T) {
		state := NewEconomyState(testConfig(), now)
		if _, err := state.PurchaseGenerator("quantum_generator"); !errors.Is(err, ErrUnknownGeneratorType) {
			t.Errorf("got %v, want ErrUnknownGeneratorType", err)
		}
	})

	t.Run("insufficient gems", func(t *testing.T) {
		state := NewEconomyState(testConfig(), now) // 10 gems; super costs 50
		if _, err := state.PurchaseGenerator("super_generator"); !errors.Is(err, ErrInsufficientFunds) {
			t.Errorf("got %v, want ErrInsufficientFunds", err)
		}
		if state.Gems() != 10 {
			t.Errorf("Gems changed on rejected purchase: %d", state.Gems())
		}
	})

	t.Run("happy path", func(t *testing.T) {
		state := NewEconomyState(testConfig(), now)
		gen, err := state.PurchaseGenerator("basic_generator")
		if err != nil {
			t.Fatalf("purchase: %v", err)
		}
		if gen.ID != "basic_generator" {
			t.Errorf("returned type: got %s", gen.ID)
		}
		if state.Gems() != 0 {
			t.Errorf("Gems: got %d, want 0", state.Gems())
		}
		if state.GeneratorCount("basic_generator") != 1 {
			t.Errorf("count: got %d, want 1", state.GeneratorCount("basic_generator"))
		}
	})
}

func tradeReadyState(t *testing.T, ownedIDs ...string) *EconomyState {
	t.Helper()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	snap := Snapshot{
		Level: 1, Coins: 500, Gems: 10,
		GeneratorCounts: map[string]int{},
		LastAccrual:     now,
	}
	for i, id := range ownedIDs {
		snap.Collection = append(snap.Collection, CollectionItem{
			Track:      Track{ID: id, Title: "Track " + id, Artist: "Artist", Popularity: 30},
			Rarity:     RarityCommon,
			AcquiredAt: now.Add(time.Duration(i) * time.Minute),
			Method:     AcquiredByPurchase,
		})
	}

	state, err := RestoreEconomyState(testConfig(), snap)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	return state
}

func TestEconomyStateExecuteTrade(t *testing.T) {
	now := time.Now()
	requested := Track{ID: "new", Title: "Wanted", Artist: "B", Popularity: 70}

	t.Run("two for one", func(t *testing.T) {
		state := tradeReadyState(t, "t1", "t2")

		result, err := state.ExecuteTrade([]string{"t1", "t2"}, requested, now)
		if err != nil {
			t.Fatalf("trade: %v", err)
		}
		if state.OwnsTrack("t1") || state.OwnsTrack("t2") {
			t.Error("offered tracks still owned after trade")
		}
		if !state.OwnsTrack("new") {
			t.Error("requested track missing after trade")
		}
		if result.Item.Method != AcquiredByTrade {
			t.Errorf("Method: got %s, want %s", result.Item.Method, AcquiredByTrade)
		}
		if result.Item.Rarity != RarityEpic {
			t.Errorf("Rarity: got %s, want %s", result.Item.Rarity, RarityEpic)
		}
		if state.Stats().TradesCompleted != 1 {
			t.Errorf("TradesCompleted: got %d, want 1", state.Stats().TradesCompleted)
		}
	})

	rejections := []struct {
		name    string
		owned   []string
		offered []string
	}{
		{name: "empty offer", owned: []string{"t1"}, offered: nil},
		{name: "unowned id in offer", owned: []string{"t1"}, offered: []string{"t1", "ghost"}},
		{name: "duplicate id in offer", owned: []string{"t1"}, offered: []string{"t1", "t1"}},
	}
	for _, tt := range rejections {
		t.Run(tt.name, func(t *testing.T) {
			state := tradeReadyState(t, tt.owned...)
			before := state.CollectionSize()

			_, err := state.ExecuteTrade(tt.offered, requested, now)
			if !errors.Is(err, ErrInvalidTrade) {
				t.Fatalf("got %v, want ErrInvalidTrade", err)
			}
			if state.CollectionSize() != before {
				t.Errorf("collection mutated by rejected trade: %d -> %d", before, state.CollectionSize())
			}
			for _, id := range tt.owned {
				if !state.OwnsTrack(id) {
					t.Errorf("owned track %s lost in rejected trade", id)
				}
			}
		})
	}

	t.Run("requested already owned", func(t *testing.T) {
		state := tradeReadyState(t, "t1", "new")
		_, err := state.ExecuteTrade([]string{"t1"}, requested, now)
		if !errors.Is(err, ErrInvalidTrade) {
			t.Fatalf("got %v, want ErrInvalidTrade", err)
		}
	})
}

func TestEconomyStateTickAccrual(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	snap := Snapshot{
		Level: 1, Coins: 100, Gems: 10,
		GeneratorCounts: map[string]int{"basic_generator": 2},
		LastAccrual:     base,
	}
	state, err := RestoreEconomyState(testConfig(), snap)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}

	earned := state.TickAccrual(base.Add(time.Hour))
	if earned != 200 {
		t.Errorf("earned: got %d, want 200", earned)
	}
	if state.Coins() != 300 {
		t.Errorf("Coins: got %d, want 300", state.Coins())
	}
	if !state.LastAccrual().Equal(base.Add(time.Hour)) {
		t.Errorf("LastAccrual not advanced: %v", state.LastAccrual())
	}

	// Clock skew: a tick in the past earns nothing and keeps the baseline.
	if earned := state.TickAccrual(base); earned != 0 {
		t.Errorf("skewed tick earned %d, want 0", earned)
	}
	if !state.LastAccrual().Equal(base.Add(time.Hour)) {
		t.Errorf("skewed tick moved the baseline: %v", state.LastAccrual())
	}
}

func TestEconomyStateTickAccrualSlowGenerator(t *testing.T) {
	// A single basic_generator earns well under one coin per tick at a
	// one-second cadence. The baseline must hold back the unconverted
	// remainder so the coins still arrive, and a foreground hour must pay the
	// same as an offline hour.
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	snap := Snapshot{
		Level: 1,
		GeneratorCounts: map[string]int{"basic_generator": 1},
		LastAccrual:     base,
	}

	foreground, err := RestoreEconomyState(testConfig(), snap)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	var ticked int64
	for i := 1; i <= 3600; i++ {
		ticked += foreground.TickAccrual(base.Add(time.Duration(i) * time.Second))
	}

	offline, err := RestoreEconomyState(testConfig(), snap)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	caught := offline.TickAccrual(base.Add(time.Hour))

	if caught != 100 {
		t.Errorf("offline catch-up: got %d, want 100", caught)
	}
	if ticked != caught {
		t.Errorf("foreground ticks earned %d, offline catch-up earned %d", ticked, caught)
	}
	if foreground.Coins() != offline.Coins() {
		t.Errorf("balances diverged: foreground %d, offline %d", foreground.Coins(), offline.Coins())
	}
}

func TestEconomyStateGrantAchievementIdempotent(t *testing.T) {
	now := time.Now()
	state := NewEconomyState(testConfig(), now)

	if _, granted := state.GrantAchievement("welcome", 50); !granted {
		t.Fatal("first grant reported no-op")
	}
	xpAfterFirst := state.XP()

	if _, granted := state.GrantAchievement("welcome", 50); granted {
		t.Error("second grant was not a no-op")
	}
	if state.XP() != xpAfterFirst {
		t.Errorf("XP changed on repeated grant: %d -> %d", xpAfterFirst, state.XP())
	}
	if got := state.Achievements(); len(got) != 1 || got[0] != "welcome" {
		t.Errorf("Achievements: got %v, want [welcome]", got)
	}
}

func TestEconomyStateSnapshotRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	state := NewEconomyState(testConfig(), now)

	if _, err := state.PurchaseSong(legendaryEncounter("t1"), now.Add(time.Minute)); err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if _, err := state.PurchaseGenerator("basic_generator"); err != nil {
		t.Fatalf("generator: %v", err)
	}
	state.TickAccrual(now.Add(2 * time.Minute))

	snap := state.Snapshot()
	restored, err := RestoreEconomyState(testConfig(), snap)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if !restored.Snapshot().Equal(snap) {
		t.Errorf("snapshot did not round-trip:\n got %+v\nwant %+v", restored.Snapshot(), snap)
	}
}

func TestRestoreEconomyStateNormalizes(t *testing.T) {
	now := time.Now()

	state, err := RestoreEconomyState(testConfig(), Snapshot{
		Level: 1, XP: 340, Coins: -50, Gems: -1,
		LastAccrual: now,
	})
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if state.Coins() != 0 || state.Gems() != 0 {
		t.Errorf("negative balances not clamped: coins %d gems %d", state.Coins(), state.Gems())
	}
	// 340 overflow XP from level 1 renormalizes to level 3 with 40 left.
	if state.Level() != 3 || state.XP() != 40 {
		t.Errorf("xp not renormalized: level %d xp %d", state.Level(), state.XP())
	}

	dup := Snapshot{
		Level: 1, LastAccrual: now,
		Collection: []CollectionItem{
			itemAt("t1", RarityCommon, now),
			itemAt("t1", RarityCommon, now),
		},
	}
	if _, err := RestoreEconomyState(testConfig(), dup); !errors.Is(err, ErrDuplicateItem) {
		t.Errorf("duplicate collection snapshot: got %v, want ErrDuplicateItem", err)
	}
}
