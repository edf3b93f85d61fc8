package domain

import (
	"errors"
	"testing"
	"time"
)

func itemAt(id string, rarity Rarity, acquired time.Time) CollectionItem {
	return CollectionItem{
		Track:      Track{ID: id, Title: "Track " + id, Artist: "Artist"},
		Rarity:     rarity,
		AcquiredAt: acquired,
		Method:     AcquiredByPurchase,
	}
}

func TestCollectionLedgerAddRemove(t *testing.T) {
	ledger := NewCollectionLedger()
	now := time.Now()

	if err := ledger.Add(itemAt("t1", RarityCommon, now)); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if !ledger.Contains("t1") {
		t.Fatal("Contains(t1) = false after add")
	}

	if err := ledger.Add(itemAt("t1", RarityRare, now)); !errors.Is(err, ErrDuplicateItem) {
		t.Errorf("duplicate add: got %v, want ErrDuplicateItem", err)
	}
	if ledger.Len() != 1 {
		t.Errorf("Len after rejected duplicate: got %d, want 1", ledger.Len())
	}

	if err := ledger.Remove("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("remove absent: got %v, want ErrNotFound", err)
	}
	if err := ledger.Remove("t1"); err != nil {
		t.Fatalf("remove owned: %v", err)
	}
	if ledger.Contains("t1") {
		t.Error("Contains(t1) = true after remove")
	}
}

func TestCollectionLedgerCountByRarity(t *testing.T) {
	ledger := NewCollectionLedger()
	now := time.Now()

	for i, r := range []Rarity{RarityCommon, RarityCommon, RarityLegendary} {
		id := string(rune('a' + i))
		if err := ledger.Add(itemAt(id, r, now)); err != nil {
			t.Fatalf("add %s: %v", id, err)
		}
	}

	counts := ledger.CountByRarity()
	if counts[RarityCommon] != 2 {
		t.Errorf("Common: got %d, want 2", counts[RarityCommon])
	}
	if counts[RarityLegendary] != 1 {
		t.Errorf("Legendary: got %d, want 1", counts[RarityLegendary])
	}
	if counts[RarityEpic] != 0 {
		t.Errorf("Epic: got %d, want 0", counts[RarityEpic])
	}
	if counts[RarityRare] != 0 {
		t.Errorf("Rare: got %d, want 0", counts[RarityRare])
	}
}

func TestCollectionLedgerItemsOrderedByAcquisition(t *testing.T) {
	ledger := NewCollectionLedger()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// Inserted out of order on purpose.
	if err := ledger.Add(itemAt("late", RarityCommon, base.Add(time.Hour))); err != nil {
		t.Fatal(err)
	}
	if err := ledger.Add(itemAt("early", RarityCommon, base)); err != nil {
		t.Fatal(err)
	}
	if err := ledger.Add(itemAt("tie-b", RarityCommon, base.Add(time.Minute))); err != nil {
		t.Fatal(err)
	}
	if err := ledger.Add(itemAt("tie-a", RarityCommon, base.Add(time.Minute))); err != nil {
		t.Fatal(err)
	}

	items := ledger.Items()
	wantOrder := []string{"early", "tie-a", "tie-b", "late"}
	if len(items) != len(wantOrder) {
		t.Fatalf("Items: got %d, want %d", len(items), len(wantOrder))
	}
	for i, want := range wantOrder {
		if items[i].Track.ID != want {
			t.Errorf("position %d: got %s, want %s", i, items[i].Track.ID, want)
		}
	}
}
