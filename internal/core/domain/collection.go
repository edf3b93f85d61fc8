package domain

import (
	"sort"
	"time"
)

// AcquisitionMethod records how a collection item entered the collection.
type AcquisitionMethod string

const (
	AcquiredByPurchase AcquisitionMethod = "purchase"
	AcquiredByTrade    AcquisitionMethod = "trade"
	AcquiredByShop     AcquisitionMethod = "shop"
)

// CollectionItem is a track the player owns. Rarity is assigned once at
// acquisition time and travels with the item.
type CollectionItem struct {
	Track      Track
	Rarity     Rarity
	AcquiredAt time.Time
	Method     AcquisitionMethod
}

// CollectionLedger is the authoritative set of owned items, indexed by track
// id. At most one item per track id may exist. The ledger is owned by
// EconomyState and is not safe for concurrent use on its own.
type CollectionLedger struct {
	items map[string]CollectionItem
}

// NewCollectionLedger returns an empty ledger.
func NewCollectionLedger() *CollectionLedger {
	return &CollectionLedger{items: make(map[string]CollectionItem)}
}

// Contains reports whether the given track id is owned.
func (l *CollectionLedger) Contains(id string) bool {
	_, ok := l.items[id]
	return ok
}

// Add inserts an item, rejecting duplicates by track id.
func (l *CollectionLedger) Add(item CollectionItem) error {
	if _, ok := l.items[item.Track.ID]; ok {
		return ErrDuplicateItem
	}
	l.items[item.Track.ID] = item
	return nil
}

// Remove deletes the item with the given track id.
func (l *CollectionLedger) Remove(id string) error {
	if _, ok := l.items[id]; !ok {
		return ErrNotFound
	}
	delete(l.items, id)
	return nil
}

// Len returns the number of owned items.
func (l *CollectionLedger) Len() int {
	return len(l.items)
}

// CountByRarity aggregates owned items into rarity buckets. Every tier is
// present in the result, including empty ones.
func (l *CollectionLedger) CountByRarity() map[Rarity]int {
	counts := make(map[Rarity]int, len(AllRarities()))
	for _, r := range AllRarities() {
		counts[r] = 0
	}
	for _, item := range l.items {
		counts[item.Rarity]++
	}
	return counts
}

// Items returns the owned items ordered by acquisition time (ties broken by
// track id for a stable order). Used for snapshots and UI listings.
func (l *CollectionLedger) Items() []CollectionItem {
	out := make([]CollectionItem, 0, len(l.items))
	for _, item := range l.items {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].AcquiredAt.Equal(out[j].AcquiredAt) {
			return out[i].AcquiredAt.Before(out[j].AcquiredAt)
		}
		return out[i].Track.ID < out[j].Track.ID
	})
	return out
}

// OwnedIDs returns the set of owned track ids.
func (l *CollectionLedger) OwnedIDs() map[string]bool {
	ids := make(map[string]bool, len(l.items))
	for id := range l.items {
		ids[id] = true
	}
	return ids
}
