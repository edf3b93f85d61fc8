package domain

import "math/rand"

// Position is a screen coordinate for an encounter.
type Position struct {
	X float64
	Y float64
}

// Bounds is the rectangle encounters may be placed in. The caller supplies
// it; the core knows nothing about device dimensions.
type Bounds struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
}

// Encounter is a transient, purchasable on-screen representation of an
// unowned track. Encounters are never persisted: a new batch replaces the
// previous one, and a purchase consumes its encounter.
type Encounter struct {
	Track    Track
	Rarity   Rarity
	Cost     int64
	Position Position
}

// EncounterGenerator produces batches of encounters from candidate tracks.
type EncounterGenerator struct {
	scale RarityScale
	rng   *rand.Rand
}

// NewEncounterGenerator constructs a generator. The rand source is injected
// so tests can pin the shuffle and placement.
func NewEncounterGenerator(scale RarityScale, rng *rand.Rand) *EncounterGenerator {
	return &EncounterGenerator{scale: scale, rng: rng}
}

// Generate filters out owned tracks, picks a uniform random subset of up to
// maxCount candidates (shuffle, then take the first maxCount), and assigns
// each a rarity, a cost, and a random position within bounds. An empty or
// fully-owned candidate list yields an empty batch, not an error.
func (g *EncounterGenerator) Generate(candidates []Track, ownedIDs map[string]bool, maxCount int, bounds Bounds) []Encounter {
	if maxCount <= 0 {
		return []Encounter{}
	}

	pool := make([]Track, 0, len(candidates))
	for _, t := range candidates {
		if !ownedIDs[t.ID] {
			pool = append(pool, t)
		}
	}

	g.rng.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
	if len(pool) > maxCount {
		pool = pool[:maxCount]
	}

	encounters := make([]Encounter, 0, len(pool))
	for _, t := range pool {
		encounters = append(encounters, Encounter{
			Track:    t,
			Rarity:   g.scale.Classify(t.Popularity),
			Cost:     Cost(t.Popularity),
			Position: g.randomPosition(bounds),
		})
	}
	return encounters
}

func (g *EncounterGenerator) randomPosition(b Bounds) Position {
	w := b.MaxX - b.MinX
	h := b.MaxY - b.MinY
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return Position{
		X: b.MinX + g.rng.Float64()*w,
		Y: b.MinY + g.rng.Float64()*h,
	}
}
