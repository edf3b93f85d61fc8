package domain

// ShopOffer is a priced track offered for direct coin purchase. Unlike
// encounters, offers carry no screen position: the shop is a plain list built
// from a catalog search.
type ShopOffer struct {
	Track  Track
	Rarity Rarity
	Cost   int64
}

// BuildShopOffers prices unowned candidate tracks for the shop. Candidate
// order is preserved (it reflects search relevance) and the stock is capped at
// maxCount. A fully-owned candidate list yields an empty stock, not an error.
func BuildShopOffers(candidates []Track, ownedIDs map[string]bool, scale RarityScale, maxCount int) []ShopOffer {
	if maxCount <= 0 {
		return []ShopOffer{}
	}

	offers := make([]ShopOffer, 0, maxCount)
	for _, t := range candidates {
		if ownedIDs[t.ID] {
			continue
		}
		offers = append(offers, ShopOffer{
			Track:  t,
			Rarity: scale.Classify(t.Popularity),
			Cost:   Cost(t.Popularity),
		})
		if len(offers) == maxCount {
			break
		}
	}
	return offers
}
