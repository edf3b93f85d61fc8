package ports

import (
	"context"

	"github.com/ewilliams-labs/songswap/internal/core/domain"
)

// MusicCatalog is the external music API the core draws candidate tracks
// from. Results are opaque input: implementations must tolerate missing
// optional fields (artwork, preview) and return tracks with popularity
// already clamped into 0..100.
type MusicCatalog interface {
	GetTopTracks(ctx context.Context, limit int) ([]domain.Track, error)
	Search(ctx context.Context, query string, limit int) ([]domain.Track, error)
}
