package spotify

import (
	"strings"

	"github.com/ewilliams-labs/songswap/internal/core/domain"
)

// mapTrackToDomain converts a raw Spotify track to a clean domain track.
func mapTrackToDomain(wt wireTrack) domain.Track {
	var artistNames []string
	for _, a := range wt.Artists {
		artistNames = append(artistNames, a.Name)
	}

	artworkURL := ""
	if len(wt.Album.Images) > 0 {
		artworkURL = wt.Album.Images[0].URL
	}

	popularity := wt.Popularity
	if popularity < 0 {
		popularity = 0
	}
	if popularity > 100 {
		popularity = 100
	}

	return domain.Track{
		ID:         wt.ID,
		Title:      wt.Name,
		Artist:     strings.Join(artistNames, ", "),
		Popularity: popularity,
		PreviewURL: wt.PreviewURL,
		ArtworkURL: artworkURL,
	}
}

func mapTracksToDomain(wts []wireTrack) []domain.Track {
	tracks := make([]domain.Track, 0, len(wts))
	for _, wt := range wts {
		tracks = append(tracks, mapTrackToDomain(wt))
	}
	return tracks
}
