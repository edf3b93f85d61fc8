package spotify

// Wire types for the Spotify Web API responses this adapter consumes.
// Optional fields (preview_url, album images) may be absent or null.

type wireArtist struct {
	Name string `json:"name"`
}

type wireImage struct {
	URL string `json:"url"`
}

type wireAlbum struct {
	Name   string      `json:"name"`
	Images []wireImage `json:"images"`
}

type wireTrack struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Popularity int          `json:"popularity"`
	PreviewURL string       `json:"preview_url"`
	Artists    []wireArtist `json:"artists"`
	Album      wireAlbum    `json:"album"`
}

type topTracksResponse struct {
	Items []wireTrack `json:"items"`
}

type searchResponse struct {
	Tracks struct {
		Items []wireTrack `json:"items"`
	} `json:"tracks"`
}
