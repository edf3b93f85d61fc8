package domain

// Track represents a musical track sourced from the external catalog.
// Tracks are immutable inputs; the economy never edits their metadata.
type Track struct {
	ID         string
	Title      string
	Artist     string
	Popularity int    // 0..100 as reported by the catalog
	PreviewURL string // optional
	ArtworkURL string // optional
}
