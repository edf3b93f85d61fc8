// Package spotify implements the music-catalog port against the Spotify Web
// API.
package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"

	"github.com/ewilliams-labs/songswap/internal/core/domain"
	"github.com/ewilliams-labs/songswap/internal/core/ports"
)

const (
	defaultBaseURL  = "https://api.spotify.com/v1"
	defaultPageSize = 50
	searchCacheSize = 256
)

// Config tunes the client. Only TokenSource is required.
type Config struct {
	// TokenSource supplies the user's access token. The auth flow that
	// produces it lives in the host application; a static token works:
	// oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}).
	TokenSource oauth2.TokenSource
	BaseURL     string
	MaxRetries  int
	BaseBackoff time.Duration
	// PageSize caps how many tracks one API request may return.
	PageSize int
}

// Client is an HTTP client for the Spotify adapter.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	maxRetries  int
	baseBackoff time.Duration
	pageSize    int
	searchCache *lru.Cache
}

// compile-time interface assertion
var _ ports.MusicCatalog = (*Client)(nil)

// NewClient constructs a Spotify client whose requests carry the token from
// the given source.
func NewClient(cfg Config) *Client {
	httpClient := oauth2.NewClient(context.Background(), cfg.TokenSource)
	httpClient.Timeout = 30 * time.Second

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 || pageSize > defaultPageSize {
		pageSize = defaultPageSize
	}

	// lru.New only errors on a non-positive size.
	cache, _ := lru.New(searchCacheSize)

	return &Client{
		httpClient:  httpClient,
		baseURL:     strings.TrimRight(baseURL, "/"),
		maxRetries:  cfg.MaxRetries,
		baseBackoff: cfg.BaseBackoff,
		pageSize:    pageSize,
		searchCache: cache,
	}
}

// GetTopTracks retrieves up to limit of the user's top tracks. Requests
// beyond one API page are fetched concurrently.
func (c *Client) GetTopTracks(ctx context.Context, limit int) ([]domain.Track, error) {
	if limit <= 0 {
		limit = c.pageSize
	}

	numPages := (limit + c.pageSize - 1) / c.pageSize
	pages := make([][]domain.Track, numPages)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < numPages; i++ {
		i := i
		g.Go(func() error {
			pageLimit := c.pageSize
			if remaining := limit - i*c.pageSize; remaining < pageLimit {
				pageLimit = remaining
			}
			page, err := c.fetchTopTracksPage(gctx, pageLimit, i*c.pageSize)
			if err != nil {
				return err
			}
			pages[i] = page
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	tracks := make([]domain.Track, 0, limit)
	for _, page := range pages {
		tracks = append(tracks, page...)
	}
	if len(tracks) > limit {
		tracks = tracks[:limit]
	}
	return tracks, nil
}

func (c *Client) fetchTopTracksPage(ctx context.Context, limit, offset int) ([]domain.Track, error) {
	reqURL := fmt.Sprintf("%s/me/top/tracks?limit=%d&offset=%d", c.baseURL, limit, offset)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("spotify adapter: %w", err)
	}

	resp, err := c.doRequestWithRetry(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("spotify adapter: top tracks status %d", resp.StatusCode)
	}

	var body topTracksResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("spotify adapter: %w", err)
	}

	return mapTracksToDomain(body.Items), nil
}

// Search queries the catalog for tracks matching the query. Results are
// cached per normalized query, so repeated lookups from the trading screen
// don't burn API quota.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]domain.Track, error) {
	if strings.TrimSpace(query) == "" {
		return []domain.Track{}, nil
	}
	if limit <= 0 || limit > c.pageSize {
		limit = 10
	}

	cacheKey := fmt.Sprintf("%d:%s", limit, normalizeQuery(query))
	if cached, ok := c.searchCache.Get(cacheKey); ok {
		return cached.([]domain.Track), nil
	}

	reqURL := fmt.Sprintf("%s/search?q=%s&type=track&limit=%d", c.baseURL, url.QueryEscape(query), limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("spotify adapter: %w", err)
	}

	resp, err := c.doRequestWithRetry(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("spotify adapter: search status %d", resp.StatusCode)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("spotify adapter: %w", err)
	}

	tracks := mapTracksToDomain(body.Tracks.Items)
	c.searchCache.Add(cacheKey, tracks)
	return tracks, nil
}
