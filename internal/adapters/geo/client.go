package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"panchang-backend/internal/domain"
	"panchang-backend/internal/infra/metrics"
)

// Client resolves place names through an external geocoding service.
// Successful lookups are cached in process because place coordinates do
// not move. Failures are returned as-is: callers fall back to their
// configured default location.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	cacheTTL   time.Duration

	mu    sync.Mutex
	cache map[string]cacheEntry
}

type cacheEntry struct {
	loc     domain.Location
	expires time.Time
}

type geocodeResponse struct {
	Label     string  `json:"label"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

var _ domain.Locator = (*Client)(nil)

// NewClient creates the geocoder adapter.
func NewClient(baseURL string, timeout, cacheTTL time.Duration) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("baseURL is required")
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if parsed.Scheme == "" {
		parsed.Scheme = "http"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if cacheTTL <= 0 {
		cacheTTL = 24 * time.Hour
	}
	return &Client{
		baseURL:    parsed,
		httpClient: &http.Client{Timeout: timeout},
		cacheTTL:   cacheTTL,
		cache:      map[string]cacheEntry{},
	}, nil
}

func (c *Client) Resolve(ctx context.Context, query string) (domain.Location, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return domain.Location{}, fmt.Errorf("empty location query")
	}
	key := strings.ToLower(query)

	c.mu.Lock()
	if entry, ok := c.cache[key]; ok && time.Now().Before(entry.expires) {
		c.mu.Unlock()
		return entry.loc, nil
	}
	c.mu.Unlock()

	resolved := *c.baseURL
	resolved.Path = strings.TrimSuffix(c.baseURL.Path, "/") + "/v1/geocode"
	values := url.Values{}
	values.Set("q", query)
	resolved.RawQuery = values.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resolved.String(), nil)
	if err != nil {
		return domain.Location{}, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.ObserveNetworkRequest("geo", "resolve", c.baseURL.Host, start, err)
	if err != nil {
		return domain.Location{}, fmt.Errorf("geo api request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return domain.Location{}, fmt.Errorf("geo api error: status=%d", resp.StatusCode)
	}

	var body geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.Location{}, fmt.Errorf("decode response: %w", err)
	}
	if body.Label == "" {
		return domain.Location{}, fmt.Errorf("geo api returned no match for %q", query)
	}

	loc := domain.Location{Label: body.Label, Latitude: body.Latitude, Longitude: body.Longitude}
	c.mu.Lock()
	c.cache[key] = cacheEntry{loc: loc, expires: time.Now().Add(c.cacheTTL)}
	c.mu.Unlock()
	return loc, nil
}
