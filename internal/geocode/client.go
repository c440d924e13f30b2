package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/anonto42/memomap/backend/internal/models"
	"github.com/anonto42/memomap/backend/pkg/metrics"
)

var (
	ErrEmptyQuery    = errors.New("query must not be empty")
	ErrNotConfigured = errors.New("geocoding is not configured")
	ErrUpstream      = errors.New("geocoding provider failed")
)

// Cache stores reshaped results by lookup key.
type Cache interface {
	Get(ctx context.Context, key string) ([]models.Place, bool, error)
	Put(ctx context.Context, key string, places []models.Place, ttl time.Duration) error
}

type Config struct {
	BaseURL  string
	Token    string
	RPS      float64
	CacheTTL time.Duration
	Limit    int
}

// Client talks to the Mapbox Geocoding v5 API and returns places in the
// app's own shape.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	cache   Cache
	logger  *logrus.Logger
	metrics *metrics.Metrics
}

// NewClient builds a client. cache may be nil.
func NewClient(cfg Config, cache Cache, logger *logrus.Logger, m *metrics.Metrics) *Client {
	if cfg.Limit <= 0 {
		cfg.Limit = 5
	}
	if cfg.RPS <= 0 {
		cfg.RPS = 5
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(cfg.RPS), int(cfg.RPS)+1),
		cache:   cache,
		logger:  logger,
		metrics: m,
	}
}

// Forward resolves free text to places.
func (c *Client) Forward(ctx context.Context, query string) ([]models.Place, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	return c.lookup(ctx, "forward", query, nil)
}

// Reverse resolves a coordinate to the places containing it.
func (c *Client) Reverse(ctx context.Context, lat, lon float64) ([]models.Place, error) {
	if err := models.ValidateCoordinates(&lat, &lon); err != nil {
		return nil, err
	}
	return c.lookup(ctx, "reverse", formatCoord(lon)+","+formatCoord(lat), nil)
}

// Search is Forward biased toward a point, typically the map center.
func (c *Client) Search(ctx context.Context, query string, lat, lon float64) ([]models.Place, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if err := models.ValidateCoordinates(&lat, &lon); err != nil {
		return nil, err
	}
	params := url.Values{"proximity": {formatCoord(lon) + "," + formatCoord(lat)}}
	return c.lookup(ctx, "search", query, params)
}

func (c *Client) lookup(ctx context.Context, kind, term string, extra url.Values) ([]models.Place, error) {
	if c.cfg.Token == "" {
		return nil, ErrNotConfigured
	}

	key := cacheKey(kind, term, extra)
	if c.cache != nil {
		places, ok, err := c.cache.Get(ctx, key)
		if err != nil {
			c.logger.WithError(err).Warn("geocode cache read failed")
		} else if ok {
			c.metrics.GeocodeLookups.WithLabelValues(kind, "cache").Inc()
			return places, nil
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("geocode rate limiter: %w", err)
	}

	places, err := c.fetch(ctx, term, extra)
	if err != nil {
		return nil, err
	}
	c.metrics.GeocodeLookups.WithLabelValues(kind, "upstream").Inc()

	if c.cache != nil && c.cfg.CacheTTL > 0 {
		if err := c.cache.Put(ctx, key, places, c.cfg.CacheTTL); err != nil {
			c.logger.WithError(err).Warn("geocode cache write failed")
		}
	}
	return places, nil
}

type featureCollection struct {
	Features []struct {
		Text      string    `json:"text"`
		PlaceName string    `json:"place_name"`
		Center    []float64 `json:"center"`
	} `json:"features"`
}

func (c *Client) fetch(ctx context.Context, term string, extra url.Values) ([]models.Place, error) {
	params := url.Values{}
	for k, v := range extra {
		params[k] = v
	}
	params.Set("access_token", c.cfg.Token)
	params.Set("limit", strconv.Itoa(c.cfg.Limit))

	endpoint := fmt.Sprintf("%s/geocoding/v5/mapbox.places/%s.json?%s",
		c.cfg.BaseURL, url.PathEscape(term), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build geocode request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	var fc featureCollection
	if err := json.NewDecoder(resp.Body).Decode(&fc); err != nil {
		return nil, fmt.Errorf("%w: bad response: %v", ErrUpstream, err)
	}

	places := make([]models.Place, 0, len(fc.Features))
	for _, f := range fc.Features {
		if len(f.Center) < 2 {
			continue
		}
		places = append(places, models.Place{
			Name:    f.Text,
			Address: f.PlaceName,
			Lat:     f.Center[1],
			Lon:     f.Center[0],
		})
	}
	return places, nil
}

func cacheKey(kind, term string, extra url.Values) string {
	key := kind + ":" + strings.ToLower(term)
	if len(extra) > 0 {
		key += "?" + extra.Encode()
	}
	return key
}

// formatCoord trims coordinates to ~1 m so nearby lookups share cache entries.
func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 5, 64)
}
