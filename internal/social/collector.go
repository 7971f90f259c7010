package social

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/BSmick6/aurabot/internal/metrics"
)

const (
	// ProviderStub emits deterministic synthetic posts (useful for tests/offline work).
	ProviderStub = "stub"
	// ProviderHTTP polls a JSON search API for keyword mentions.
	ProviderHTTP = "http"
)

const (
	defaultPollInterval = 5 * time.Second
	defaultPageLimit    = 50
	defaultWindow       = 2 * time.Minute
	seenCap             = 4096
)

// Collector polls a social search API and emits per-keyword aura readings.
type Collector struct {
	provider     string
	baseURL      string
	keywords     []string
	bearerToken  string
	pollInterval time.Duration
	pageLimit    int
	window       time.Duration
	minScore     float64
	log          zerolog.Logger
	client       *http.Client

	mu      sync.Mutex
	seen    map[string]struct{}
	seenAge []string
	windows map[string][]Post
}

// CollectorOption configures Collector construction.
type CollectorOption func(*Collector)

// WithPollInterval overrides the polling cadence.
func WithPollInterval(d time.Duration) CollectorOption {
	return func(c *Collector) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

// WithBearerToken attaches an Authorization header to API requests.
func WithBearerToken(token string) CollectorOption {
	return func(c *Collector) { c.bearerToken = token }
}

// WithPageLimit caps how many posts one search request asks for.
func WithPageLimit(limit int) CollectorOption {
	return func(c *Collector) {
		if limit > 0 {
			c.pageLimit = limit
		}
	}
}

// WithWindow sets the aggregation window for readings.
func WithWindow(d time.Duration) CollectorOption {
	return func(c *Collector) {
		if d > 0 {
			c.window = d
		}
	}
}

// WithMinScore zeroes reading scores whose magnitude falls under the floor.
// Mentions still count, so mention velocity survives a flat window.
func WithMinScore(score float64) CollectorOption {
	return func(c *Collector) {
		if score > 0 {
			c.minScore = score
		}
	}
}

// NewCollector constructs a collector for the given provider, base URL, and keywords.
func NewCollector(provider, baseURL string, keywords []string, log zerolog.Logger, opts ...CollectorOption) *Collector {
	if provider == "" {
		provider = ProviderStub
	}
	c := &Collector{
		provider:     strings.ToLower(provider),
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		keywords:     append([]string(nil), keywords...),
		pollInterval: defaultPollInterval,
		pageLimit:    defaultPageLimit,
		window:       defaultWindow,
		log:          log,
		client:       &http.Client{Timeout: 10 * time.Second},
		seen:         make(map[string]struct{}),
		windows:      make(map[string][]Post),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run polls until the context is canceled, pushing readings onto out.
func (c *Collector) Run(ctx context.Context, out chan<- Reading) error {
	if c.provider == ProviderStub {
		return c.runStub(ctx, out)
	}
	if c.baseURL == "" {
		return fmt.Errorf("social collector requires a base url")
	}
	if len(c.keywords) == 0 {
		return fmt.Errorf("social collector requires at least one keyword")
	}

	if err := c.poll(ctx, out); err != nil && ctx.Err() == nil {
		c.log.Warn().Err(err).Msg("initial social poll failed")
	}
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := c.poll(ctx, out); err != nil && ctx.Err() == nil {
				c.log.Warn().Err(err).Msg("social poll failed")
			}
		}
	}
}

func (c *Collector) poll(ctx context.Context, out chan<- Reading) error {
	for _, keyword := range c.keywords {
		posts, err := c.search(ctx, keyword)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.log.Warn().Err(err).Str("keyword", keyword).Msg("social search failed")
			continue
		}
		fresh := c.dedupe(posts)
		if len(fresh) > 0 {
			metrics.PostsTotal.WithLabelValues(keyword).Add(float64(len(fresh)))
		}
		reading := c.updateWindow(keyword, fresh)
		select {
		case out <- reading:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (c *Collector) search(ctx context.Context, keyword string) ([]Post, error) {
	endpoint := fmt.Sprintf("%s/search?q=%s&limit=%d", c.baseURL, url.QueryEscape(keyword), c.pageLimit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "aurabot/1.0 (social)")
	if c.bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearerToken)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http do: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("rate limited")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	var posts []Post
	if err := json.NewDecoder(resp.Body).Decode(&posts); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return posts, nil
}

// dedupe filters posts already observed, bounding the seen set.
func (c *Collector) dedupe(posts []Post) []Post {
	c.mu.Lock()
	defer c.mu.Unlock()
	fresh := posts[:0:0]
	for _, post := range posts {
		if post.ID == "" {
			continue
		}
		if _, ok := c.seen[post.ID]; ok {
			continue
		}
		c.seen[post.ID] = struct{}{}
		c.seenAge = append(c.seenAge, post.ID)
		fresh = append(fresh, post)
	}
	for len(c.seenAge) > seenCap {
		delete(c.seen, c.seenAge[0])
		c.seenAge = c.seenAge[1:]
	}
	return fresh
}

// updateWindow folds fresh posts into the keyword window and returns the reading.
func (c *Collector) updateWindow(keyword string, fresh []Post) Reading {
	c.mu.Lock()
	defer c.mu.Unlock()
	window := append(c.windows[keyword], fresh...)
	cutoff := time.Now().UTC().Add(-c.window)
	idx := 0
	for i, post := range window {
		if post.CreatedAt.After(cutoff) {
			idx = i
			break
		}
		idx = i + 1
	}
	if idx > 0 && idx <= len(window) {
		window = window[idx:]
	}
	c.windows[keyword] = window

	reading := Aggregate(keyword, window)
	if reading.Ts.IsZero() {
		reading.Ts = time.Now().UTC()
	}
	if c.minScore > 0 && math.Abs(reading.Score) < c.minScore {
		reading.Score = 0
	}
	return reading
}

func (c *Collector) runStub(ctx context.Context, out chan<- Reading) error {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	score := 0.0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ts := <-ticker.C:
			score += 0.05
			if score > 0.9 {
				score = -0.9
			}
			for _, keyword := range c.keywords {
				reading := Reading{Keyword: keyword, Score: score, Mentions: 3, Ts: ts.UTC()}
				select {
				case out <- reading:
					metrics.PostsTotal.WithLabelValues(keyword).Add(3)
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	}
}
