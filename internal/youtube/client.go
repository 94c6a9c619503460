package youtube

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

	"go.uber.org/zap"
)

const (
	defaultBaseURL  = "https://www.googleapis.com/youtube/v3"
	defaultTimeout  = 15 * time.Second
	defaultCacheTTL = 24 * time.Hour
)

// timeNow is a variable for testing purposes (allows mocking time).
var timeNow = time.Now

// Metadata is the subset of video metadata the scorers consume.
type Metadata struct {
	VideoID      string   `json:"video_id"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	ChannelTitle string   `json:"channel_title"`
	Category     string   `json:"category"`
	Tags         []string `json:"tags,omitempty"`
	Duration     string   `json:"duration,omitempty"`
}

// Config configures the metadata client.
type Config struct {
	APIKey   string
	BaseURL  string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// Client fetches video metadata, caching both videos and the category name
// table.
type Client struct {
	apiKey     string `json:"-"` // Never serialize API keys
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
	ttl        time.Duration

	mu         sync.Mutex
	videos     map[string]cachedMetadata
	categories map[string]string
	catFetched time.Time
}

type cachedMetadata struct {
	meta    Metadata
	fetched time.Time
}

// NewClient validates the configuration and builds a metadata client.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("youtube API key required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		ttl:        ttl,
		videos:     make(map[string]cachedMetadata),
		categories: make(map[string]string),
	}, nil
}

// videoListResponse is the subset of the videos.list response we read.
type videoListResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title        string   `json:"title"`
			Description  string   `json:"description"`
			ChannelTitle string   `json:"channelTitle"`
			CategoryID   string   `json:"categoryId"`
			Tags         []string `json:"tags"`
		} `json:"snippet"`
		ContentDetails struct {
			Duration string `json:"duration"`
		} `json:"contentDetails"`
	} `json:"items"`
}

type categoryListResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title string `json:"title"`
		} `json:"snippet"`
	} `json:"items"`
}

type apiErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Errors  []struct {
			Reason string `json:"reason"`
		} `json:"errors"`
	} `json:"error"`
}

// Lookup returns metadata for a video ID or URL, from cache when fresh.
func (c *Client) Lookup(ctx context.Context, input string) (Metadata, error) {
	id, err := ExtractVideoID(input)
	if err != nil {
		return Metadata{}, err
	}

	now := timeNow()
	c.mu.Lock()
	if entry, ok := c.videos[id]; ok && now.Sub(entry.fetched) < c.ttl {
		c.mu.Unlock()
		return entry.meta, nil
	}
	c.mu.Unlock()

	meta, err := c.fetchVideo(ctx, id)
	if err != nil {
		return Metadata{}, err
	}

	c.mu.Lock()
	c.videos[id] = cachedMetadata{meta: meta, fetched: now}
	c.mu.Unlock()
	return meta, nil
}

func (c *Client) fetchVideo(ctx context.Context, id string) (Metadata, error) {
	q := url.Values{}
	q.Set("part", "snippet,contentDetails")
	q.Set("id", id)
	q.Set("key", c.apiKey)

	var resp videoListResponse
	if err := c.getJSON(ctx, c.baseURL+"/videos?"+q.Encode(), &resp); err != nil {
		return Metadata{}, err
	}
	if len(resp.Items) == 0 {
		return Metadata{}, fmt.Errorf("%w: %s", ErrVideoNotFound, id)
	}

	item := resp.Items[0]
	meta := Metadata{
		VideoID:      id,
		Title:        item.Snippet.Title,
		Description:  item.Snippet.Description,
		ChannelTitle: item.Snippet.ChannelTitle,
		Tags:         item.Snippet.Tags,
		Duration:     item.ContentDetails.Duration,
	}

	// Category resolution is best effort; a missing name never fails the
	// lookup.
	if name, err := c.categoryName(ctx, item.Snippet.CategoryID); err == nil {
		meta.Category = name
	} else {
		c.logger.Debug("category lookup failed",
			zap.String("category_id", item.Snippet.CategoryID),
			zap.Error(err))
	}
	return meta, nil
}

// categoryName resolves a category ID to its display name, refreshing the
// table when stale.
func (c *Client) categoryName(ctx context.Context, categoryID string) (string, error) {
	if categoryID == "" {
		return "", nil
	}

	now := timeNow()
	c.mu.Lock()
	fresh := !c.catFetched.IsZero() && now.Sub(c.catFetched) < c.ttl
	name, ok := c.categories[categoryID]
	c.mu.Unlock()
	if fresh && ok {
		return name, nil
	}

	q := url.Values{}
	q.Set("part", "snippet")
	q.Set("regionCode", "US")
	q.Set("key", c.apiKey)

	var resp categoryListResponse
	if err := c.getJSON(ctx, c.baseURL+"/videoCategories?"+q.Encode(), &resp); err != nil {
		if ok {
			return name, nil // stale beats missing
		}
		return "", err
	}

	table := make(map[string]string, len(resp.Items))
	for _, item := range resp.Items {
		table[item.ID] = item.Snippet.Title
	}

	c.mu.Lock()
	c.categories = table
	c.catFetched = now
	name = c.categories[categoryID]
	c.mu.Unlock()
	return name, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: request failed: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response: %v", ErrUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp apiErrorResponse
		if jsonErr := json.Unmarshal(body, &errResp); jsonErr == nil {
			for _, e := range errResp.Error.Errors {
				if e.Reason == "quotaExceeded" || e.Reason == "dailyLimitExceeded" {
					return fmt.Errorf("%w: %s", ErrQuotaExceeded, errResp.Error.Message)
				}
			}
			if errResp.Error.Message != "" {
				return fmt.Errorf("%w: API error (%d): %s", ErrUnavailable, resp.StatusCode, errResp.Error.Message)
			}
		}
		return fmt.Errorf("%w: API error (%d)", ErrUnavailable, resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: failed to parse response: %v", ErrUnavailable, err)
	}
	return nil
}
