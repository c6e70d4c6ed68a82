package client

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/echobrief/api/internal/config"
)

// PodcastIndexClient looks up RSS feed URLs through the Podcast Index API.
type PodcastIndexClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	apiSecret  string
}

type podcastIndexFeed struct {
	URL string `json:"url"`
}

type searchByTitleResponse struct {
	Feeds []podcastIndexFeed `json:"feeds"`
}

type byItunesIDResponse struct {
	Feed *podcastIndexFeed `json:"feed"`
}

// NewPodcastIndexClient creates a new Podcast Index API client.
func NewPodcastIndexClient(cfg *config.ResolverConfig) *PodcastIndexClient {
	return &PodcastIndexClient{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL:   cfg.PodcastIndexBaseURL,
		apiKey:    cfg.PodcastIndexKey,
		apiSecret: cfg.PodcastIndexSecret,
	}
}

// IsConfigured reports whether API credentials are present.
func (c *PodcastIndexClient) IsConfigured() bool {
	return c.apiKey != "" && c.apiSecret != ""
}

// FeedURLByTitle searches the index by show title and returns the first
// matching feed's RSS URL, or "" when nothing matches.
func (c *PodcastIndexClient) FeedURLByTitle(ctx context.Context, title string) (string, error) {
	endpoint := fmt.Sprintf("%s/search/bytitle?q=%s", c.baseURL, url.QueryEscape(title))

	var result searchByTitleResponse
	if err := c.doGet(ctx, endpoint, &result); err != nil {
		return "", err
	}
	if len(result.Feeds) == 0 {
		return "", nil
	}
	return result.Feeds[0].URL, nil
}

// FeedURLByItunesID resolves an Apple podcast id to its RSS feed URL, or ""
// when the id is unknown to the index.
func (c *PodcastIndexClient) FeedURLByItunesID(ctx context.Context, itunesID string) (string, error) {
	endpoint := fmt.Sprintf("%s/podcasts/byitunesid?id=%s", c.baseURL, url.QueryEscape(itunesID))

	var result byItunesIDResponse
	if err := c.doGet(ctx, endpoint, &result); err != nil {
		return "", err
	}
	if result.Feed == nil {
		return "", nil
	}
	return result.Feed.URL, nil
}

func (c *PodcastIndexClient) doGet(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setAuthHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("podcast index error (status %d): %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

// setAuthHeaders applies the Podcast Index auth scheme: the Authorization
// header is SHA-1(key + secret + epoch) and must match X-Auth-Date.
func (c *PodcastIndexClient) setAuthHeaders(req *http.Request) {
	epoch := strconv.FormatInt(time.Now().Unix(), 10)
	sum := sha1.Sum([]byte(c.apiKey + c.apiSecret + epoch))

	req.Header.Set("X-Auth-Date", epoch)
	req.Header.Set("X-Auth-Key", c.apiKey)
	req.Header.Set("Authorization", hex.EncodeToString(sum[:]))
	req.Header.Set("User-Agent", "echobrief-go-client")
}
