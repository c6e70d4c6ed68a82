package resolver

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Scraper pulls episode and show titles out of platform episode pages. The
// selectors mirror the current page markup and nothing else; all real episode
// data comes from the RSS feed afterwards.
type Scraper struct {
	httpClient *http.Client
}

func NewScraper() *Scraper {
	return &Scraper{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// AppleEpisodeTitle scrapes the episode title from an Apple Podcasts page.
func (s *Scraper) AppleEpisodeTitle(ctx context.Context, pageURL string) (string, error) {
	doc, err := s.fetch(ctx, pageURL)
	if err != nil {
		return "", err
	}

	title := strings.TrimSpace(doc.Find("h1.headings__title span").First().Text())
	if title == "" {
		// Newer pages carry the title in og:title instead.
		title = strings.TrimSpace(doc.Find(`meta[property="og:title"]`).AttrOr("content", ""))
	}
	if title == "" {
		return "", fmt.Errorf("no episode title found at %s", pageURL)
	}
	return title, nil
}

// SpotifyTitles scrapes the episode and show titles from a Spotify episode
// page.
func (s *Scraper) SpotifyTitles(ctx context.Context, pageURL string) (episodeTitle, showTitle string, err error) {
	doc, err := s.fetch(ctx, pageURL)
	if err != nil {
		return "", "", err
	}

	episodeTitle = strings.TrimSpace(doc.Find(`h1[data-testid="episodeTitle"]`).First().Text())
	showTitle = strings.TrimSpace(doc.Find(`p[data-testid="entity-header-entity-subtitle"]`).First().Text())

	if episodeTitle == "" {
		episodeTitle = strings.TrimSpace(doc.Find(`meta[property="og:title"]`).AttrOr("content", ""))
	}
	if episodeTitle == "" || showTitle == "" {
		return "", "", fmt.Errorf("could not extract episode and show titles from %s", pageURL)
	}
	return episodeTitle, showTitle, nil
}

func (s *Scraper) fetch(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("page fetch failed (status %d)", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}
	return doc, nil
}
