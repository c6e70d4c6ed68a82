package resolver

import (
	"context"
	"strconv"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/echobrief/api/internal/model"
)

const placeholderImage = "https://via.placeholder.com/300x300/6B7280/FFFFFF?text=Podcast"

// FeedEpisode is what the resolver needs out of one RSS entry.
type FeedEpisode struct {
	AudioURL string
	Metadata model.EpisodeMetadata
}

// FeedReader finds an episode inside an RSS feed and extracts its audio
// enclosure and metadata.
type FeedReader struct {
	parser *gofeed.Parser
}

func NewFeedReader() *FeedReader {
	return &FeedReader{parser: gofeed.NewParser()}
}

// FindEpisode parses the feed and locates the entry whose title matches
// episodeTitle, or whose GUID/link contains episodeID when a title match
// fails. Returns nil when no entry matches or the match has no audio
// enclosure.
func (f *FeedReader) FindEpisode(ctx context.Context, feedURL, episodeTitle, episodeID string) (*FeedEpisode, error) {
	feed, err := f.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, err
	}

	item := matchItem(feed, episodeTitle, episodeID)
	if item == nil || len(item.Enclosures) == 0 || item.Enclosures[0].URL == "" {
		return nil, nil
	}

	// Strip query parameters so the same enclosure always maps to the same
	// download target.
	audioURL := item.Enclosures[0].URL
	if i := strings.IndexByte(audioURL, '?'); i >= 0 {
		audioURL = audioURL[:i]
	}

	return &FeedEpisode{
		AudioURL: audioURL,
		Metadata: model.EpisodeMetadata{
			EpisodeTitle:    item.Title,
			ShowTitle:       feed.Title,
			ShowSummary:     feed.Description,
			Summary:         item.Description,
			DurationSeconds: itemDuration(item),
			ImageURL:        itemImage(feed, item),
		},
	}, nil
}

func matchItem(feed *gofeed.Feed, episodeTitle, episodeID string) *gofeed.Item {
	wantTitle := normalizeTitle(episodeTitle)
	for _, item := range feed.Items {
		if wantTitle != "" && normalizeTitle(item.Title) == wantTitle {
			return item
		}
	}
	if episodeID == "" {
		return nil
	}
	for _, item := range feed.Items {
		if strings.Contains(item.GUID, episodeID) || strings.Contains(item.Link, episodeID) {
			return item
		}
	}
	return nil
}

func normalizeTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// itemDuration reads the iTunes duration, which feeds publish either as
// plain seconds or as HH:MM:SS / MM:SS.
func itemDuration(item *gofeed.Item) int {
	if item.ITunesExt == nil || item.ITunesExt.Duration == "" {
		return 0
	}
	raw := strings.TrimSpace(item.ITunesExt.Duration)

	if !strings.Contains(raw, ":") {
		if secs, err := strconv.Atoi(raw); err == nil {
			return secs
		}
		return 0
	}

	parts := strings.Split(raw, ":")
	total := 0
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return 0
		}
		total = total*60 + n
	}
	return total
}

func itemImage(feed *gofeed.Feed, item *gofeed.Item) string {
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}
	if item.ITunesExt != nil && item.ITunesExt.Image != "" {
		return item.ITunesExt.Image
	}
	if feed.Image != nil && feed.Image.URL != "" {
		return feed.Image.URL
	}
	return placeholderImage
}
