// Package resolver turns a podcast episode URL into an audio location and
// episode metadata. Scraping and the Podcast Index lookup are external
// collaborators; this package owns the output contract and error taxonomy.
package resolver

import (
	"context"
	"errors"
	"fmt"

	"github.com/echobrief/api/internal/cache"
	"github.com/echobrief/api/internal/client"
	"github.com/echobrief/api/internal/config"
	"github.com/echobrief/api/internal/model"
)

// Business outcomes of resolution. Handlers map these to structured client
// responses, never to transport errors.
var (
	ErrUnsupported = errors.New("unsupported podcast platform")
	ErrNotFound    = errors.New("no episode found")
	ErrTooLong     = errors.New("episode is longer than 30 minutes. Only shorter episodes are supported currently")
)

// Resolution is the successful output: where the audio lives and what we
// know about the episode. No download has happened yet.
type Resolution struct {
	Platform  model.Platform
	EpisodeID string
	AudioURL  string
	Metadata  model.EpisodeMetadata
}

// Resolver orchestrates scrape → feed lookup → enclosure extraction.
type Resolver struct {
	scraper      *Scraper
	feeds        *FeedReader
	podcastIndex *client.PodcastIndexClient
	maxDuration  int
}

func New(cfg *config.ResolverConfig, podcastIndex *client.PodcastIndexClient) *Resolver {
	return &Resolver{
		scraper:      NewScraper(),
		feeds:        NewFeedReader(),
		podcastIndex: podcastIndex,
		maxDuration:  cfg.MaxDurationSeconds,
	}
}

// MaxDurationSeconds returns the rejection ceiling for episode length.
func (r *Resolver) MaxDurationSeconds() int {
	return r.maxDuration
}

// Resolve maps a raw episode URL to its audio enclosure and metadata.
// Episodes over the duration ceiling are rejected here, before anything is
// downloaded.
func (r *Resolver) Resolve(ctx context.Context, url string) (*Resolution, error) {
	platform := cache.PlatformOf(url)
	episodeID := cache.EpisodeIDOf(url)

	var (
		episode *FeedEpisode
		err     error
	)
	switch platform {
	case model.PlatformApple:
		episode, err = r.resolveApple(ctx, url, episodeID)
	case model.PlatformSpotify:
		episode, err = r.resolveSpotify(ctx, url, episodeID)
	default:
		return nil, ErrUnsupported
	}
	if err != nil {
		return nil, err
	}
	if episode == nil {
		return nil, fmt.Errorf("%w: no audio enclosure in feed", ErrNotFound)
	}

	if d := episode.Metadata.DurationSeconds; d > 0 && d > r.maxDuration {
		return nil, ErrTooLong
	}

	return &Resolution{
		Platform:  platform,
		EpisodeID: episodeID,
		AudioURL:  episode.AudioURL,
		Metadata:  episode.Metadata,
	}, nil
}

func (r *Resolver) resolveApple(ctx context.Context, url, episodeID string) (*FeedEpisode, error) {
	title, err := r.scraper.AppleEpisodeTitle(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%w: could not extract episode title from Apple Podcast URL", ErrNotFound)
	}

	podcastID := applePodcastID(url)
	if podcastID == "" {
		return nil, fmt.Errorf("%w: invalid Apple Podcast episode URL format", ErrNotFound)
	}

	feedURL, err := r.podcastIndex.FeedURLByItunesID(ctx, podcastID)
	if err != nil {
		return nil, fmt.Errorf("podcast index lookup: %w", err)
	}
	if feedURL == "" {
		return nil, fmt.Errorf("%w: failed to retrieve RSS feed from Apple Podcast link", ErrNotFound)
	}

	return r.feeds.FindEpisode(ctx, feedURL, title, episodeID)
}

func (r *Resolver) resolveSpotify(ctx context.Context, url, episodeID string) (*FeedEpisode, error) {
	episodeTitle, showTitle, err := r.scraper.SpotifyTitles(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%w: could not extract episode and show titles from Spotify URL", ErrNotFound)
	}

	feedURL, err := r.podcastIndex.FeedURLByTitle(ctx, showTitle)
	if err != nil {
		return nil, fmt.Errorf("podcast index lookup: %w", err)
	}
	if feedURL == "" {
		return nil, fmt.Errorf("%w: RSS feed not found for podcast %q", ErrNotFound, showTitle)
	}

	return r.feeds.FindEpisode(ctx, feedURL, episodeTitle, episodeID)
}
