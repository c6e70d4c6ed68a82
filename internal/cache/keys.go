package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/echobrief/api/internal/model"
)

// Key namespaces. Episode entries are addressed by where the episode lives;
// transcript entries are content-addressed so identical audio resolved
// through different platforms dedups to one record.
const (
	episodePrefix    = "episode"
	transcriptPrefix = "transcript"
	keySeparator     = ":"
)

var (
	appleEpisodeRe   = regexp.MustCompile(`[?&]i=(\d+)`)
	appleShowRe      = regexp.MustCompile(`[?&]id=(\d+)`)
	spotifyEpisodeRe = regexp.MustCompile(`/episode/([a-zA-Z0-9]+)`)
)

// PlatformOf matches a URL against the known platform shapes. "unknown" is a
// terminal value, not an error; callers reject it upstream.
func PlatformOf(url string) model.Platform {
	switch {
	case strings.Contains(url, "podcasts.apple.com"):
		return model.PlatformApple
	case strings.Contains(url, "open.spotify.com"):
		return model.PlatformSpotify
	default:
		return model.PlatformUnknown
	}
}

// EpisodeIDOf extracts the platform-native episode id from a URL. When no
// known shape matches it falls back to hashing the whole URL, so the function
// is total and identical URLs always map to the same key.
func EpisodeIDOf(url string) string {
	switch PlatformOf(url) {
	case model.PlatformApple:
		if m := appleEpisodeRe.FindStringSubmatch(url); m != nil {
			return m[1]
		}
		if m := appleShowRe.FindStringSubmatch(url); m != nil {
			return m[1]
		}
	case model.PlatformSpotify:
		if m := spotifyEpisodeRe.FindStringSubmatch(url); m != nil {
			return m[1]
		}
	}
	return hashHex(url)
}

// EpisodeKey builds the episode-namespace cache key. The separator is escaped
// out of the episode id so distinct (platform, id, variant) triples can never
// collide; platform and variant are closed enums and carry no separator.
func EpisodeKey(platform model.Platform, episodeID string, variant model.SummaryVariant) string {
	escaped := strings.ReplaceAll(episodeID, keySeparator, "-")
	return episodePrefix + keySeparator + string(platform) + keySeparator + escaped + keySeparator + string(variant)
}

// TranscriptKey builds the transcript-namespace cache key from the content
// fingerprint of the transcript bytes.
func TranscriptKey(transcript string) string {
	return transcriptPrefix + keySeparator + TranscriptFingerprint(transcript)
}

// TranscriptFingerprint returns the full (untruncated) SHA-256 of the exact
// transcript bytes.
func TranscriptFingerprint(transcript string) string {
	return hashHex(transcript)
}

func hashHex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// InvalidateKey rebuilds an episode key from admin path parameters.
func InvalidateKey(platform, episodeID, variant string) string {
	return EpisodeKey(model.Platform(platform), episodeID, model.SummaryVariant(variant))
}
