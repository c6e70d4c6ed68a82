package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/echobrief/api/internal/model"
)

// DefaultTTL applies to both namespaces unless overridden in config.
// Fixed per deployment, not per entry.
const DefaultTTL = 7 * 24 * time.Hour

// Stats reports best-effort key counts per namespace. A live system writing
// concurrently may show transiently inconsistent totals.
type Stats struct {
	EpisodeCount     int64 `json:"episode_cache_count"`
	TranscriptCount  int64 `json:"transcript_cache_count"`
	TotalCachedItems int64 `json:"total_cached_items"`
}

// Service is the two-namespace result cache. It is an optimization, never a
// source of truth: every read failure degrades to a miss and a write failure
// is reported to the caller but must not abort the broader flow.
type Service struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewService(redisClient *redis.Client, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{redis: redisClient, ttl: ttl}
}

// TTL returns the configured entry lifetime.
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// GetEpisode returns the cached result for (platform, episode, variant), or
// nil on miss or on any transport failure.
func (s *Service) GetEpisode(ctx context.Context, platform model.Platform, episodeID string, variant model.SummaryVariant) *model.EpisodeResult {
	key := EpisodeKey(platform, episodeID, variant)
	data, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("cache: get %s: %v", key, err)
		}
		return nil
	}

	var result model.EpisodeResult
	if err := json.Unmarshal(data, &result); err != nil {
		log.Printf("cache: corrupt entry at %s: %v", key, err)
		return nil
	}
	return &result
}

// SetEpisode writes the result whole, stamping cached_at and the TTL. The
// previous entry, if any, is replaced entirely.
func (s *Service) SetEpisode(ctx context.Context, platform model.Platform, episodeID string, variant model.SummaryVariant, result model.EpisodeResult) error {
	result.CachedAt = float64(time.Now().Unix())
	result.CacheTTL = int(s.ttl.Seconds())

	data, err := json.Marshal(result)
	if err != nil {
		return err
	}

	key := EpisodeKey(platform, episodeID, variant)
	if err := s.redis.Set(ctx, key, data, s.ttl).Err(); err != nil {
		log.Printf("cache: set %s: %v", key, err)
		return err
	}
	return nil
}

// GetTranscript looks up the multi-variant record for a transcript's
// fingerprint. Miss and failure both return nil.
func (s *Service) GetTranscript(ctx context.Context, transcript string) *model.TranscriptRecord {
	key := TranscriptKey(transcript)
	data, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("cache: get %s: %v", key, err)
		}
		return nil
	}

	var record model.TranscriptRecord
	if err := json.Unmarshal(data, &record); err != nil {
		log.Printf("cache: corrupt entry at %s: %v", key, err)
		return nil
	}
	return &record
}

// SetTranscript merges one variant's summary into the transcript record,
// preserving summaries already generated for other variants, and refreshes
// the record's TTL.
func (s *Service) SetTranscript(ctx context.Context, transcript string, variant model.SummaryVariant, summary string, metadata model.EpisodeMetadata) error {
	record := s.GetTranscript(ctx, transcript)
	if record == nil {
		record = &model.TranscriptRecord{
			TranscriptHash: TranscriptFingerprint(transcript),
			Summaries:      make(map[model.SummaryVariant]string),
		}
	}
	if record.Summaries == nil {
		record.Summaries = make(map[model.SummaryVariant]string)
	}
	record.Summaries[variant] = summary
	record.Metadata = metadata
	record.TranscriptLength = len(transcript)
	record.CachedAt = float64(time.Now().Unix())
	record.CacheTTL = int(s.ttl.Seconds())

	data, err := json.Marshal(record)
	if err != nil {
		return err
	}

	key := TranscriptKey(transcript)
	if err := s.redis.Set(ctx, key, data, s.ttl).Err(); err != nil {
		log.Printf("cache: set %s: %v", key, err)
		return err
	}
	return nil
}

// Invalidate deletes one episode entry and reports whether anything was
// removed. Calling it twice yields true then false.
func (s *Service) Invalidate(ctx context.Context, platform, episodeID, variant string) bool {
	key := InvalidateKey(platform, episodeID, variant)
	n, err := s.redis.Del(ctx, key).Result()
	if err != nil {
		log.Printf("cache: del %s: %v", key, err)
		return false
	}
	return n > 0
}

// GetStats counts keys per namespace with SCAN.
func (s *Service) GetStats(ctx context.Context) (Stats, error) {
	episodes, err := s.countKeys(ctx, episodePrefix+keySeparator+"*")
	if err != nil {
		return Stats{}, err
	}
	transcripts, err := s.countKeys(ctx, transcriptPrefix+keySeparator+"*")
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		EpisodeCount:     episodes,
		TranscriptCount:  transcripts,
		TotalCachedItems: episodes + transcripts,
	}, nil
}

// Clear deletes every key in both namespaces and returns how many entries
// were removed. Admin-only; the handler enforces the token.
func (s *Service) Clear(ctx context.Context) (int64, error) {
	var deleted int64
	for _, pattern := range []string{episodePrefix + keySeparator + "*", transcriptPrefix + keySeparator + "*"} {
		n, err := s.deleteByPattern(ctx, pattern)
		if err != nil {
			return deleted, err
		}
		deleted += n
	}
	return deleted, nil
}

func (s *Service) countKeys(ctx context.Context, pattern string) (int64, error) {
	var count int64
	iter := s.redis.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		count++
	}
	return count, iter.Err()
}

func (s *Service) deleteByPattern(ctx context.Context, pattern string) (int64, error) {
	var keys []string
	iter := s.redis.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, nil
	}
	return s.redis.Del(ctx, keys...).Result()
}
