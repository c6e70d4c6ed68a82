// Package bus is a thin event log over Redis Streams. Two topics carry the
// pipeline hand-offs: audio_uploaded (resolution → transcription) and
// transcription_complete (transcription → summarization). Delivery is
// at-least-once; consumers must tolerate duplicates.
package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Stream names, shared by every producer and consumer.
const (
	StreamAudioUploaded         = "audio_uploaded"
	StreamTranscriptionComplete = "transcription_complete"
)

// DefaultMaxLen caps retained entries per stream; oldest entries are trimmed
// first.
const DefaultMaxLen = 500

// CursorStart reads a stream from its beginning.
const CursorStart = "0"

// Message is one envelope read off a stream. ID is the consumer's cursor:
// resubscribing with the last processed ID resumes after it.
type Message struct {
	ID   string
	Data []byte
}

// Bus publishes and subscribes JSON envelopes on Redis Streams.
type Bus struct {
	redis  *redis.Client
	maxLen int64
}

func New(redisClient *redis.Client, maxLen int64) *Bus {
	if maxLen <= 0 {
		maxLen = DefaultMaxLen
	}
	return &Bus{redis: redisClient, maxLen: maxLen}
}

// Publish appends an envelope to the stream and trims it to the retention
// cap. The envelope is marshalled into a single "data" field.
func (b *Bus) Publish(ctx context.Context, stream string, envelope any) error {
	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal envelope for %s: %w", stream, err)
	}

	if err := b.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]any{"data": data},
	}).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", stream, err)
	}

	// Approximate trim: trades exactness for O(1) eviction of old entries.
	if err := b.redis.XTrimMaxLenApprox(ctx, stream, b.maxLen, 0).Err(); err != nil {
		log.Printf("bus: trim %s: %v", stream, err)
	}
	return nil
}

// Subscribe returns a channel of messages appended after cursor, in publish
// order. The reader goroutine blocks on XREAD, survives transient transport
// errors, and closes the channel when ctx is cancelled. Callers track their
// own cursor from Message.ID and may resubscribe from it after a restart.
func (b *Bus) Subscribe(ctx context.Context, stream, cursor string) <-chan Message {
	if cursor == "" {
		cursor = CursorStart
	}
	out := make(chan Message)

	go func() {
		defer close(out)
		lastID := cursor

		for {
			if ctx.Err() != nil {
				return
			}

			streams, err := b.redis.XRead(ctx, &redis.XReadArgs{
				Streams: []string{stream, lastID},
				Count:   10,
				Block:   5 * time.Second,
			}).Result()
			if err != nil {
				if err == redis.Nil {
					continue // block timeout, poll again
				}
				if ctx.Err() != nil {
					return
				}
				log.Printf("bus: read %s: %v", stream, err)
				select {
				case <-time.After(time.Second):
				case <-ctx.Done():
					return
				}
				continue
			}

			for _, s := range streams {
				for _, entry := range s.Messages {
					lastID = entry.ID
					raw, ok := entry.Values["data"].(string)
					if !ok {
						log.Printf("bus: %s entry %s has no data field", stream, entry.ID)
						continue
					}
					select {
					case out <- Message{ID: entry.ID, Data: []byte(raw)}:
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()

	return out
}
