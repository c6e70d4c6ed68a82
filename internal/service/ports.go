package service

import (
	"context"
	"time"

	"github.com/hibiken/asynq"

	"github.com/echobrief/api/internal/model"
	"github.com/echobrief/api/internal/resolver"
)

// ResultCache is the slice of the cache layer the services depend on.
// Satisfied by *cache.Service; tests substitute in-memory doubles.
type ResultCache interface {
	GetEpisode(ctx context.Context, platform model.Platform, episodeID string, variant model.SummaryVariant) *model.EpisodeResult
	SetEpisode(ctx context.Context, platform model.Platform, episodeID string, variant model.SummaryVariant, result model.EpisodeResult) error
	GetTranscript(ctx context.Context, transcript string) *model.TranscriptRecord
	SetTranscript(ctx context.Context, transcript string, variant model.SummaryVariant, summary string, metadata model.EpisodeMetadata) error
	TTL() time.Duration
}

// EpisodeResolver is the resolution stage contract.
type EpisodeResolver interface {
	Resolve(ctx context.Context, url string) (*resolver.Resolution, error)
}

// Summarizer is the LLM collaborator contract.
type Summarizer interface {
	Summarize(ctx context.Context, variant model.SummaryVariant, transcript string, meta model.EpisodeMetadata) (string, error)
}

// Broadcaster delivers terminal job results; satisfied by *websocket.Hub.
type Broadcaster interface {
	BroadcastResult(jobID, summary string)
	BroadcastError(jobID, message string)
}

// TaskEnqueuer is the slice of the asynq client used to dispatch download
// jobs.
type TaskEnqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}
