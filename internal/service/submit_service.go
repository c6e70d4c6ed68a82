package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/echobrief/api/internal/cache"
	"github.com/echobrief/api/internal/model"
)

const TaskTypeDownload = "audio:download"

// SubmitService handles the synchronous half of a request: episode-cache
// lookup, resolution and kick-off of the async pipeline.
//
// Two clients racing on the same cache miss both reach resolution and both
// enqueue work. That duplicate effort is accepted; there is no single-flight
// lock between the miss check and the eventual cache write.
type SubmitService struct {
	cache       ResultCache
	resolver    EpisodeResolver
	asynqClient TaskEnqueuer
}

// SubmitOutcome is the discriminated result of a submit: exactly one of
// Cached or Accepted is set on success.
type SubmitOutcome struct {
	Cached   *model.SubmitCached
	Accepted *model.SubmitAccepted
}

func NewSubmitService(resultCache ResultCache, episodeResolver EpisodeResolver, asynqClient TaskEnqueuer) *SubmitService {
	return &SubmitService{
		cache:       resultCache,
		resolver:    episodeResolver,
		asynqClient: asynqClient,
	}
}

// Submit runs the cache-first submit flow. The episode cache is consulted
// before resolution is ever invoked; a hit short-circuits everything.
// Resolution outcomes (ErrUnsupported, ErrNotFound, ErrTooLong) come back as
// errors for the handler to map.
func (s *SubmitService) Submit(ctx context.Context, url string, variant model.SummaryVariant) (*SubmitOutcome, error) {
	platform := cache.PlatformOf(url)
	episodeID := cache.EpisodeIDOf(url)

	if cached := s.cache.GetEpisode(ctx, platform, episodeID, variant); cached != nil {
		return &SubmitOutcome{
			Cached: &model.SubmitCached{
				Cached:         true,
				Data:           cached,
				ProcessingTime: 0,
			},
		}, nil
	}

	resolution, err := s.resolver.Resolve(ctx, url)
	if err != nil {
		return nil, err
	}

	jobID := uuid.New().String()
	payload := model.DownloadJobPayload{
		JobID:          jobID,
		Platform:       resolution.Platform,
		EpisodeID:      resolution.EpisodeID,
		SummaryVariant: variant,
		AudioURL:       resolution.AudioURL,
		Metadata:       resolution.Metadata,
	}

	task, err := newDownloadTask(&payload)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	// No automatic retries: a failed stage is terminal for the job and the
	// client resubmits.
	if _, err := s.asynqClient.Enqueue(task,
		asynq.Queue("download"),
		asynq.MaxRetry(0),
	); err != nil {
		return nil, fmt.Errorf("failed to enqueue task: %w", err)
	}

	return &SubmitOutcome{
		Accepted: &model.SubmitAccepted{
			Cached:  false,
			Message: "Download successful",
			Data: model.SubmitJobInfo{
				JobID:          jobID,
				Platform:       resolution.Platform,
				EpisodeID:      resolution.EpisodeID,
				SummaryVariant: variant,
				Metadata:       resolution.Metadata,
			},
		},
	}, nil
}

func newDownloadTask(payload *model.DownloadJobPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeDownload, data), nil
}
