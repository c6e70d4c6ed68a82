package service

import (
	"context"
	"sync"
	"time"

	"github.com/hibiken/asynq"

	"github.com/echobrief/api/internal/cache"
	"github.com/echobrief/api/internal/model"
	"github.com/echobrief/api/internal/resolver"
)

// fakeCache is an in-memory ResultCache double.
type fakeCache struct {
	mu          sync.Mutex
	episodes    map[string]model.EpisodeResult
	transcripts map[string]*model.TranscriptRecord
	setEpisode  error // injected write failure
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		episodes:    make(map[string]model.EpisodeResult),
		transcripts: make(map[string]*model.TranscriptRecord),
	}
}

func (f *fakeCache) GetEpisode(_ context.Context, platform model.Platform, episodeID string, variant model.SummaryVariant) *model.EpisodeResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.episodes[cache.EpisodeKey(platform, episodeID, variant)]; ok {
		return &r
	}
	return nil
}

func (f *fakeCache) SetEpisode(_ context.Context, platform model.Platform, episodeID string, variant model.SummaryVariant, result model.EpisodeResult) error {
	if f.setEpisode != nil {
		return f.setEpisode
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.episodes[cache.EpisodeKey(platform, episodeID, variant)] = result
	return nil
}

func (f *fakeCache) GetTranscript(_ context.Context, transcript string) *model.TranscriptRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.transcripts[cache.TranscriptKey(transcript)]
}

func (f *fakeCache) SetTranscript(_ context.Context, transcript string, variant model.SummaryVariant, summary string, metadata model.EpisodeMetadata) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := cache.TranscriptKey(transcript)
	record := f.transcripts[key]
	if record == nil {
		record = &model.TranscriptRecord{
			TranscriptHash: cache.TranscriptFingerprint(transcript),
			Summaries:      make(map[model.SummaryVariant]string),
		}
		f.transcripts[key] = record
	}
	record.Summaries[variant] = summary
	record.Metadata = metadata
	return nil
}

func (f *fakeCache) TTL() time.Duration { return time.Hour }

// fakeResolver returns a canned resolution or error.
type fakeResolver struct {
	resolution *resolver.Resolution
	err        error
	calls      int
}

func (f *fakeResolver) Resolve(_ context.Context, _ string) (*resolver.Resolution, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.resolution, nil
}

// fakeEnqueuer records enqueued tasks.
type fakeEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (f *fakeEnqueuer) Enqueue(task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{ID: "task-1", Type: task.Type()}, nil
}

// fakeSummarizer returns a canned summary or error.
type fakeSummarizer struct {
	summary string
	err     error
	calls   int
}

func (f *fakeSummarizer) Summarize(_ context.Context, _ model.SummaryVariant, _ string, _ model.EpisodeMetadata) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.summary, nil
}

// fakeHub records broadcasts in order.
type fakeHub struct {
	results []string // "jobID summary"
	errors  []string // "jobID message"
}

func (f *fakeHub) BroadcastResult(jobID, summary string) {
	f.results = append(f.results, jobID+" "+summary)
}

func (f *fakeHub) BroadcastError(jobID, message string) {
	f.errors = append(f.errors, jobID+" "+message)
}
