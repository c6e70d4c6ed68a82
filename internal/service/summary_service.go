package service

import (
	"context"
	"fmt"
	"log"

	"github.com/echobrief/api/internal/model"
)

// SummaryService is the terminal pipeline stage. For each transcript
// envelope it checks the transcript cache, generates a summary on miss,
// writes through both cache layers and only then delivers the
// result, so a client that missed the live broadcast can still get the
// result from the episode cache on a fresh submit.
//
// Stream delivery is at-least-once; the transcript-cache check is what makes
// reprocessing a duplicate envelope cheap and idempotent.
type SummaryService struct {
	cache ResultCache
	llm   Summarizer
	hub   Broadcaster
}

func NewSummaryService(resultCache ResultCache, llm Summarizer, hub Broadcaster) *SummaryService {
	return &SummaryService{
		cache: resultCache,
		llm:   llm,
		hub:   hub,
	}
}

// Process handles one transcription_complete envelope to completion. The
// returned error is informational; failure has already been delivered to the
// client as a terminal error message.
func (s *SummaryService) Process(ctx context.Context, env *model.TranscriptReady) error {
	summary, fromCache := s.lookupTranscript(ctx, env)

	if !fromCache {
		var err error
		summary, err = s.llm.Summarize(ctx, env.SummaryVariant, env.Transcript, env.Metadata)
		if err != nil {
			// Terminal: no retry, no partial caching. The client hears about
			// it through the same channel a success would use.
			s.hub.BroadcastError(env.JobID, fmt.Sprintf("Summarization failed: %v", err))
			return fmt.Errorf("summarize job %s: %w", env.JobID, err)
		}

		// Merge this variant into the transcript record; other variants
		// already generated for the same audio stay intact.
		if err := s.cache.SetTranscript(ctx, env.Transcript, env.SummaryVariant, summary, env.Metadata); err != nil {
			log.Printf("Failed to cache transcript for job %s: %v", env.JobID, err)
		}
	}

	// Episode cache is single-variant-per-key: full replace.
	result := model.EpisodeResult{
		Summary:          summary,
		Metadata:         env.Metadata,
		SummaryVariant:   env.SummaryVariant,
		TranscriptLength: len(env.Transcript),
		ProcessingTime:   env.ProcessingTime,
		FilePath:         env.FilePath,
	}
	if err := s.cache.SetEpisode(ctx, env.Platform, env.EpisodeID, env.SummaryVariant, result); err != nil {
		// A cache-write failure must never block delivering the real result.
		log.Printf("Failed to cache episode %s for job %s: %v", env.EpisodeID, env.JobID, err)
	}

	s.hub.BroadcastResult(env.JobID, summary)
	return nil
}

// lookupTranscript returns the cached summary for this envelope's variant if
// the content-addressed record already holds one.
func (s *SummaryService) lookupTranscript(ctx context.Context, env *model.TranscriptReady) (string, bool) {
	record := s.cache.GetTranscript(ctx, env.Transcript)
	if record == nil {
		return "", false
	}
	summary, ok := record.Summaries[env.SummaryVariant]
	if !ok || summary == "" {
		return "", false
	}
	log.Printf("Using cached transcript summary for job %s (%s)", env.JobID, env.SummaryVariant)
	return summary, true
}
