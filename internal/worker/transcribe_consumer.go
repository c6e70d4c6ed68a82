package worker

import (
	"context"
	"log"
	"time"

	"github.com/echobrief/api/internal/bus"
	"github.com/echobrief/api/internal/model"
)

// TranscribeConsumer reads audio_uploaded envelopes, hands the audio to the
// transcription collaborator and republishes the result downstream. One
// failed envelope never kills the loop; that job gets a terminal error and
// the consumer moves on.
type TranscribeConsumer struct {
	bus         EventBus
	transcriber AudioTranscriber
	hub         Broadcaster
	cursor      string
}

// NewTranscribeConsumer starts reading after cursor; pass bus.CursorStart
// for a fresh consumer, or the last processed id to resume after a restart.
func NewTranscribeConsumer(eventBus EventBus, transcriber AudioTranscriber, hub Broadcaster, cursor string) *TranscribeConsumer {
	return &TranscribeConsumer{
		bus:         eventBus,
		transcriber: transcriber,
		hub:         hub,
		cursor:      cursor,
	}
}

// Run consumes until ctx is cancelled.
func (c *TranscribeConsumer) Run(ctx context.Context) {
	log.Println("Listening for audio_uploaded events...")

	for msg := range c.bus.Subscribe(ctx, bus.StreamAudioUploaded, c.cursor) {
		c.cursor = msg.ID

		env, err := model.DecodeAudioReady(msg.Data)
		if err != nil {
			// Rejected at the boundary, never reaches the transcriber.
			log.Printf("Dropping bad audio_uploaded entry %s: %v", msg.ID, err)
			continue
		}

		c.handle(ctx, env)
	}
}

// Cursor returns the id of the last processed entry.
func (c *TranscribeConsumer) Cursor() string {
	return c.cursor
}

func (c *TranscribeConsumer) handle(ctx context.Context, env *model.AudioReady) {
	start := time.Now()
	transcript, err := c.transcriber.Transcribe(ctx, env.FilePath)
	if err != nil {
		c.hub.BroadcastError(env.JobID, "Transcription failed: "+err.Error())
		log.Printf("Transcription failed for job %s: %v", env.JobID, err)
		return
	}
	elapsed := time.Since(start).Seconds()
	log.Printf("Transcribed %s in %.1fs", env.FilePath, elapsed)

	out := model.TranscriptReady{
		JobID:          env.JobID,
		Platform:       env.Platform,
		EpisodeID:      env.EpisodeID,
		SummaryVariant: env.SummaryVariant,
		FilePath:       env.FilePath,
		Metadata:       env.Metadata,
		Transcript:     transcript,
		ProcessingTime: elapsed,
	}
	if err := c.bus.Publish(ctx, bus.StreamTranscriptionComplete, out); err != nil {
		c.hub.BroadcastError(env.JobID, "Failed to queue transcript for summarization")
		log.Printf("Publish transcription_complete for job %s: %v", env.JobID, err)
	}
}
