package worker

import (
	"context"
	"log"

	"github.com/echobrief/api/internal/bus"
	"github.com/echobrief/api/internal/model"
	"github.com/echobrief/api/internal/service"
)

// SummaryConsumer reads transcription_complete envelopes and drives the
// summarization state machine for each one.
type SummaryConsumer struct {
	bus     EventBus
	summary *service.SummaryService
	cursor  string
}

func NewSummaryConsumer(eventBus EventBus, summary *service.SummaryService, cursor string) *SummaryConsumer {
	return &SummaryConsumer{
		bus:     eventBus,
		summary: summary,
		cursor:  cursor,
	}
}

// Run consumes until ctx is cancelled. Processing errors are terminal for
// their job and have already been delivered; the loop keeps going.
func (c *SummaryConsumer) Run(ctx context.Context) {
	log.Println("Listening for transcription_complete events...")

	for msg := range c.bus.Subscribe(ctx, bus.StreamTranscriptionComplete, c.cursor) {
		c.cursor = msg.ID

		env, err := model.DecodeTranscriptReady(msg.Data)
		if err != nil {
			log.Printf("Dropping bad transcription_complete entry %s: %v", msg.ID, err)
			continue
		}

		if err := c.summary.Process(ctx, env); err != nil {
			log.Printf("Summary processing for job %s: %v", env.JobID, err)
		}
	}
}

// Cursor returns the id of the last processed entry.
func (c *SummaryConsumer) Cursor() string {
	return c.cursor
}
