package worker

import (
	"context"

	"github.com/echobrief/api/internal/bus"
)

// EventBus is the slice of the stream bus the workers use. Satisfied by
// *bus.Bus.
type EventBus interface {
	Publish(ctx context.Context, stream string, envelope any) error
	Subscribe(ctx context.Context, stream, cursor string) <-chan bus.Message
}

// Broadcaster delivers terminal job results; satisfied by *websocket.Hub.
type Broadcaster interface {
	BroadcastError(jobID, message string)
}

// AudioTranscriber is the transcription collaborator contract.
type AudioTranscriber interface {
	Transcribe(ctx context.Context, filePath string) (string, error)
}
