package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hibiken/asynq"

	"github.com/echobrief/api/internal/bus"
	"github.com/echobrief/api/internal/model"
)

// DownloadWorker fetches an episode's audio enclosure to local disk and
// publishes the audio_uploaded envelope that starts the async pipeline.
// Runs off the request path so a slow download never stalls other clients.
type DownloadWorker struct {
	bus        EventBus
	hub        Broadcaster
	audioDir   string
	httpClient *http.Client
}

func NewDownloadWorker(eventBus EventBus, hub Broadcaster, audioDir string) *DownloadWorker {
	return &DownloadWorker{
		bus:      eventBus,
		hub:      hub,
		audioDir: audioDir,
		httpClient: &http.Client{
			Timeout: 10 * time.Minute,
		},
	}
}

// ProcessTask handles one audio:download task.
func (w *DownloadWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload model.DownloadJobPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal download payload: %w", err)
	}

	log.Printf("Starting download job: %s", payload.JobID)

	filePath, err := w.download(ctx, payload.AudioURL, payload.Metadata.EpisodeTitle)
	if err != nil {
		w.hub.BroadcastError(payload.JobID, fmt.Sprintf("Audio download failed: %v", err))
		return fmt.Errorf("download job %s: %w", payload.JobID, err)
	}

	envelope := model.AudioReady{
		JobID:          payload.JobID,
		Platform:       payload.Platform,
		EpisodeID:      payload.EpisodeID,
		SummaryVariant: payload.SummaryVariant,
		FilePath:       filePath,
		Metadata:       payload.Metadata,
	}
	if err := w.bus.Publish(ctx, bus.StreamAudioUploaded, envelope); err != nil {
		w.hub.BroadcastError(payload.JobID, "Failed to queue audio for transcription")
		return fmt.Errorf("publish audio_uploaded for job %s: %w", payload.JobID, err)
	}

	log.Printf("Download job %s completed: %s", payload.JobID, filePath)
	return nil
}

func (w *DownloadWorker) download(ctx context.Context, audioURL, episodeTitle string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, audioURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch audio: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("audio fetch failed (status %d)", resp.StatusCode)
	}

	if err := os.MkdirAll(w.audioDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create audio dir: %w", err)
	}

	filePath := filepath.Join(w.audioDir, audioFilename(episodeTitle, audioURL))
	f, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		os.Remove(filePath)
		return "", fmt.Errorf("failed to write audio: %w", err)
	}
	return filePath, nil
}

// audioFilename derives a filesystem-safe name from the episode title, with
// the extension taken from the enclosure URL.
func audioFilename(episodeTitle, audioURL string) string {
	ext := filepath.Ext(audioURL)
	if ext == "" {
		ext = ".mp3"
	}
	name := strings.TrimSpace(episodeTitle)
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ReplaceAll(name, "/", "-")
	if name == "" {
		name = "episode"
	}
	return name + ext
}
