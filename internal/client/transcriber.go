package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/echobrief/api/internal/config"
)

// Transcriber sends audio files to an AssemblyAI-compatible API and returns
// speaker-labelled transcript text. The pipeline depends only on the returned
// string; everything else about the vendor is opaque.
type Transcriber struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string

	pollInterval time.Duration
	pollTimeout  time.Duration
}

type uploadResponse struct {
	UploadURL string `json:"upload_url"`
}

type transcriptRequest struct {
	AudioURL      string `json:"audio_url"`
	SpeakerLabels bool   `json:"speaker_labels"`
}

type transcriptUtterance struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

type transcriptResponse struct {
	ID         string                `json:"id"`
	Status     string                `json:"status"`
	Text       string                `json:"text"`
	Error      string                `json:"error"`
	Utterances []transcriptUtterance `json:"utterances"`
}

// NewTranscriber creates a new transcription client.
func NewTranscriber(cfg *config.TranscriberConfig) *Transcriber {
	return &Transcriber{
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		baseURL:      cfg.BaseURL,
		apiKey:       cfg.APIKey,
		pollInterval: 5 * time.Second,
		pollTimeout:  15 * time.Minute,
	}
}

// IsConfigured reports whether an API key is present.
func (t *Transcriber) IsConfigured() bool {
	return t.apiKey != ""
}

// Transcribe uploads the local audio file, requests a diarized transcript and
// polls until it completes. The result has one line per utterance, prefixed
// with "[Speaker X]".
func (t *Transcriber) Transcribe(ctx context.Context, filePath string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open audio file: %w", err)
	}
	defer f.Close()

	audioURL, err := t.upload(ctx, f)
	if err != nil {
		return "", err
	}

	transcriptID, err := t.create(ctx, audioURL)
	if err != nil {
		return "", err
	}

	return t.poll(ctx, transcriptID)
}

func (t *Transcriber) upload(ctx context.Context, r io.Reader) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/upload", r)
	if err != nil {
		return "", fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Authorization", t.apiKey)
	req.Header.Set("Content-Type", "application/octet-stream")

	var result uploadResponse
	if err := t.do(req, &result); err != nil {
		return "", err
	}
	if result.UploadURL == "" {
		return "", fmt.Errorf("upload response missing upload_url")
	}
	return result.UploadURL, nil
}

func (t *Transcriber) create(ctx context.Context, audioURL string) (string, error) {
	body, err := json.Marshal(transcriptRequest{
		AudioURL:      audioURL,
		SpeakerLabels: true,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal transcript request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/transcript", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create transcript request: %w", err)
	}
	req.Header.Set("Authorization", t.apiKey)
	req.Header.Set("Content-Type", "application/json")

	var result transcriptResponse
	if err := t.do(req, &result); err != nil {
		return "", err
	}
	if result.ID == "" {
		return "", fmt.Errorf("transcript response missing id")
	}
	return result.ID, nil
}

func (t *Transcriber) poll(ctx context.Context, transcriptID string) (string, error) {
	deadline := time.Now().Add(t.pollTimeout)

	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(t.pollInterval):
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+"/transcript/"+transcriptID, nil)
		if err != nil {
			return "", fmt.Errorf("failed to create poll request: %w", err)
		}
		req.Header.Set("Authorization", t.apiKey)

		var result transcriptResponse
		if err := t.do(req, &result); err != nil {
			return "", err
		}

		switch result.Status {
		case "completed":
			return formatTranscript(&result), nil
		case "error":
			return "", fmt.Errorf("transcription failed: %s", result.Error)
		}
	}

	return "", fmt.Errorf("transcription timed out after %s", t.pollTimeout)
}

func (t *Transcriber) do(req *http.Request, out any) error {
	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("transcriber API error (status %d): %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

func formatTranscript(r *transcriptResponse) string {
	if len(r.Utterances) == 0 {
		return r.Text
	}
	var buf bytes.Buffer
	for i, u := range r.Utterances {
		if i > 0 {
			buf.WriteByte('\n')
		}
		fmt.Fprintf(&buf, "[Speaker %s] %s", u.Speaker, u.Text)
	}
	return buf.String()
}
