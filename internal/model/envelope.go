package model

import (
	"encoding/json"
	"fmt"
)

// EpisodeMetadata travels with every pipeline envelope and ends up in the
// cached result. All fields come from the RSS feed at resolution time.
type EpisodeMetadata struct {
	EpisodeTitle    string `json:"episode_title"`
	ShowTitle       string `json:"show_title"`
	ShowSummary     string `json:"show_summary"`
	Summary         string `json:"summary"` // episode description
	DurationSeconds int    `json:"duration_seconds"`
	ImageURL        string `json:"image_url,omitempty"`
}

// AudioReady is the envelope published on the audio_uploaded stream once an
// episode's audio file is on disk. Envelopes are written once by the producer
// and never mutated; the transcription consumer republishes a new
// TranscriptReady envelope downstream.
type AudioReady struct {
	JobID          string          `json:"job_id"`
	Platform       Platform        `json:"platform"`
	EpisodeID      string          `json:"episode_id"`
	SummaryVariant SummaryVariant  `json:"summary_type"`
	FilePath       string          `json:"file_path"`
	Metadata       EpisodeMetadata `json:"metadata"`
}

// TranscriptReady is the envelope published on the transcription_complete
// stream. It carries everything AudioReady does plus the transcript text and
// the wall-clock seconds transcription took.
type TranscriptReady struct {
	JobID          string          `json:"job_id"`
	Platform       Platform        `json:"platform"`
	EpisodeID      string          `json:"episode_id"`
	SummaryVariant SummaryVariant  `json:"summary_type"`
	FilePath       string          `json:"file_path"`
	Metadata       EpisodeMetadata `json:"metadata"`
	Transcript     string          `json:"transcript"`
	ProcessingTime float64         `json:"processing_time"`
}

// DecodeAudioReady parses an audio_uploaded payload and rejects it at the
// boundary if any required field is missing, so malformed messages never
// reach the processing stages.
func DecodeAudioReady(data []byte) (*AudioReady, error) {
	var env AudioReady
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("invalid audio_uploaded payload: %w", err)
	}
	if env.JobID == "" {
		return nil, fmt.Errorf("audio_uploaded envelope missing job_id")
	}
	if env.FilePath == "" {
		return nil, fmt.Errorf("audio_uploaded envelope missing file_path")
	}
	if !env.SummaryVariant.Valid() {
		return nil, fmt.Errorf("audio_uploaded envelope has invalid summary_type %q", env.SummaryVariant)
	}
	return &env, nil
}

// DecodeTranscriptReady parses a transcription_complete payload with the same
// boundary checks, plus a non-empty transcript.
func DecodeTranscriptReady(data []byte) (*TranscriptReady, error) {
	var env TranscriptReady
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("invalid transcription_complete payload: %w", err)
	}
	if env.JobID == "" {
		return nil, fmt.Errorf("transcription_complete envelope missing job_id")
	}
	if env.Transcript == "" {
		return nil, fmt.Errorf("transcription_complete envelope missing transcript")
	}
	if !env.SummaryVariant.Valid() {
		return nil, fmt.Errorf("transcription_complete envelope has invalid summary_type %q", env.SummaryVariant)
	}
	return &env, nil
}
