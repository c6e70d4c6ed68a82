package model

// DownloadJobPayload is the asynq task body for fetching an episode's audio.
// It carries everything the worker needs to publish the AudioReady envelope
// once the file is on disk.
type DownloadJobPayload struct {
	JobID          string          `json:"job_id"`
	Platform       Platform        `json:"platform"`
	EpisodeID      string          `json:"episode_id"`
	SummaryVariant SummaryVariant  `json:"summary_type"`
	AudioURL       string          `json:"audio_url"`
	Metadata       EpisodeMetadata `json:"metadata"`
}
