package model

// SubmitRequest is the body of POST /api/submit.
type SubmitRequest struct {
	URL            string `json:"url" validate:"required,url"`
	SummaryVariant string `json:"summary_type" validate:"required,oneof=ts ns bs"`
}

// SubmitCached is returned when the episode cache already holds a result.
type SubmitCached struct {
	Cached         bool           `json:"cached"`
	Data           *EpisodeResult `json:"data"`
	ProcessingTime float64        `json:"processing_time"`
}

// SubmitAccepted is returned when async processing has been kicked off.
type SubmitAccepted struct {
	Cached  bool          `json:"cached"`
	Message string        `json:"message"`
	Data    SubmitJobInfo `json:"data"`
}

// SubmitJobInfo identifies the in-flight job so the client can open the
// result channel for it.
type SubmitJobInfo struct {
	JobID          string          `json:"job_id"`
	Platform       Platform        `json:"platform"`
	EpisodeID      string          `json:"episode_id"`
	SummaryVariant SummaryVariant  `json:"summary_type"`
	Metadata       EpisodeMetadata `json:"metadata"`
}

// SubmitBusinessError reports resolution outcomes that are not transport
// errors: episode not found, audio missing, episode too long. Delivered with
// HTTP 200 and Error set.
type SubmitBusinessError struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}
