package model

// Result channel statuses. Exactly one terminal message is pushed per job;
// the channel always resolves, for failures too.
const (
	ResultStatusDone  = "done"
	ResultStatusError = "error"
)

// WebSocket control message types for keep-alive.
const (
	WSMessageTypePing = "ping"
	WSMessageTypePong = "pong"
)

// WSMessage is a generic client control frame.
type WSMessage struct {
	Type string `json:"type"`
}

// ResultMessage is the terminal payload pushed over /ws/summary/:jobId.
type ResultMessage struct {
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
	Summary string `json:"summary,omitempty"`
	Error   string `json:"error,omitempty"`
}
