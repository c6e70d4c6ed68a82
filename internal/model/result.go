package model

// EpisodeResult is the payload cached under an episode key and returned to
// clients on a cache hit. CachedAt and CacheTTL are bookkeeping added by the
// cache layer on write; entries are always replaced whole, never patched.
type EpisodeResult struct {
	Summary          string          `json:"summary"`
	Metadata         EpisodeMetadata `json:"metadata"`
	SummaryVariant   SummaryVariant  `json:"summary_type"`
	TranscriptLength int             `json:"transcript_length"`
	ProcessingTime   float64         `json:"processing_time"`
	FilePath         string          `json:"file_path,omitempty"`
	CachedAt         float64         `json:"cached_at,omitempty"`
	CacheTTL         int             `json:"cache_ttl,omitempty"`
}

// TranscriptRecord is the payload cached under a transcript fingerprint.
// Summaries holds one entry per variant so re-processing the same audio for
// a different variant merges into the record instead of replacing it.
type TranscriptRecord struct {
	TranscriptHash   string                    `json:"transcript_hash"`
	Metadata         EpisodeMetadata           `json:"metadata"`
	Summaries        map[SummaryVariant]string `json:"summaries"`
	TranscriptLength int                       `json:"transcript_length"`
	CachedAt         float64                   `json:"cached_at,omitempty"`
	CacheTTL         int                       `json:"cache_ttl,omitempty"`
}
