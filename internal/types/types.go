package types

import "time"

// Job status constants
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Split mode constants
const (
	SplitFixed        = "fixed"
	SplitSilenceAware = "silence_aware"
)

// Provider constants
const (
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
)

// VideoInfo holds the probed properties of an uploaded video
type VideoInfo struct {
	Duration  float64 `json:"duration"`
	SizeBytes int64   `json:"size_bytes"`
	Format    string  `json:"format"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	Codec     string  `json:"codec"`
	FPS       float64 `json:"fps"`
}

// Keyframe is a model-identified moment of interest, not a codec keyframe
type Keyframe struct {
	Timecode         string `json:"timecode"`
	Title            string `json:"title"`
	FrameDescription string `json:"frame_description,omitempty"`
}

// AnalysisResult represents a finished analysis ready for storage
type AnalysisResult struct {
	JobID       string
	VideoName   string
	VideoType   string
	Provider    string
	Model       string
	Duration    float64
	ChunkCount  int
	Markdown    string
	LocalPath   string
	GDriveURL   string
	ProcessedAt time.Time
}

// JobView is the snapshot returned to status pollers
type JobView struct {
	JobID       string  `json:"job_id"`
	Status      string  `json:"status"`
	Progress    int     `json:"progress"`
	CurrentStep string  `json:"current_step"`
	Result      *string `json:"result,omitempty"`
	Error       *string `json:"error,omitempty"`
}
