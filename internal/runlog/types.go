package runlog

import "time"

// Status is the lifecycle state of a run.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusFailed    Status = "failed"
)

// Terminal reports whether a status is final.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusFailed:
		return true
	default:
		return false
	}
}

// RunMeta is the persisted state snapshot for one run. It is rewritten after
// every processed image and is the resumable source of truth for progress.
type RunMeta struct {
	RunID       string     `json:"run_id"`
	BatchID     string     `json:"batch_id,omitempty"`
	ModelID     string     `json:"model_id"`
	ModelName   string     `json:"model_name"`
	Status      Status     `json:"status"`
	SampleSize  int        `json:"sample_size,omitempty"`
	TotalImages int        `json:"total_images"`
	Processed   int        `json:"processed"`
	Correct     int        `json:"correct"`
	Errors      int        `json:"errors"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Prediction is one scored image outcome, appended once per (run, image).
type Prediction struct {
	ImagePath   string  `json:"image_path"`
	Split       string  `json:"split"`
	Category    string  `json:"category"`
	Filename    string  `json:"filename"`
	RawResponse string  `json:"raw_response"`
	Reasoning   string  `json:"reasoning,omitempty"`
	Parsed      string  `json:"parsed"`
	Correct     bool    `json:"correct"`
	LatencyMs   float64 `json:"latency_ms"`
}

// QueueEntry identifies one image in a run's frozen processing order.
type QueueEntry struct {
	Split    string `json:"split"`
	Category string `json:"category"`
	Filename string `json:"filename"`
}
