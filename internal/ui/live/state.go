package live

import (
	"time"

	"hotdogbench/internal/runlog"
)

// RowStatus is the display state of one image row.
type RowStatus string

const (
	RowQueued      RowStatus = "queued"
	RowClassifying RowStatus = "classifying"
	RowDone        RowStatus = "done"
)

// ImageRow holds UI state for a single queued image.
type ImageRow struct {
	Index     int
	Image     string
	Category  string
	Status    RowStatus
	Verdict   string
	Correct   bool
	LatencyMs float64
}

// StatusCounts aggregates rows by display state.
type StatusCounts struct {
	Queued      int
	Classifying int
	Done        int
	Correct     int
	Incorrect   int
	Errors      int
}

// State captures the live UI state for one benchmark run.
type State struct {
	RunID     string
	ModelID   string
	ModelName string
	Status    runlog.Status
	Total     int
	Processed int
	StartedAt time.Time
	LastEvent string
	Rows      []ImageRow
	Counts    StatusCounts
}
