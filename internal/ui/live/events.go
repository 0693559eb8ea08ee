package live

import "hotdogbench/internal/runlog"

// EventKind identifies the type of live UI event.
type EventKind int

const (
	// EventRunStart signals that a run entered the running state.
	EventRunStart EventKind = iota
	// EventImageStart signals that the executor picked the next image.
	EventImageStart
	// EventPrediction delivers one scored outcome.
	EventPrediction
	// EventRunEnd signals that a run reached a terminal status.
	EventRunEnd
)

// Event carries a UI update payload.
type Event struct {
	Kind       EventKind
	Meta       runlog.RunMeta
	Index      int
	Entry      runlog.QueueEntry
	Prediction runlog.Prediction
}
