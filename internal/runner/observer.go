package runner

import "hotdogbench/internal/runlog"

// RunObserver receives run lifecycle events for UI or logging. Methods are
// called from the executor goroutine and must not block for long.
type RunObserver interface {
	// OnRunStart signals that a run entered the running state.
	OnRunStart(meta runlog.RunMeta)
	// OnImageStart signals that the executor picked the next image.
	OnImageStart(runID string, index int, entry runlog.QueueEntry)
	// OnPrediction delivers one scored outcome with the updated snapshot.
	OnPrediction(meta runlog.RunMeta, pred runlog.Prediction)
	// OnRunEnd signals that a run reached a terminal status.
	OnRunEnd(meta runlog.RunMeta)
}

type nopObserver struct{}

func (nopObserver) OnRunStart(runlog.RunMeta)                      {}
func (nopObserver) OnImageStart(string, int, runlog.QueueEntry)    {}
func (nopObserver) OnPrediction(runlog.RunMeta, runlog.Prediction) {}
func (nopObserver) OnRunEnd(runlog.RunMeta)                        {}
