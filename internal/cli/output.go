package cli

import (
	"fmt"
	"io"
	"sync"

	"hotdogbench/internal/classifier"
	"hotdogbench/internal/metrics"
	"hotdogbench/internal/runlog"
	"hotdogbench/internal/runner"
)

// plainObserver streams run progress as plain text lines. Batch runs share
// one observer across goroutines, so writes are serialized.
type plainObserver struct {
	out io.Writer
	mu  sync.Mutex
}

func (o *plainObserver) OnRunStart(meta runlog.RunMeta) {
	o.mu.Lock()
	defer o.mu.Unlock()
	fmt.Fprintf(o.out, "Run %s started: %s (%d images)\n", meta.RunID, meta.ModelID, meta.TotalImages)
}

func (o *plainObserver) OnImageStart(runID string, index int, entry runlog.QueueEntry) {}

func (o *plainObserver) OnPrediction(meta runlog.RunMeta, pred runlog.Prediction) {
	o.mu.Lock()
	defer o.mu.Unlock()
	outcome := "incorrect"
	switch {
	case pred.Parsed == classifier.VerdictError:
		outcome = "error"
	case pred.Correct:
		outcome = "correct"
	}
	fmt.Fprintf(o.out, "[%s %d/%d] %s/%s -> %s (%s)\n",
		meta.RunID, meta.Processed, meta.TotalImages, pred.Category, pred.Filename, pred.Parsed, outcome)
}

func (o *plainObserver) OnRunEnd(meta runlog.RunMeta) {
	o.mu.Lock()
	defer o.mu.Unlock()
	fmt.Fprintf(o.out, "Run %s %s\n", meta.RunID, meta.Status)
}

// printRunSummary prints the final counters and accuracy for one run.
func printRunSummary(w io.Writer, orch *runner.Orchestrator, meta runlog.RunMeta) {
	fmt.Fprintf(w, "\nRun %s (%s): %s\n", meta.RunID, meta.ModelID, meta.Status)
	fmt.Fprintf(w, "  Processed: %d/%d  Correct: %d  Errors: %d\n",
		meta.Processed, meta.TotalImages, meta.Correct, meta.Errors)
	preds, err := orch.Predictions(meta.RunID, 0)
	if err != nil || len(preds) == 0 {
		return
	}
	m := metrics.Compute(preds)
	lower, upper := metrics.WilsonCI(m.TruePositives+m.TrueNegatives, m.Total-m.Errors)
	fmt.Fprintf(w, "  Accuracy: %.4f (95%% CI %.4f-%.4f)  F1: %.4f\n", m.Accuracy, lower, upper, m.F1)
}
