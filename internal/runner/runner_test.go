package runner

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"hotdogbench/internal/classifier"
	"hotdogbench/internal/dataset"
	"hotdogbench/internal/ratelimit"
	"hotdogbench/internal/runlog"
	"hotdogbench/internal/spec"
	"hotdogbench/internal/testutil"
)

// fakeGateway returns canned results and records how many calls it served.
type fakeGateway struct {
	classify func(ctx context.Context, modelID, imagePath string) (classifier.Result, error)
	calls    chan string
}

func (g *fakeGateway) Classify(ctx context.Context, modelID, imagePath string) (classifier.Result, error) {
	if g.calls != nil {
		g.calls <- imagePath
	}
	return g.classify(ctx, modelID, imagePath)
}

func alwaysYes(context.Context, string, string) (classifier.Result, error) {
	return classifier.Result{Raw: "yes", LatencyMs: 123.45}, nil
}

// writeDataset lays out a test split with the given image counts and returns
// the data root.
func writeDataset(t *testing.T, hot, notHot int) string {
	t.Helper()
	root := t.TempDir()
	for i := 0; i < hot; i++ {
		writeImage(t, filepath.Join(root, "test", "hot_dog", fmt.Sprintf("hd_%02d.jpg", i)))
	}
	for i := 0; i < notHot; i++ {
		writeImage(t, filepath.Join(root, "test", "not_hot_dog", fmt.Sprintf("nh_%02d.jpg", i)))
	}
	return root
}

func writeImage(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("img"), 0o644); err != nil {
		t.Fatalf("write image: %v", err)
	}
}

// sequenceIDs returns a run ID generator yielding r1, r2, ...
func sequenceIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("r%d", n)
	}
}

func newTestOrchestrator(t *testing.T, dataDir string, gateway Gateway) *Orchestrator {
	t.Helper()
	cfg := spec.Config{
		DataDir:    dataDir,
		ResultsDir: t.TempDir(),
		Models: []spec.ModelConfig{
			{ID: "openai/gpt-5-mini", Name: "GPT-5 Mini", Provider: "OpenAI"},
		},
	}
	return New(cfg, Dependencies{
		Limiter:    ratelimit.Noop,
		NewGateway: func(string) Gateway { return gateway },
		NewRunID:   sequenceIDs(),
		Now:        func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) },
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func TestStartRunCompletes(t *testing.T) {
	dataDir := writeDataset(t, 2, 2)
	o := newTestOrchestrator(t, dataDir, &fakeGateway{classify: alwaysYes})

	runID, err := o.StartRun(context.Background(), StartOptions{ModelID: "openai/gpt-5-mini"})
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	o.Wait()

	meta, ok := o.GetRun(runID)
	if !ok {
		t.Fatalf("run not found after completion")
	}
	if meta.Status != runlog.StatusCompleted {
		t.Fatalf("unexpected status: %s", meta.Status)
	}
	if meta.Processed != 4 || meta.TotalImages != 4 {
		t.Fatalf("unexpected progress: %+v", meta)
	}
	// "yes" for everything scores only the hot dog half.
	if meta.Correct != 2 || meta.Errors != 0 {
		t.Fatalf("unexpected counters: %+v", meta)
	}
	if meta.CompletedAt == nil {
		t.Fatalf("missing completion timestamp")
	}

	preds, err := o.Predictions(runID, 0)
	if err != nil {
		t.Fatalf("Predictions: %v", err)
	}
	if len(preds) != 4 {
		t.Fatalf("unexpected prediction count: %d", len(preds))
	}
	if preds[0].LatencyMs != 123.5 {
		t.Fatalf("latency not rounded: %v", preds[0].LatencyMs)
	}

	queue, err := o.Queue(runID)
	if err != nil {
		t.Fatalf("Queue: %v", err)
	}
	if len(queue) != 4 {
		t.Fatalf("unexpected queue length: %d", len(queue))
	}
	// Interleaved ordering: hot dog first, then alternating.
	if queue[0].Category != dataset.CategoryHotDog || queue[1].Category != dataset.CategoryNotHotDog {
		t.Fatalf("unexpected queue order: %+v", queue[:2])
	}
}

func TestRunPersistsSnapshotOnDisk(t *testing.T) {
	dataDir := writeDataset(t, 1, 0)
	o := newTestOrchestrator(t, dataDir, &fakeGateway{classify: alwaysYes})

	runID, err := o.StartRun(context.Background(), StartOptions{ModelID: "openai/gpt-5-mini"})
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	o.Wait()

	// Forget the in-memory state; GetRun must fall back to disk.
	o.Registry().Remove(runID)
	meta, ok := o.GetRun(runID)
	if !ok {
		t.Fatalf("run not found on disk")
	}
	if meta.Status != runlog.StatusCompleted || meta.Processed != 1 {
		t.Fatalf("unexpected disk snapshot: %+v", meta)
	}
}

func TestRunResumesFromExistingLog(t *testing.T) {
	dataDir := writeDataset(t, 2, 2)
	gateway := &fakeGateway{classify: alwaysYes, calls: make(chan string, 8)}
	o := newTestOrchestrator(t, dataDir, gateway)

	// Pre-record the first queue image under the ID the generator will hand
	// out, as if a previous process crashed after one image.
	paths := runlog.Paths{ResultsDir: o.resultsDir, RunID: "r1"}
	if err := paths.AppendPrediction(runlog.Prediction{
		ImagePath: "test/hot_dog/hd_00.jpg",
		Split:     "test",
		Category:  "hot_dog",
		Filename:  "hd_00.jpg",
		Parsed:    "yes",
		Correct:   true,
	}); err != nil {
		t.Fatalf("seed log: %v", err)
	}

	runID, err := o.StartRun(context.Background(), StartOptions{ModelID: "openai/gpt-5-mini"})
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	if runID != "r1" {
		t.Fatalf("unexpected run id: %s", runID)
	}
	o.Wait()

	if got := len(gateway.calls); got != 3 {
		t.Fatalf("expected 3 gateway calls, got %d", got)
	}
	meta, _ := o.GetRun(runID)
	if meta.Status != runlog.StatusCompleted || meta.Processed != 4 {
		t.Fatalf("unexpected snapshot after resume: %+v", meta)
	}
}

func TestGatewayErrorRecordedAsErrorVerdict(t *testing.T) {
	dataDir := writeDataset(t, 1, 0)
	gateway := &fakeGateway{classify: func(context.Context, string, string) (classifier.Result, error) {
		return classifier.Result{}, fmt.Errorf("upstream exploded")
	}}
	o := newTestOrchestrator(t, dataDir, gateway)

	runID, err := o.StartRun(context.Background(), StartOptions{ModelID: "openai/gpt-5-mini"})
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	o.Wait()

	meta, _ := o.GetRun(runID)
	if meta.Status != runlog.StatusCompleted {
		t.Fatalf("unexpected status: %s", meta.Status)
	}
	if meta.Processed != 1 || meta.Errors != 1 || meta.Correct != 0 {
		t.Fatalf("unexpected counters: %+v", meta)
	}
	preds, err := o.Predictions(runID, 0)
	if err != nil || len(preds) != 1 {
		t.Fatalf("Predictions: %v, n=%d", err, len(preds))
	}
	if preds[0].Parsed != classifier.VerdictError || preds[0].RawResponse != "upstream exploded" {
		t.Fatalf("unexpected error record: %+v", preds[0])
	}
	if preds[0].LatencyMs != 0 {
		t.Fatalf("error record should have zero latency: %+v", preds[0])
	}
}

func TestCancelRunRecordsInFlightCall(t *testing.T) {
	dataDir := writeDataset(t, 4, 4)
	started := make(chan string, 8)
	release := make(chan struct{})
	gateway := &fakeGateway{calls: started, classify: func(ctx context.Context, _, _ string) (classifier.Result, error) {
		select {
		case <-release:
			return classifier.Result{Raw: "yes", LatencyMs: 1}, nil
		case <-ctx.Done():
			return classifier.Result{}, ctx.Err()
		}
	}}
	o := newTestOrchestrator(t, dataDir, gateway)

	runID, err := o.StartRun(context.Background(), StartOptions{ModelID: "openai/gpt-5-mini"})
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	// Let the first image through, then cancel while the second call is held
	// in flight.
	<-started
	release <- struct{}{}
	<-started
	if !o.CancelRun(runID) {
		t.Fatalf("CancelRun returned false for active run")
	}
	// The already-issued call must be allowed to finish and be recorded
	// before the run flips to cancelled.
	release <- struct{}{}
	o.Wait()

	meta, _ := o.GetRun(runID)
	if meta.Status != runlog.StatusCancelled {
		t.Fatalf("unexpected status: %s", meta.Status)
	}
	if meta.Processed != 2 {
		t.Fatalf("in-flight image not counted: %+v", meta)
	}
	preds, _ := o.Predictions(runID, 0)
	if len(preds) != 2 {
		t.Fatalf("in-flight outcome not recorded: %d predictions", len(preds))
	}
	// Queue interleaves hot first, so the second (in-flight) image is
	// not_hot_dog and a yes verdict scores incorrect.
	if preds[1].Category != dataset.CategoryNotHotDog || preds[1].Correct {
		t.Fatalf("unexpected in-flight record: %+v", preds[1])
	}
}

func TestShutdownAbortsInFlightCall(t *testing.T) {
	dataDir := writeDataset(t, 4, 4)
	started := make(chan string, 8)
	gateway := &fakeGateway{calls: started, classify: func(ctx context.Context, _, _ string) (classifier.Result, error) {
		<-ctx.Done()
		return classifier.Result{}, ctx.Err()
	}}
	o := newTestOrchestrator(t, dataDir, gateway)

	runID, err := o.StartRun(context.Background(), StartOptions{ModelID: "openai/gpt-5-mini"})
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	<-started
	o.Shutdown()
	o.Wait()

	meta, _ := o.GetRun(runID)
	if meta.Status != runlog.StatusCancelled {
		t.Fatalf("unexpected status: %s", meta.Status)
	}
	// An aborted call is not recorded as a synthetic error.
	preds, _ := o.Predictions(runID, 0)
	if len(preds) != 0 {
		t.Fatalf("aborted call was recorded: %d predictions", len(preds))
	}
}

func TestCancelRunUnknown(t *testing.T) {
	o := newTestOrchestrator(t, t.TempDir(), &fakeGateway{classify: alwaysYes})
	if o.CancelRun("nope") {
		t.Fatalf("CancelRun succeeded for unknown run")
	}
}

func TestStartBatchSharesQueue(t *testing.T) {
	dataDir := writeDataset(t, 3, 3)
	o := newTestOrchestrator(t, dataDir, &fakeGateway{classify: alwaysYes})

	batchID, members, err := o.StartBatch(context.Background(), BatchOptions{
		ModelIDs: []string{"openai/gpt-5-mini", "google/gemini-2.5-flash"},
	})
	if err != nil {
		t.Fatalf("StartBatch: %v", err)
	}
	o.Wait()

	if len(members) != 2 {
		t.Fatalf("unexpected members: %+v", members)
	}
	got, ok := o.Registry().Batch(batchID)
	if !ok || len(got) != 2 {
		t.Fatalf("batch not registered: %v %+v", ok, got)
	}

	var queues [][]runlog.QueueEntry
	for _, runID := range members {
		queue, err := o.Queue(runID)
		if err != nil {
			t.Fatalf("Queue: %v", err)
		}
		queues = append(queues, queue)
		meta, _ := o.GetRun(runID)
		if meta.BatchID != batchID {
			t.Fatalf("member missing batch id: %+v", meta)
		}
	}
	if len(queues[0]) != 6 || len(queues[0]) != len(queues[1]) {
		t.Fatalf("queue lengths differ: %d vs %d", len(queues[0]), len(queues[1]))
	}
	for i := range queues[0] {
		if queues[0][i] != queues[1][i] {
			t.Fatalf("queues diverge at %d: %+v vs %+v", i, queues[0][i], queues[1][i])
		}
	}
}

func TestStartBatchDefaultsToCatalog(t *testing.T) {
	dataDir := writeDataset(t, 1, 1)
	o := newTestOrchestrator(t, dataDir, &fakeGateway{classify: alwaysYes})

	_, members, err := o.StartBatch(context.Background(), BatchOptions{})
	if err != nil {
		t.Fatalf("StartBatch: %v", err)
	}
	o.Wait()
	if len(members) != 1 {
		t.Fatalf("expected one catalog member, got %+v", members)
	}
	if _, ok := members["openai/gpt-5-mini"]; !ok {
		t.Fatalf("catalog model missing: %+v", members)
	}
}

func TestClearHistorySkipsActiveRuns(t *testing.T) {
	dataDir := writeDataset(t, 2, 2)
	release := make(chan struct{})
	gateway := &fakeGateway{classify: func(ctx context.Context, _, _ string) (classifier.Result, error) {
		select {
		case <-release:
			return classifier.Result{Raw: "yes", LatencyMs: 1}, nil
		case <-ctx.Done():
			return classifier.Result{}, ctx.Err()
		}
	}}
	o := newTestOrchestrator(t, dataDir, gateway)

	doneID, err := o.StartRun(context.Background(), StartOptions{ModelID: "openai/gpt-5-mini", SampleSize: 1})
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	release <- struct{}{}
	release <- struct{}{}
	testutil.Eventually(t, time.Second, time.Millisecond, func() bool {
		meta, _ := o.GetRun(doneID)
		return meta.Status.Terminal()
	}, "first run did not finish")

	activeID, err := o.StartRun(context.Background(), StartOptions{ModelID: "openai/gpt-5-mini"})
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}

	removed, err := o.ClearHistory()
	if err != nil {
		t.Fatalf("ClearHistory: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	if _, ok := o.GetRun(doneID); ok {
		t.Fatalf("terminal run survived ClearHistory")
	}
	if _, ok := o.GetRun(activeID); !ok {
		t.Fatalf("active run removed by ClearHistory")
	}

	o.CancelRun(activeID)
	o.Wait()
}

func TestPredictionsAfterOffset(t *testing.T) {
	dataDir := writeDataset(t, 2, 2)
	o := newTestOrchestrator(t, dataDir, &fakeGateway{classify: alwaysYes})

	runID, err := o.StartRun(context.Background(), StartOptions{ModelID: "openai/gpt-5-mini"})
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	o.Wait()

	preds, err := o.Predictions(runID, 3)
	if err != nil {
		t.Fatalf("Predictions: %v", err)
	}
	if len(preds) != 1 {
		t.Fatalf("unexpected increment size: %d", len(preds))
	}
	preds, err = o.Predictions(runID, 10)
	if err != nil || len(preds) != 0 {
		t.Fatalf("offset past end: %v, n=%d", err, len(preds))
	}
}

func TestModelInfoCatalogAndInference(t *testing.T) {
	catalog := []spec.ModelConfig{
		{ID: "openai/gpt-5-mini", Name: "GPT-5 Mini", Provider: "OpenAI", Params: "unknown"},
	}

	got := ModelInfo(catalog, "openai/gpt-5-mini")
	if got.Name != "GPT-5 Mini" || got.Provider != "OpenAI" {
		t.Fatalf("catalog lookup failed: %+v", got)
	}

	got = ModelInfo(catalog, "google/gemini-2.5-flash:free")
	if got.ID != "google/gemini-2.5-flash:free" {
		t.Fatalf("inferred info lost the id: %+v", got)
	}
	if got.Provider != "Google" {
		t.Fatalf("unexpected provider: %q", got.Provider)
	}
	if got.Name != "Gemini 2.5 Flash" {
		t.Fatalf("unexpected name: %q", got.Name)
	}

	got = ModelInfo(nil, "no-slash-model")
	if got.Name != "no-slash-model" || got.Provider != "No-Slash-Model" {
		t.Fatalf("unexpected fallback: %+v", got)
	}
}
