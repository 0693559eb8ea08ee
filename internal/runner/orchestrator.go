// Package runner drives benchmark runs: it freezes an image queue per run,
// executes the classify-parse-score loop under the shared rate limiter, and
// persists progress after every image so interrupted runs can resume.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"sync"
	"time"

	"hotdogbench/internal/classifier"
	"hotdogbench/internal/dataset"
	"hotdogbench/internal/ratelimit"
	"hotdogbench/internal/registry"
	"hotdogbench/internal/runlog"
	"hotdogbench/internal/spec"
)

// Gateway is the classification call made once per image. Implementations
// must be safe for concurrent use across runs.
type Gateway interface {
	Classify(ctx context.Context, modelID, imagePath string) (classifier.Result, error)
}

// GatewayFactory builds a gateway for one run. apiKey is the per-request
// override and may be empty.
type GatewayFactory func(apiKey string) Gateway

// Dependencies are the orchestrator's injectable seams. Nil fields fall back
// to production defaults derived from the config.
type Dependencies struct {
	Registry   *registry.Registry
	Limiter    ratelimit.Limiter
	NewGateway GatewayFactory
	NewRunID   func() string
	Now        func() time.Time
	Logger     *slog.Logger
	Observer   RunObserver
}

// Orchestrator owns the live run registry and starts, tracks, and cancels
// benchmark runs.
type Orchestrator struct {
	registry   *registry.Registry
	limiter    ratelimit.Limiter
	source     dataset.Source
	resultsDir string
	catalog    []spec.ModelConfig
	newGateway GatewayFactory
	newRunID   func() string
	now        func() time.Time
	logger     *slog.Logger
	observer   RunObserver

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
	running sync.WaitGroup
}

// New builds an orchestrator from a normalized config.
func New(cfg spec.Config, deps Dependencies) *Orchestrator {
	if deps.Registry == nil {
		deps.Registry = registry.New()
	}
	if deps.Limiter == nil {
		deps.Limiter = ratelimit.NewMinGap(cfg.RateLimiter.MaxCallsPerMinute)
	}
	if deps.NewGateway == nil {
		openRouter := cfg.OpenRouter
		deps.NewGateway = func(apiKey string) Gateway {
			if apiKey == "" {
				apiKey = os.Getenv(openRouter.APIKeyEnv)
			}
			doer := &http.Client{Timeout: time.Duration(openRouter.TimeoutMs) * time.Millisecond}
			return classifier.New(apiKey, openRouter.BaseURL, openRouter.Temperature, openRouter.MaxTokens, doer)
		}
	}
	if deps.NewRunID == nil {
		deps.NewRunID = NewRunID
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Observer == nil {
		deps.Observer = nopObserver{}
	}
	return &Orchestrator{
		registry:   deps.Registry,
		limiter:    deps.Limiter,
		source:     dataset.Source{Root: cfg.DataDir},
		resultsDir: cfg.ResultsDir,
		catalog:    cfg.Models,
		newGateway: deps.NewGateway,
		newRunID:   deps.NewRunID,
		now:        deps.Now,
		logger:     deps.Logger,
		observer:   deps.Observer,
		cancels:    map[string]context.CancelFunc{},
	}
}

// Registry exposes the live run registry, shared with the API layer.
func (o *Orchestrator) Registry() *registry.Registry {
	return o.registry
}

// Gateway builds a classification gateway with an optional per-request key
// override. Used by the ad-hoc classify endpoint.
func (o *Orchestrator) Gateway(apiKey string) Gateway {
	return o.newGateway(apiKey)
}

// StartOptions selects what a single run evaluates.
type StartOptions struct {
	ModelID    string
	SampleSize int
	APIKey     string
}

// BatchOptions selects what a batch evaluates. An empty ModelIDs slice runs
// every configured model.
type BatchOptions struct {
	ModelIDs   []string
	SampleSize int
	APIKey     string
}

// StartRun starts one benchmark run and returns its ID. The run executes on a
// background goroutine detached from ctx; cancellation goes through CancelRun.
func (o *Orchestrator) StartRun(ctx context.Context, opts StartOptions) (string, error) {
	images, err := o.source.ListImages(opts.SampleSize)
	if err != nil {
		return "", fmt.Errorf("list images: %w", err)
	}
	return o.startRun(ctx, opts, images, "")
}

// StartBatch starts one run per selected model over an identical image
// ordering and returns the batch ID with its model-to-run membership.
func (o *Orchestrator) StartBatch(ctx context.Context, opts BatchOptions) (string, map[string]string, error) {
	selected := make([]spec.ModelConfig, 0, len(opts.ModelIDs))
	if len(opts.ModelIDs) > 0 {
		for _, id := range opts.ModelIDs {
			selected = append(selected, ModelInfo(o.catalog, id))
		}
	} else {
		selected = append(selected, o.catalog...)
	}
	if len(selected) == 0 {
		return "", nil, fmt.Errorf("no models selected")
	}

	// One listing shared by every member keeps the queues element-for-element
	// identical.
	images, err := o.source.ListImages(opts.SampleSize)
	if err != nil {
		return "", nil, fmt.Errorf("list images: %w", err)
	}

	batchID := o.newRunID()
	members := make(map[string]string, len(selected))
	for _, model := range selected {
		runID, err := o.startRun(ctx, StartOptions{
			ModelID:    model.ID,
			SampleSize: opts.SampleSize,
			APIKey:     opts.APIKey,
		}, images, batchID)
		if err != nil {
			return "", nil, err
		}
		members[model.ID] = runID
	}
	o.registry.RegisterBatch(batchID, members)
	return batchID, members, nil
}

func (o *Orchestrator) startRun(ctx context.Context, opts StartOptions, images []dataset.Image, batchID string) (string, error) {
	model := ModelInfo(o.catalog, opts.ModelID)
	runID := o.newRunID()

	meta := runlog.RunMeta{
		RunID:       runID,
		BatchID:     batchID,
		ModelID:     model.ID,
		ModelName:   model.Name,
		Status:      runlog.StatusPending,
		SampleSize:  opts.SampleSize,
		TotalImages: len(images),
		StartedAt:   o.now().UTC(),
	}

	if err := os.MkdirAll(o.resultsDir, 0o755); err != nil {
		return "", fmt.Errorf("create results dir: %w", err)
	}
	paths := runlog.Paths{ResultsDir: o.resultsDir, RunID: runID}
	if err := paths.SaveMeta(meta); err != nil {
		return "", err
	}
	queue := make([]runlog.QueueEntry, len(images))
	for i, img := range images {
		queue[i] = runlog.QueueEntry{Split: img.Split, Category: img.Category, Filename: img.Filename}
	}
	if err := paths.SaveQueue(queue); err != nil {
		return "", err
	}

	run := o.registry.Register(meta)

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	o.mu.Lock()
	o.cancels[runID] = cancel
	o.mu.Unlock()

	o.logger.Info("run started",
		slog.String("run_id", runID),
		slog.String("model_id", model.ID),
		slog.Int("total_images", len(images)))

	o.running.Add(1)
	go func() {
		defer o.running.Done()
		defer func() {
			o.mu.Lock()
			delete(o.cancels, runID)
			o.mu.Unlock()
			cancel()
		}()
		o.execute(runCtx, run, paths, images, opts.APIKey)
	}()
	return runID, nil
}

// CancelRun requests cooperative cancellation of an active run. Only the
// registry flag is set: an already-issued classification call finishes and
// its outcome is recorded before the executor flips the run to cancelled.
func (o *Orchestrator) CancelRun(runID string) bool {
	run, ok := o.registry.Get(runID)
	if !ok || run.Meta().Status.Terminal() {
		return false
	}
	run.Cancel()
	return true
}

// CancelBatch cancels every member of a batch.
func (o *Orchestrator) CancelBatch(batchID string) bool {
	members, ok := o.registry.Batch(batchID)
	if !ok {
		return false
	}
	for _, runID := range members {
		o.CancelRun(runID)
	}
	return true
}

// Shutdown cancels every active run and additionally aborts their in-flight
// gateway calls and limiter waits. Process teardown only; regular
// cancellation goes through CancelRun so the in-flight image is still
// recorded.
func (o *Orchestrator) Shutdown() {
	for _, meta := range o.registry.Active() {
		o.CancelRun(meta.RunID)
	}
	o.mu.Lock()
	cancels := make([]context.CancelFunc, 0, len(o.cancels))
	for _, cancel := range o.cancels {
		cancels = append(cancels, cancel)
	}
	o.mu.Unlock()
	for _, cancel := range cancels {
		cancel()
	}
}

// Wait blocks until all executor goroutines have finished. Used by the CLI
// and by tests; the API server never calls it.
func (o *Orchestrator) Wait() {
	o.running.Wait()
}

// GetRun returns the current snapshot for a run, preferring the in-memory
// registry over the persisted file.
func (o *Orchestrator) GetRun(runID string) (runlog.RunMeta, bool) {
	if run, ok := o.registry.Get(runID); ok {
		return run.Meta(), true
	}
	meta, err := (runlog.Paths{ResultsDir: o.resultsDir, RunID: runID}).LoadMeta()
	if err != nil {
		return runlog.RunMeta{}, false
	}
	return meta, true
}

// ListRuns returns all known runs, newest first. Disk snapshots are merged
// with in-memory state, which is fresher for active runs.
func (o *Orchestrator) ListRuns() []runlog.RunMeta {
	byID := map[string]runlog.RunMeta{}
	if metas, err := runlog.ListMetas(o.resultsDir); err == nil {
		for _, meta := range metas {
			byID[meta.RunID] = meta
		}
	}
	for _, meta := range o.registry.List() {
		byID[meta.RunID] = meta
	}
	metas := make([]runlog.RunMeta, 0, len(byID))
	for _, meta := range byID {
		metas = append(metas, meta)
	}
	sort.Slice(metas, func(i, j int) bool {
		return metas[i].StartedAt.After(metas[j].StartedAt)
	})
	return metas
}

// ClearHistory deletes the files of every terminal run and returns how many
// runs were removed. Active runs are left untouched.
func (o *Orchestrator) ClearHistory() (int, error) {
	metas, err := runlog.ListMetas(o.resultsDir)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, meta := range metas {
		if run, ok := o.registry.Get(meta.RunID); ok {
			if !run.Meta().Status.Terminal() {
				continue
			}
			o.registry.Remove(meta.RunID)
		} else if !meta.Status.Terminal() {
			continue
		}
		if err := (runlog.Paths{ResultsDir: o.resultsDir, RunID: meta.RunID}).Remove(); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// Predictions returns the persisted predictions for a run, skipping the first
// after records so pollers can fetch increments.
func (o *Orchestrator) Predictions(runID string, after int) ([]runlog.Prediction, error) {
	preds, err := (runlog.Paths{ResultsDir: o.resultsDir, RunID: runID}).ReadPredictions()
	if err != nil {
		return nil, err
	}
	if after < 0 {
		after = 0
	}
	if after >= len(preds) {
		return []runlog.Prediction{}, nil
	}
	return preds[after:], nil
}

// Queue returns the frozen image ordering of a run.
func (o *Orchestrator) Queue(runID string) ([]runlog.QueueEntry, error) {
	return (runlog.Paths{ResultsDir: o.resultsDir, RunID: runID}).LoadQueue()
}

// Source exposes the dataset source, shared with the API layer.
func (o *Orchestrator) Source() dataset.Source {
	return o.source
}

// Catalog returns the configured model catalog.
func (o *Orchestrator) Catalog() []spec.ModelConfig {
	return o.catalog
}
