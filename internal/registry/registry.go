// Package registry tracks active runs and batches in memory. It replaces
// process-wide globals with an injectable object whose lifecycle is owned by
// the orchestrator.
package registry

import (
	"sort"
	"sync"
	"sync/atomic"

	"hotdogbench/internal/runlog"
)

// Run is the live, concurrency-safe view of one active run. The owning
// executor is the only writer of the meta; the cancel flag may be set by any
// goroutine and is polled cooperatively by the executor.
type Run struct {
	mu        sync.Mutex
	meta      runlog.RunMeta
	cancelled atomic.Bool
}

// Meta returns a copy of the current snapshot.
func (r *Run) Meta() runlog.RunMeta {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.meta
}

// Update applies fn to the snapshot under the lock and returns the result.
func (r *Run) Update(fn func(meta *runlog.RunMeta)) runlog.RunMeta {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(&r.meta)
	return r.meta
}

// Cancel sets the advisory cancellation flag.
func (r *Run) Cancel() {
	r.cancelled.Store(true)
}

// Cancelled reports whether cancellation was requested.
func (r *Run) Cancelled() bool {
	return r.cancelled.Load()
}

// Registry stores active runs keyed by run ID and batch membership keyed by
// batch ID.
type Registry struct {
	mu      sync.RWMutex
	runs    map[string]*Run
	batches map[string]map[string]string
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		runs:    map[string]*Run{},
		batches: map[string]map[string]string{},
	}
}

// Register inserts a run and returns its live handle.
func (r *Registry) Register(meta runlog.RunMeta) *Run {
	run := &Run{meta: meta}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[meta.RunID] = run
	return run
}

// Get returns the live handle for a run, if present.
func (r *Registry) Get(runID string) (*Run, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	run, ok := r.runs[runID]
	return run, ok
}

// Remove forgets a run.
func (r *Registry) Remove(runID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.runs, runID)
}

// List returns snapshots of all registered runs, newest first.
func (r *Registry) List() []runlog.RunMeta {
	r.mu.RLock()
	handles := make([]*Run, 0, len(r.runs))
	for _, run := range r.runs {
		handles = append(handles, run)
	}
	r.mu.RUnlock()
	metas := make([]runlog.RunMeta, 0, len(handles))
	for _, run := range handles {
		metas = append(metas, run.Meta())
	}
	sort.Slice(metas, func(i, j int) bool {
		return metas[i].StartedAt.After(metas[j].StartedAt)
	})
	return metas
}

// Active returns snapshots of runs that have not reached a terminal status,
// newest first.
func (r *Registry) Active() []runlog.RunMeta {
	all := r.List()
	active := all[:0]
	for _, meta := range all {
		if !meta.Status.Terminal() {
			active = append(active, meta)
		}
	}
	return active
}

// RegisterBatch records the model-to-run membership of a batch.
func (r *Registry) RegisterBatch(batchID string, members map[string]string) {
	copied := make(map[string]string, len(members))
	for model, runID := range members {
		copied[model] = runID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches[batchID] = copied
}

// Batch returns the membership of a batch, if present.
func (r *Registry) Batch(batchID string) (map[string]string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	members, ok := r.batches[batchID]
	if !ok {
		return nil, false
	}
	copied := make(map[string]string, len(members))
	for model, runID := range members {
		copied[model] = runID
	}
	return copied, true
}

// RemoveBatch forgets a batch's membership.
func (r *Registry) RemoveBatch(batchID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.batches, batchID)
}
