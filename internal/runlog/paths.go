package runlog

import "path/filepath"

// File suffixes for the three per-run artifacts.
const (
	logSuffix   = ".jsonl"
	metaSuffix  = "_meta.json"
	queueSuffix = "_queue.json"
)

// Paths locates the on-disk artifacts for one run.
type Paths struct {
	ResultsDir string
	RunID      string
}

// LogPath returns the append-only prediction log path.
func (p Paths) LogPath() string {
	return filepath.Join(p.ResultsDir, p.RunID+logSuffix)
}

// MetaPath returns the state snapshot path.
func (p Paths) MetaPath() string {
	return filepath.Join(p.ResultsDir, p.RunID+metaSuffix)
}

// QueuePath returns the frozen image queue path.
func (p Paths) QueuePath() string {
	return filepath.Join(p.ResultsDir, p.RunID+queueSuffix)
}

// All returns every artifact path for the run.
func (p Paths) All() []string {
	return []string{p.LogPath(), p.MetaPath(), p.QueuePath()}
}
