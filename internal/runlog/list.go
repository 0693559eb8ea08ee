package runlog

import (
	"os"
	"strings"
)

// ListMetas loads every run snapshot found in a results directory, skipping
// files that fail to decode.
func ListMetas(resultsDir string) ([]RunMeta, error) {
	entries, err := os.ReadDir(resultsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var metas []RunMeta
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, metaSuffix) {
			continue
		}
		runID := strings.TrimSuffix(name, metaSuffix)
		meta, err := (Paths{ResultsDir: resultsDir, RunID: runID}).LoadMeta()
		if err != nil {
			continue
		}
		metas = append(metas, meta)
	}
	return metas, nil
}

// Remove deletes every artifact belonging to the run. Missing files are not
// an error.
func (p Paths) Remove() error {
	for _, path := range p.All() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}
