package runlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// SaveMeta persists the run snapshot with a temp-file rename so a concurrent
// reader never observes a torn snapshot.
func (p Paths) SaveMeta(meta RunMeta) error {
	payload, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal meta: %w", err)
	}
	return atomicWrite(p.MetaPath(), payload)
}

// LoadMeta reads a run snapshot. Returns os.ErrNotExist when absent.
func (p Paths) LoadMeta() (RunMeta, error) {
	data, err := os.ReadFile(p.MetaPath())
	if err != nil {
		return RunMeta{}, err
	}
	var meta RunMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return RunMeta{}, fmt.Errorf("decode meta: %w", err)
	}
	return meta, nil
}

// SaveQueue persists the frozen image queue. Written once at run start.
func (p Paths) SaveQueue(queue []QueueEntry) error {
	payload, err := json.Marshal(queue)
	if err != nil {
		return fmt.Errorf("marshal queue: %w", err)
	}
	return atomicWrite(p.QueuePath(), payload)
}

// LoadQueue reads the frozen image queue. Returns os.ErrNotExist when absent.
func (p Paths) LoadQueue() ([]QueueEntry, error) {
	data, err := os.ReadFile(p.QueuePath())
	if err != nil {
		return nil, err
	}
	var queue []QueueEntry
	if err := json.Unmarshal(data, &queue); err != nil {
		return nil, fmt.Errorf("decode queue: %w", err)
	}
	return queue, nil
}

// atomicWrite writes a file via temp file, fsync, and rename.
func atomicWrite(path string, payload []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmpPath := path + ".tmp"
	file, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	_, writeErr := file.Write(payload)
	syncErr := file.Sync()
	closeErr := file.Close()
	if writeErr != nil {
		_ = os.Remove(tmpPath)
		return writeErr
	}
	if syncErr != nil {
		_ = os.Remove(tmpPath)
		return syncErr
	}
	if closeErr != nil {
		_ = os.Remove(tmpPath)
		return closeErr
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}
