package runlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
)

// AppendPrediction appends one record as a single JSON line. Appends are
// whole-line writes on an O_APPEND descriptor opened per call, so a crash can
// lose at most the trailing line.
func (p Paths) AppendPrediction(pred Prediction) error {
	line, err := json.Marshal(pred)
	if err != nil {
		return fmt.Errorf("marshal prediction: %w", err)
	}
	file, err := os.OpenFile(p.LogPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open run log: %w", err)
	}
	_, writeErr := file.Write(append(line, '\n'))
	closeErr := file.Close()
	if writeErr != nil {
		return fmt.Errorf("append prediction: %w", writeErr)
	}
	if closeErr != nil {
		return fmt.Errorf("close run log: %w", closeErr)
	}
	return nil
}

// ReadPredictions loads all records from the run log. Each line is decoded
// independently; an unparseable trailing line from an interrupted write is
// skipped.
func (p Paths) ReadPredictions() ([]Prediction, error) {
	file, err := os.Open(p.LogPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open run log: %w", err)
	}
	defer file.Close()

	var predictions []Prediction
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var pred Prediction
		if err := json.Unmarshal(line, &pred); err != nil {
			// A torn line can only be the last one; anything after it is
			// unreadable anyway.
			break
		}
		predictions = append(predictions, pred)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan run log: %w", err)
	}
	return predictions, nil
}

// ProcessedKeys returns the set of image paths already recorded in the log.
func (p Paths) ProcessedKeys() (map[string]struct{}, error) {
	predictions, err := p.ReadPredictions()
	if err != nil {
		return nil, err
	}
	keys := make(map[string]struct{}, len(predictions))
	for _, pred := range predictions {
		keys[pred.ImagePath] = struct{}{}
	}
	return keys, nil
}
