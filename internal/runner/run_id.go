package runner

import "github.com/google/uuid"

// NewRunID returns a short random identifier for a run or batch.
func NewRunID() string {
	return uuid.NewString()[:8]
}
