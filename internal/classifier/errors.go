package classifier

import "fmt"

// StatusError reports a non-2xx response from the classification API.
type StatusError struct {
	Status int
	Body   string
}

// Error renders the status and response body.
func (e *StatusError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Body)
}

// Transient reports whether the status is worth retrying.
func (e *StatusError) Transient() bool {
	switch e.Status {
	case 429, 402, 502, 503:
		return true
	default:
		return false
	}
}
