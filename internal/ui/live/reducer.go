package live

import (
	"fmt"

	"hotdogbench/internal/classifier"
)

// Reduce applies a UI event to the state.
func Reduce(state State, event Event) State {
	switch event.Kind {
	case EventRunStart:
		state.RunID = event.Meta.RunID
		state.ModelID = event.Meta.ModelID
		state.ModelName = event.Meta.ModelName
		state.Status = event.Meta.Status
		state.Total = event.Meta.TotalImages
		state.StartedAt = event.Meta.StartedAt
		state.Rows = nil
	case EventImageStart:
		state = ensureRow(state, event.Index)
		if event.Index >= 0 && event.Index < len(state.Rows) {
			row := state.Rows[event.Index]
			row.Image = event.Entry.Category + "/" + event.Entry.Filename
			row.Category = event.Entry.Category
			row.Status = RowClassifying
			state.Rows[event.Index] = row
		}
	case EventPrediction:
		state = applyPrediction(state, event)
	case EventRunEnd:
		state.Status = event.Meta.Status
		state.Processed = event.Meta.Processed
		state.LastEvent = fmt.Sprintf("run %s %s", event.Meta.RunID, event.Meta.Status)
	}
	state.Counts = recount(state.Rows)
	return state
}

// ensureRow grows the state rows to include the target index.
func ensureRow(state State, index int) State {
	if index < 0 || index < len(state.Rows) {
		return state
	}
	rows := make([]ImageRow, index+1)
	copy(rows, state.Rows)
	for i := len(state.Rows); i < len(rows); i++ {
		rows[i] = ImageRow{Index: i, Status: RowQueued}
	}
	state.Rows = rows
	return state
}

// applyPrediction marks the row for the scored image done and refreshes the
// run counters from the snapshot.
func applyPrediction(state State, event Event) State {
	state.Status = event.Meta.Status
	state.Processed = event.Meta.Processed

	pred := event.Prediction
	for i, row := range state.Rows {
		if row.Status != RowClassifying {
			continue
		}
		row.Status = RowDone
		row.Image = pred.Category + "/" + pred.Filename
		row.Category = pred.Category
		row.Verdict = pred.Parsed
		row.Correct = pred.Correct
		row.LatencyMs = pred.LatencyMs
		state.Rows[i] = row
		break
	}
	state.LastEvent = formatOutcome(pred.Category+"/"+pred.Filename, pred.Parsed, pred.Correct)
	return state
}

// recount recomputes status counts for the current rows.
func recount(rows []ImageRow) StatusCounts {
	var counts StatusCounts
	for _, row := range rows {
		switch row.Status {
		case RowQueued:
			counts.Queued++
		case RowClassifying:
			counts.Classifying++
		case RowDone:
			counts.Done++
			switch {
			case row.Verdict == classifier.VerdictError:
				counts.Errors++
			case row.Correct:
				counts.Correct++
			default:
				counts.Incorrect++
			}
		}
	}
	return counts
}

// formatOutcome creates a short footer message for a scored image.
func formatOutcome(image, verdict string, correct bool) string {
	switch {
	case verdict == classifier.VerdictError:
		return fmt.Sprintf("%s errored", image)
	case correct:
		return fmt.Sprintf("%s correct (%s)", image, verdict)
	default:
		return fmt.Sprintf("%s incorrect (%s)", image, verdict)
	}
}
