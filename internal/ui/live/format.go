package live

import (
	"fmt"
	"strconv"

	"hotdogbench/internal/classifier"
)

const maxImageWidth = 36

func formatIndex(index int) string {
	return strconv.Itoa(index + 1)
}

func formatImage(image string) string {
	if image == "" {
		return "-"
	}
	if len(image) <= maxImageWidth {
		return image
	}
	return "…" + image[len(image)-maxImageWidth+1:]
}

func formatResult(row ImageRow) string {
	if row.Status != RowDone {
		return ""
	}
	switch {
	case row.Verdict == classifier.VerdictError:
		return "error"
	case row.Correct:
		return "correct"
	default:
		return "incorrect"
	}
}

func formatLatency(row ImageRow) string {
	if row.Status != RowDone || row.LatencyMs <= 0 {
		return ""
	}
	return fmt.Sprintf("%.1fms", row.LatencyMs)
}

func fmtInt(value int) string {
	return strconv.Itoa(value)
}
