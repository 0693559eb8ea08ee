package metrics

import "sort"

// LeaderboardEntry is one model's best completed result.
type LeaderboardEntry struct {
	ModelID         string  `json:"model_id"`
	ModelName       string  `json:"model_name"`
	Provider        string  `json:"provider"`
	Params          string  `json:"params"`
	RunID           string  `json:"run_id"`
	Accuracy        float64 `json:"accuracy"`
	Precision       float64 `json:"precision"`
	Recall          float64 `json:"recall"`
	F1              float64 `json:"f1"`
	Total           int     `json:"total"`
	Errors          int     `json:"errors"`
	CILower         float64 `json:"ci_lower"`
	CIUpper         float64 `json:"ci_upper"`
	MedianLatencyMs float64 `json:"median_latency_ms"`
}

// SortLeaderboard orders entries best first. The primary ranking method is
// the Wilson lower bound of accuracy, which penalizes small samples; entries
// without any valid prediction carry no interval, so they fall back to raw
// accuracy. Ties break on accuracy, then model ID for stability.
func SortLeaderboard(entries []LeaderboardEntry) {
	sort.Slice(entries, func(i, j int) bool {
		si, sj := rankScore(entries[i]), rankScore(entries[j])
		if si != sj {
			return si > sj
		}
		if entries[i].Accuracy != entries[j].Accuracy {
			return entries[i].Accuracy > entries[j].Accuracy
		}
		return entries[i].ModelID < entries[j].ModelID
	})
}

// rankScore selects the ranking statistic for an entry.
func rankScore(e LeaderboardEntry) float64 {
	if e.Total-e.Errors > 0 {
		return e.CILower
	}
	return e.Accuracy
}
