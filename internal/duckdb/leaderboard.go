package duckdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"hotdogbench/internal/metrics"
)

// leaderboardSQL aggregates the latest completed run per model. Error records
// are excluded from correctness but kept in the totals, mirroring the metrics
// engine.
const leaderboardSQL = `
WITH latest AS (
    SELECT run_id, model_id, model_name,
           ROW_NUMBER() OVER (PARTITION BY model_id ORDER BY started_at DESC) AS rn
    FROM runs
    WHERE status = 'completed'
)
SELECT l.run_id, l.model_id, l.model_name,
       count(*) AS total,
       coalesce(sum(CASE WHEN p.correct THEN 1 ELSE 0 END), 0) AS correct,
       coalesce(sum(CASE WHEN p.parsed = 'error' THEN 1 ELSE 0 END), 0) AS errors,
       coalesce(median(CASE WHEN p.parsed <> 'error' THEN p.latency_ms END), 0) AS median_latency_ms
FROM latest l
JOIN predictions p ON p.run_id = l.run_id
WHERE l.rn = 1
GROUP BY l.run_id, l.model_id, l.model_name
`

// QueryLeaderboard aggregates ingested runs into ranked leaderboard entries.
func QueryLeaderboard(ctx context.Context, db *sql.DB) ([]metrics.LeaderboardEntry, error) {
	if db == nil {
		return nil, errors.New("duckdb: db is nil")
	}
	rows, err := db.QueryContext(ctx, leaderboardSQL)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	entries := []metrics.LeaderboardEntry{}
	for rows.Next() {
		var entry metrics.LeaderboardEntry
		var total, correct, errorCount int
		if err := rows.Scan(
			&entry.RunID,
			&entry.ModelID,
			&entry.ModelName,
			&total,
			&correct,
			&errorCount,
			&entry.MedianLatencyMs,
		); err != nil {
			return nil, fmt.Errorf("scan leaderboard row: %w", err)
		}
		entry.Total = total
		entry.Errors = errorCount
		valid := total - errorCount
		if valid > 0 {
			entry.Accuracy = math.Round(float64(correct)/float64(valid)*10000) / 10000
		}
		entry.CILower, entry.CIUpper = metrics.WilsonCI(correct, valid)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leaderboard rows: %w", err)
	}
	metrics.SortLeaderboard(entries)
	return entries, nil
}
