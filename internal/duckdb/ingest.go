package duckdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"hotdogbench/internal/runlog"
)

// IngestRun inserts a run snapshot and its predictions. Re-ingesting the same
// run is a no-op: both tables conflict on their natural keys.
func IngestRun(ctx context.Context, db *sql.DB, meta runlog.RunMeta, preds []runlog.Prediction) error {
	if db == nil {
		return errors.New("duckdb: db is nil")
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin ingest: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO runs (run_id, batch_id, model_id, model_name, status, sample_size,
		                   total_images, processed, correct, errors, started_at, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (run_id) DO NOTHING`,
		meta.RunID,
		nullString(meta.BatchID),
		meta.ModelID,
		meta.ModelName,
		string(meta.Status),
		nullInt(meta.SampleSize),
		meta.TotalImages,
		meta.Processed,
		meta.Correct,
		meta.Errors,
		meta.StartedAt,
		meta.CompletedAt,
	); err != nil {
		return fmt.Errorf("insert run %s: %w", meta.RunID, err)
	}

	for _, pred := range preds {
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO predictions (run_id, image_path, split, category, filename,
			                          raw_response, reasoning, parsed, correct, latency_ms)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT (run_id, image_path) DO NOTHING`,
			meta.RunID,
			pred.ImagePath,
			pred.Split,
			pred.Category,
			pred.Filename,
			pred.RawResponse,
			nullString(pred.Reasoning),
			pred.Parsed,
			pred.Correct,
			pred.LatencyMs,
		); err != nil {
			return fmt.Errorf("insert prediction %s/%s: %w", meta.RunID, pred.ImagePath, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit ingest: %w", err)
	}
	return nil
}

func nullString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullInt(value int) any {
	if value == 0 {
		return nil
	}
	return value
}
