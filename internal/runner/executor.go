package runner

import (
	"context"
	"log/slog"
	"math"

	"hotdogbench/internal/classifier"
	"hotdogbench/internal/dataset"
	"hotdogbench/internal/registry"
	"hotdogbench/internal/runlog"
)

// execute drives one run to a terminal status. It is the only writer of the
// run's meta and log files.
func (o *Orchestrator) execute(ctx context.Context, run *registry.Run, paths runlog.Paths, images []dataset.Image, apiKey string) {
	meta := run.Update(func(m *runlog.RunMeta) {
		m.Status = runlog.StatusRunning
	})
	if err := paths.SaveMeta(meta); err != nil {
		o.fail(run, paths, err)
		return
	}
	o.observer.OnRunStart(meta)

	gateway := o.newGateway(apiKey)

	// Resumability: a fresh executor over an existing log skips the images
	// already recorded.
	processed, err := paths.ProcessedKeys()
	if err != nil {
		o.fail(run, paths, err)
		return
	}

	for i, img := range images {
		if ctx.Err() != nil || run.Cancelled() {
			meta = run.Update(func(m *runlog.RunMeta) {
				m.Status = runlog.StatusCancelled
			})
			break
		}

		key := img.Key()
		if _, done := processed[key]; done {
			meta = run.Update(func(m *runlog.RunMeta) {
				m.Processed++
			})
			continue
		}

		o.observer.OnImageStart(meta.RunID, i, runlog.QueueEntry{
			Split:    img.Split,
			Category: img.Category,
			Filename: img.Filename,
		})

		if err := o.limiter.Acquire(ctx); err != nil {
			meta = run.Update(func(m *runlog.RunMeta) {
				m.Status = runlog.StatusCancelled
			})
			break
		}

		pred := o.classifyOne(ctx, gateway, meta.ModelID, img, key)
		if pred.Parsed == classifier.VerdictError && ctx.Err() != nil {
			// The in-flight call was aborted by cancellation; do not record
			// a synthetic error for it.
			meta = run.Update(func(m *runlog.RunMeta) {
				m.Status = runlog.StatusCancelled
			})
			break
		}

		if err := paths.AppendPrediction(pred); err != nil {
			o.fail(run, paths, err)
			return
		}
		meta = run.Update(func(m *runlog.RunMeta) {
			m.Processed++
			if pred.Correct {
				m.Correct++
			}
			if pred.Parsed == classifier.VerdictError {
				m.Errors++
			}
		})
		if err := paths.SaveMeta(meta); err != nil {
			o.fail(run, paths, err)
			return
		}
		o.observer.OnPrediction(meta, pred)
		o.logger.Debug("image scored",
			slog.String("run_id", meta.RunID),
			slog.String("image", key),
			slog.String("verdict", pred.Parsed),
			slog.Bool("correct", pred.Correct))
	}

	meta = run.Update(func(m *runlog.RunMeta) {
		if m.Status == runlog.StatusRunning {
			m.Status = runlog.StatusCompleted
			completed := o.now().UTC()
			m.CompletedAt = &completed
		}
	})
	if err := paths.SaveMeta(meta); err != nil {
		o.logger.Error("save final snapshot", slog.String("run_id", meta.RunID), slog.Any("error", err))
	}
	o.observer.OnRunEnd(meta)
	o.logger.Info("run finished",
		slog.String("run_id", meta.RunID),
		slog.String("status", string(meta.Status)),
		slog.Int("processed", meta.Processed),
		slog.Int("correct", meta.Correct),
		slog.Int("errors", meta.Errors))
}

// classifyOne performs one gateway call and scores the outcome. Gateway
// failures become verdict "error" records with the error text as the raw
// response and zero latency.
func (o *Orchestrator) classifyOne(ctx context.Context, gateway Gateway, modelID string, img dataset.Image, key string) runlog.Prediction {
	pred := runlog.Prediction{
		ImagePath: key,
		Split:     img.Split,
		Category:  img.Category,
		Filename:  img.Filename,
	}

	result, err := gateway.Classify(ctx, modelID, img.Path)
	if err != nil {
		pred.RawResponse = err.Error()
		pred.Parsed = classifier.VerdictError
		return pred
	}

	pred.RawResponse = result.Raw
	pred.Reasoning = result.Reasoning
	pred.Parsed = classifier.ParseVerdict(result.Raw)
	pred.Correct = (pred.Parsed == classifier.VerdictYes && img.Category == dataset.CategoryHotDog) ||
		(pred.Parsed == classifier.VerdictNo && img.Category == dataset.CategoryNotHotDog)
	pred.LatencyMs = math.Round(result.LatencyMs*10) / 10
	return pred
}

// fail marks a run failed after an unrecoverable persistence error.
func (o *Orchestrator) fail(run *registry.Run, paths runlog.Paths, cause error) {
	meta := run.Update(func(m *runlog.RunMeta) {
		m.Status = runlog.StatusFailed
	})
	if err := paths.SaveMeta(meta); err != nil {
		o.logger.Error("save failed snapshot", slog.String("run_id", meta.RunID), slog.Any("error", err))
	}
	o.observer.OnRunEnd(meta)
	o.logger.Error("run failed", slog.String("run_id", meta.RunID), slog.Any("error", cause))
}
