package api

import (
	"net/http"
	"sort"
	"strings"

	"hotdogbench/internal/classifier"
	"hotdogbench/internal/metrics"
	"hotdogbench/internal/runlog"
	"hotdogbench/internal/runner"
)

func (h *handler) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	// Latest completed run per model: ListRuns is newest first.
	latest := map[string]runlog.RunMeta{}
	for _, meta := range h.orch.ListRuns() {
		if meta.Status != runlog.StatusCompleted {
			continue
		}
		if _, seen := latest[meta.ModelID]; !seen {
			latest[meta.ModelID] = meta
		}
	}

	entries := make([]metrics.LeaderboardEntry, 0, len(latest))
	for modelID, meta := range latest {
		preds, err := h.orch.Predictions(meta.RunID, 0)
		if err != nil || len(preds) == 0 {
			continue
		}
		enhanced := metrics.ComputeEnhanced(preds)
		model := runner.ModelInfo(h.orch.Catalog(), modelID)
		entries = append(entries, metrics.LeaderboardEntry{
			ModelID:         modelID,
			ModelName:       model.Name,
			Provider:        model.Provider,
			Params:          model.Params,
			RunID:           meta.RunID,
			Accuracy:        enhanced.Metrics.Accuracy,
			Precision:       enhanced.Metrics.Precision,
			Recall:          enhanced.Metrics.Recall,
			F1:              enhanced.Metrics.F1,
			Total:           enhanced.Metrics.Total,
			Errors:          enhanced.Metrics.Errors,
			CILower:         enhanced.CILower,
			CIUpper:         enhanced.CIUpper,
			MedianLatencyMs: enhanced.Latency.MedianMs,
		})
	}
	metrics.SortLeaderboard(entries)
	writeJSON(w, http.StatusOK, entries)
}

// handleRunMetrics serves /api/results/run/{id}/metrics.
func (h *handler) handleRunMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/api/results/run/")
	runID, action, ok := strings.Cut(rest, "/")
	if !ok || runID == "" || action != "metrics" {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	meta, found := h.orch.GetRun(runID)
	if !found {
		writeError(w, http.StatusNotFound, "run_not_found")
		return
	}
	preds, err := h.orch.Predictions(runID, 0)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "read_failed")
		return
	}
	writeJSON(w, http.StatusOK, runMetricsResponse{
		RunID:     meta.RunID,
		ModelID:   meta.ModelID,
		ModelName: meta.ModelName,
		Enhanced:  metrics.ComputeEnhanced(preds),
	})
}

func (h *handler) handleBatchSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	ids, ok := splitRunIDs(r.URL.Query().Get("run_ids"))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	summaries := make([]runMetricsResponse, 0, len(ids))
	for _, runID := range ids {
		meta, found := h.orch.GetRun(runID)
		if !found || meta.Status != runlog.StatusCompleted {
			continue
		}
		preds, err := h.orch.Predictions(runID, 0)
		if err != nil || len(preds) == 0 {
			continue
		}
		summaries = append(summaries, runMetricsResponse{
			RunID:     runID,
			ModelID:   meta.ModelID,
			ModelName: meta.ModelName,
			Enhanced:  metrics.ComputeEnhanced(preds),
		})
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (h *handler) handleCompare(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	ids, ok := splitRunIDs(r.URL.Query().Get("run_ids"))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	modelPreds := map[string]map[string]comparePrediction{}
	modelNames := map[string]string{}
	for _, runID := range ids {
		meta, found := h.orch.GetRun(runID)
		if !found || meta.Status != runlog.StatusCompleted {
			continue
		}
		preds, err := h.orch.Predictions(runID, 0)
		if err != nil {
			continue
		}
		modelNames[meta.ModelID] = meta.ModelName
		byImage := make(map[string]comparePrediction, len(preds))
		for _, p := range preds {
			byImage[p.ImagePath] = comparePrediction{
				Parsed:      p.Parsed,
				Correct:     p.Correct,
				LatencyMs:   p.LatencyMs,
				RawResponse: p.RawResponse,
				Reasoning:   p.Reasoning,
			}
		}
		modelPreds[meta.ModelID] = byImage
	}

	seen := map[string]struct{}{}
	for _, byImage := range modelPreds {
		for path := range byImage {
			seen[path] = struct{}{}
		}
	}
	allImages := make([]string, 0, len(seen))
	for path := range seen {
		allImages = append(allImages, path)
	}
	sort.Strings(allImages)

	disagreements := []disagreement{}
	for _, path := range allImages {
		answers := map[string]comparePrediction{}
		verdicts := map[string]struct{}{}
		for modelID, byImage := range modelPreds {
			pred, found := byImage[path]
			if !found {
				continue
			}
			pred.ModelName = modelNames[modelID]
			answers[modelID] = pred
			verdicts[pred.Parsed] = struct{}{}
		}
		if len(verdicts) < 2 {
			continue
		}
		d := disagreement{ImagePath: path, Filename: path, Predictions: answers}
		if parts := strings.SplitN(path, "/", 3); len(parts) == 3 {
			d.Split, d.Category, d.Filename = parts[0], parts[1], parts[2]
		}
		disagreements = append(disagreements, d)
	}

	writeJSON(w, http.StatusOK, compareResponse{
		ModelNames:    modelNames,
		TotalImages:   len(allImages),
		Disagreements: disagreements,
	})
}

// handleModelByID serves /api/results/model/{model_id} and
// /api/results/model/{model_id}/predictions. Model ids contain slashes, so
// the predictions action is matched as a path suffix.
func (h *handler) handleModelByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/api/results/model/")
	if modelID, ok := strings.CutSuffix(rest, "/predictions"); ok {
		h.modelPredictions(w, r, modelID)
		return
	}
	h.modelDetail(w, rest)
}

// latestCompleted finds the newest completed run for a model.
func (h *handler) latestCompleted(modelID string) (runlog.RunMeta, bool) {
	if modelID == "" {
		return runlog.RunMeta{}, false
	}
	for _, meta := range h.orch.ListRuns() {
		if meta.ModelID == modelID && meta.Status == runlog.StatusCompleted {
			return meta, true
		}
	}
	return runlog.RunMeta{}, false
}

func (h *handler) modelDetail(w http.ResponseWriter, modelID string) {
	meta, found := h.latestCompleted(modelID)
	if !found {
		writeError(w, http.StatusNotFound, "no_completed_runs")
		return
	}
	preds, err := h.orch.Predictions(meta.RunID, 0)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "read_failed")
		return
	}
	model := runner.ModelInfo(h.orch.Catalog(), modelID)
	writeJSON(w, http.StatusOK, modelDetailResponse{
		ModelID:   modelID,
		ModelName: model.Name,
		Provider:  model.Provider,
		Params:    model.Params,
		RunID:     meta.RunID,
		Enhanced:  metrics.ComputeEnhanced(preds),
	})
}

func (h *handler) modelPredictions(w http.ResponseWriter, r *http.Request, modelID string) {
	meta, found := h.latestCompleted(modelID)
	if !found {
		writeError(w, http.StatusNotFound, "no_completed_runs")
		return
	}
	preds, err := h.orch.Predictions(meta.RunID, 0)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "read_failed")
		return
	}
	filtered := make([]runlog.Prediction, 0, len(preds))
	switch r.URL.Query().Get("filter") {
	case "correct":
		for _, p := range preds {
			if p.Correct {
				filtered = append(filtered, p)
			}
		}
	case "incorrect":
		for _, p := range preds {
			if !p.Correct && p.Parsed != classifier.VerdictError {
				filtered = append(filtered, p)
			}
		}
	case "error":
		for _, p := range preds {
			if p.Parsed == classifier.VerdictError {
				filtered = append(filtered, p)
			}
		}
	default:
		filtered = append(filtered, preds...)
	}
	writeJSON(w, http.StatusOK, filtered)
}

// handleImagePredictions serves /api/results/image/{split}/{category}/{filename}:
// the latest completed verdict from every model for one image.
func (h *handler) handleImagePredictions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/api/results/image/")
	parts := strings.Split(rest, "/")
	if len(parts) != 3 || hasPathEscape(parts) {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	imagePath := strings.Join(parts, "/")

	results := []imagePrediction{}
	seen := map[string]struct{}{}
	for _, meta := range h.orch.ListRuns() {
		if meta.Status != runlog.StatusCompleted {
			continue
		}
		if _, dup := seen[meta.ModelID]; dup {
			continue
		}
		seen[meta.ModelID] = struct{}{}
		preds, err := h.orch.Predictions(meta.RunID, 0)
		if err != nil {
			continue
		}
		for _, p := range preds {
			if p.ImagePath != imagePath {
				continue
			}
			model := runner.ModelInfo(h.orch.Catalog(), meta.ModelID)
			results = append(results, imagePrediction{
				ModelID:     meta.ModelID,
				ModelName:   model.Name,
				RawResponse: p.RawResponse,
				Reasoning:   p.Reasoning,
				Parsed:      p.Parsed,
				Correct:     p.Correct,
				LatencyMs:   p.LatencyMs,
			})
			break
		}
	}
	writeJSON(w, http.StatusOK, results)
}

// splitRunIDs parses the comma-separated run_ids query parameter. Reports
// false when no IDs remain after trimming.
func splitRunIDs(raw string) ([]string, bool) {
	ids := make([]string, 0, 4)
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids, len(ids) > 0
}
