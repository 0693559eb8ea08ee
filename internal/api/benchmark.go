package api

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"strings"

	"hotdogbench/internal/runner"
)

type runRequest struct {
	ModelID    string `json:"model_id"`
	SampleSize int    `json:"sample_size"`
	APIKey     string `json:"api_key"`
}

type batchRunRequest struct {
	ModelIDs   []string `json:"model_ids"`
	SampleSize int      `json:"sample_size"`
	APIKey     string   `json:"api_key"`
}

func runnerStartOptions(req runRequest) runner.StartOptions {
	return runner.StartOptions{
		ModelID:    req.ModelID,
		SampleSize: req.SampleSize,
		APIKey:     req.APIKey,
	}
}

func runnerBatchOptions(req batchRunRequest) runner.BatchOptions {
	return runner.BatchOptions{
		ModelIDs:   req.ModelIDs,
		SampleSize: req.SampleSize,
		APIKey:     req.APIKey,
	}
}

func (h *handler) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req runRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil || strings.TrimSpace(req.ModelID) == "" || req.SampleSize < 0 {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	runID, err := h.orch.StartRun(r.Context(), runnerStartOptions(req))
	if err != nil {
		writeError(w, http.StatusBadRequest, "start_failed")
		return
	}
	writeJSON(w, http.StatusOK, runCreatedResponse{RunID: runID})
}

func (h *handler) handleCreateBatchRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req batchRunRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil || req.SampleSize < 0 {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	batchID, members, err := h.orch.StartBatch(r.Context(), runnerBatchOptions(req))
	if err != nil {
		writeError(w, http.StatusBadRequest, "start_failed")
		return
	}
	writeJSON(w, http.StatusOK, batchCreatedResponse{BatchID: batchID, RunIDs: members})
}

// handleRunByID routes /api/benchmark/run/{id}/{action}.
func (h *handler) handleRunByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/benchmark/run/")
	runID, action, ok := strings.Cut(rest, "/")
	if !ok || runID == "" {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	switch action {
	case "status":
		h.handleRunStatus(w, r, runID)
	case "cancel":
		h.handleRunCancel(w, r, runID)
	case "predictions":
		h.handleRunPredictions(w, r, runID)
	case "queue":
		h.handleRunQueue(w, r, runID)
	default:
		writeError(w, http.StatusNotFound, "not_found")
	}
}

func (h *handler) handleRunStatus(w http.ResponseWriter, r *http.Request, runID string) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	meta, ok := h.orch.GetRun(runID)
	if !ok {
		writeError(w, http.StatusNotFound, "run_not_found")
		return
	}
	progress := 0.0
	if meta.TotalImages > 0 {
		progress = float64(meta.Processed) / float64(meta.TotalImages) * 100
	}
	writeJSON(w, http.StatusOK, runStatusResponse{
		RunID:       meta.RunID,
		ModelID:     meta.ModelID,
		ModelName:   meta.ModelName,
		Status:      meta.Status,
		TotalImages: meta.TotalImages,
		Processed:   meta.Processed,
		Correct:     meta.Correct,
		Errors:      meta.Errors,
		ProgressPct: math.Round(progress*10) / 10,
	})
}

func (h *handler) handleRunCancel(w http.ResponseWriter, r *http.Request, runID string) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !h.orch.CancelRun(runID) {
		writeError(w, http.StatusNotFound, "run_not_active")
		return
	}
	writeJSON(w, http.StatusOK, cancellingResponse{Status: "cancelling"})
}

func (h *handler) handleRunPredictions(w http.ResponseWriter, r *http.Request, runID string) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if _, ok := h.orch.GetRun(runID); !ok {
		writeError(w, http.StatusNotFound, "run_not_found")
		return
	}
	last := 0
	if raw := r.URL.Query().Get("last"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		last = parsed
	}
	preds, err := h.orch.Predictions(runID, last)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "read_failed")
		return
	}
	writeJSON(w, http.StatusOK, preds)
}

func (h *handler) handleRunQueue(w http.ResponseWriter, r *http.Request, runID string) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	queue, err := h.orch.Queue(runID)
	if err != nil {
		writeError(w, http.StatusNotFound, "queue_not_found")
		return
	}
	writeJSON(w, http.StatusOK, queue)
}

// handleBatchByID routes /api/benchmark/batch-run/{id}/cancel.
func (h *handler) handleBatchByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/benchmark/batch-run/")
	batchID, action, ok := strings.Cut(rest, "/")
	if !ok || batchID == "" || action != "cancel" {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !h.orch.CancelBatch(batchID) {
		writeError(w, http.StatusNotFound, "batch_not_active")
		return
	}
	writeJSON(w, http.StatusOK, cancellingResponse{Status: "cancelling"})
}

func (h *handler) handleRuns(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.orch.ListRuns())
	case http.MethodDelete:
		removed, err := h.orch.ClearHistory()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "clear_failed")
			return
		}
		writeJSON(w, http.StatusOK, removedResponse{Removed: removed})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
