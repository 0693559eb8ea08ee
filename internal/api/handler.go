// Package api exposes the benchmark control surface over HTTP. All responses
// are JSON; errors use the {"error": code} shape.
package api

import (
	"io"
	"log/slog"
	"net/http"

	"hotdogbench/internal/runner"
)

// Config wires dependencies for the HTTP handler.
type Config struct {
	Orchestrator *runner.Orchestrator
	Logger       *slog.Logger
}

// NewHandler builds the HTTP handler for the benchmark API.
func NewHandler(cfg Config) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	h := &handler{orch: cfg.Orchestrator, logger: logger}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/benchmark/run", h.handleCreateRun)
	mux.HandleFunc("/api/benchmark/run/", h.handleRunByID)
	mux.HandleFunc("/api/benchmark/batch-run", h.handleCreateBatchRun)
	mux.HandleFunc("/api/benchmark/batch-run/", h.handleBatchByID)
	mux.HandleFunc("/api/benchmark/runs", h.handleRuns)
	mux.HandleFunc("/api/classify", h.handleClassify)
	mux.HandleFunc("/api/results/leaderboard", h.handleLeaderboard)
	mux.HandleFunc("/api/results/run/", h.handleRunMetrics)
	mux.HandleFunc("/api/results/model/", h.handleModelByID)
	mux.HandleFunc("/api/results/image/", h.handleImagePredictions)
	mux.HandleFunc("/api/results/batch-summary", h.handleBatchSummary)
	mux.HandleFunc("/api/results/compare", h.handleCompare)
	mux.HandleFunc("/api/dataset/status", h.handleDatasetStatus)
	mux.HandleFunc("/api/dataset/images", h.handleDatasetImages)
	mux.HandleFunc("/api/dataset/image/", h.handleDatasetImage)
	return mux
}

type handler struct {
	orch   *runner.Orchestrator
	logger *slog.Logger
}
