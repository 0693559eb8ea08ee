package api

import (
	"encoding/json"
	"net/http"

	"hotdogbench/internal/metrics"
	"hotdogbench/internal/runlog"
)

type errorResponse struct {
	Error string `json:"error"`
}

type runCreatedResponse struct {
	RunID string `json:"run_id"`
}

type batchCreatedResponse struct {
	BatchID string            `json:"batch_id"`
	RunIDs  map[string]string `json:"run_ids"`
}

type cancellingResponse struct {
	Status string `json:"status"`
}

type removedResponse struct {
	Removed int `json:"removed"`
}

type runStatusResponse struct {
	RunID       string        `json:"run_id"`
	ModelID     string        `json:"model_id"`
	ModelName   string        `json:"model_name"`
	Status      runlog.Status `json:"status"`
	TotalImages int           `json:"total_images"`
	Processed   int           `json:"processed"`
	Correct     int           `json:"correct"`
	Errors      int           `json:"errors"`
	ProgressPct float64       `json:"progress_pct"`
}

type runMetricsResponse struct {
	RunID     string `json:"run_id"`
	ModelID   string `json:"model_id"`
	ModelName string `json:"model_name"`
	metrics.Enhanced
}

type classifyModelResult struct {
	Model        string  `json:"model"`
	ModelID      string  `json:"model_id"`
	Answer       string  `json:"answer"`
	Reasoning    string  `json:"reasoning"`
	Observations string  `json:"observations,omitempty"`
	LatencyMs    float64 `json:"latency_ms"`
	Error        string  `json:"error,omitempty"`
}

type classifyResponse struct {
	Consensus  string                `json:"consensus"`
	IsHotDog   bool                  `json:"is_hot_dog"`
	Confidence string                `json:"confidence"`
	TotalMs    float64               `json:"total_ms"`
	Models     []classifyModelResult `json:"models"`
}

type modelDetailResponse struct {
	ModelID   string `json:"model_id"`
	ModelName string `json:"model_name"`
	Provider  string `json:"provider"`
	Params    string `json:"params"`
	RunID     string `json:"run_id"`
	metrics.Enhanced
}

type imagePrediction struct {
	ModelID     string  `json:"model_id"`
	ModelName   string  `json:"model_name"`
	RawResponse string  `json:"raw_response"`
	Reasoning   string  `json:"reasoning,omitempty"`
	Parsed      string  `json:"parsed"`
	Correct     bool    `json:"correct"`
	LatencyMs   float64 `json:"latency_ms"`
}

type datasetImage struct {
	Split     string `json:"split"`
	Category  string `json:"category"`
	Filename  string `json:"filename"`
	ImagePath string `json:"image_path"`
}

type comparePrediction struct {
	Parsed      string  `json:"parsed"`
	Correct     bool    `json:"correct"`
	LatencyMs   float64 `json:"latency_ms"`
	RawResponse string  `json:"raw_response"`
	Reasoning   string  `json:"reasoning,omitempty"`
	ModelName   string  `json:"model_name,omitempty"`
}

type disagreement struct {
	ImagePath   string                       `json:"image_path"`
	Split       string                       `json:"split"`
	Category    string                       `json:"category"`
	Filename    string                       `json:"filename"`
	Predictions map[string]comparePrediction `json:"predictions"`
}

type compareResponse struct {
	ModelNames    map[string]string `json:"model_names"`
	TotalImages   int               `json:"total_images"`
	Disagreements []disagreement    `json:"disagreements"`
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, errorResponse{Error: code})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	data, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
