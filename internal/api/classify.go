package api

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"hotdogbench/internal/classifier"
	"hotdogbench/internal/runner"
	"hotdogbench/internal/spec"
)

// handleClassify classifies one uploaded image with every configured model in
// parallel and returns the consensus verdict.
func (h *handler) handleClassify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	start := time.Now()

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	defer file.Close()

	suffix := filepath.Ext(header.Filename)
	if suffix == "" {
		suffix = ".jpg"
	}
	tmp, err := os.CreateTemp("", "classify-*"+suffix)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "upload_failed")
		return
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)
	_, copyErr := io.Copy(tmp, file)
	if closeErr := tmp.Close(); copyErr != nil || closeErr != nil {
		writeError(w, http.StatusInternalServerError, "upload_failed")
		return
	}

	gateway := h.orch.Gateway(r.URL.Query().Get("api_key"))
	catalog := h.orch.Catalog()
	results := make([]classifyModelResult, len(catalog))
	var wg sync.WaitGroup
	for i, model := range catalog {
		wg.Add(1)
		go func(i int, model spec.ModelConfig) {
			defer wg.Done()
			results[i] = classifyWithModel(r.Context(), gateway, model, tmpPath)
		}(i, model)
	}
	wg.Wait()

	yes, no := 0, 0
	for _, res := range results {
		switch res.Answer {
		case classifier.VerdictYes:
			yes++
		case classifier.VerdictNo:
			no++
		}
	}
	consensus := "unsure"
	switch {
	case yes > no:
		consensus = classifier.VerdictYes
	case no > yes:
		consensus = classifier.VerdictNo
	}
	confidence := "no valid responses"
	if yes+no > 0 {
		confidence = fmt.Sprintf("%d/%d models agree", max(yes, no), len(catalog))
	}

	writeJSON(w, http.StatusOK, classifyResponse{
		Consensus:  consensus,
		IsHotDog:   consensus == classifier.VerdictYes,
		Confidence: confidence,
		TotalMs:    math.Round(time.Since(start).Seconds()*1000*10) / 10,
		Models:     results,
	})
}

// classifyWithModel runs one gateway call for the uploaded image. Gateway
// failures become "error" answers instead of failing the whole request.
func classifyWithModel(ctx context.Context, gateway runner.Gateway, model spec.ModelConfig, imagePath string) classifyModelResult {
	out := classifyModelResult{Model: model.Name, ModelID: model.ID}
	result, err := gateway.Classify(ctx, model.ID, imagePath)
	if err != nil {
		out.Answer = classifier.VerdictError
		out.Reasoning = err.Error()
		out.Error = err.Error()
		return out
	}
	reasoning := result.Reasoning
	if reasoning == "" {
		reasoning = result.Raw
	}
	out.Answer = classifier.ParseVerdict(result.Raw)
	out.Reasoning = reasoning
	out.Observations = classifier.ParseObservations(reasoning)
	out.LatencyMs = math.Round(result.LatencyMs*10) / 10
	return out
}
