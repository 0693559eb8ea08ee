package api

import (
	"net/http"
	"strconv"
	"strings"
)

func (h *handler) handleDatasetStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.orch.Source().Status())
}

// handleDatasetImages serves the image listing in processing order with an
// optional category filter and offset/limit paging.
func (h *handler) handleDatasetImages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	q := r.URL.Query()
	limit := 100
	if raw := q.Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 || v > 1000 {
			writeError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		limit = v
	}
	offset := 0
	if raw := q.Get("offset"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			writeError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		offset = v
	}

	images, err := h.orch.Source().ListImages(0)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "dataset_unavailable")
		return
	}
	category := q.Get("category")
	items := make([]datasetImage, 0, len(images))
	for _, img := range images {
		if category != "" && img.Category != category {
			continue
		}
		items = append(items, datasetImage{
			Split:     img.Split,
			Category:  img.Category,
			Filename:  img.Filename,
			ImagePath: img.Key(),
		})
	}
	if offset > len(items) {
		offset = len(items)
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	writeJSON(w, http.StatusOK, items[offset:end])
}

// handleDatasetImage serves /api/dataset/image/{split}/{category}/{filename}.
func (h *handler) handleDatasetImage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/api/dataset/image/")
	parts := strings.Split(rest, "/")
	if len(parts) != 3 || hasPathEscape(parts) {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	path, ok := h.orch.Source().ImagePath(parts[0], parts[1], parts[2])
	if !ok {
		writeError(w, http.StatusNotFound, "image_not_found")
		return
	}
	http.ServeFile(w, r, path)
}

func hasPathEscape(parts []string) bool {
	for _, part := range parts {
		if part == "" || part == "." || part == ".." {
			return true
		}
	}
	return false
}
