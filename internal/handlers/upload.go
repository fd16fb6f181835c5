package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/lehigh-university-libraries/imagemeta/internal/models"
	"github.com/lehigh-university-libraries/imagemeta/internal/pipeline"
)

// HandleAddItems adds multipart files, or one image fetched from a JSON {"image_url"} body
func (h *Handler) HandleAddItems(w http.ResponseWriter, r *http.Request) {
	session, ok := h.getSessionOrError(w, mux.Vars(r)["id"])
	if !ok {
		return
	}
	if session.Running() {
		h.writePipelineError(w, pipeline.ErrBatchRunning)
		return
	}

	var sources []models.Source
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		var request struct {
			ImageURL string `json:"image_url"`
		}
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
			return
		}
		if request.ImageURL == "" {
			h.writeError(w, "image_url is required", http.StatusBadRequest)
			return
		}
		src, err := h.fetcher.FetchSource(r.Context(), request.ImageURL)
		if err != nil {
			h.writeError(w, "Failed to process image URL: "+err.Error(), http.StatusBadRequest)
			return
		}
		sources = append(sources, src)
	} else {
		var err error
		sources, err = sourcesFromMultipart(r)
		if err != nil {
			h.writeError(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	report, err := h.runner.Ingest(session, sources...)
	if err != nil {
		if errors.Is(err, pipeline.ErrBatchRunning) {
			h.writePipelineError(w, err)
			return
		}
		h.writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, report)
}

func (h *Handler) HandleClearItems(w http.ResponseWriter, r *http.Request) {
	session, ok := h.getSessionOrError(w, mux.Vars(r)["id"])
	if !ok {
		return
	}
	if err := session.Clear(); err != nil {
		h.writePipelineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleRemoveItem(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	session, ok := h.getSessionOrError(w, vars["id"])
	if !ok {
		return
	}
	if err := session.Remove(vars["itemID"]); err != nil {
		h.writePipelineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandlePreview serves the original bytes of an item for display
func (h *Handler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	session, ok := h.getSessionOrError(w, vars["id"])
	if !ok {
		return
	}
	item, found := session.Item(vars["itemID"])
	if !found || len(item.Original) == 0 {
		h.writeError(w, "Item not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", item.SourceMIMEType)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	if _, err := w.Write(item.Original); err != nil {
		slog.Error("Unable to write preview", "id", item.ID, "err", err)
	}
}
