package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/lehigh-university-libraries/imagemeta/internal/models"
	"github.com/lehigh-university-libraries/imagemeta/internal/pipeline"
	"github.com/lehigh-university-libraries/imagemeta/internal/preferences"
)

type generateRequest struct {
	Keyword           string `json:"keyword"`
	InterfaceLanguage string `json:"interface_language"`
	MetadataLanguage  string `json:"metadata_language"`
}

// decodeGenerateRequest reads an optional JSON body
func decodeGenerateRequest(r *http.Request) (generateRequest, error) {
	var request generateRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil && !errors.Is(err, io.EOF) {
		return request, err
	}
	return request, nil
}

// resolveLanguages fills missing languages from the caller's saved preferences
// and rejects unsupported codes.
func (h *Handler) resolveLanguages(r *http.Request, request generateRequest) (models.Languages, error) {
	saved, err := h.prefs.Get(r.Context(), userID(r))
	if err != nil {
		slog.Warn("Unable to load preferences, using defaults", "err", err)
		saved = preferences.Defaults()
	}
	langs := models.Languages{Interface: request.InterfaceLanguage, Metadata: request.MetadataLanguage}
	if langs.Interface == "" {
		langs.Interface = saved.Interface
	}
	if langs.Metadata == "" {
		langs.Metadata = saved.Metadata
	}
	if err := preferences.Validate(langs); err != nil {
		return langs, err
	}
	return langs, nil
}

// HandleGenerate starts a batch run and returns immediately; progress arrives on the event stream
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	session, ok := h.getSessionOrError(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	request, err := decodeGenerateRequest(r)
	if err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	langs, err := h.resolveLanguages(r, request)
	if err != nil {
		h.writePipelineError(w, err)
		return
	}

	// the run outlives the request
	ctx := context.WithoutCancel(r.Context())
	done, err := h.runner.Start(ctx, session, pipeline.RunOptions{Keyword: request.Keyword, Languages: langs})
	if err != nil {
		h.writePipelineError(w, err)
		return
	}

	h.runs.Add(1)
	go func() {
		defer h.runs.Done()
		<-done
	}()

	h.writeJSONStatus(w, http.StatusAccepted, map[string]any{
		"session_id": session.ID,
		"total":      session.Len(),
		"languages":  langs,
		"events":     "/api/sessions/" + session.ID + "/events",
	})
}

// HandleRegenerate reruns one item with a custom keyword and returns its new outcome
func (h *Handler) HandleRegenerate(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	session, ok := h.getSessionOrError(w, vars["id"])
	if !ok {
		return
	}

	request, err := decodeGenerateRequest(r)
	if err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	langs, err := h.resolveLanguages(r, request)
	if err != nil {
		h.writePipelineError(w, err)
		return
	}

	outcome, err := h.runner.Regenerate(r.Context(), session, vars["itemID"], request.Keyword, langs)
	if err != nil {
		h.writePipelineError(w, err)
		return
	}
	h.writeJSON(w, outcome)
}
