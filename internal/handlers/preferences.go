package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/lehigh-university-libraries/imagemeta/internal/languages"
	"github.com/lehigh-university-libraries/imagemeta/internal/models"
	"github.com/lehigh-university-libraries/imagemeta/internal/preferences"
	"github.com/lehigh-university-libraries/imagemeta/internal/prompts"
)

func userID(r *http.Request) string {
	if user := strings.TrimSpace(r.Header.Get("X-User-ID")); user != "" {
		return user
	}
	return preferences.DefaultUser
}

func (h *Handler) HandleLanguages(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, languages.All())
}

func (h *Handler) HandleCategories(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, prompts.Categories)
}

func (h *Handler) HandleGetPreferences(w http.ResponseWriter, r *http.Request) {
	langs, err := h.prefs.Get(r.Context(), userID(r))
	if err != nil {
		h.writeError(w, "Failed to load preferences: "+err.Error(), http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, langs)
}

func (h *Handler) HandlePutPreferences(w http.ResponseWriter, r *http.Request) {
	var langs models.Languages
	if err := json.NewDecoder(r.Body).Decode(&langs); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.prefs.Set(r.Context(), userID(r), langs); err != nil {
		h.writePipelineError(w, err)
		return
	}
	h.writeJSON(w, langs)
}
