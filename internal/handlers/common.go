package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/lehigh-university-libraries/imagemeta/internal/images"
	"github.com/lehigh-university-libraries/imagemeta/internal/languages"
	"github.com/lehigh-university-libraries/imagemeta/internal/pipeline"
	"github.com/lehigh-university-libraries/imagemeta/internal/preferences"
	"github.com/lehigh-university-libraries/imagemeta/internal/storage"
)

// Options wires a Handler to its collaborators
type Options struct {
	Sessions    *storage.SessionStore
	Generator   pipeline.Generator
	Translator  pipeline.KeywordTranslator
	Preferences preferences.Store
	Fetcher     *images.Fetcher
	Normalizer  *images.Normalizer
	// RunnerOptions are applied after the event notifier
	RunnerOptions []pipeline.Option
	Provider      string
	Model         string
	StaticDir     string
}

type Handler struct {
	sessionStore *storage.SessionStore
	runner       *pipeline.Runner
	prefs        preferences.Store
	fetcher      *images.Fetcher
	hub          *Hub
	provider     string
	model        string
	staticDir    string
	runs         sync.WaitGroup
}

func New(opts Options) *Handler {
	if opts.Sessions == nil {
		opts.Sessions = storage.New(storage.DefaultTTL)
	}
	if opts.Preferences == nil {
		opts.Preferences = preferences.NewMemoryStore(preferences.Defaults())
	}
	if opts.Fetcher == nil {
		opts.Fetcher = images.NewFetcher()
	}
	if opts.StaticDir == "" {
		opts.StaticDir = "static"
	}

	hub := NewHub()
	runnerOpts := append([]pipeline.Option{pipeline.WithNotifier(hub)}, opts.RunnerOptions...)

	return &Handler{
		sessionStore: opts.Sessions,
		runner:       pipeline.NewRunner(opts.Normalizer, opts.Generator, opts.Translator, runnerOpts...),
		prefs:        opts.Preferences,
		fetcher:      opts.Fetcher,
		hub:          hub,
		provider:     opts.Provider,
		model:        opts.Model,
		staticDir:    opts.StaticDir,
	}
}

// Wait blocks until every background batch run has finished
func (h *Handler) Wait() {
	h.runs.Wait()
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	h.writeJSONStatus(w, http.StatusOK, data)
}

func (h *Handler) writeJSONStatus(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	if code >= http.StatusInternalServerError {
		slog.Error(message)
	} else {
		slog.Warn(message, "status", code)
	}
	http.Error(w, message, code)
}

// writePipelineError maps pipeline and validation errors onto HTTP status codes
func (h *Handler) writePipelineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, pipeline.ErrBatchRunning), errors.Is(err, pipeline.ErrItemBusy):
		h.writeError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, pipeline.ErrItemNotFound):
		h.writeError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, pipeline.ErrNoItems),
		errors.Is(err, pipeline.ErrKeywordRequired),
		errors.Is(err, languages.ErrUnsupportedLanguage):
		h.writeError(w, err.Error(), http.StatusBadRequest)
	default:
		h.writeError(w, err.Error(), http.StatusInternalServerError)
	}
}

// Session helpers
func (h *Handler) getSessionOrError(w http.ResponseWriter, sessionID string) (*pipeline.Batch, bool) {
	session, exists := h.sessionStore.Get(sessionID)
	if !exists {
		h.writeError(w, "Session not found", http.StatusNotFound)
		return nil, false
	}
	return session, true
}
