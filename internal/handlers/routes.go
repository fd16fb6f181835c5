package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
)

// Routes returns the router serving the API, the event stream and the static UI
func (h *Handler) Routes() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			slog.Error("Unable to write healthcheck", "err", err)
		}
	}).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/languages", h.HandleLanguages).Methods("GET")
	api.HandleFunc("/categories", h.HandleCategories).Methods("GET")
	api.HandleFunc("/preferences", h.HandleGetPreferences).Methods("GET")
	api.HandleFunc("/preferences", h.HandlePutPreferences).Methods("PUT")

	api.HandleFunc("/sessions", h.HandleListSessions).Methods("GET")
	api.HandleFunc("/sessions", h.HandleCreateSession).Methods("POST")
	api.HandleFunc("/sessions/{id}", h.HandleGetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}", h.HandleDeleteSession).Methods("DELETE")

	api.HandleFunc("/sessions/{id}/items", h.HandleAddItems).Methods("POST")
	api.HandleFunc("/sessions/{id}/items", h.HandleClearItems).Methods("DELETE")
	api.HandleFunc("/sessions/{id}/items/{itemID}", h.HandleRemoveItem).Methods("DELETE")
	api.HandleFunc("/sessions/{id}/items/{itemID}/preview", h.HandlePreview).Methods("GET")
	api.HandleFunc("/sessions/{id}/items/{itemID}/regenerate", h.HandleRegenerate).Methods("POST")

	api.HandleFunc("/sessions/{id}/generate", h.HandleGenerate).Methods("POST")
	api.HandleFunc("/sessions/{id}/events", h.HandleEvents).Methods("GET")
	api.HandleFunc("/sessions/{id}/export", h.HandleExport).Methods("GET")

	r.PathPrefix("/").HandlerFunc(h.HandleStatic)
	return r
}
