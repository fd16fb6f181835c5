package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/lehigh-university-libraries/imagemeta/internal/pipeline"
)

func (h *Handler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	sessionID := uuid.NewString()
	batch := pipeline.NewBatch(sessionID)
	batch.PreviewPrefix = "/api/sessions/" + sessionID + "/items/"
	h.sessionStore.Set(sessionID, batch)

	h.writeJSONStatus(w, http.StatusCreated, map[string]any{
		"id":         sessionID,
		"created_at": batch.CreatedAt,
	})
}

func (h *Handler) HandleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions := h.sessionStore.GetAll()
	sessionList := make([]pipeline.Snapshot, 0, len(sessions))
	for _, session := range sessions {
		sessionList = append(sessionList, session.Snapshot())
	}
	h.writeJSON(w, sessionList)
}

func (h *Handler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	session, ok := h.getSessionOrError(w, mux.Vars(r)["id"])
	if !ok {
		return
	}
	h.writeJSON(w, session.Snapshot())
}

func (h *Handler) HandleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]
	session, ok := h.getSessionOrError(w, sessionID)
	if !ok {
		return
	}
	if session.Running() {
		h.writePipelineError(w, pipeline.ErrBatchRunning)
		return
	}
	h.sessionStore.Delete(sessionID)
	h.hub.CloseSession(sessionID)
	w.WriteHeader(http.StatusNoContent)
}
