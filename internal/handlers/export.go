package handlers

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/lehigh-university-libraries/imagemeta/internal/export"
)

func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	session, ok := h.getSessionOrError(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	report := export.NewReport(session.Snapshot(), h.provider, h.model)
	var buf bytes.Buffer
	if err := export.Write(&buf, report, format); err != nil {
		h.writeError(w, "Failed to export session: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.%s"`, session.ID, format))
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Error("Unable to write export", "session_id", session.ID, "err", err)
	}
}
