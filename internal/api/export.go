package api

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/insightq/insightq/internal/export"
	"github.com/insightq/insightq/internal/storage"
)

// handleExport serializes the most recent validated result of a session.
func handleExport(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromRequest(deps, w, r)
	if !ok {
		return
	}

	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	result, ok := session.LastResult()
	if !ok {
		writeError(r.Context(), w, http.StatusNotFound, "NO_RESULT_TO_EXPORT", "session has no result to export yet", false, nil)
		return
	}

	data, err := export.Encode(result, format)
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "EXPORT_FAILED", err.Error(), true, nil)
		return
	}

	if key := stageExport(deps, r, session.ID, format, data); key != "" {
		w.Header().Set("X-Export-Object-Key", key)
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "result."+string(format)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// stageExport keeps a copy of the exported file in the object store when one
// is configured. Failures are logged, never fatal to the download.
func stageExport(deps Dependencies, r *http.Request, sessionID string, format export.Format, data []byte) string {
	if deps.ObjectStore == nil {
		return ""
	}
	key, err := storage.BuildExportPath(sessionID, string(format), time.Now())
	if err == nil {
		_, err = deps.ObjectStore.Put(r.Context(), key, bytes.NewReader(data), int64(len(data)), storage.PutOptions{ContentType: format.ContentType()})
	}
	if err != nil {
		if deps.Logger != nil {
			deps.Logger.WarnContext(r.Context(), "export_staging_failed",
				slog.String("session_id", sessionID),
				slog.String("error", err.Error()),
			)
		}
		return ""
	}
	return key
}
