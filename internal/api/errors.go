package api

import (
	"errors"
	"net/http"

	"github.com/insightq/insightq/internal/dataset"
	"github.com/insightq/insightq/internal/engine"
	"github.com/insightq/insightq/internal/export"
	"github.com/insightq/insightq/internal/guard"
	"github.com/insightq/insightq/internal/nl2sql"
	"github.com/insightq/insightq/internal/pipeline"
	"github.com/insightq/insightq/internal/storage"
)

// writeDomainError maps domain sentinel errors onto the response envelope.
// Anything unrecognized is a retryable internal error.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var execErr *engine.ExecutionError
	switch {
	case errors.Is(err, pipeline.ErrSessionNotFound):
		writeError(r.Context(), w, http.StatusNotFound, "SESSION_NOT_FOUND", err.Error(), false, nil)
	case errors.Is(err, dataset.ErrUnsupportedFileType):
		writeError(r.Context(), w, http.StatusBadRequest, "UNSUPPORTED_FILE_TYPE", err.Error(), false, nil)
	case errors.Is(err, guard.ErrUnsafeQuery):
		writeError(r.Context(), w, http.StatusBadRequest, "UNSAFE_QUERY_BLOCKED", err.Error(), false, nil)
	case errors.Is(err, nl2sql.ErrServiceUnavailable):
		writeError(r.Context(), w, http.StatusBadGateway, "LLM_UNAVAILABLE", err.Error(), true, nil)
	case errors.As(err, &execErr):
		writeError(r.Context(), w, http.StatusBadRequest, "QUERY_EXECUTION_FAILED", execErr.Message, false, nil)
	case errors.Is(err, pipeline.ErrNoDataReturned):
		writeError(r.Context(), w, http.StatusBadRequest, "NO_DATA_RETURNED", err.Error(), false, nil)
	case errors.Is(err, pipeline.ErrSummaryUnavailable):
		writeError(r.Context(), w, http.StatusBadRequest, "SUMMARY_UNAVAILABLE", err.Error(), false, nil)
	case errors.Is(err, export.ErrUnsupportedFormat):
		writeError(r.Context(), w, http.StatusBadRequest, "UNSUPPORTED_EXPORT_FORMAT", err.Error(), false, nil)
	case errors.Is(err, storage.ErrObjectNotFound):
		writeError(r.Context(), w, http.StatusNotFound, "OBJECT_NOT_FOUND", err.Error(), false, nil)
	default:
		writeError(r.Context(), w, http.StatusInternalServerError, "INTERNAL", err.Error(), true, nil)
	}
}
