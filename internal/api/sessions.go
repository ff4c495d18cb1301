package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/insightq/insightq/internal/engine"
	"github.com/insightq/insightq/internal/pipeline"
)

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	SQL              string   `json:"sql"`
	Attempts         int      `json:"attempts"`
	Outcome          string   `json:"outcome"`
	Warning          string   `json:"warning,omitempty"`
	OriginalRowCount int      `json:"original_row_count"`
	Columns          []string `json:"columns"`
	Rows             [][]any  `json:"rows"`
	Insight          string   `json:"insight,omitempty"`
}

func handleAsk(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromRequest(deps, w, r)
	if !ok {
		return
	}

	var request askRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&request); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid ask request body", false, map[string]any{"details": err.Error()})
		return
	}
	if strings.TrimSpace(request.Question) == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "QUESTION_REQUIRED", "question is required", false, nil)
		return
	}

	answer, err := deps.Pipeline.Ask(r.Context(), session, request.Question)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, askResponse{
		SQL:              answer.SQL,
		Attempts:         answer.Attempts,
		Outcome:          string(answer.Outcome.Kind),
		Warning:          answer.Outcome.Warning,
		OriginalRowCount: answer.Outcome.OriginalRowCount,
		Columns:          answer.Outcome.Table.Columns,
		Rows:             answer.Outcome.Table.Rows,
		Insight:          answer.Insight,
	})
}

type schemaResponse struct {
	Table       string              `json:"table"`
	DatasetType string              `json:"dataset_type"`
	RowCount    int                 `json:"row_count"`
	Columns     []engine.ColumnInfo `json:"columns"`
}

func handleSchema(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromRequest(deps, w, r)
	if !ok {
		return
	}

	columns, err := session.Engine.Schema(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, schemaResponse{
		Table:       engine.TableName,
		DatasetType: string(session.DatasetType),
		RowCount:    session.RowCount,
		Columns:     columns,
	})
}

func handleSummary(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromRequest(deps, w, r)
	if !ok {
		return
	}

	summary, err := deps.Pipeline.Summarize(r.Context(), session)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func handleHistory(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromRequest(deps, w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": session.ID,
		"turns":      session.Memory.Turns(),
	})
}

func handleDeleteSession(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Registry == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "SESSIONS_NOT_CONFIGURED", "session registry is not configured", false, nil)
		return
	}
	if err := deps.Registry.Delete(r.PathValue("session")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func sessionFromRequest(deps Dependencies, w http.ResponseWriter, r *http.Request) (*pipeline.Session, bool) {
	if deps.Registry == nil || deps.Pipeline == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "SESSIONS_NOT_CONFIGURED", "session dependencies are not configured", false, nil)
		return nil, false
	}
	session, err := deps.Registry.Get(r.PathValue("session"))
	if err != nil {
		writeDomainError(w, r, err)
		return nil, false
	}
	return session, true
}
