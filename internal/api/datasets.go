package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/insightq/insightq/internal/auth"
	"github.com/insightq/insightq/internal/dataset"
	"github.com/insightq/insightq/internal/observability"
	"github.com/insightq/insightq/internal/storage"
)

const defaultUploadMaxBytes = 64 << 20

// previewRows bounds the sample included in the upload response.
const previewRows = 5

type datasetColumn struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

type datasetResponse struct {
	SessionID   string          `json:"session_id"`
	DatasetType string          `json:"dataset_type"`
	RowCount    int             `json:"row_count"`
	Columns     []datasetColumn `json:"columns"`
	Preview     [][]any         `json:"preview"`
	StagedKey   string          `json:"staged_key,omitempty"`
}

func handleUploadDataset(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Registry == nil || deps.OpenEngine == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "UPLOAD_NOT_CONFIGURED", "upload dependencies are not configured", false, nil)
		return
	}

	maxBytes := deps.UploadMaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultUploadMaxBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(r.Context(), w, http.StatusRequestEntityTooLarge, "UPLOAD_TOO_LARGE", "uploaded file exceeds the size limit", false, map[string]any{"max_bytes": maxBytes})
			return
		}
		writeError(r.Context(), w, http.StatusBadRequest, "FILE_REQUIRED", "multipart field \"file\" is required", false, nil)
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(r.Context(), w, http.StatusRequestEntityTooLarge, "UPLOAD_TOO_LARGE", "uploaded file exceeds the size limit", false, map[string]any{"max_bytes": maxBytes})
			return
		}
		writeError(r.Context(), w, http.StatusBadRequest, "UPLOAD_READ_FAILED", err.Error(), false, nil)
		return
	}

	stagedKey := stageUpload(deps, r, header.Filename, data)
	loadDatasetAndRespond(deps, w, r, header.Filename, data, stagedKey)
}

type fromObjectRequest struct {
	Key      string `json:"key"`
	FileName string `json:"file_name"`
}

// handleDatasetFromObject loads a previously staged source file straight
// from the object store.
func handleDatasetFromObject(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Registry == nil || deps.OpenEngine == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "UPLOAD_NOT_CONFIGURED", "upload dependencies are not configured", false, nil)
		return
	}
	if deps.ObjectStore == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "OBJECT_STORE_NOT_CONFIGURED", "object store is not configured", false, nil)
		return
	}

	var request fromObjectRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&request); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid request body", false, map[string]any{"details": err.Error()})
		return
	}
	if strings.TrimSpace(request.Key) == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "KEY_REQUIRED", "key is required", false, nil)
		return
	}

	reader, err := deps.ObjectStore.Get(r.Context(), request.Key)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	defer func() { _ = reader.Close() }()

	data, err := io.ReadAll(reader)
	if err != nil {
		writeError(r.Context(), w, http.StatusBadGateway, "OBJECT_READ_FAILED", err.Error(), true, nil)
		return
	}

	fileName := strings.TrimSpace(request.FileName)
	if fileName == "" {
		fileName = path.Base(request.Key)
	}
	loadDatasetAndRespond(deps, w, r, fileName, data, request.Key)
}

func loadDatasetAndRespond(deps Dependencies, w http.ResponseWriter, r *http.Request, fileName string, data []byte, stagedKey string) {
	ds, err := dataset.Load(bytes.NewReader(data), fileName)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	eng, err := deps.OpenEngine(r.Context(), ds)
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "ENGINE_OPEN_FAILED", err.Error(), true, nil)
		return
	}

	session := deps.Registry.Create(ds, eng)
	observability.ObserveUpload(len(ds.Rows))

	columns := make([]datasetColumn, 0, len(ds.Columns))
	for _, column := range ds.Columns {
		columns = append(columns, datasetColumn{Name: column.Name, Kind: string(column.Kind)})
	}
	preview := ds.Rows
	if len(preview) > previewRows {
		preview = preview[:previewRows]
	}
	writeJSON(w, http.StatusCreated, datasetResponse{
		SessionID:   session.ID,
		DatasetType: string(ds.Type),
		RowCount:    len(ds.Rows),
		Columns:     columns,
		Preview:     preview,
		StagedKey:   stagedKey,
	})
}

// stageUpload copies the raw source file into the object store when one is
// configured. Staging failures are logged, never fatal to the upload.
func stageUpload(deps Dependencies, r *http.Request, fileName string, data []byte) string {
	if deps.ObjectStore == nil {
		return ""
	}

	subject := "anonymous"
	if identity, ok := auth.IdentityFromContext(r.Context()); ok && identity.Subject != "" {
		subject = identity.Subject
	}
	key, err := storage.BuildUploadPath(subject, fileName, time.Now())
	if err == nil {
		_, err = deps.ObjectStore.Put(r.Context(), key, bytes.NewReader(data), int64(len(data)), storage.PutOptions{ContentType: contentTypeFor(fileName)})
	}
	if err != nil {
		if deps.Logger != nil {
			deps.Logger.WarnContext(r.Context(), "upload_staging_failed",
				slog.String("file_name", fileName),
				slog.String("error", err.Error()),
			)
		}
		return ""
	}
	return key
}

func contentTypeFor(fileName string) string {
	if strings.EqualFold(path.Ext(fileName), ".csv") {
		return "text/csv"
	}
	return "application/octet-stream"
}
