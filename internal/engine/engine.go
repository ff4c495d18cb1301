package engine

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// TableName is the single logical table every session exposes, regardless of
// what the uploaded file contains.
const TableName = "sales"

type Request struct {
	SQL      string
	RowLimit int
}

type Result struct {
	Columns  []string
	Rows     [][]any
	Duration time.Duration
}

type ColumnInfo struct {
	Name    string `json:"name"`
	SQLType string `json:"sql_type"`
}

// ExecutionError carries the engine's diagnostic verbatim; its text is the
// sole input to the refinement prompt.
type ExecutionError struct {
	Message string
}

func (e *ExecutionError) Error() string {
	return e.Message
}

type Engine interface {
	Execute(ctx context.Context, request Request) (Result, error)
	Schema(ctx context.Context) ([]ColumnInfo, error)
	Close() error
}

// FormatSchema renders the ordered column listing embedded verbatim into
// every generated prompt.
func FormatSchema(columns []ColumnInfo) string {
	var builder strings.Builder
	for _, column := range columns {
		fmt.Fprintf(&builder, "%s %s\n", column.Name, column.SQLType)
	}
	return strings.TrimRight(builder.String(), "\n")
}
