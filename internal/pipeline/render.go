package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/insightq/insightq/internal/engine"
)

// interpretationPreviewRows bounds how much of a validated table the
// interpretation prompt sees.
const interpretationPreviewRows = 20

// RenderTable formats a result as a plain-text table for prompt embedding.
// maxRows <= 0 renders everything.
func RenderTable(result engine.Result, maxRows int) string {
	var builder strings.Builder
	builder.WriteString(strings.Join(result.Columns, " | "))
	builder.WriteString("\n")

	rows := result.Rows
	if maxRows > 0 && len(rows) > maxRows {
		rows = rows[:maxRows]
	}
	for _, row := range rows {
		cells := make([]string, 0, len(row))
		for _, cell := range row {
			cells = append(cells, renderCell(cell))
		}
		builder.WriteString(strings.Join(cells, " | "))
		builder.WriteString("\n")
	}
	return strings.TrimRight(builder.String(), "\n")
}

func renderCell(cell any) string {
	switch typed := cell.(type) {
	case nil:
		return ""
	case time.Time:
		return typed.Format("2006-01-02")
	case float64:
		if typed == float64(int64(typed)) {
			return fmt.Sprintf("%d", int64(typed))
		}
		return fmt.Sprintf("%.2f", typed)
	default:
		return fmt.Sprintf("%v", typed)
	}
}
