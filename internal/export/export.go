package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/insightq/insightq/internal/engine"
)

// Format names a supported result encoding.
type Format string

const (
	FormatParquet Format = "parquet"
	FormatCSV     Format = "csv"
)

var ErrUnsupportedFormat = errors.New("unsupported export format")

// ParseFormat maps a request parameter to a Format. An empty value defaults
// to parquet.
func ParseFormat(value string) (Format, error) {
	switch value {
	case "", "parquet":
		return FormatParquet, nil
	case "csv":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, value)
	}
}

func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv"
	}
	return "application/octet-stream"
}

// Encode serializes a validated result table in the requested format.
func Encode(result engine.Result, format Format) ([]byte, error) {
	switch format {
	case FormatParquet:
		return encodeParquet(result)
	case FormatCSV:
		return encodeCSV(result)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, string(format))
	}
}

// encodeParquet builds a schema from the result's columns at runtime. Every
// column is optional because any cell may be null; the physical type is
// taken from the first non-null value in the column.
func encodeParquet(result engine.Result) ([]byte, error) {
	if len(result.Columns) == 0 {
		return nil, fmt.Errorf("result has no columns")
	}

	group := parquet.Group{}
	for i, column := range result.Columns {
		group[column] = parquet.Optional(columnNode(result.Rows, i))
	}
	schema := parquet.NewSchema("result", group)

	rows := make([]map[string]any, 0, len(result.Rows))
	for _, row := range result.Rows {
		record := map[string]any{}
		for i, column := range result.Columns {
			if i >= len(row) || row[i] == nil {
				continue
			}
			record[column] = parquetValue(row[i])
		}
		rows = append(rows, record)
	}

	buf := bytes.NewBuffer(nil)
	writer := parquet.NewGenericWriter[map[string]any](buf, schema)
	if len(rows) > 0 {
		if _, err := writer.Write(rows); err != nil {
			return nil, fmt.Errorf("write parquet rows: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close parquet writer: %w", err)
	}
	return buf.Bytes(), nil
}

func columnNode(rows [][]any, index int) parquet.Node {
	for _, row := range rows {
		if index >= len(row) || row[index] == nil {
			continue
		}
		switch row[index].(type) {
		case float64, float32:
			return parquet.Leaf(parquet.DoubleType)
		case int64, int32, int:
			return parquet.Leaf(parquet.Int64Type)
		case bool:
			return parquet.Leaf(parquet.BooleanType)
		default:
			return parquet.String()
		}
	}
	return parquet.String()
}

// parquetValue coerces engine cell values onto the narrow set of physical
// types the runtime schema declares.
func parquetValue(value any) any {
	switch typed := value.(type) {
	case float32:
		return float64(typed)
	case int:
		return int64(typed)
	case int32:
		return int64(typed)
	case time.Time:
		return typed.UTC().Format("2006-01-02 15:04:05")
	case float64, int64, bool, string:
		return typed
	default:
		return fmt.Sprintf("%v", typed)
	}
}

func encodeCSV(result engine.Result) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	writer := csv.NewWriter(buf)

	if err := writer.Write(result.Columns); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	record := make([]string, len(result.Columns))
	for _, row := range result.Rows {
		for i := range record {
			if i < len(row) {
				record[i] = csvCell(row[i])
			} else {
				record[i] = ""
			}
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

func csvCell(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(typed, 10)
	case bool:
		return strconv.FormatBool(typed)
	case time.Time:
		return typed.UTC().Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprintf("%v", typed)
	}
}
