package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/marcboeker/go-duckdb/v2"

	"github.com/insightq/insightq/internal/dataset"
	"github.com/insightq/insightq/internal/engine"
)

// Session seals one loaded dataset into an in-memory DuckDB database exposing
// the single table "sales". A session owns its database handle exclusively;
// re-uploading replaces the whole session rather than mutating it.
type Session struct {
	db *sql.DB
}

func Open(ctx context.Context, ds *dataset.Dataset) (*Session, error) {
	if ds == nil || len(ds.Columns) == 0 {
		return nil, fmt.Errorf("dataset with at least one column is required")
	}

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	session := &Session{db: db}
	if err := session.seal(ctx, ds); err != nil {
		_ = db.Close()
		return nil, err
	}
	return session, nil
}

func (s *Session) seal(ctx context.Context, ds *dataset.Dataset) error {
	columnDefs := make([]string, 0, len(ds.Columns))
	for _, column := range ds.Columns {
		columnDefs = append(columnDefs, quoteIdent(column.Name)+" "+sqlType(column.Kind))
	}
	createSQL := fmt.Sprintf("CREATE TABLE %s (%s)", engine.TableName, strings.Join(columnDefs, ", "))
	if _, err := s.db.ExecContext(ctx, createSQL); err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	if len(ds.Rows) == 0 {
		return nil
	}

	placeholders := strings.TrimRight(strings.Repeat("?,", len(ds.Columns)), ",")
	insertSQL := fmt.Sprintf("INSERT INTO %s VALUES (%s)", engine.TableName, placeholders)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert tx: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	for i, row := range ds.Rows {
		values := make([]any, len(ds.Columns))
		copy(values, row)
		if _, err := stmt.ExecContext(ctx, values...); err != nil {
			_ = stmt.Close()
			_ = tx.Rollback()
			return fmt.Errorf("insert row %d: %w", i, err)
		}
	}
	if err := stmt.Close(); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("close insert stmt: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit inserts: %w", err)
	}
	return nil
}

func (s *Session) Execute(ctx context.Context, request engine.Request) (engine.Result, error) {
	sqlText := stripTrailingSemicolons(request.SQL)
	if sqlText == "" {
		return engine.Result{}, fmt.Errorf("sql is required")
	}
	if request.RowLimit > 0 {
		sqlText = fmt.Sprintf("SELECT * FROM (%s) AS q LIMIT %d", sqlText, request.RowLimit)
	}

	start := time.Now()
	rows, err := s.db.QueryContext(ctx, sqlText)
	if err != nil {
		return engine.Result{}, &engine.ExecutionError{Message: err.Error()}
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return engine.Result{}, fmt.Errorf("query columns: %w", err)
	}

	resultRows := make([][]any, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return engine.Result{}, fmt.Errorf("scan row: %w", err)
		}
		resultRows = append(resultRows, normalizeValues(values))
	}
	if err := rows.Err(); err != nil {
		return engine.Result{}, &engine.ExecutionError{Message: err.Error()}
	}

	return engine.Result{
		Columns:  columns,
		Rows:     resultRows,
		Duration: time.Since(start),
	}, nil
}

// Schema reports the ordered (name, type) pairs exactly as DuckDB's catalog
// describes the sales table.
func (s *Session) Schema(ctx context.Context) ([]engine.ColumnInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf("SELECT name, type FROM pragma_table_info('%s') ORDER BY cid", engine.TableName))
	if err != nil {
		return nil, fmt.Errorf("introspect schema: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var columns []engine.ColumnInfo
	for rows.Next() {
		var info engine.ColumnInfo
		if err := rows.Scan(&info.Name, &info.SQLType); err != nil {
			return nil, fmt.Errorf("scan schema row: %w", err)
		}
		columns = append(columns, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate schema rows: %w", err)
	}
	return columns, nil
}

func (s *Session) Close() error {
	return s.db.Close()
}

func sqlType(kind dataset.ColumnKind) string {
	switch kind {
	case dataset.KindNumeric:
		return "DOUBLE"
	case dataset.KindTemporal:
		return "TIMESTAMP"
	default:
		return "VARCHAR"
	}
}

func normalizeValues(values []any) []any {
	normalized := make([]any, len(values))
	for i, value := range values {
		switch typed := value.(type) {
		case []byte:
			normalized[i] = string(typed)
		default:
			normalized[i] = typed
		}
	}
	return normalized
}

func quoteIdent(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}

func stripTrailingSemicolons(sqlText string) string {
	trimmed := strings.TrimSpace(sqlText)
	for strings.HasSuffix(trimmed, ";") {
		trimmed = strings.TrimSpace(strings.TrimSuffix(trimmed, ";"))
	}
	return trimmed
}
