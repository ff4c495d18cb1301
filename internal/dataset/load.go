package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Load reads one uploaded CSV or Excel file and runs the full normalization
// pass: header normalization, dataset-type detection, canonical aliasing,
// junk-column removal, deduplication, and type coercion. Only the file
// extension selects the reader; anything else is ErrUnsupportedFileType.
func Load(r io.Reader, filename string) (*Dataset, error) {
	var (
		records [][]string
		err     error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		records, err = readCSV(r)
	case ".xlsx", ".xls":
		records, err = readExcel(r)
	default:
		return nil, ErrUnsupportedFileType
	}
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("file has no header row")
	}

	names := NormalizeColumns(records[0])
	for i, name := range names {
		if name == "" {
			names[i] = fmt.Sprintf("unnamed_%d", i)
		}
	}
	datasetType := Classify(names)
	if datasetType == TypeSales {
		names = ApplyAliases(names)
	}

	cells := records[1:]
	names = remapExpenseColumns(names)
	names, cells = dropUnnamedColumns(names, cells)
	names = DeduplicateColumns(names)

	columns := make([]Column, 0, len(names))
	for _, name := range names {
		columns = append(columns, Column{Name: name, Kind: KindText})
	}

	rows := make([][]any, 0, len(cells))
	for _, record := range cells {
		row := make([]any, len(columns))
		for i := range columns {
			if i >= len(record) || strings.TrimSpace(record[i]) == "" {
				row[i] = nil
				continue
			}
			row[i] = record[i]
		}
		rows = append(rows, row)
	}

	loaded := &Dataset{Columns: columns, Rows: rows, Type: datasetType}
	loaded.Coerce()
	return loaded, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return records, nil
}

func readExcel(r io.Reader) ([][]string, error) {
	workbook, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("read excel: %w", err)
	}
	defer func() { _ = workbook.Close() }()

	sheets := workbook.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	records, err := workbook.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return records, nil
}

// Expense sheets arrive with the numeric amount in an unnamed spill column to
// the right of the "expance" label column. The rename must happen before
// unnamed columns are dropped.
func remapExpenseColumns(names []string) []string {
	expenseAt := -1
	for i, name := range names {
		if name == "expense_amount" {
			return names
		}
		if name == "expance" && expenseAt < 0 {
			expenseAt = i
		}
	}
	if expenseAt < 0 {
		return names
	}
	remapped := make([]string, len(names))
	copy(remapped, names)
	for i := expenseAt + 1; i < len(remapped); i++ {
		if strings.HasPrefix(remapped[i], "unnamed") {
			remapped[i] = "expense_amount"
			break
		}
	}
	return remapped
}

func dropUnnamedColumns(names []string, cells [][]string) ([]string, [][]string) {
	keep := make([]int, 0, len(names))
	for i, name := range names {
		if strings.HasPrefix(name, "unnamed") {
			continue
		}
		keep = append(keep, i)
	}
	if len(keep) == len(names) {
		return names, cells
	}

	keptNames := make([]string, 0, len(keep))
	for _, i := range keep {
		keptNames = append(keptNames, names[i])
	}
	keptCells := make([][]string, 0, len(cells))
	for _, record := range cells {
		row := make([]string, 0, len(keep))
		for _, i := range keep {
			if i < len(record) {
				row = append(row, record[i])
			} else {
				row = append(row, "")
			}
		}
		keptCells = append(keptCells, row)
	}
	return keptNames, keptCells
}
