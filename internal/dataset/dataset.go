package dataset

import "errors"

var ErrUnsupportedFileType = errors.New("unsupported file type: upload CSV or Excel")

type ColumnKind string

const (
	KindText     ColumnKind = "text"
	KindNumeric  ColumnKind = "numeric"
	KindTemporal ColumnKind = "temporal"
)

type Type string

const (
	TypeSales   Type = "sales"
	TypeGeneric Type = "generic"
)

type Column struct {
	Name string
	Kind ColumnKind
}

// Dataset is the sealed in-memory form of one uploaded file. Cells hold
// string, float64, time.Time, or nil for values coercion could not parse.
type Dataset struct {
	Columns []Column
	Rows    [][]any
	Type    Type
}

func (d *Dataset) ColumnNames() []string {
	names := make([]string, 0, len(d.Columns))
	for _, column := range d.Columns {
		names = append(names, column.Name)
	}
	return names
}

func (d *Dataset) columnIndex(name string) int {
	for i, column := range d.Columns {
		if column.Name == name {
			return i
		}
	}
	return -1
}
