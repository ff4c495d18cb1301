package pipeline

import (
	"errors"

	"github.com/insightq/insightq/internal/engine"
)

// Row-cap policy constants. Fixed, not configurable per call.
const (
	rowCapThreshold = 10000
	truncateToRows  = 1000
)

// ErrNoDataReturned is the hard-error case: extraction produced no result
// handle at all. A present result with zero rows is the soft EmptyResult
// outcome instead.
var ErrNoDataReturned = errors.New("no data returned")

type OutcomeKind string

const (
	OutcomeValid     OutcomeKind = "valid"
	OutcomeEmpty     OutcomeKind = "empty"
	OutcomeAllNull   OutcomeKind = "all_null"
	OutcomeTruncated OutcomeKind = "truncated"
)

// Outcome is the tagged validation result. Empty and AllNull are soft
// warnings and the conversation continues; Truncated carries the original
// row count for reporting.
type Outcome struct {
	Kind             OutcomeKind
	Table            engine.Result
	OriginalRowCount int
	Warning          string
}

// Validate classifies a result in fixed decision order: absent, zero rows,
// all cells missing, oversized, valid. First match wins.
func Validate(result *engine.Result) (Outcome, error) {
	if result == nil {
		return Outcome{}, ErrNoDataReturned
	}
	if len(result.Rows) == 0 {
		return Outcome{
			Kind:    OutcomeEmpty,
			Table:   *result,
			Warning: "No rows returned for this request.",
		}, nil
	}
	if allCellsMissing(result.Rows) {
		return Outcome{
			Kind:    OutcomeAllNull,
			Table:   *result,
			Warning: "All values are missing for this request.",
		}, nil
	}
	if len(result.Rows) > rowCapThreshold {
		truncated := *result
		truncated.Rows = result.Rows[:truncateToRows]
		return Outcome{
			Kind:             OutcomeTruncated,
			Table:            truncated,
			OriginalRowCount: len(result.Rows),
			Warning:          "Result was truncated to the first 1000 rows.",
		}, nil
	}
	return Outcome{Kind: OutcomeValid, Table: *result, OriginalRowCount: len(result.Rows)}, nil
}

func allCellsMissing(rows [][]any) bool {
	for _, row := range rows {
		for _, cell := range row {
			if cell != nil {
				return false
			}
		}
	}
	return true
}
