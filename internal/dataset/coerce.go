package dataset

import (
	"strconv"
	"strings"
	"time"
)

// numericCandidates are canonical column names whose values are cleaned and
// parsed as numbers. Values that fail to parse become nil, never an error.
var numericCandidates = map[string]struct{}{
	"qty":       {},
	"revenue":   {},
	"amount":    {},
	"gross_amt": {},

	"received_amount": {},
	"recived_amount":  {},
	"expense_amount":  {},

	"tp":            {},
	"tp_1":          {},
	"tp_2":          {},
	"mrp_old":       {},
	"final_mrp":     {},
	"final_mrp_old": {},

	"ajio_mrp":       {},
	"amazon_mrp":     {},
	"amazon_fba_mrp": {},
	"flipkart_mrp":   {},
	"limeroad_mrp":   {},
	"myntra_mrp":     {},
	"paytm_mrp":      {},
	"snapdeal_mrp":   {},
}

const dateColumn = "order_date"

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"01-02-2006",
	"01/02/2006",
	"02-01-06",
	"01-02-06",
	"Jan 2, 2006",
	"2 Jan 2006",
}

// Coerce rewrites candidate columns to native values in place and records the
// inferred kind on each column. It is idempotent: already-coerced cells pass
// through unchanged.
func (d *Dataset) Coerce() {
	for i := range d.Columns {
		name := d.Columns[i].Name
		if _, ok := numericCandidates[name]; ok {
			d.Columns[i].Kind = KindNumeric
			d.coerceNumericColumn(i)
			continue
		}
		if name == dateColumn {
			d.Columns[i].Kind = KindTemporal
			d.coerceTemporalColumn(i)
			continue
		}
		if d.Columns[i].Kind == "" {
			d.Columns[i].Kind = KindText
		}
	}
}

func (d *Dataset) coerceNumericColumn(index int) {
	for _, row := range d.Rows {
		if index >= len(row) {
			continue
		}
		row[index] = coerceNumeric(row[index])
	}
}

func (d *Dataset) coerceTemporalColumn(index int) {
	for _, row := range d.Rows {
		if index >= len(row) {
			continue
		}
		row[index] = coerceTemporal(row[index])
	}
}

func coerceNumeric(value any) any {
	switch typed := value.(type) {
	case nil:
		return nil
	case float64:
		return typed
	case int64:
		return float64(typed)
	case string:
		parsed, ok := parseNumericText(typed)
		if !ok {
			return nil
		}
		return parsed
	default:
		return nil
	}
}

// parseNumericText strips thousands separators, currency symbols, and the
// trailing "/-" unit marker before parsing. Stripping is a no-op on text that
// is already clean.
func parseNumericText(raw string) (float64, bool) {
	cleaned := strings.ReplaceAll(raw, ",", "")
	cleaned = strings.ReplaceAll(cleaned, "₹", "")
	cleaned = strings.ReplaceAll(cleaned, "$", "")
	cleaned = strings.TrimSpace(cleaned)
	cleaned = strings.TrimSuffix(cleaned, "/-")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return 0, false
	}
	parsed, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return parsed, true
}

func coerceTemporal(value any) any {
	switch typed := value.(type) {
	case nil:
		return nil
	case time.Time:
		return typed
	case string:
		trimmed := strings.TrimSpace(typed)
		if trimmed == "" {
			return nil
		}
		for _, layout := range dateLayouts {
			if parsed, err := time.Parse(layout, trimmed); err == nil {
				return parsed
			}
		}
		return nil
	default:
		return nil
	}
}
