package nl2sql

import (
	"regexp"
	"strings"
)

var sqlFencePattern = regexp.MustCompile("(?i)```sql")

// CleanSQL strips markdown fences and surrounding backticks from a raw model
// reply and truncates to the first statement. The output is a single trimmed
// statement, never multi-statement, never fenced.
func CleanSQL(raw string) string {
	cleaned := sqlFencePattern.ReplaceAllString(raw, "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)
	cleaned = strings.Trim(cleaned, "`")
	cleaned = strings.TrimSpace(cleaned)

	if idx := strings.Index(cleaned, ";"); idx >= 0 {
		cleaned = strings.TrimSpace(cleaned[:idx+1])
	}
	return cleaned
}
