package dataset

import (
	"fmt"
	"strings"
)

// NormalizeColumns lowercases header names and joins them with underscores.
// Order is preserved and no column is dropped here.
func NormalizeColumns(names []string) []string {
	normalized := make([]string, 0, len(names))
	for _, name := range names {
		cleaned := strings.ToLower(strings.TrimSpace(name))
		cleaned = strings.ReplaceAll(cleaned, " ", "_")
		cleaned = strings.ReplaceAll(cleaned, "-", "_")
		cleaned = strings.ReplaceAll(cleaned, ":", "_")
		normalized = append(normalized, cleaned)
	}
	return normalized
}

// DeduplicateColumns suffixes the second and later occurrences of a name
// with _1, _2, ... in first-seen order. The first occurrence keeps its name.
func DeduplicateColumns(names []string) []string {
	counts := map[string]int{}
	used := map[string]bool{}
	deduplicated := make([]string, 0, len(names))
	for _, name := range names {
		if !used[name] {
			used[name] = true
			deduplicated = append(deduplicated, name)
			continue
		}
		candidate := name
		for used[candidate] {
			counts[name]++
			candidate = fmt.Sprintf("%s_%d", name, counts[name])
		}
		used[candidate] = true
		deduplicated = append(deduplicated, candidate)
	}
	return deduplicated
}
