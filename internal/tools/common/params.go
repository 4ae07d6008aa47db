package common

import "strings"

// ParseCommaList splits a comma-separated string into trimmed, non-empty items.
// Returns nil for an input with no items.
func ParseCommaList(s string) []string {
	if s == "" {
		return nil
	}

	var result []string
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			result = append(result, item)
		}
	}
	return result
}
