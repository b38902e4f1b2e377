package pipeline

import "strings"

// findHeader returns the index of the first header matching any alias,
// case-insensitively, or -1.
func findHeader(headers []string, aliases []string) int {
	for _, alias := range aliases {
		for i, header := range headers {
			if strings.EqualFold(cleanHeader(header), alias) {
				return i
			}
		}
	}
	return -1
}

// headerValue returns the row value at idx, or the fallback when the column
// is absent or the row is short.
func headerValue(row []string, idx int, fallback string) string {
	if idx >= 0 && idx < len(row) && row[idx] != "" {
		return row[idx]
	}
	return fallback
}
