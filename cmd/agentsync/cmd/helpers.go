package cmd

import "sort"

// joinStrings concatenates string slices with ", " separator.
func joinStrings(ss []string) string {
	if len(ss) == 0 {
		return "-"
	}
	sorted := append([]string(nil), ss...)
	sort.Strings(sorted)
	result := sorted[0]
	for _, s := range sorted[1:] {
		result += ", " + s
	}
	return result
}

// enabledToolKeys returns the keys of a tool-enabled map set to true,
// sorted for deterministic table/JSON output.
func enabledToolKeys(enabled map[string]bool) []string {
	out := make([]string, 0, len(enabled))
	for k, on := range enabled {
		if on {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
