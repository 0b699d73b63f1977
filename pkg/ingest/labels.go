// Package ingest coerces the loosely typed provider services field into a
// clean list of labels. The source column holds either a JSON array of
// strings or a single delimited string; all shape branching lives here so
// the matching core only ever sees []string.
package ingest

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Labels extracts individual service labels from a raw services field.
// Supported shapes:
//   - JSON array: ["Canalização", "Eletricidade"]
//   - JSON string: "Canalização, Eletricidade; Jardinagem"
//   - legacy plain text (not valid JSON): treated as a delimited string
//
// Delimited strings are split on commas and semicolons. Entries are returned
// as-is; normalization happens later in the pipeline.
func Labels(raw json.RawMessage) []string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	var arr []any
	if err := json.Unmarshal(trimmed, &arr); err == nil {
		labels := make([]string, 0, len(arr))
		for _, item := range arr {
			if s, ok := item.(string); ok {
				labels = append(labels, splitDelimited(s)...)
			}
		}
		return labels
	}

	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		return splitDelimited(s)
	}

	// Not valid JSON: legacy rows store the bare delimited string
	return splitDelimited(string(trimmed))
}

// splitDelimited splits a free-text services string on commas and semicolons
func splitDelimited(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';'
	})

	labels := make([]string, 0, len(fields))
	for _, field := range fields {
		field = strings.TrimSpace(field)
		if field != "" {
			labels = append(labels, field)
		}
	}
	return labels
}
