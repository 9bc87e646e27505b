package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func writeYAML(w io.Writer, v any) error {
	encoder := yaml.NewEncoder(w)
	defer encoder.Close()
	return encoder.Encode(v)
}

// formatRow renders a sample row as a parenthesized tuple. Text values are
// single quoted and NULL is spelled out.
func formatRow(row []any) string {
	parts := make([]string, len(row))
	for i, v := range row {
		switch val := v.(type) {
		case nil:
			parts[i] = "NULL"
		case string:
			parts[i] = "'" + val + "'"
		case []byte:
			parts[i] = "'" + string(val) + "'"
		default:
			parts[i] = fmt.Sprint(val)
		}
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
