package shop

import (
	"encoding/json"
	"strings"
)

// Flower and image lists live in text columns as JSON arrays. These two
// functions are the only place that format is read or written.

func encodeList(items []string) string {
	clean := cleanList(items)
	b, err := json.Marshal(clean)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// decodeList also accepts the comma separated values older rows were saved with.
func decodeList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{}
	}
	if strings.HasPrefix(raw, "[") {
		var out []string
		if err := json.Unmarshal([]byte(raw), &out); err == nil {
			return cleanList(out)
		}
	}
	return cleanList(strings.Split(raw, ","))
}

func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if t := strings.TrimSpace(it); t != "" {
			out = append(out, t)
		}
	}
	return out
}
