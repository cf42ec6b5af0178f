package ui

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/northgate/atrium/internal/resource"
)

// cellText renders one field of a row for the table.
func cellText(r resource.Resource, field string) string {
	v, ok := r.Value(field)
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case bool:
		if t {
			return "✓"
		}
		return "·"
	case string:
		if ts, ok := r.Time(field); ok && strings.Contains(t, "T") {
			return ts.Local().Format("2006-01-02")
		}
		return strings.Join(strings.Fields(t), " ")
	}
	return r.String(field)
}

// statsLine flattens a stats object into "key value" pairs sorted by key.
// Nested objects and anything that is not a JSON object render as nothing.
func statsLine(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var stats map[string]any
	if err := json.Unmarshal(raw, &stats); err != nil {
		return ""
	}
	keys := make([]string, 0, len(stats))
	for k, v := range stats {
		switch v.(type) {
		case map[string]any, []any, nil:
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s %v", k, stats[k]))
	}
	return strings.Join(parts, "  ")
}

func humanizeDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return "now"
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		h := int(d.Hours())
		if m := int(d.Minutes()) % 60; m > 0 {
			return fmt.Sprintf("%dh %dm", h, m)
		}
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}
