package logtail

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Entry is one decoded line of the JSON log written by the console.
type Entry struct {
	Time    string
	Level   string
	Logger  string
	Message string
	Fields  map[string]any
}

var reserved = map[string]bool{"ts": true, "level": true, "logger": true, "msg": true, "caller": true}

// Parse decodes a zap JSON line. ok is false for anything that is not a JSON
// object, so plain text lines can be passed through unchanged.
func Parse(line string) (Entry, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "{") {
		return Entry{}, false
	}
	var raw map[string]any
	if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
		return Entry{}, false
	}
	e := Entry{
		Time:    str(raw["ts"]),
		Level:   strings.ToUpper(str(raw["level"])),
		Logger:  str(raw["logger"]),
		Message: str(raw["msg"]),
	}
	for k, v := range raw {
		if reserved[k] {
			continue
		}
		if e.Fields == nil {
			e.Fields = make(map[string]any)
		}
		e.Fields[k] = v
	}
	return e, true
}

// FormatLine renders a JSON log line as "ts LEVEL [logger] msg k=v ...".
// Fields are sorted by key. Non-JSON lines come back as given.
func FormatLine(line string) string {
	e, ok := Parse(line)
	if !ok {
		return line
	}
	return e.render(plain)
}

// ColorizeLine is FormatLine with level, logger and field styling.
func ColorizeLine(line string) string {
	e, ok := Parse(line)
	if !ok {
		return line
	}
	return e.render(colored)
}

// ColorizeLines applies ColorizeLine to every line.
func ColorizeLines(lines []string) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = ColorizeLine(line)
	}
	return out
}

type palette struct {
	time, logger, key lipgloss.Style
	levels            map[string]lipgloss.Style
}

var (
	plain = palette{levels: map[string]lipgloss.Style{}}

	colored = palette{
		time:   lipgloss.NewStyle().Foreground(lipgloss.Color("#808080")),
		logger: lipgloss.NewStyle().Foreground(lipgloss.Color("#87AFFF")),
		key:    lipgloss.NewStyle().Foreground(lipgloss.Color("#666666")),
		levels: map[string]lipgloss.Style{
			"DEBUG": lipgloss.NewStyle().Foreground(lipgloss.Color("#87CEEB")).Bold(true),
			"INFO":  lipgloss.NewStyle().Foreground(lipgloss.Color("#5FD75F")).Bold(true),
			"WARN":  lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD700")).Bold(true),
			"ERROR": lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true),
		},
	}
)

func (e Entry) render(p palette) string {
	var b strings.Builder
	if e.Time != "" {
		b.WriteString(p.time.Render(e.Time))
		b.WriteByte(' ')
	}
	if e.Level != "" {
		b.WriteString(p.levels[e.Level].Render(e.Level))
		b.WriteByte(' ')
	}
	if e.Logger != "" {
		b.WriteString(p.logger.Render("[" + e.Logger + "]"))
		b.WriteByte(' ')
	}
	b.WriteString(e.Message)

	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteByte(' ')
		b.WriteString(p.key.Render(k + "="))
		b.WriteString(fmt.Sprint(e.Fields[k]))
	}
	return b.String()
}

func str(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return fmt.Sprintf("%.3f", t)
	default:
		return fmt.Sprint(t)
	}
}
