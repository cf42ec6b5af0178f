package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const ellipsis = "…"

// truncate trims value and cuts it to limit runes, ending in "...".
func truncate(value string, limit int) string {
	value = strings.TrimSpace(value)
	runes := []rune(value)
	if limit <= 0 || len(runes) <= limit {
		return value
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}

// truncateMiddle cuts the middle out of value. Upload paths keep their
// extension so "….webp" still says what the file is.
func truncateMiddle(value string, limit int) string {
	value = strings.TrimSpace(value)
	runes := []rune(value)
	if limit <= 0 || len(runes) <= limit {
		return value
	}
	if limit <= 3 {
		return string(runes[:limit])
	}

	tail := []rune{}
	if strings.Contains(value, "/") {
		if dot := strings.LastIndex(value, "."); dot > strings.LastIndex(value, "/") {
			if ext := []rune(value[dot:]); len(ext) < 10 && len(ext) < limit/2 {
				tail = ext
				runes = runes[:len(runes)-len(ext)]
			}
		}
	}

	keep := limit - len(tail) - 1
	head := keep / 2
	rest := keep - head
	return string(runes[:head]) + ellipsis + string(runes[len(runes)-rest:]) + string(tail)
}

// padRight pads s with spaces to width terminal cells.
func padRight(s string, width int) string {
	if gap := width - lipgloss.Width(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}
