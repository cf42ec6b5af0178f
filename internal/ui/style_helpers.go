package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// bar paints header segments on one background. Styling each word and the
// gaps separately keeps reset codes from punching holes in the color.
type bar struct {
	bg    lipgloss.Color
	space string
}

func newBar(color string) bar {
	bg := lipgloss.Color(color)
	return bar{bg: bg, space: lipgloss.NewStyle().Background(bg).Render(" ")}
}

// Render styles text word by word on the bar's background.
func (b bar) Render(text string, style lipgloss.Style) string {
	if text == "" {
		return ""
	}
	style = style.Background(b.bg)
	words := strings.Split(text, " ")
	for i, w := range words {
		if w != "" {
			words[i] = style.Render(w)
		}
	}
	return strings.Join(words, b.space)
}

// Join joins rendered parts with a painted separator.
func (b bar) Join(parts []string, sep string) string {
	return strings.Join(parts, lipgloss.NewStyle().Background(b.bg).Render(sep))
}
