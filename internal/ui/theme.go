package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme is a named palette. Badge colors are derived from the semantic
// colors so every theme covers the same values.
type Theme struct {
	Name string

	Background  string
	Surface     string
	SelectionBg string
	SelectionFg string

	Text    string
	Muted   string
	Faint   string
	Accent  string
	Success string
	Warning string
	Danger  string
	Info    string
	Special string // roles and other privileged values

	// StatusColors maps a lowercased cell value or connection state to a
	// badge color.
	StatusColors map[string]string
}

func (t Theme) withBadges() Theme {
	t.StatusColors = map[string]string{
		"live":       t.Success,
		"connecting": t.Warning,
		"offline":    t.Danger,
		"published":  t.Success,
		"draft":      t.Faint,
		"archived":   t.Faint,
		"active":     t.Info,
		"hidden":     t.Faint,
		"unread":     t.Accent,
		"read":       t.Faint,
		"admin":      t.Special,
	}
	return t
}

// Styles holds the lipgloss styles the renderers pick from.
type Styles struct {
	Text        lipgloss.Style
	MutedText   lipgloss.Style
	FaintText   lipgloss.Style
	AccentText  lipgloss.Style
	SuccessText lipgloss.Style
	WarningText lipgloss.Style
	DangerText  lipgloss.Style
	InfoText    lipgloss.Style
	Logo        lipgloss.Style
	Selected    lipgloss.Style

	badges map[string]string
	ink    string // badge foreground
	muted  string
}

// Styles builds the style set for t.
func (t Theme) Styles() Styles {
	fg := func(c string) lipgloss.Style { return lipgloss.NewStyle().Foreground(lipgloss.Color(c)) }
	return Styles{
		Text:        fg(t.Text),
		MutedText:   fg(t.Muted),
		FaintText:   fg(t.Faint),
		AccentText:  fg(t.Accent),
		SuccessText: fg(t.Success).Bold(true),
		WarningText: fg(t.Warning),
		DangerText:  fg(t.Danger).Bold(true),
		InfoText:    fg(t.Info),
		Logo:        fg(t.Warning).Bold(true),
		Selected:    fg(t.SelectionFg).Background(lipgloss.Color(t.SelectionBg)),

		badges: t.StatusColors,
		ink:    t.Background,
		muted:  t.Muted,
	}
}

// StatusStyle returns a badge for a value such as "published" or a
// connection state such as "live". Unknown values get the muted color.
func (s Styles) StatusStyle(status string) lipgloss.Style {
	color := s.badges[strings.ToLower(strings.TrimSpace(status))]
	if color == "" {
		color = s.muted
	}
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(s.ink)).
		Background(lipgloss.Color(color)).
		Padding(0, 1)
}

// WithBackground paints every text style on bg, for segments that sit on a
// colored bar.
func (s Styles) WithBackground(bg string) Styles {
	c := lipgloss.Color(bg)
	out := s
	for _, st := range []*lipgloss.Style{
		&out.Text, &out.MutedText, &out.FaintText, &out.AccentText,
		&out.SuccessText, &out.WarningText, &out.DangerText, &out.InfoText,
		&out.Logo, &out.Selected,
	} {
		*st = st.Background(c)
	}
	return out
}

var themeOrder = []string{"Nightfox", "Kanagawa", "Slate"}

var themes = map[string]Theme{
	// https://github.com/EdenEast/nightfox.nvim
	"Nightfox": Theme{
		Name:        "Nightfox",
		Background:  "#131a24",
		Surface:     "#192330",
		SelectionBg: "#2b3b51",
		SelectionFg: "#cdcecf",
		Text:        "#cdcecf",
		Muted:       "#738091",
		Faint:       "#71839b",
		Accent:      "#719cd6",
		Success:     "#81b29a",
		Warning:     "#dbc074",
		Danger:      "#c94f6d",
		Info:        "#63cdcf",
		Special:     "#9d79d6",
	}.withBadges(),

	// https://github.com/rebelot/kanagawa.nvim
	"Kanagawa": Theme{
		Name:        "Kanagawa",
		Background:  "#16161D",
		Surface:     "#1F1F28",
		SelectionBg: "#2D4F67",
		SelectionFg: "#DCD7BA",
		Text:        "#DCD7BA",
		Muted:       "#C8C093",
		Faint:       "#727169",
		Accent:      "#7E9CD8",
		Success:     "#98BB6C",
		Warning:     "#E6C384",
		Danger:      "#E46876",
		Info:        "#7FB4CA",
		Special:     "#957FB8",
	}.withBadges(),

	// Tailwind slate and sky
	"Slate": Theme{
		Name:        "Slate",
		Background:  "#020617",
		Surface:     "#0f172a",
		SelectionBg: "#0284c7",
		SelectionFg: "#f8fafc",
		Text:        "#f1f5f9",
		Muted:       "#94a3b8",
		Faint:       "#64748b",
		Accent:      "#38bdf8",
		Success:     "#22c55e",
		Warning:     "#f59e0b",
		Danger:      "#ef4444",
		Info:        "#06b6d4",
		Special:     "#a855f7",
	}.withBadges(),
}

// GetTheme returns the named theme, or Nightfox.
func GetTheme(name string) Theme {
	if t, ok := themes[name]; ok {
		return t
	}
	return themes[themeOrder[0]]
}

// NextTheme returns the theme after current in the cycle.
func NextTheme(current string) string {
	for i, name := range themeOrder {
		if name == current {
			return themeOrder[(i+1)%len(themeOrder)]
		}
	}
	return themeOrder[0]
}

// ThemeNames lists the themes in cycle order.
func ThemeNames() []string {
	return themeOrder
}
