package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/northgate/atrium/internal/resource"
)

// renderTable renders the header row and as many rows as fit in height,
// keeping the selected row in view.
func (m Model) renderTable(height int) string {
	d := m.descriptor()
	styles := m.theme.Styles()
	cols := m.fitColumns(d.Columns)

	var b strings.Builder
	titles := make([]string, len(cols))
	for i, c := range cols {
		titles[i] = padRight(truncate(c.Title, c.Width), c.Width)
	}
	b.WriteString(styles.FaintText.Bold(true).Render(" " + strings.Join(titles, " ")))

	rows := m.snap.Rows
	if len(rows) == 0 {
		b.WriteString("\n")
		switch {
		case !m.snap.Loaded && m.snap.LastError == nil:
			b.WriteString(styles.MutedText.Render(" Loading " + strings.ToLower(d.Label) + "..."))
		case m.query.Search() != "" || len(m.query.Filters()) > 0:
			b.WriteString(styles.MutedText.Render(" No " + strings.ToLower(d.Label) + " match"))
		default:
			b.WriteString(styles.MutedText.Render(" No " + strings.ToLower(d.Label)))
		}
		return b.String()
	}

	visible := max(height-1, 1)
	start := 0
	if m.cursor >= visible {
		start = m.cursor - visible + 1
	}
	end := min(len(rows), start+visible)

	for i := start; i < end; i++ {
		b.WriteString("\n")
		b.WriteString(m.renderRow(rows[i], cols, i == m.cursor))
	}
	return b.String()
}

func (m Model) renderRow(r resource.Resource, cols []resource.Column, selected bool) string {
	styles := m.theme.Styles()
	cells := make([]string, len(cols))
	for i, c := range cols {
		text := cellText(r, c.Field)
		if strings.Contains(text, "/") {
			text = truncateMiddle(text, c.Width)
		} else {
			text = truncate(text, c.Width)
		}
		cells[i] = padRight(text, c.Width)
	}
	line := " " + strings.Join(cells, " ")
	if selected {
		return styles.Selected.Width(m.width).Render(line)
	}
	if color, ok := m.rowAccent(r, cols); ok {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(line)
	}
	return styles.Text.Render(line)
}

// rowAccent colors a row by the first column whose value has a badge color,
// e.g. draft articles or unread messages.
func (m Model) rowAccent(r resource.Resource, cols []resource.Column) (string, bool) {
	for _, c := range cols {
		if color := m.theme.StatusColors[strings.ToLower(r.String(c.Field))]; color != "" {
			return color, true
		}
	}
	return "", false
}

// fitColumns drops trailing columns that do not fit the terminal, always
// keeping the first.
func (m Model) fitColumns(cols []resource.Column) []resource.Column {
	if m.width <= 0 {
		return cols
	}
	out := make([]resource.Column, 0, len(cols))
	used := 1
	for i, c := range cols {
		w := c.Width + 1
		if i > 0 && used+w > m.width {
			break
		}
		if i == 0 && used+w > m.width {
			c.Width = max(m.width-2, 1)
		}
		used += w
		out = append(out, c)
	}
	return out
}
