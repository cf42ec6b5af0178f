package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/northgate/atrium/internal/fault"
	"github.com/northgate/atrium/internal/resource"
)

// renderMain renders the full console.
func (m Model) renderMain() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderQueryBar())
	b.WriteString("\n")

	used := 3 // header, query bar, command bar
	if stats := m.renderStats(); stats != "" {
		b.WriteString(stats)
		b.WriteString("\n")
		used++
	}
	toasts := m.renderToasts()
	used += len(toasts)
	if m.searching {
		used++
	}

	b.WriteString(m.renderTable(max(m.height-used, 2)))

	if m.searching {
		b.WriteString("\n")
		b.WriteString(m.search.View())
	}
	for _, line := range toasts {
		b.WriteString("\n")
		b.WriteString(line)
	}
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	return b.String()
}

// renderHeader renders the tab strip and connection state.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := newBar(m.theme.Surface)
	compact := m.width < LayoutCompactWidth

	parts := []string{bg.Render("atrium", styles.Logo)}

	tabs := make([]string, 0, len(m.kinds))
	for i, k := range m.kinds {
		label := fmt.Sprintf("%d", i+1)
		if !compact {
			if d, ok := resource.Lookup(k); ok {
				label += " " + d.Label
			}
		}
		if i == m.tab {
			tabs = append(tabs, bg.Render("["+label+"]", styles.AccentText.Bold(true)))
		} else {
			tabs = append(tabs, bg.Render(label, styles.MutedText))
		}
	}
	parts = append(parts, bg.Join(tabs, " "))

	conn := m.conn.String()
	parts = append(parts, styles.StatusStyle(conn).Render("● "+conn))

	if m.snap.Pending > 0 {
		parts = append(parts, bg.Render(fmt.Sprintf("%d pending", m.snap.Pending), styles.WarningText))
	}
	if m.authErr != nil {
		parts = append(parts, bg.Render("AUTH REQUIRED", styles.DangerText))
	}

	return lipgloss.NewStyle().
		Background(lipgloss.Color(m.theme.Surface)).
		Foreground(lipgloss.Color(m.theme.Text)).
		Width(m.width).
		Render(bg.Join(parts, "  "))
}

// renderQueryBar shows pagination, sort, filters, search and load health.
func (m Model) renderQueryBar() string {
	styles := m.theme.Styles()
	sep := styles.FaintText.Render("  ·  ")

	pg := m.snap.Pagination
	pages := max(pg.Pages, 1)
	page := m.query.Page()
	parts := []string{
		styles.Text.Render(fmt.Sprintf("page %d/%d", page, pages)),
		styles.MutedText.Render(fmt.Sprintf("%d total", pg.Total)),
		styles.MutedText.Render("sort " + m.query.Sort().String()),
	}

	if filters := m.query.Filters(); len(filters) > 0 {
		keys := make([]string, 0, len(filters))
		for k := range filters {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		pairs := make([]string, len(keys))
		for i, k := range keys {
			pairs[i] = k + "=" + filters[k]
		}
		parts = append(parts, styles.AccentText.Render("filter "+strings.Join(pairs, ",")))
	}
	if term := m.query.Search(); term != "" {
		parts = append(parts, styles.AccentText.Render(fmt.Sprintf("search %q", term)))
	}

	switch {
	case m.snap.LastError != nil:
		label := "load failed"
		if m.snap.IsOffline() {
			label = "offline"
		}
		parts = append(parts, styles.DangerText.Render(label+": "+truncate(fault.Message(m.snap.LastError), 60)))
	case !m.snap.LastUpdated.IsZero():
		parts = append(parts, styles.FaintText.Render("updated "+m.snap.LastUpdated.Local().Format("15:04:05")))
	}

	return " " + strings.Join(parts, sep)
}

// renderStats renders the aggregate counters some kinds return with a page.
func (m Model) renderStats() string {
	if !m.descriptor().HasStats {
		return ""
	}
	line := statsLine(m.snap.Stats)
	if line == "" {
		return ""
	}
	return " " + m.theme.Styles().InfoText.Render(line)
}

func (m Model) renderCommandBar() string {
	return " " + m.help.ShortHelpView(m.keys.ShortHelp())
}
