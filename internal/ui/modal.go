package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Modal is the interface for modal dialogs.
// The Update method returns the updated modal, a command, and a bool indicating if the modal should close.
type Modal interface {
	Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool)
	View(theme Theme, width, height int) string
}

// confirmModal answers one dispatcher confirmation. Exactly one value is sent
// on reply, whichever way the modal closes.
type confirmModal struct {
	prompt string
	reply  chan<- bool
}

func (c confirmModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return c, nil, false
	}
	switch {
	case key.Matches(km, keys.Yes):
		c.reply <- true
		return c, nil, true
	case key.Matches(km, keys.No), key.Matches(km, keys.Quit):
		c.reply <- false
		return c, nil, true
	}
	return c, nil, false
}

// cancel declines without a key press, for when the console goes away.
func (c confirmModal) cancel() {
	select {
	case c.reply <- false:
	default:
	}
}

func (c confirmModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render(c.prompt))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Warning)).Render("y"))
	b.WriteString(styles.MutedText.Render(" confirm   "))
	b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Warning)).Render("n"))
	b.WriteString(styles.MutedText.Render(" cancel"))

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(theme.Danger)).
		Padding(1, 2).
		Width(min(60, max(width-4, 20)))

	return lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		box.Render(b.String()),
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(theme.Background)),
	)
}
