package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/northgate/atrium/internal/listview"
)

type toast struct {
	id     int
	notice listview.Notice
}

// addToast shows n and schedules its removal after ToastTTL.
func (m *Model) addToast(n listview.Notice) tea.Cmd {
	m.nextToast++
	id := m.nextToast
	m.toasts = append(m.toasts, toast{id: id, notice: n})
	if len(m.toasts) > MaxToasts {
		m.toasts = m.toasts[len(m.toasts)-MaxToasts:]
	}
	return tea.Tick(ToastTTL, func(time.Time) tea.Msg { return toastExpireMsg{id: id} })
}

func (m *Model) expireToast(id int) {
	for i, t := range m.toasts {
		if t.id == id {
			m.toasts = append(m.toasts[:i:i], m.toasts[i+1:]...)
			return
		}
	}
}

func (m Model) renderToasts() []string {
	if len(m.toasts) == 0 {
		return nil
	}
	styles := m.theme.Styles()
	lines := make([]string, 0, len(m.toasts))
	for _, t := range m.toasts {
		style := styles.InfoText
		switch t.notice.Level {
		case listview.Success:
			style = styles.SuccessText
		case listview.Warning:
			style = styles.WarningText
		case listview.Failure:
			style = styles.DangerText
		}
		lines = append(lines, " "+style.Render("▍ "+truncate(t.notice.Text, max(m.width-4, 10))))
	}
	return lines
}
