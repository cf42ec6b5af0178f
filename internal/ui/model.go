package ui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/northgate/atrium/internal/api"
	"github.com/northgate/atrium/internal/listview"
	"github.com/northgate/atrium/internal/push"
	"github.com/northgate/atrium/internal/query"
	"github.com/northgate/atrium/internal/resource"
	"github.com/northgate/atrium/internal/state"
)

// Model is the root application state for Bubble Tea.
type Model struct {
	console *Console
	keys    keyMap
	help    help.Model

	// UI state
	theme    Theme
	width    int
	height   int
	ready    bool
	showHelp bool
	modal    Modal

	// Collection state
	kinds []resource.Kind
	tab   int
	view  *listview.View
	snap  state.Snapshot
	query query.State
	conn  push.State

	// Selection follows the row id, not the position
	selectedID string
	cursor     int

	presetIdx int
	sortIdx   int

	search    textinput.Model
	searching bool

	toasts    []toast
	nextToast int
	authErr   error
}

type switchMsg struct{ tab int }

func newModel(c *Console) Model {
	ti := textinput.New()
	ti.Placeholder = "Search..."
	ti.Prompt = "/ "
	ti.CharLimit = 100

	kinds := resource.Kinds()
	tab := 0
	for i, k := range kinds {
		if string(k) == c.prefs.Tab {
			tab = i
		}
	}
	conn := push.Disconnected
	if c.channel != nil {
		conn = c.channel.State()
	}
	return Model{
		console: c,
		keys:    DefaultKeyMap(),
		help:    help.New(),
		theme:   GetTheme(c.prefs.Theme),
		kinds:   kinds,
		tab:     tab,
		search:  ti,
		conn:    conn,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	tab := m.tab
	return tea.Batch(
		m.console.wait(),
		func() tea.Msg { return switchMsg{tab: tab} },
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.ready = true
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case switchMsg:
		return m.switchTab(msg.tab)

	case openedMsg:
		if msg.view == m.view {
			m.refresh()
		}
		return m, nil

	case changedMsg:
		if msg.view == m.view {
			m.refresh()
		}
		return m, m.console.wait()

	case connMsg:
		m.conn = push.State(msg)
		return m, m.console.wait()

	case noticeMsg:
		cmd := m.addToast(listview.Notice(msg))
		return m, tea.Batch(cmd, m.console.wait())

	case authMsg:
		m.authErr = msg.err
		return m, m.console.wait()

	case dismissMsg:
		if cm, ok := m.modal.(confirmModal); ok && cm.reply == msg.reply {
			m.modal = nil
		}
		return m, m.console.wait()

	case confirmMsg:
		if m.modal != nil {
			msg.reply <- false
			return m, m.console.wait()
		}
		m.showHelp = false
		m.modal = confirmModal{prompt: msg.prompt, reply: msg.reply}
		return m, m.console.wait()

	case actionDoneMsg:
		if msg.err != nil && !errors.Is(msg.err, listview.ErrSuperseded) && !errors.Is(msg.err, listview.ErrDeclined) {
			m.console.log.Debug("action finished with error", zap.String("op", msg.op), zap.Error(msg.err))
		}
		return m, nil

	case toastExpireMsg:
		m.expireToast(msg.id)
		return m, nil
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.modal != nil {
		return m.modal.View(m.theme, m.width, m.height)
	}
	if m.showHelp {
		return m.renderHelp()
	}
	return m.renderMain()
}

func (m Model) descriptor() resource.Descriptor {
	if m.view != nil {
		return m.view.Descriptor()
	}
	d, _ := resource.Lookup(m.kinds[m.tab])
	return d
}

// switchTab closes the current view and opens a fresh one for tab with the
// kind's default query.
func (m Model) switchTab(tab int) (tea.Model, tea.Cmd) {
	n := len(m.kinds)
	tab = ((tab % n) + n) % n

	if cm, ok := m.modal.(confirmModal); ok {
		cm.cancel()
		m.modal = nil
	}

	v, old := m.console.open(m.kinds[tab])
	m.tab = tab
	m.view = v
	m.query = v.Query()
	m.snap = state.Snapshot{}
	m.selectedID = ""
	m.cursor = 0
	m.presetIdx = 0
	m.sortIdx = indexOf(v.Descriptor().Sorts, v.Descriptor().DefaultSort)
	m.searching = false
	m.search.Blur()
	m.search.SetValue("")
	m.authErr = nil

	m.console.prefs.Tab = string(m.kinds[tab])
	m.console.savePrefs(m.console.prefs)

	ctx := m.console.context()
	return m, func() tea.Msg {
		if old != nil {
			old.Close()
		}
		return openedMsg{view: v, err: v.Open(ctx)}
	}
}

// refresh copies the view's latest snapshot and keeps the selection on the
// same row id when it is still present.
func (m *Model) refresh() {
	m.snap = m.view.Snapshot()
	m.query = m.view.Query()
	m.conn = m.view.Connection()
	if m.snap.Loaded && m.snap.LastError == nil {
		m.authErr = nil
	}
	m.syncSelection()
}

func (m *Model) syncSelection() {
	rows := m.snap.Rows
	if len(rows) == 0 {
		m.cursor = 0
		m.selectedID = ""
		return
	}
	if idx := resource.IndexOf(rows, m.selectedID); idx >= 0 {
		m.cursor = idx
		return
	}
	if m.cursor >= len(rows) {
		m.cursor = len(rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.selectedID = rows[m.cursor].ID
}

func (m *Model) moveCursor(to int) {
	rows := m.snap.Rows
	if len(rows) == 0 {
		return
	}
	if to < 0 {
		to = 0
	}
	if to >= len(rows) {
		to = len(rows) - 1
	}
	m.cursor = to
	m.selectedID = rows[to].ID
}

func (m Model) selected() (resource.Resource, bool) {
	if m.selectedID == "" {
		return resource.Resource{}, false
	}
	idx := resource.IndexOf(m.snap.Rows, m.selectedID)
	if idx < 0 {
		return resource.Resource{}, false
	}
	return m.snap.Rows[idx], true
}

// do runs fn against the current view off the update loop, bounded by
// ActionTimeout.
func (m Model) do(op string, fn func(ctx context.Context, v *listview.View) error) tea.Cmd {
	return m.doWithin(op, ActionTimeout, fn)
}

// doWithin is do with its own bound. A zero timeout leaves only the console
// context, for actions that wait on the user.
func (m Model) doWithin(op string, timeout time.Duration, fn func(ctx context.Context, v *listview.View) error) tea.Cmd {
	v := m.view
	if v == nil {
		return nil
	}
	parent := m.console.context()
	return func() tea.Msg {
		ctx := parent
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(parent, timeout)
			defer cancel()
		}
		return actionDoneMsg{op: op, err: fn(ctx, v)}
	}
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.modal != nil {
		modal, cmd, closed := m.modal.Update(msg, m.keys)
		if closed {
			m.modal = nil
		} else {
			m.modal = modal
		}
		return m, cmd
	}
	if m.searching {
		return m.handleSearchKey(msg)
	}
	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}

	if s := msg.String(); len(s) == 1 && s[0] >= '1' && s[0] <= '9' {
		if idx := int(s[0] - '1'); idx < len(m.kinds) {
			if idx == m.tab {
				return m, nil
			}
			return m.switchTab(idx)
		}
	}

	d := m.descriptor()
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.console.prefs.Theme = m.theme.Name
		m.console.savePrefs(m.console.prefs)
		return m, nil

	case key.Matches(msg, m.keys.Tab):
		return m.switchTab(m.tab + 1)

	case key.Matches(msg, m.keys.ShiftTab):
		return m.switchTab(m.tab - 1)

	case key.Matches(msg, m.keys.Reload):
		return m, m.do("reload", func(ctx context.Context, v *listview.View) error { return v.Load(ctx) })

	case key.Matches(msg, m.keys.Up):
		m.moveCursor(m.cursor - 1)
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(m.cursor + 1)
	case key.Matches(msg, m.keys.Top):
		m.moveCursor(0)
	case key.Matches(msg, m.keys.Bottom):
		m.moveCursor(len(m.snap.Rows) - 1)

	case key.Matches(msg, m.keys.Search):
		m.searching = true
		m.search.SetValue(m.query.Search())
		m.search.CursorEnd()
		cmd := m.search.Focus()
		return m, cmd

	case key.Matches(msg, m.keys.CycleFilter):
		if len(d.Presets) == 0 {
			return m, nil
		}
		m.presetIdx = (m.presetIdx + 1) % len(d.Presets)
		preset := d.Presets[m.presetIdx]
		return m, m.do("filter", func(ctx context.Context, v *listview.View) error {
			return v.SetFilters(ctx, preset.Filters)
		})

	case key.Matches(msg, m.keys.CycleSort):
		if len(d.Sorts) == 0 {
			return m, nil
		}
		m.sortIdx = (m.sortIdx + 1) % len(d.Sorts)
		next := query.ParseSort(d.Sorts[m.sortIdx])
		return m, m.do("sort", func(ctx context.Context, v *listview.View) error { return v.SetSort(ctx, next) })

	case key.Matches(msg, m.keys.NextPage):
		return m, m.do("next page", func(ctx context.Context, v *listview.View) error { return v.NextPage(ctx) })

	case key.Matches(msg, m.keys.PrevPage):
		return m, m.do("previous page", func(ctx context.Context, v *listview.View) error { return v.PrevPage(ctx) })

	case key.Matches(msg, m.keys.Toggle):
		row, ok := m.selected()
		if !ok || len(d.Toggles) == 0 {
			return m, nil
		}
		field := d.Toggles[0]
		return m, m.do("toggle", func(ctx context.Context, v *listview.View) error { return v.Toggle(ctx, row.ID, field) })

	case key.Matches(msg, m.keys.Delete):
		row, ok := m.selected()
		if !ok {
			return m, nil
		}
		// The confirm wait has its own timeout and the request is bounded by
		// the HTTP client.
		return m, m.doWithin("delete", 0, func(ctx context.Context, v *listview.View) error { return v.Delete(ctx, row.ID) })

	case key.Matches(msg, m.keys.MoveUp), key.Matches(msg, m.keys.MoveDown):
		row, ok := m.selected()
		if !ok {
			return m, nil
		}
		if !d.Reorderable {
			cmd := m.addToast(listview.Notice{Level: listview.Warning, Text: d.Label + " cannot be reordered"})
			return m, cmd
		}
		move := api.Up()
		if key.Matches(msg, m.keys.MoveDown) {
			move = api.Down()
		}
		return m, m.do("reorder", func(ctx context.Context, v *listview.View) error { return v.Reorder(ctx, row.ID, move) })
	}

	return m, nil
}

// handleSearchKey handles keyboard input while the search box has focus.
func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		return m, tea.Quit

	case key.Matches(msg, m.keys.Confirm):
		term := m.search.Value()
		m.searching = false
		m.search.Blur()
		return m, m.do("search", func(ctx context.Context, v *listview.View) error { return v.SetSearch(ctx, term) })

	case key.Matches(msg, m.keys.Escape):
		m.searching = false
		m.search.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

func indexOf(values []string, want string) int {
	for i, v := range values {
		if v == want {
			return i
		}
	}
	return 0
}
