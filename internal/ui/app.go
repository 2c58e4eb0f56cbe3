package ui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/tally/internal/filter"
	"github.com/five82/tally/internal/prefs"
	"github.com/five82/tally/internal/state"
)

// Controller is the view-state API the dashboard drives.
type Controller interface {
	Snapshot() state.Snapshot
	Updates() <-chan struct{}

	SelectExecution(id string)
	AddFilter(f filter.Filter)
	RemoveFilter(id string)
	ReplaceFilters(filters []filter.Filter)
	BeginTagFilter(key string)
	CompleteTagFilter(value string)
	CancelTagFilter()
	SetPickerOpen(open bool)
	SelectResource(name string)
	ClearResource()
	Refresh()
}

// Options configures the UI.
type Options struct {
	Controller Controller
	PollTick   time.Duration
	ThemeName  string
	PrefsPath  string
	// UIURL is shown next to the share query so it can be opened in Finala.
	UIURL string
}

type overlay int

const (
	overlayNone overlay = iota
	overlayHelp
	overlayInput
	overlayPicker
)

const (
	paneSummary = iota
	paneDetail
)

// Model is the root application state for Bubble Tea.
type Model struct {
	ctrl      Controller
	prefsPath string
	pollTick  time.Duration
	uiURL     string

	theme Theme
	keys  keyMap
	help  help.Model
	spin  spinner.Model
	input textinput.Model

	detail      table.Model
	detailIdent string

	width  int
	height int
	ready  bool

	snapshot    state.Snapshot
	lastUpdated time.Time
	cursor      int
	focusedPane int
	overlay     overlay
	picker      picker
	notice      string
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	pollTick := opts.PollTick
	if pollTick <= 0 {
		pollTick = time.Second
	}

	themeName := opts.ThemeName
	if themeName == "" {
		themeName = "Dracula"
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	input := textinput.New()
	input.Prompt = "filters> "
	input.Placeholder = "env:prod,staging;account:1234"
	input.CharLimit = 512

	m := Model{
		ctrl:      opts.Controller,
		prefsPath: prefsPath,
		pollTick:  pollTick,
		uiURL:     opts.UIURL,
		theme:     GetTheme(themeName),
		keys:      DefaultKeyMap(),
		help:      help.New(),
		spin:      spinner.New(spinner.WithSpinner(spinner.Dot)),
		input:     input,
		detail:    table.New(),
	}
	if m.ctrl != nil {
		m.snapshot = m.ctrl.Snapshot()
	}
	m.applyTheme()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(m.pollTick), m.spin.Tick}
	if m.ctrl != nil {
		cmds = append(cmds, waitForUpdate(m.ctrl.Updates()))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.help.Width = msg.Width
		m.input.Width = max(msg.Width-12, 10)
		m.layoutDetail()
		return m, nil

	case updateMsg:
		m.refreshSnapshot()
		return m, waitForUpdate(m.ctrl.Updates())

	case tickMsg:
		m.refreshSnapshot()
		return m, tickCmd(m.pollTick)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	switch m.overlay {
	case overlayHelp:
		return m.renderHelp()
	case overlayPicker:
		return m.renderPicker()
	}
	return m.renderMain()
}

func (m *Model) refreshSnapshot() {
	if m.ctrl == nil {
		return
	}
	m.snapshot = m.ctrl.Snapshot()
	m.lastUpdated = m.snapshot.LastUpdated
	names := m.snapshot.Summary.Names()
	if m.cursor >= len(names) {
		m.cursor = max(len(names)-1, 0)
	}
	if m.snapshot.Resource == "" {
		m.focusedPane = paneSummary
	}
	m.syncDetail()
	if m.overlay == overlayPicker {
		m.picker.refresh(m.snapshot)
	}
}

// handleKey routes keys to the active overlay first, then the global map.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.overlay {
	case overlayHelp:
		m.overlay = overlayNone
		return m, nil
	case overlayInput:
		return m.handleInputKey(msg)
	case overlayPicker:
		return m.handlePickerKey(msg)
	}

	m.notice = ""
	k := m.keys
	switch {
	case key.Matches(msg, k.Quit):
		return m, tea.Quit

	case key.Matches(msg, k.Help):
		m.overlay = overlayHelp
		return m, nil

	case key.Matches(msg, k.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.applyTheme()
		name := m.theme.Name
		if err := prefs.Update(m.prefsPath, func(p *prefs.Prefs) { p.Theme = name }); err != nil {
			m.notice = fmt.Sprintf("Theme not saved: %v", err)
		}
		return m, nil

	case key.Matches(msg, k.Refresh):
		m.ctrl.Refresh()
		m.notice = "Refreshing"
		return m, nil

	case key.Matches(msg, k.Tab):
		if m.snapshot.Resource != "" {
			m.focusedPane = 1 - m.focusedPane
			m.focusDetail()
		}
		return m, nil

	case key.Matches(msg, k.PickExecution):
		return m.openPicker(pickExecution)

	case key.Matches(msg, k.TagFilter):
		return m.openPicker(pickTagKey)

	case key.Matches(msg, k.AccountFilter):
		return m.openPicker(pickAccount)

	case key.Matches(msg, k.FilterInput):
		m.overlay = overlayInput
		m.input.SetValue(filter.FormatTokens(settledFilters(m.snapshot.Filters)))
		m.input.CursorEnd()
		return m, m.input.Focus()

	case key.Matches(msg, k.RemoveFilter):
		settled := settledFilters(m.snapshot.Filters)
		if len(settled) == 0 {
			m.notice = "No filters to remove"
			return m, nil
		}
		m.ctrl.RemoveFilter(settled[len(settled)-1].ID)
		return m, nil

	case key.Matches(msg, k.ClearFilters):
		var keep []filter.Filter
		if m.snapshot.Resource != "" {
			keep = append(keep, filter.Resource(m.snapshot.Resource))
		}
		m.ctrl.ReplaceFilters(keep)
		return m, nil

	case key.Matches(msg, k.ClearResource), key.Matches(msg, k.Escape):
		if m.snapshot.Resource != "" {
			m.ctrl.ClearResource()
			m.focusedPane = paneSummary
			m.focusDetail()
		}
		return m, nil

	case key.Matches(msg, k.Confirm):
		if m.focusedPane == paneSummary {
			if name, ok := m.selectedResource(); ok {
				m.ctrl.SelectResource(name)
			}
		}
		return m, nil
	}

	if m.focusedPane == paneDetail {
		var cmd tea.Cmd
		m.detail, cmd = m.detail.Update(msg)
		return m, cmd
	}
	return m.handleSummaryNav(msg)
}

func (m Model) handleSummaryNav(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	count := len(m.snapshot.Summary)
	if count == 0 {
		return m, nil
	}
	k := m.keys
	switch {
	case key.Matches(msg, k.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, k.Down):
		if m.cursor < count-1 {
			m.cursor++
		}
	case key.Matches(msg, k.Top):
		m.cursor = 0
	case key.Matches(msg, k.Bottom):
		m.cursor = count - 1
	}
	return m, nil
}

func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.overlay = overlayNone
		m.input.Blur()
		return m, nil
	case "enter":
		m.overlay = overlayNone
		m.input.Blur()
		m.applyFilterInput(m.input.Value())
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// applyFilterInput replaces the filter set with the typed tokens. The selected
// resource is kept unless the tokens name another one.
func (m *Model) applyFilterInput(raw string) {
	filters, resource := filter.ParseTokens(raw)
	if resource == "" && m.snapshot.Resource != "" {
		filters = append(filters, filter.Resource(m.snapshot.Resource))
	}
	m.ctrl.ReplaceFilters(filters)
}

func (m Model) selectedResource() (string, bool) {
	names := m.snapshot.Summary.Names()
	if m.cursor < 0 || m.cursor >= len(names) {
		return "", false
	}
	return names[m.cursor], true
}

func (m *Model) applyTheme() {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderForeground(lipgloss.Color(m.theme.Border)).
		Foreground(lipgloss.Color(m.theme.Accent)).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color(m.theme.SelectionText)).
		Background(lipgloss.Color(m.theme.SelectionBg)).
		Bold(false)
	styles.Cell = styles.Cell.Foreground(lipgloss.Color(m.theme.Text))
	m.detail.SetStyles(styles)
	m.spin.Style = m.spin.Style.Foreground(lipgloss.Color(m.theme.Info))
	m.input.PromptStyle = m.input.PromptStyle.Foreground(lipgloss.Color(m.theme.Accent))
}

// settledFilters drops the resource filter.
func settledFilters(filters []filter.Filter) []filter.Filter {
	out := make([]filter.Filter, 0, len(filters))
	for _, f := range filters {
		if f.Type == filter.TypeResource || f.Type == filter.TypeTagIncomplete {
			continue
		}
		out = append(out, f)
	}
	return out
}

// Messages

type updateMsg struct{}

type tickMsg time.Time

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitForUpdate blocks on the controller's coalesced change channel.
func waitForUpdate(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return updateMsg{}
	}
}

// Run starts the Bubble Tea program and blocks until the user quits or ctx
// is cancelled.
func Run(ctx context.Context, opts Options) error {
	if opts.Controller == nil {
		return fmt.Errorf("ui requires a controller")
	}
	p := tea.NewProgram(New(opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
